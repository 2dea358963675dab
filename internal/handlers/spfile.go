package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/services"
)

type SPFileHandler struct {
	log         *logger.Logger
	fileService services.FileService
}

func NewSPFileHandler(log *logger.Logger, fileService services.FileService) *SPFileHandler {
	return &SPFileHandler{
		log:         log.With("handler", "SPFileHandler"),
		fileService: fileService,
	}
}

func fileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", fmt.Errorf("malformed file id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

// POST /rest/soulpatches/:id/spfiles
// Attaches a new empty file; saving content later assigns its role.
func (h *SPFileHandler) Create(c *gin.Context) {
	pid, ok := patchID(c)
	if !ok {
		return
	}
	file, err := h.fileService.CreateFile(c.Request.Context(), pid)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

// GET /rest/soulpatches/:id/spfiles
func (h *SPFileHandler) ListForPatch(c *gin.Context) {
	pid, ok := patchID(c)
	if !ok {
		return
	}
	files, err := h.fileService.ListFiles(c.Request.Context(), pid)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, files)
}

// GET /rest/spfiles/:id
func (h *SPFileHandler) Get(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	file, err := h.fileService.GetFile(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, file)
}

// PUT /rest/spfiles/:id
// Saving re-runs classification; clients cannot pick a role.
func (h *SPFileHandler) Update(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	var input services.FileUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	file, err := h.fileService.UpdateFile(c.Request.Context(), id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, file)
}

// DELETE /rest/spfiles/:id
func (h *SPFileHandler) Delete(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	if err := h.fileService.DeleteFile(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
