package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/services"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type PatchHandler struct {
	log           *logger.Logger
	patchService  services.PatchService
	ratingService services.RatingService
	exportService services.ExportService
}

func NewPatchHandler(
	log *logger.Logger,
	patchService services.PatchService,
	ratingService services.RatingService,
	exportService services.ExportService,
) *PatchHandler {
	return &PatchHandler{
		log:           log.With("handler", "PatchHandler"),
		patchService:  patchService,
		ratingService: ratingService,
		exportService: exportService,
	}
}

func patchID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", fmt.Errorf("malformed patch id %q", c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}

// GET /rest/soulpatches
func (h *PatchHandler) List(c *gin.Context) {
	patches, err := h.patchService.ListPatches(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, patches)
}

// POST /rest/soulpatches
// Creates a patch with the placeholder name for the given author.
func (h *PatchHandler) Create(c *gin.Context) {
	var body struct {
		AuthorID uuid.UUID `json:"author_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	patch, err := h.patchService.CreatePatch(c.Request.Context(), body.AuthorID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, patch)
}

// GET /rest/soulpatches/:id
func (h *PatchHandler) Get(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	patch, err := h.patchService.GetPatch(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, patch)
}

// PUT /rest/soulpatches/:id
func (h *PatchHandler) Update(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	var input services.PatchUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	patch, err := h.patchService.UpdatePatch(c.Request.Context(), id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, patch)
}

// DELETE /rest/soulpatches/:id
func (h *PatchHandler) Delete(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	if err := h.patchService.DeletePatch(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /rest/soulpatches/:id/views
func (h *PatchHandler) IncrementViews(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	patch, err := h.patchService.IncrementViews(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, patch)
}

// POST /rest/soulpatches/:id/rating
func (h *PatchHandler) Rate(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	var body struct {
		UserID uuid.UUID `json:"user_id"`
		Stars  int       `json:"stars"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	patch, err := h.ratingService.Rate(c.Request.Context(), id, body.UserID, body.Stars)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, ratedPatchResponse(patch))
}

// GET /rest/soulpatches/:id/rating
func (h *PatchHandler) AverageRating(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	avg, rated, err := h.ratingService.AverageRating(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	resp := gin.H{"patch_id": id, "average": nil}
	if rated {
		resp["average"] = avg
	}
	RespondOK(c, resp)
}

// GET /rest/soulpatches/:id/xml
func (h *PatchHandler) ExportXML(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	raw, err := h.exportService.ExportXML(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", raw)
}

// GET /rest/soulpatches/xml
func (h *PatchHandler) ExportAllXML(c *gin.Context) {
	raw, err := h.exportService.ExportAllXML(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", raw)
}

// GET /rest/soulpatches/:id/zip
func (h *PatchHandler) ExportZip(c *gin.Context) {
	id, ok := patchID(c)
	if !ok {
		return
	}
	data, err := h.exportService.ExportZip(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="soulpatch-%s.zip"`, id))
	c.Data(http.StatusOK, "application/zip", data)
}

// GET /rest/soulpatches/filter?pattern=
func (h *PatchHandler) FilterByPattern(c *gin.Context) {
	pattern := c.Query("pattern")
	patches, err := h.patchService.FilterByPattern(c.Request.Context(), pattern)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if patches == nil {
		patches = []*types.Patch{}
	}
	RespondOK(c, patches)
}

// ratedPatchResponse augments the patch payload with its average so a
// client does not need a second round trip after rating.
func ratedPatchResponse(patch *types.Patch) gin.H {
	resp := gin.H{"patch": patch, "average": nil}
	if avg, rated := patch.AverageRating(); rated {
		resp["average"] = avg
	}
	return resp
}
