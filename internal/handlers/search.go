package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/services"
	"github.com/soulhub/soulhub-backend/internal/types"
)

type SearchHandler struct {
	log           *logger.Logger
	searchService services.SearchService
}

func NewSearchHandler(log *logger.Logger, searchService services.SearchService) *SearchHandler {
	return &SearchHandler{
		log:           log.With("handler", "SearchHandler"),
		searchService: searchService,
	}
}

// GET /rest/search?q=
func (h *SearchHandler) SearchPatches(c *gin.Context) {
	query := c.Query("q")
	patches, err := h.searchService.SearchPatches(c.Request.Context(), query)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if patches == nil {
		patches = []*types.Patch{}
	}
	RespondOK(c, patches)
}

// GET /rest/search/spfiles?q=
func (h *SearchHandler) SearchFiles(c *gin.Context) {
	query := c.Query("q")
	files, err := h.searchService.SearchFiles(c.Request.Context(), query)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if files == nil {
		files = []*types.PatchFile{}
	}
	RespondOK(c, files)
}

// POST /rest/admin/reindex
// Administrative repair: coalesces with a rebuild already in flight.
// The surrounding system restricts who may call this; we do not.
func (h *SearchHandler) TriggerReindex(c *gin.Context) {
	if err := h.searchService.TriggerReindex(c.Request.Context()); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": h.searchService.IndexState()})
}
