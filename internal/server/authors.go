package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/libris/internal/result"
	"github.com/lepinkainen/libris/internal/store"
)

type AuthorHandler struct {
	catalog Catalog
	authors AuthorEnricher
}

func NewAuthorHandler(catalog Catalog, authors AuthorEnricher) *AuthorHandler {
	return &AuthorHandler{catalog: catalog, authors: authors}
}

func (h *AuthorHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/authors/:id", h.GetAuthor)
}

// GetAuthor returns the author, enriching it first when its biography or
// photo is still missing.
func (h *AuthorHandler) GetAuthor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	a, err := h.catalog.GetAuthor(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "author not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load author", "id", id, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to load author")
		return
	}

	if h.authors != nil && !a.Complete() {
		if res := h.authors.Enrich(ctx, a); res.Status == result.StatusFailed {
			slog.Error("Author enrichment failed", "id", id, "error", res.Err)
		}
	}
	c.JSON(http.StatusOK, a)
}
