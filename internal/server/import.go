package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/libris/internal/importer"
)

// ImportRequest is the body of POST /api/import. Q is an alias for Title.
type ImportRequest struct {
	ISBN   string `json:"isbn" binding:"omitempty,max=32"`
	Title  string `json:"title" binding:"omitempty,max=300"`
	Q      string `json:"q" binding:"omitempty,max=300"`
	Offset int    `json:"offset" binding:"omitempty,min=0,max=1000"`
}

type ImportHandler struct {
	importer Importer
}

func NewImportHandler(imp Importer) *ImportHandler {
	return &ImportHandler{importer: imp}
}

func (h *ImportHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/import", h.Import)
}

// Import answers 201 with a book for ISBN queries and a list for title
// queries. ISBN wins when both are present.
func (h *ImportHandler) Import(c *gin.Context) {
	var req ImportRequest
	if !bindJSON(c, &req) {
		return
	}

	isbn := strings.TrimSpace(req.ISBN)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(req.Q)
	}

	ctx := c.Request.Context()
	switch {
	case isbn != "":
		book, err := h.importer.ImportByISBN(ctx, isbn)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, book)
	case title != "":
		books, err := h.importer.ImportByTitle(ctx, title, req.Offset)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, books)
	default:
		writeError(c, http.StatusBadRequest, "isbn or title is required")
	}
}

func (h *ImportHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importer.ErrNotFound):
		writeError(c, http.StatusNotFound, "no results")
	case errors.Is(err, importer.ErrBadRequest):
		writeError(c, http.StatusBadRequest, importer.ErrBadRequest.Error())
	default:
		slog.Error("Import failed", "error", err)
		writeError(c, http.StatusInternalServerError, "import failed")
	}
}
