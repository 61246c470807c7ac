package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type BookHandler struct {
	catalog Catalog
}

func NewBookHandler(catalog Catalog) *BookHandler {
	return &BookHandler{catalog: catalog}
}

func (h *BookHandler) RegisterRoutes(r *gin.RouterGroup) {
	books := r.Group("/books")
	{
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBook)
	}
}

func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	book, err := h.catalog.GetBook(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(c, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load book", "id", id, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to load book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) ListBooks(c *gin.Context) {
	limit := parseIntQuery(c, "limit", defaultPageSize)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	books, err := h.catalog.ListBooks(c.Request.Context(), limit, offset)
	if err != nil {
		slog.Error("Failed to list books", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to list books")
		return
	}
	if books == nil {
		books = []*model.Book{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":   books,
		"limit":  limit,
		"offset": offset,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, key string, def int) int {
	if s := c.Query(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}
