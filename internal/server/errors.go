package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

// bindJSON decodes and validates the request body, answering 400 itself
// when that fails.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			name := jsonFieldName(fe.Field())
			fields = append(fields, FieldError{
				Field:   name,
				Rule:    fe.Tag(),
				Message: name + " is invalid (" + fe.Tag() + ")",
			})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Detail: "validation failed", Errors: fields})
		return false
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Detail: "invalid request body",
		Errors: []FieldError{{Rule: "syntax", Message: err.Error()}},
	})
	return false
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
