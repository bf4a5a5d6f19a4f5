package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// StatusOf maps an error's AppError code to an HTTP status.
func StatusOf(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err with the status of its code. Internal errors are
// recorded on the context for the logger and hidden from the client.
func RespondError(c *gin.Context, err error) {
	status := StatusOf(err)
	resp := NewErrorResponse(err.Error())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Field = appErr.Field
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		resp = NewErrorResponse("internal server error")
	}
	c.JSON(status, resp)
}

// BadRequest reports a body or parameter that could not be parsed.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(message))
}
