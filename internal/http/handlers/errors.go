package handlers

import (
	"net/http"

	"cargobooking/internal/domain"
	"cargobooking/internal/http/middleware"
	"cargobooking/internal/utils"

	"github.com/gin-gonic/gin"
)

// errorBody is the JSON shape of every failed booking API call.
type errorBody struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Code      string            `json:"code"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

var statusByCode = map[string]int{
	domain.CodeValidation: http.StatusBadRequest,
	domain.CodeNotFound:   http.StatusNotFound,
	domain.CodeConflict:   http.StatusConflict,
	domain.CodeForbidden:  http.StatusForbidden,
	domain.CodeInternal:   http.StatusInternalServerError,
}

func writeError(c *gin.Context, status int, code, message string, details map[string]string) {
	if len(details) == 0 {
		details = nil
	}
	c.AbortWithStatusJSON(status, errorBody{
		Error:     message,
		Message:   message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps a service error to its status code. Internal errors
// are logged with their cause and answered with a generic message.
func RespondDomainError(c *gin.Context, err error) {
	code, details := domain.Describe(err)
	if code == domain.CodeInternal {
		utils.Log.WithError(err).WithField("request_id", middleware.GetRequestID(c)).Error("booking request gagal")
		writeError(c, http.StatusInternalServerError, code, "terjadi kesalahan", nil)
		return
	}
	writeError(c, statusByCode[code], code, err.Error(), details)
}
