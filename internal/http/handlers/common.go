package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondError answers a transport-level failure (bad body, bad query) that
// never reached a service. The cause, when given, goes into details.
func RespondError(c *gin.Context, status int, message string, err error) {
	code := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	var details map[string]string
	if err != nil {
		details = map[string]string{"cause": err.Error()}
	}
	writeError(c, status, code, message, details)
}

// BindJSONOrError decodes a JSON body into dst, answering 400 on an empty or
// malformed body.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		RespondError(c, http.StatusBadRequest, "body kosong", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			RespondError(c, http.StatusBadRequest, "body kosong", nil)
			return false
		}
		RespondError(c, http.StatusBadRequest, "payload tidak valid", err)
		return false
	}
	return true
}
