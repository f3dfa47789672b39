package api

import (
	"alcyxob/coach-app/internal/service"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

var kindStatus = map[service.Kind]int{
	service.KindUnauthorized: http.StatusUnauthorized,
	service.KindForbidden:    http.StatusForbidden,
	service.KindNotFound:     http.StatusNotFound,
	service.KindValidation:   http.StatusBadRequest,
	service.KindConflict:     http.StatusConflict,
	service.KindInternal:     http.StatusInternalServerError,
}

// respondWithServiceError maps a service failure onto its HTTP status and
// the structured error body. Internal errors are logged and their message
// withheld from the caller.
func respondWithServiceError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "An unexpected error occurred",
			"kind":  service.KindInternal,
		})
		return
	}

	body := gin.H{"error": svcErr.Message, "kind": svcErr.Kind}
	if svcErr.ActiveAssignments > 0 {
		body["activeAssignments"] = svcErr.ActiveAssignments
	}
	status, ok := kindStatus[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, body)
}
