package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workforce-service/internal/apperrors"
	"workforce-service/internal/repository"
)

// respondError translates service errors into HTTP responses.
// Validation -> 400, Forbidden -> 403, missing privilege -> 403 with the
// privilege tuple, not found -> 404, configuration -> 500. Unknown errors
// are masked as a generic 500.
func respondError(c *gin.Context, err error) {
	if authzErr, ok := apperrors.AsAuthorization(err); ok {
		body := gin.H{
			"error":      authzErr.Message,
			"code":       "MISSING_CLINICAL_PRIVILEGE",
			"area":       authzErr.Area,
			"action":     authzErr.Action,
			"targetType": authzErr.TargetType,
		}
		if authzErr.TargetID != nil {
			body["targetId"] = authzErr.TargetID.String()
		}
		c.JSON(http.StatusForbidden, body)
		return
	}

	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsForbidden(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case apperrors.IsConfiguration(err):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
	}
}
