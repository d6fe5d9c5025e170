package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ResolveBranchID returns the branch a request operates in: an explicit
// branchId query parameter when present, otherwise the principal's home
// branch. Non-admin callers may only address their own branch.
func ResolveBranchID(c *gin.Context) (uuid.UUID, bool) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}

	if raw := c.Query("branchId"); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branchId"})
			return uuid.Nil, false
		}
		if !principal.IsGlobalAdmin() && (principal.BranchID == nil || *principal.BranchID != branchID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "You cannot act outside your own branch"})
			return uuid.Nil, false
		}
		return branchID, true
	}

	if principal.BranchID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branchId is required"})
		return uuid.Nil, false
	}
	return *principal.BranchID, true
}

// CheckBranchAccess verifies a caller may act in the given branch
func CheckBranchAccess(c *gin.Context, branchID uuid.UUID) bool {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return false
	}
	if principal.IsGlobalAdmin() {
		return true
	}
	if principal.BranchID == nil || *principal.BranchID != branchID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot act outside your own branch"})
		return false
	}
	return true
}
