package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workforce-service/internal/middleware"
	"workforce-service/internal/services"
)

// PrivilegeHandler handles HTTP requests for privilege checks and listings
type PrivilegeHandler struct {
	service *services.PrivilegeService
}

// NewPrivilegeHandler creates a new PrivilegeHandler
func NewPrivilegeHandler(service *services.PrivilegeService) *PrivilegeHandler {
	return &PrivilegeHandler{service: service}
}

// privilegeCheckRequest is the wire form of a privilege question
type privilegeCheckRequest struct {
	BranchID           *uuid.UUID `json:"branchId"`
	Area               string     `json:"area" binding:"required"`
	Action             string     `json:"action" binding:"required"`
	TargetType         string     `json:"targetType"`
	TargetID           *uuid.UUID `json:"targetId"`
	AllowAdminOverride bool       `json:"allowAdminOverride"`
}

func (h *PrivilegeHandler) bindCheck(c *gin.Context) (services.Principal, services.PrivilegeCheckInput, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return services.Principal{}, services.PrivilegeCheckInput{}, false
	}

	var req privilegeCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.Principal{}, services.PrivilegeCheckInput{}, false
	}

	branchID := principal.BranchID
	if req.BranchID != nil {
		branchID = req.BranchID
	}
	if branchID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branchId is required"})
		return services.Principal{}, services.PrivilegeCheckInput{}, false
	}
	if !middleware.CheckBranchAccess(c, *branchID) {
		return services.Principal{}, services.PrivilegeCheckInput{}, false
	}

	return principal, services.PrivilegeCheckInput{
		BranchID:           *branchID,
		Area:               req.Area,
		Action:             req.Action,
		TargetType:         req.TargetType,
		TargetID:           req.TargetID,
		AllowAdminOverride: req.AllowAdminOverride,
	}, true
}

// CheckPrivilege answers a privilege question without enforcing it
// @Summary Check a privilege
// @Tags Privileges
// @Accept json
// @Produce json
// @Param request body privilegeCheckRequest true "Privilege question"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/privileges/check [post]
func (h *PrivilegeHandler) CheckPrivilege(c *gin.Context) {
	principal, input, ok := h.bindCheck(c)
	if !ok {
		return
	}

	allowed, err := h.service.HasPrivilege(c.Request.Context(), principal, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed":    allowed,
		"area":       input.Area,
		"action":     input.Action,
		"targetType": input.TargetType,
	})
}

// AssertPrivilege enforces a privilege question, failing with the
// missing-privilege tuple when no effective grant matches
// @Summary Assert a privilege
// @Tags Privileges
// @Accept json
// @Produce json
// @Param request body privilegeCheckRequest true "Privilege question"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/privileges/assert [post]
func (h *PrivilegeHandler) AssertPrivilege(c *gin.Context) {
	principal, input, ok := h.bindCheck(c)
	if !ok {
		return
	}

	if err := h.service.AssertHasPrivilege(c.Request.Context(), principal, input); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": true})
}

// ListMyGrants lists the caller's privilege grants in a branch
// @Summary List my privilege grants
// @Tags Privileges
// @Produce json
// @Param branchId query string false "Branch (defaults to caller's branch)"
// @Param includeInactive query bool false "Include INACTIVE and EXPIRED grants"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/privileges/mine [get]
func (h *PrivilegeHandler) ListMyGrants(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	branchID, ok := middleware.ResolveBranchID(c)
	if !ok {
		return
	}

	includeInactive := c.Query("includeInactive") == "true"

	grants, err := h.service.ListMyGrants(c.Request.Context(), principal, branchID, includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"grants": grants,
		"count":  len(grants),
	})
}
