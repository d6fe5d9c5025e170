package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workforce-service/internal/middleware"
	"workforce-service/internal/services"
)

// LeaveHandler handles HTTP requests for the leave workflow
type LeaveHandler struct {
	service *services.LeaveService
}

// NewLeaveHandler creates a new LeaveHandler
func NewLeaveHandler(service *services.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: service}
}

// SubmitLeave submits a new leave request
// @Summary Submit a leave request
// @Tags Leaves
// @Accept json
// @Produce json
// @Param request body services.SubmitLeaveInput true "Leave application"
// @Success 201 {object} models.LeaveRequest
// @Router /api/v1/leaves [post]
func (h *LeaveHandler) SubmitLeave(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input services.SubmitLeaveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !middleware.CheckBranchAccess(c, input.BranchID) {
		return
	}

	request, err := h.service.Submit(c.Request.Context(), principal, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// GetLeave retrieves a leave request by ID
// @Summary Get a leave request
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} models.LeaveRequest
// @Router /api/v1/leaves/{id} [get]
func (h *LeaveHandler) GetLeave(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leave request id"})
		return
	}

	request, err := h.service.GetRequest(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListMyLeaves lists the caller's own leave requests
// @Summary List my leave requests
// @Tags Leaves
// @Produce json
// @Param branchId query string false "Branch filter"
// @Param status query string false "Status filter (SUBMITTED, APPROVED, REJECTED, CANCELLED)"
// @Param from query string false "Earliest start date (YYYY-MM-DD)"
// @Param to query string false "Latest end date (YYYY-MM-DD)"
// @Param limit query int false "Limit" default(50)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/leaves [get]
func (h *LeaveHandler) ListMyLeaves(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	query := services.LeaveListQuery{
		Status: c.Query("status"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	if raw := c.Query("branchId"); raw != "" {
		branchID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branchId"})
			return
		}
		query.BranchID = &branchID
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			query.Limit = limit
		}
	}

	requests, err := h.service.ListMyLeaves(c.Request.Context(), principal, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaves": requests,
		"count":  len(requests),
	})
}

// ListApprovalInbox lists requests awaiting the caller's decision
// @Summary List leave requests awaiting my approval
// @Tags Leaves
// @Produce json
// @Param branchId query string false "Branch (defaults to caller's branch)"
// @Param stage query string false "Stage filter (RM or HR)"
// @Param limit query int false "Limit" default(50)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/leaves/inbox [get]
func (h *LeaveHandler) ListApprovalInbox(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	branchID, ok := middleware.ResolveBranchID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	requests, err := h.service.ListApprovalInbox(c.Request.Context(), principal, branchID, c.Query("stage"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaves": requests,
		"count":  len(requests),
	})
}

// ActOnLeave applies an approve/reject decision to one approval stage
// @Summary Approve or reject a leave request stage
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param request body services.StageActionInput true "Stage decision"
// @Success 200 {object} models.LeaveRequest
// @Router /api/v1/leaves/{id}/action [post]
func (h *LeaveHandler) ActOnLeave(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leave request id"})
		return
	}

	var input services.StageActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.service.ActOnStage(c.Request.Context(), principal, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// CancelLeave cancels the caller's own pending leave request
// @Summary Cancel my leave request
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} models.LeaveRequest
// @Router /api/v1/leaves/{id} [delete]
func (h *LeaveHandler) CancelLeave(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leave request id"})
		return
	}

	request, err := h.service.Cancel(c.Request.Context(), principal, id, c.Query("note"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// GetLeaveHistory retrieves the lifecycle history of a leave request
// @Summary Get leave request history
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/leaves/{id}/history [get]
func (h *LeaveHandler) GetLeaveHistory(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leave request id"})
		return
	}

	entries, err := h.service.GetRequestHistory(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": entries,
		"count":   len(entries),
	})
}

// ListLeaveTypes lists the active leave-type catalog
// @Summary List leave types
// @Tags Leaves
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/leave-types [get]
func (h *LeaveHandler) ListLeaveTypes(c *gin.Context) {
	types, err := h.service.ListLeaveTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaveTypes": types,
		"count":      len(types),
	})
}
