package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"workforce-service/internal/apperrors"
	"workforce-service/internal/audit"
	"workforce-service/internal/models"
	"workforce-service/internal/repository"
)

const maxReasonLength = 240

// SubmitLeaveInput carries a new leave application
type SubmitLeaveInput struct {
	BranchID  uuid.UUID `json:"branchId" binding:"required"`
	LeaveType string    `json:"leaveType" binding:"required"`
	StartDate string    `json:"startDate" binding:"required"` // YYYY-MM-DD
	EndDate   string    `json:"endDate" binding:"required"`   // YYYY-MM-DD
	Reason    string    `json:"reason"`
}

// StageActionInput carries an approve/reject decision on one stage
type StageActionInput struct {
	Stage    string `json:"stage" binding:"required"`    // RM or HR
	Decision string `json:"decision" binding:"required"` // APPROVE or REJECT
	Note     string `json:"note"`
}

// LeaveListQuery narrows a staff member's own leave listing
type LeaveListQuery struct {
	BranchID *uuid.UUID
	Status   string
	From     string
	To       string
	Limit    int
}

// LeaveService drives the leave request lifecycle: submission with frozen
// routing, the two-stage RM then HR approval sequence, and owner
// cancellation. All transitions are guarded by optimistic locking.
type LeaveService struct {
	repo     repository.LeaveRepositoryInterface
	resolver RoutingResolver
	auditor  audit.Recorder
}

// NewLeaveService creates a new LeaveService
func NewLeaveService(repo repository.LeaveRepositoryInterface, resolver RoutingResolver, auditor audit.Recorder) *LeaveService {
	return &LeaveService{
		repo:     repo,
		resolver: resolver,
		auditor:  auditor,
	}
}

// Submit validates and creates a leave request. The approval chain is
// resolved from the directory here and frozen onto the row; later org
// changes never redirect this request. When the requester heads their own
// department the RM stage is auto-approved with no approver recorded.
func (s *LeaveService) Submit(ctx context.Context, p Principal, input SubmitLeaveInput) (*models.LeaveRequest, error) {
	staffID, err := p.RequireStaff()
	if err != nil {
		return nil, err
	}

	leaveType := strings.TrimSpace(input.LeaveType)
	if leaveType == "" {
		return nil, apperrors.Validation("leaveType is required")
	}
	if err := s.validateLeaveType(ctx, leaveType); err != nil {
		return nil, err
	}

	startDate, err := parseDateOnly(input.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDateOnly(input.EndDate)
	if err != nil {
		return nil, err
	}
	if startDate.After(endDate) {
		return nil, apperrors.Validation("startDate must not be after endDate")
	}

	reason := strings.TrimSpace(input.Reason)
	if runes := []rune(reason); len(runes) > maxReasonLength {
		reason = string(runes[:maxReasonLength])
	}

	routing, err := s.resolver.ResolveRouting(ctx, staffID, input.BranchID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := &models.LeaveRequest{
		ID:        uuid.New(),
		StaffID:   staffID,
		BranchID:  input.BranchID,
		LeaveType: leaveType,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    reason,
		Status:    models.LeaveStatusSubmitted,
		Version:   1,

		ReportingManagerApproval: models.StageApprovalPending,
		HRApproval:               models.StageApprovalPending,
	}
	request.ApplyRouting(*routing)

	if routing.RMStageBypassed {
		// No approver is recorded for a bypassed stage; the approval is
		// structural, not a person's decision.
		request.ReportingManagerApproval = models.StageApprovalApproved
		request.ReportingManagerApprovedAt = &now
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repository.LeaveRepositoryInterface) error {
		existing, err := txRepo.ListActiveRequests(ctx, staffID, input.BranchID)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].Overlaps(startDate, endDate) {
				return apperrors.Validation(
					"requested dates overlap an existing %s leave request (%s to %s)",
					existing[i].Status,
					existing[i].StartDate.Format("2006-01-02"),
					existing[i].EndDate.Format("2006-01-02"),
				)
			}
		}

		if err := txRepo.CreateRequest(ctx, request); err != nil {
			return err
		}

		return txRepo.AppendHistory(ctx, &models.LeaveHistoryEntry{
			RequestID:   request.ID,
			BranchID:    request.BranchID,
			ActorUserID: &p.UserID,
			Action:      models.HistoryLeaveApplied,
			Note:        reason,
			Meta: mustMeta(map[string]interface{}{
				"leaveType":       leaveType,
				"startDate":       startDate.Format("2006-01-02"),
				"endDate":         endDate.Format("2006-01-02"),
				"rmApproverType":  routing.RMApproverType,
				"rmStageBypassed": routing.RMStageBypassed,
			}),
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, audit.Entry{
		BranchID:    request.BranchID,
		ActorUserID: &p.UserID,
		Action:      models.AuditLeaveApplied,
		Entity:      "leave_request",
		EntityID:    &request.ID,
		Meta: map[string]interface{}{
			"leaveType":       leaveType,
			"startDate":       startDate.Format("2006-01-02"),
			"endDate":         endDate.Format("2006-01-02"),
			"rmStageBypassed": routing.RMStageBypassed,
		},
	})

	return request, nil
}

// ActOnStage applies an approve/reject decision to one approval stage.
// Only the exact user frozen into the request's routing may act on a
// stage; the HR stage additionally requires the RM stage to be approved.
func (s *LeaveService) ActOnStage(ctx context.Context, p Principal, requestID uuid.UUID, input StageActionInput) (*models.LeaveRequest, error) {
	if input.Stage != models.StageReportingManager && input.Stage != models.StageHR {
		return nil, apperrors.Validation("unknown approval stage: %s", input.Stage)
	}
	if input.Decision != models.DecisionApprove && input.Decision != models.DecisionReject {
		return nil, apperrors.Validation("unknown decision: %s, expected APPROVE or REJECT", input.Decision)
	}

	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.checkStagePreconditions(request, p, input.Stage); err != nil {
		return nil, err
	}

	stageApproval := models.StageApprovalApproved
	if input.Decision == models.DecisionReject {
		stageApproval = models.StageApprovalRejected
	}
	newStatus := nextStatus(input.Stage, input.Decision)

	var updated *models.LeaveRequest
	err = s.repo.WithTransaction(ctx, func(txRepo repository.LeaveRepositoryInterface) error {
		current, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := s.checkStagePreconditions(current, p, input.Stage); err != nil {
			return err
		}

		err = txRepo.ApplyStageDecision(ctx, current, repository.StageDecisionUpdate{
			Stage:         input.Stage,
			StageApproval: stageApproval,
			DecidedBy:     p.UserID,
			DecidedAt:     time.Now().UTC(),
			NewStatus:     newStatus,
		})
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return apperrors.Validation("%s stage is no longer pending", input.Stage)
			}
			return err
		}
		updated = current

		return txRepo.AppendHistory(ctx, &models.LeaveHistoryEntry{
			RequestID:   current.ID,
			BranchID:    current.BranchID,
			ActorUserID: &p.UserID,
			Action:      historyAction(input.Stage, input.Decision),
			Note:        strings.TrimSpace(input.Note),
			Meta: mustMeta(map[string]interface{}{
				"stage":    input.Stage,
				"decision": input.Decision,
			}),
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, audit.Entry{
		BranchID:    updated.BranchID,
		ActorUserID: &p.UserID,
		Action:      auditAction(input.Stage, input.Decision),
		Entity:      "leave_request",
		EntityID:    &updated.ID,
		Meta: map[string]interface{}{
			"stage":    input.Stage,
			"decision": input.Decision,
			"status":   updated.Status,
		},
	})

	return updated, nil
}

// Cancel withdraws a leave request. Only the owner may cancel, only while
// the request is still SUBMITTED, and never once HR has approved.
func (s *LeaveService) Cancel(ctx context.Context, p Principal, requestID uuid.UUID, note string) (*models.LeaveRequest, error) {
	staffID, err := p.RequireStaff()
	if err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := checkCancellable(request, staffID); err != nil {
		return nil, err
	}

	var updated *models.LeaveRequest
	err = s.repo.WithTransaction(ctx, func(txRepo repository.LeaveRepositoryInterface) error {
		current, err := txRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := checkCancellable(current, staffID); err != nil {
			return err
		}

		err = txRepo.UpdateStatus(ctx, current, models.LeaveStatusCancelled)
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return apperrors.Validation("leave request was modified concurrently, reload and retry")
			}
			return err
		}
		updated = current

		return txRepo.AppendHistory(ctx, &models.LeaveHistoryEntry{
			RequestID:   current.ID,
			BranchID:    current.BranchID,
			ActorUserID: &p.UserID,
			Action:      models.HistoryLeaveCancelled,
			Note:        strings.TrimSpace(note),
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, audit.Entry{
		BranchID:    updated.BranchID,
		ActorUserID: &p.UserID,
		Action:      models.AuditLeaveCancelled,
		Entity:      "leave_request",
		EntityID:    &updated.ID,
	})

	return updated, nil
}

// GetRequest retrieves one leave request visible to the caller: the owner,
// either frozen approver, or a global admin.
func (s *LeaveService) GetRequest(ctx context.Context, p Principal, requestID uuid.UUID) (*models.LeaveRequest, error) {
	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canView(request, p) {
		return nil, apperrors.Forbidden("you do not have access to this leave request")
	}
	return request, nil
}

// GetRequestHistory retrieves the lifecycle history of a request, oldest first
func (s *LeaveService) GetRequestHistory(ctx context.Context, p Principal, requestID uuid.UUID) ([]models.LeaveHistoryEntry, error) {
	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !s.canView(request, p) {
		return nil, apperrors.Forbidden("you do not have access to this leave request")
	}
	return s.repo.GetHistory(ctx, requestID)
}

// ListMyLeaves retrieves the caller's own leave requests
func (s *LeaveService) ListMyLeaves(ctx context.Context, p Principal, query LeaveListQuery) ([]models.LeaveRequest, error) {
	staffID, err := p.RequireStaff()
	if err != nil {
		return nil, err
	}

	filter := repository.LeaveListFilter{
		Status: strings.TrimSpace(query.Status),
		Limit:  query.Limit,
	}
	if query.From != "" {
		from, err := parseDateOnly(query.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := parseDateOnly(query.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	return s.repo.ListByStaff(ctx, staffID, query.BranchID, filter)
}

// ListApprovalInbox retrieves the SUBMITTED requests currently awaiting
// the caller's decision in a branch, optionally narrowed to one stage.
func (s *LeaveService) ListApprovalInbox(ctx context.Context, p Principal, branchID uuid.UUID, stage string, limit int) ([]models.LeaveRequest, error) {
	if stage != "" && stage != models.StageReportingManager && stage != models.StageHR {
		return nil, apperrors.Validation("unknown approval stage: %s", stage)
	}
	return s.repo.ListApproverInbox(ctx, branchID, p.UserID, stage, limit)
}

// ListLeaveTypes retrieves the active leave-type catalog
func (s *LeaveService) ListLeaveTypes(ctx context.Context) ([]models.LeaveType, error) {
	return s.repo.ListActiveLeaveTypes(ctx)
}

// checkStagePreconditions enforces the stage gate rules on the frozen
// routing. Exact user identity is required; role is never consulted.
func (s *LeaveService) checkStagePreconditions(request *models.LeaveRequest, p Principal, stage string) error {
	if request.Status != models.LeaveStatusSubmitted {
		return apperrors.Validation("leave request is in %s state and cannot be acted on", request.Status)
	}

	switch stage {
	case models.StageReportingManager:
		if request.RMApproverUserID == nil || *request.RMApproverUserID != p.UserID {
			return apperrors.Forbidden("you are not the assigned reporting manager approver for this request")
		}
		if request.ReportingManagerApproval != models.StageApprovalPending {
			return apperrors.Validation("RM stage is no longer pending")
		}
	case models.StageHR:
		if request.HRApproverUserID != p.UserID {
			return apperrors.Forbidden("you are not the assigned HR approver for this request")
		}
		if request.ReportingManagerApproval != models.StageApprovalApproved {
			return apperrors.Validation("RM approval is required before the HR stage")
		}
		if request.HRApproval != models.StageApprovalPending {
			return apperrors.Validation("HR stage is no longer pending")
		}
	}
	return nil
}

func (s *LeaveService) canView(request *models.LeaveRequest, p Principal) bool {
	if p.IsGlobalAdmin() {
		return true
	}
	if p.StaffID != nil && *p.StaffID == request.StaffID {
		return true
	}
	if request.RMApproverUserID != nil && *request.RMApproverUserID == p.UserID {
		return true
	}
	return request.HRApproverUserID == p.UserID
}

// validateLeaveType checks the requested type against the active catalog.
// An empty catalog disables validation so deployments without seeded types
// keep working.
func (s *LeaveService) validateLeaveType(ctx context.Context, leaveType string) error {
	types, err := s.repo.ListActiveLeaveTypes(ctx)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		return nil
	}
	for i := range types {
		if types[i].Code == leaveType {
			return nil
		}
	}
	return apperrors.Validation("unknown leave type: %s", leaveType)
}

func (s *LeaveService) audit(ctx context.Context, entry audit.Entry) {
	if s.auditor != nil {
		s.auditor.Log(ctx, entry)
	}
}

func checkCancellable(request *models.LeaveRequest, staffID uuid.UUID) error {
	if request.StaffID != staffID {
		return apperrors.Forbidden("only the requester can cancel a leave request")
	}
	if request.Status != models.LeaveStatusSubmitted {
		return apperrors.Validation("only SUBMITTED leave requests can be cancelled")
	}
	if request.HRApproval == models.StageApprovalApproved {
		return apperrors.Validation("leave request can no longer be cancelled")
	}
	return nil
}

// nextStatus computes the overall status after a stage decision.
// RM approval keeps the request SUBMITTED for the HR stage; any rejection
// is terminal; HR approval is the final approval.
func nextStatus(stage, decision string) string {
	if decision == models.DecisionReject {
		return models.LeaveStatusRejected
	}
	if stage == models.StageHR {
		return models.LeaveStatusApproved
	}
	return models.LeaveStatusSubmitted
}

func historyAction(stage, decision string) string {
	switch {
	case stage == models.StageReportingManager && decision == models.DecisionApprove:
		return models.HistoryRMApproved
	case stage == models.StageReportingManager && decision == models.DecisionReject:
		return models.HistoryRMRejected
	case stage == models.StageHR && decision == models.DecisionApprove:
		return models.HistoryHRApproved
	default:
		return models.HistoryHRRejected
	}
}

func auditAction(stage, decision string) string {
	switch {
	case stage == models.StageReportingManager && decision == models.DecisionApprove:
		return models.AuditLeaveRMApproved
	case stage == models.StageReportingManager && decision == models.DecisionReject:
		return models.AuditLeaveRMRejected
	case stage == models.StageHR && decision == models.DecisionApprove:
		return models.AuditLeaveHRApproved
	default:
		return models.AuditLeaveHRRejected
	}
}

// parseDateOnly parses a YYYY-MM-DD value to UTC midnight
func parseDateOnly(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.Validation("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func mustMeta(m map[string]interface{}) datatypes.JSON {
	raw, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON(fmt.Sprintf(`{"marshalError":%q}`, err.Error()))
	}
	return datatypes.JSON(raw)
}
