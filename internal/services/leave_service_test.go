package services

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"workforce-service/internal/apperrors"
	"workforce-service/internal/audit"
	"workforce-service/internal/models"
	"workforce-service/internal/repository"
)

// MockLeaveRepository is a mock implementation of LeaveRepositoryInterface
type MockLeaveRepository struct {
	mock.Mock
}

// Ensure MockLeaveRepository implements the interface
var _ repository.LeaveRepositoryInterface = (*MockLeaveRepository)(nil)

// WithTransaction executes the callback with the mock itself, simulating a transaction
func (m *MockLeaveRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.LeaveRepositoryInterface) error) error {
	return fn(m)
}

func (m *MockLeaveRepository) CreateRequest(ctx context.Context, request *models.LeaveRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockLeaveRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.LeaveRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) ListActiveRequests(ctx context.Context, staffID, branchID uuid.UUID) ([]models.LeaveRequest, error) {
	args := m.Called(ctx, staffID, branchID)
	return args.Get(0).([]models.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) ListByStaff(ctx context.Context, staffID uuid.UUID, branchID *uuid.UUID, filter repository.LeaveListFilter) ([]models.LeaveRequest, error) {
	args := m.Called(ctx, staffID, branchID, filter)
	return args.Get(0).([]models.LeaveRequest), args.Error(1)
}

func (m *MockLeaveRepository) ListApproverInbox(ctx context.Context, branchID, approverUserID uuid.UUID, stage string, limit int) ([]models.LeaveRequest, error) {
	args := m.Called(ctx, branchID, approverUserID, stage, limit)
	return args.Get(0).([]models.LeaveRequest), args.Error(1)
}

// ApplyStageDecision mutates the request like the real repository when no
// error is configured
func (m *MockLeaveRepository) ApplyStageDecision(ctx context.Context, request *models.LeaveRequest, update repository.StageDecisionUpdate) error {
	args := m.Called(ctx, request, update)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	switch update.Stage {
	case models.StageReportingManager:
		request.ReportingManagerApproval = update.StageApproval
		request.ReportingManagerApprovedBy = &update.DecidedBy
		request.ReportingManagerApprovedAt = &update.DecidedAt
	case models.StageHR:
		request.HRApproval = update.StageApproval
		request.HRApprovedBy = &update.DecidedBy
		request.HRApprovedAt = &update.DecidedAt
	}
	request.Status = update.NewStatus
	request.Version++
	return nil
}

func (m *MockLeaveRepository) UpdateStatus(ctx context.Context, request *models.LeaveRequest, newStatus string) error {
	args := m.Called(ctx, request, newStatus)
	if args.Error(0) == nil {
		request.Status = newStatus
		request.Version++
	}
	return args.Error(0)
}

func (m *MockLeaveRepository) AppendHistory(ctx context.Context, entry *models.LeaveHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLeaveRepository) GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.LeaveHistoryEntry, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]models.LeaveHistoryEntry), args.Error(1)
}

func (m *MockLeaveRepository) ListActiveLeaveTypes(ctx context.Context) ([]models.LeaveType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.LeaveType), args.Error(1)
}

// stubResolver returns a fixed routing decision
type stubResolver struct {
	decision *models.RoutingDecision
	err      error
}

func (s *stubResolver) ResolveRouting(ctx context.Context, staffID, branchID uuid.UUID) (*models.RoutingDecision, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.decision, nil
}

// recordingAuditor collects audit entries for assertions
type recordingAuditor struct {
	entries []audit.Entry
}

func (r *recordingAuditor) Log(ctx context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

func defaultRouting() *models.RoutingDecision {
	rmApprover := uuid.New()
	return &models.RoutingDecision{
		RMApproverUserID: &rmApprover,
		RMApproverType:   models.ApproverTypeHOD,
		HRApproverUserID: uuid.New(),
		HRApproverType:   models.ApproverTypeSuperAdmin,
		ResolvedAt:       time.Now().UTC(),
	}
}

func staffPrincipal() (Principal, uuid.UUID) {
	staffID := uuid.New()
	return Principal{
		UserID:  uuid.New(),
		StaffID: &staffID,
		Role:    models.RoleStaff,
	}, staffID
}

func casualLeaveTypes() []models.LeaveType {
	return []models.LeaveType{
		{Code: "CASUAL", Name: "Casual Leave", IsActive: true},
		{Code: "SICK", Name: "Sick Leave", IsActive: true},
	}
}

func TestSubmit_Success(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	auditor := &recordingAuditor{}
	routing := defaultRouting()
	service := NewLeaveService(mockRepo, &stubResolver{decision: routing}, auditor)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	branchID := uuid.New()

	mockRepo.On("ListActiveLeaveTypes", ctx).Return(casualLeaveTypes(), nil)
	mockRepo.On("ListActiveRequests", ctx, staffID, branchID).Return([]models.LeaveRequest{}, nil)
	mockRepo.On("CreateRequest", ctx, mock.AnythingOfType("*models.LeaveRequest")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	request, err := service.Submit(ctx, principal, SubmitLeaveInput{
		BranchID:  branchID,
		LeaveType: "CASUAL",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-09",
		Reason:    "family function",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.LeaveStatusSubmitted, request.Status)
	assert.Equal(t, models.StageApprovalPending, request.ReportingManagerApproval)
	assert.Equal(t, models.StageApprovalPending, request.HRApproval)
	assert.Equal(t, *routing.RMApproverUserID, *request.RMApproverUserID)
	assert.Equal(t, routing.HRApproverUserID, request.HRApproverUserID)
	assert.Equal(t, 1, request.Version)
	assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), request.StartDate)
	assert.Len(t, auditor.entries, 1)
	assert.Equal(t, models.AuditLeaveApplied, auditor.entries[0].Action)
	mockRepo.AssertExpectations(t)
}

func TestSubmit_HeadOfDepartmentBypassesRMStage(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	routing := &models.RoutingDecision{
		RMApproverType:   models.ApproverTypeNone,
		RMStageBypassed:  true,
		HRApproverUserID: uuid.New(),
		HRApproverType:   models.ApproverTypeSuperAdmin,
		ResolvedAt:       time.Now().UTC(),
	}
	service := NewLeaveService(mockRepo, &stubResolver{decision: routing}, nil)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	branchID := uuid.New()

	mockRepo.On("ListActiveLeaveTypes", ctx).Return(casualLeaveTypes(), nil)
	mockRepo.On("ListActiveRequests", ctx, staffID, branchID).Return([]models.LeaveRequest{}, nil)
	mockRepo.On("CreateRequest", ctx, mock.AnythingOfType("*models.LeaveRequest")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	request, err := service.Submit(ctx, principal, SubmitLeaveInput{
		BranchID:  branchID,
		LeaveType: "SICK",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-07",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StageApprovalApproved, request.ReportingManagerApproval)
	// Structural approval records no approver identity
	assert.Nil(t, request.ReportingManagerApprovedBy)
	assert.NotNil(t, request.ReportingManagerApprovedAt)
	assert.True(t, request.RMStageBypassed)
	assert.Equal(t, models.StageApprovalPending, request.HRApproval)
}

func TestSubmit_OverlapRejected(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{decision: defaultRouting()}, nil)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	branchID := uuid.New()

	existing := models.LeaveRequest{
		StaffID:   staffID,
		BranchID:  branchID,
		Status:    models.LeaveStatusApproved,
		StartDate: time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
	}

	mockRepo.On("ListActiveLeaveTypes", ctx).Return(casualLeaveTypes(), nil)
	mockRepo.On("ListActiveRequests", ctx, staffID, branchID).Return([]models.LeaveRequest{existing}, nil)

	// New range ends on the existing range's first day: still an overlap
	request, err := service.Submit(ctx, principal, SubmitLeaveInput{
		BranchID:  branchID,
		LeaveType: "CASUAL",
		StartDate: "2026-09-05",
		EndDate:   "2026-09-08",
	})

	assert.Nil(t, request)
	assert.True(t, apperrors.IsValidation(err))
	mockRepo.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
}

func TestSubmit_InvalidInput(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{decision: defaultRouting()}, nil)
	ctx := context.Background()

	principal, _ := staffPrincipal()
	branchID := uuid.New()

	mockRepo.On("ListActiveLeaveTypes", ctx).Return(casualLeaveTypes(), nil)

	cases := []struct {
		name  string
		input SubmitLeaveInput
	}{
		{"missing leave type", SubmitLeaveInput{BranchID: branchID, StartDate: "2026-09-07", EndDate: "2026-09-08"}},
		{"unknown leave type", SubmitLeaveInput{BranchID: branchID, LeaveType: "SABBATICAL", StartDate: "2026-09-07", EndDate: "2026-09-08"}},
		{"malformed date", SubmitLeaveInput{BranchID: branchID, LeaveType: "CASUAL", StartDate: "07-09-2026", EndDate: "2026-09-08"}},
		{"start after end", SubmitLeaveInput{BranchID: branchID, LeaveType: "CASUAL", StartDate: "2026-09-09", EndDate: "2026-09-08"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request, err := service.Submit(ctx, principal, tc.input)
			assert.Nil(t, request)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestSubmit_NoStaffProfileIsForbidden(t *testing.T) {
	service := NewLeaveService(new(MockLeaveRepository), &stubResolver{decision: defaultRouting()}, nil)

	principal := Principal{UserID: uuid.New(), Role: models.RoleStaff}

	request, err := service.Submit(context.Background(), principal, SubmitLeaveInput{
		BranchID:  uuid.New(),
		LeaveType: "CASUAL",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-08",
	})

	assert.Nil(t, request)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestSubmit_ReasonTruncated(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{decision: defaultRouting()}, nil)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	branchID := uuid.New()

	mockRepo.On("ListActiveLeaveTypes", ctx).Return(casualLeaveTypes(), nil)
	mockRepo.On("ListActiveRequests", ctx, staffID, branchID).Return([]models.LeaveRequest{}, nil)
	mockRepo.On("CreateRequest", ctx, mock.AnythingOfType("*models.LeaveRequest")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	request, err := service.Submit(ctx, principal, SubmitLeaveInput{
		BranchID:  branchID,
		LeaveType: "CASUAL",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-08",
		Reason:    strings.Repeat("x", 500),
	})

	assert.NoError(t, err)
	assert.Len(t, request.Reason, 240)
}

func TestSubmit_ReasonTruncationPreservesRunes(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{decision: defaultRouting()}, nil)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	branchID := uuid.New()

	mockRepo.On("ListActiveLeaveTypes", ctx).Return(casualLeaveTypes(), nil)
	mockRepo.On("ListActiveRequests", ctx, staffID, branchID).Return([]models.LeaveRequest{}, nil)
	mockRepo.On("CreateRequest", ctx, mock.AnythingOfType("*models.LeaveRequest")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	request, err := service.Submit(ctx, principal, SubmitLeaveInput{
		BranchID:  branchID,
		LeaveType: "CASUAL",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-08",
		Reason:    strings.Repeat("自", 300),
	})

	assert.NoError(t, err)
	assert.Equal(t, 240, utf8.RuneCountInString(request.Reason))
	assert.True(t, utf8.ValidString(request.Reason))
}

func submittedRequest(staffID, branchID uuid.UUID, routing *models.RoutingDecision) *models.LeaveRequest {
	request := &models.LeaveRequest{
		ID:        uuid.New(),
		StaffID:   staffID,
		BranchID:  branchID,
		LeaveType: "CASUAL",
		StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		Status:    models.LeaveStatusSubmitted,
		Version:   1,

		ReportingManagerApproval: models.StageApprovalPending,
		HRApproval:               models.StageApprovalPending,
	}
	request.ApplyRouting(*routing)
	return request
}

func TestActOnStage_RMApproveKeepsRequestSubmitted(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	auditor := &recordingAuditor{}
	service := NewLeaveService(mockRepo, &stubResolver{}, auditor)
	ctx := context.Background()

	routing := defaultRouting()
	request := submittedRequest(uuid.New(), uuid.New(), routing)
	approver := Principal{UserID: *routing.RMApproverUserID, Role: models.RoleStaff}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("ApplyStageDecision", ctx, request, mock.AnythingOfType("repository.StageDecisionUpdate")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	updated, err := service.ActOnStage(ctx, approver, request.ID, StageActionInput{
		Stage:    models.StageReportingManager,
		Decision: models.DecisionApprove,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.LeaveStatusSubmitted, updated.Status)
	assert.Equal(t, models.StageApprovalApproved, updated.ReportingManagerApproval)
	assert.Equal(t, approver.UserID, *updated.ReportingManagerApprovedBy)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, auditor.entries, 1)
	assert.Equal(t, models.AuditLeaveRMApproved, auditor.entries[0].Action)
}

func TestActOnStage_HRApproveFinalizes(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	routing := defaultRouting()
	request := submittedRequest(uuid.New(), uuid.New(), routing)
	request.ReportingManagerApproval = models.StageApprovalApproved
	hrApprover := Principal{UserID: routing.HRApproverUserID, Role: models.RoleSuperAdmin}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("ApplyStageDecision", ctx, request, mock.AnythingOfType("repository.StageDecisionUpdate")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	updated, err := service.ActOnStage(ctx, hrApprover, request.ID, StageActionInput{
		Stage:    models.StageHR,
		Decision: models.DecisionApprove,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, updated.Status)
	assert.Equal(t, models.StageApprovalApproved, updated.HRApproval)
}

func TestActOnStage_RejectIsTerminal(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	routing := defaultRouting()
	request := submittedRequest(uuid.New(), uuid.New(), routing)
	approver := Principal{UserID: *routing.RMApproverUserID, Role: models.RoleStaff}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("ApplyStageDecision", ctx, request, mock.AnythingOfType("repository.StageDecisionUpdate")).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	updated, err := service.ActOnStage(ctx, approver, request.ID, StageActionInput{
		Stage:    models.StageReportingManager,
		Decision: models.DecisionReject,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.LeaveStatusRejected, updated.Status)
	assert.True(t, updated.IsTerminal())
}

func TestActOnStage_WrongApproverForbidden(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	request := submittedRequest(uuid.New(), uuid.New(), defaultRouting())
	stranger := Principal{UserID: uuid.New(), Role: models.RoleBranchAdmin}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	for _, stage := range []string{models.StageReportingManager, models.StageHR} {
		updated, err := service.ActOnStage(ctx, stranger, request.ID, StageActionInput{
			Stage:    stage,
			Decision: models.DecisionApprove,
		})
		assert.Nil(t, updated)
		assert.True(t, apperrors.IsForbidden(err))
	}
	mockRepo.AssertNotCalled(t, "ApplyStageDecision", mock.Anything, mock.Anything, mock.Anything)
}

func TestActOnStage_HRRequiresRMApproval(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	routing := defaultRouting()
	request := submittedRequest(uuid.New(), uuid.New(), routing)
	hrApprover := Principal{UserID: routing.HRApproverUserID, Role: models.RoleSuperAdmin}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	updated, err := service.ActOnStage(ctx, hrApprover, request.ID, StageActionInput{
		Stage:    models.StageHR,
		Decision: models.DecisionApprove,
	})

	assert.Nil(t, updated)
	assert.True(t, apperrors.IsValidation(err))
}

func TestActOnStage_TerminalRequestRejected(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	routing := defaultRouting()
	request := submittedRequest(uuid.New(), uuid.New(), routing)
	request.Status = models.LeaveStatusCancelled
	approver := Principal{UserID: *routing.RMApproverUserID, Role: models.RoleStaff}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	updated, err := service.ActOnStage(ctx, approver, request.ID, StageActionInput{
		Stage:    models.StageReportingManager,
		Decision: models.DecisionApprove,
	})

	assert.Nil(t, updated)
	assert.True(t, apperrors.IsValidation(err))
}

func TestActOnStage_VersionConflictSurfacesAsValidation(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	routing := defaultRouting()
	request := submittedRequest(uuid.New(), uuid.New(), routing)
	approver := Principal{UserID: *routing.RMApproverUserID, Role: models.RoleStaff}

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("ApplyStageDecision", ctx, request, mock.AnythingOfType("repository.StageDecisionUpdate")).
		Return(repository.ErrVersionConflict)

	updated, err := service.ActOnStage(ctx, approver, request.ID, StageActionInput{
		Stage:    models.StageReportingManager,
		Decision: models.DecisionApprove,
	})

	assert.Nil(t, updated)
	assert.True(t, apperrors.IsValidation(err))
}

func TestActOnStage_UnknownStageOrDecision(t *testing.T) {
	service := NewLeaveService(new(MockLeaveRepository), &stubResolver{}, nil)
	ctx := context.Background()
	principal := Principal{UserID: uuid.New()}

	_, err := service.ActOnStage(ctx, principal, uuid.New(), StageActionInput{Stage: "FINANCE", Decision: models.DecisionApprove})
	assert.True(t, apperrors.IsValidation(err))

	_, err = service.ActOnStage(ctx, principal, uuid.New(), StageActionInput{Stage: models.StageHR, Decision: "MAYBE"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestCancel_Success(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	auditor := &recordingAuditor{}
	service := NewLeaveService(mockRepo, &stubResolver{}, auditor)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	request := submittedRequest(staffID, uuid.New(), defaultRouting())

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)
	mockRepo.On("UpdateStatus", ctx, request, models.LeaveStatusCancelled).Return(nil)
	mockRepo.On("AppendHistory", ctx, mock.AnythingOfType("*models.LeaveHistoryEntry")).Return(nil)

	updated, err := service.Cancel(ctx, principal, request.ID, "plans changed")

	assert.NoError(t, err)
	assert.Equal(t, models.LeaveStatusCancelled, updated.Status)
	assert.Len(t, auditor.entries, 1)
	assert.Equal(t, models.AuditLeaveCancelled, auditor.entries[0].Action)
}

func TestCancel_OnlyOwnerMayCancel(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	principal, _ := staffPrincipal()
	request := submittedRequest(uuid.New(), uuid.New(), defaultRouting())

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	updated, err := service.Cancel(ctx, principal, request.ID, "")

	assert.Nil(t, updated)
	assert.True(t, apperrors.IsForbidden(err))
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_TerminalRequestRejected(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	request := submittedRequest(staffID, uuid.New(), defaultRouting())
	request.Status = models.LeaveStatusApproved
	request.HRApproval = models.StageApprovalApproved

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	updated, err := service.Cancel(ctx, principal, request.ID, "")

	assert.Nil(t, updated)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCancel_BlockedOnceHRApproved(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	principal, staffID := staffPrincipal()
	request := submittedRequest(staffID, uuid.New(), defaultRouting())
	request.ReportingManagerApproval = models.StageApprovalApproved
	request.HRApproval = models.StageApprovalApproved

	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	updated, err := service.Cancel(ctx, principal, request.ID, "")

	assert.Nil(t, updated)
	assert.True(t, apperrors.IsValidation(err))
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestListApprovalInbox_RejectsUnknownStage(t *testing.T) {
	service := NewLeaveService(new(MockLeaveRepository), &stubResolver{}, nil)

	_, err := service.ListApprovalInbox(context.Background(), Principal{UserID: uuid.New()}, uuid.New(), "FINANCE", 10)

	assert.True(t, apperrors.IsValidation(err))
}

func TestGetRequest_VisibilityRules(t *testing.T) {
	mockRepo := new(MockLeaveRepository)
	service := NewLeaveService(mockRepo, &stubResolver{}, nil)
	ctx := context.Background()

	routing := defaultRouting()
	ownerStaffID := uuid.New()
	request := submittedRequest(ownerStaffID, uuid.New(), routing)
	mockRepo.On("GetRequestByID", ctx, request.ID).Return(request, nil)

	owner := Principal{UserID: uuid.New(), StaffID: &ownerStaffID}
	rmApprover := Principal{UserID: *routing.RMApproverUserID}
	hrApprover := Principal{UserID: routing.HRApproverUserID}
	admin := Principal{UserID: uuid.New(), Role: models.RoleSuperAdmin}
	stranger := Principal{UserID: uuid.New(), Role: models.RoleStaff}

	for _, p := range []Principal{owner, rmApprover, hrApprover, admin} {
		got, err := service.GetRequest(ctx, p, request.ID)
		assert.NoError(t, err)
		assert.Equal(t, request.ID, got.ID)
	}

	got, err := service.GetRequest(ctx, stranger, request.ID)
	assert.Nil(t, got)
	assert.True(t, apperrors.IsForbidden(err))
}
