package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workforce-service/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict - record was modified by another request")
)

// LeaveListFilter narrows ListByStaff results
type LeaveListFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// StageDecisionUpdate carries one stage decision to be applied atomically
type StageDecisionUpdate struct {
	Stage         string // models.StageReportingManager or models.StageHR
	StageApproval string // models.StageApprovalApproved or models.StageApprovalRejected
	DecidedBy     uuid.UUID
	DecidedAt     time.Time
	NewStatus     string
}

// LeaveRepositoryInterface defines database operations for leave requests
type LeaveRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(txRepo LeaveRepositoryInterface) error) error
	CreateRequest(ctx context.Context, request *models.LeaveRequest) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*models.LeaveRequest, error)
	ListActiveRequests(ctx context.Context, staffID, branchID uuid.UUID) ([]models.LeaveRequest, error)
	ListByStaff(ctx context.Context, staffID uuid.UUID, branchID *uuid.UUID, filter LeaveListFilter) ([]models.LeaveRequest, error)
	ListApproverInbox(ctx context.Context, branchID, approverUserID uuid.UUID, stage string, limit int) ([]models.LeaveRequest, error)
	ApplyStageDecision(ctx context.Context, request *models.LeaveRequest, update StageDecisionUpdate) error
	UpdateStatus(ctx context.Context, request *models.LeaveRequest, newStatus string) error
	AppendHistory(ctx context.Context, entry *models.LeaveHistoryEntry) error
	GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.LeaveHistoryEntry, error)
	ListActiveLeaveTypes(ctx context.Context) ([]models.LeaveType, error)
}

// LeaveRepository handles database operations for leave requests
type LeaveRepository struct {
	db *gorm.DB
}

// Ensure LeaveRepository implements the interface
var _ LeaveRepositoryInterface = (*LeaveRepository)(nil)

// NewLeaveRepository creates a new LeaveRepository
func NewLeaveRepository(db *gorm.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// WithTransaction executes fn within a database transaction. The callback
// receives a repository bound to the transaction.
func (r *LeaveRepository) WithTransaction(ctx context.Context, fn func(txRepo LeaveRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LeaveRepository{db: tx})
	})
}

// CreateRequest creates a new leave request
func (r *LeaveRepository) CreateRequest(ctx context.Context, request *models.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequestByID retrieves a leave request by ID
func (r *LeaveRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// ListActiveRequests retrieves the SUBMITTED and APPROVED requests for a
// staff+branch pair. Used by the overlap check at submission.
func (r *LeaveRepository) ListActiveRequests(ctx context.Context, staffID, branchID uuid.UUID) ([]models.LeaveRequest, error) {
	var requests []models.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND branch_id = ? AND status IN ?",
			staffID, branchID, []string{models.LeaveStatusSubmitted, models.LeaveStatusApproved}).
		Limit(200).
		Find(&requests).Error
	return requests, err
}

// ListByStaff retrieves leave requests submitted by a staff member
func (r *LeaveRepository) ListByStaff(ctx context.Context, staffID uuid.UUID, branchID *uuid.UUID, filter LeaveListFilter) ([]models.LeaveRequest, error) {
	query := r.db.WithContext(ctx).Where("staff_id = ?", staffID)

	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("start_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("end_date <= ?", *filter.To)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var requests []models.LeaveRequest
	err := query.Order("created_at DESC").Limit(limit).Find(&requests).Error
	return requests, err
}

// ListApproverInbox retrieves SUBMITTED requests awaiting the given approver.
// RM stage: RM approval pending and the request routed to this user.
// HR stage: HR approval pending, RM already approved, routed to this user.
// An empty stage returns the union of both.
func (r *LeaveRepository) ListApproverInbox(ctx context.Context, branchID, approverUserID uuid.UUID, stage string, limit int) ([]models.LeaveRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ?", branchID, models.LeaveStatusSubmitted)

	rmClause := r.db.Where("rm_approval = ? AND rm_approver_user_id = ?",
		models.StageApprovalPending, approverUserID)
	hrClause := r.db.Where("hr_approval = ? AND rm_approval = ? AND hr_approver_user_id = ?",
		models.StageApprovalPending, models.StageApprovalApproved, approverUserID)

	switch stage {
	case models.StageReportingManager:
		query = query.Where(rmClause)
	case models.StageHR:
		query = query.Where(hrClause)
	default:
		query = query.Where(rmClause.Or(hrClause))
	}

	var requests []models.LeaveRequest
	err := query.Order("created_at DESC").Limit(limit).Find(&requests).Error
	return requests, err
}

// ApplyStageDecision writes one stage decision with optimistic locking.
// Returns ErrVersionConflict when another transition won the race; the
// caller must treat that as "stage not pending".
func (r *LeaveRepository) ApplyStageDecision(ctx context.Context, request *models.LeaveRequest, update StageDecisionUpdate) error {
	oldVersion := request.Version

	values := map[string]interface{}{
		"status":     update.NewStatus,
		"version":    oldVersion + 1,
		"updated_at": time.Now(),
	}

	switch update.Stage {
	case models.StageReportingManager:
		values["rm_approval"] = update.StageApproval
		values["rm_approved_by"] = update.DecidedBy
		values["rm_approved_at"] = update.DecidedAt
	case models.StageHR:
		values["hr_approval"] = update.StageApproval
		values["hr_approved_by"] = update.DecidedBy
		values["hr_approved_at"] = update.DecidedAt
	default:
		return errors.New("unknown approval stage: " + update.Stage)
	}

	result := r.db.WithContext(ctx).Model(request).
		Where("id = ? AND version = ?", request.ID, oldVersion).
		Updates(values)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
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
	request.Version = oldVersion + 1
	return nil
}

// UpdateStatus updates the overall status with optimistic locking
func (r *LeaveRepository) UpdateStatus(ctx context.Context, request *models.LeaveRequest, newStatus string) error {
	oldVersion := request.Version

	result := r.db.WithContext(ctx).Model(request).
		Where("id = ? AND version = ?", request.ID, oldVersion).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"version":    oldVersion + 1,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	request.Status = newStatus
	request.Version = oldVersion + 1
	return nil
}

// AppendHistory appends a lifecycle event. History rows are never updated.
func (r *LeaveRepository) AppendHistory(ctx context.Context, entry *models.LeaveHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GetHistory retrieves the lifecycle history for a request, oldest first
func (r *LeaveRepository) GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.LeaveHistoryEntry, error) {
	var entries []models.LeaveHistoryEntry
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// ListActiveLeaveTypes retrieves the active leave-type catalog
func (r *LeaveRepository) ListActiveLeaveTypes(ctx context.Context) ([]models.LeaveType, error) {
	var types []models.LeaveType
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("code ASC").
		Find(&types).Error
	return types, err
}
