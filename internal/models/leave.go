package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Leave request status constants. APPROVED, REJECTED and CANCELLED are terminal.
const (
	LeaveStatusSubmitted = "SUBMITTED"
	LeaveStatusApproved  = "APPROVED"
	LeaveStatusRejected  = "REJECTED"
	LeaveStatusCancelled = "CANCELLED"
)

// Per-stage approval sub-status constants
const (
	StageApprovalPending  = "PENDING"
	StageApprovalApproved = "APPROVED"
	StageApprovalRejected = "REJECTED"
)

// Approval stages
const (
	StageReportingManager = "RM"
	StageHR               = "HR"
)

// Stage decisions
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// RM approver type constants
const (
	ApproverTypeHOD         = "HOD"
	ApproverTypeBranchAdmin = "BRANCH_ADMIN"
	ApproverTypeSuperAdmin  = "SUPER_ADMIN"
	ApproverTypeNone        = "NONE"
)

// RoutingDecision is the approval chain resolved once at submission time.
// It is written to the leave request row at creation and never updated;
// later organizational changes do not redirect in-flight requests.
type RoutingDecision struct {
	DepartmentID     *uuid.UUID `json:"departmentId,omitempty"`
	HodStaffID       *uuid.UUID `json:"hodStaffId,omitempty"`
	RMApproverUserID *uuid.UUID `json:"rmApproverUserId,omitempty"`
	RMApproverType   string     `json:"rmApproverType"`
	RMStageBypassed  bool       `json:"rmStageBypassed"`
	HRApproverUserID uuid.UUID  `json:"hrApproverUserId"`
	HRApproverType   string     `json:"hrApproverType"`
	ResolvedAt       time.Time  `json:"resolvedAt"`
}

// LeaveRequest represents one leave application and its two-stage approval state
type LeaveRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StaffID   uuid.UUID `gorm:"type:uuid;not null;index" json:"staffId"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index" json:"branchId"`
	LeaveType string    `gorm:"type:varchar(50);not null" json:"leaveType"`
	StartDate time.Time `gorm:"type:date;not null" json:"startDate"`
	EndDate   time.Time `gorm:"type:date;not null" json:"endDate"`
	Reason    string    `gorm:"type:varchar(240)" json:"reason,omitempty"`
	Status    string    `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	Version   int       `gorm:"not null;default:1" json:"version"` // Optimistic locking

	// Stage state
	ReportingManagerApproval   string     `gorm:"column:rm_approval;type:varchar(20);not null;default:'PENDING'" json:"reportingManagerApproval"`
	ReportingManagerApprovedBy *uuid.UUID `gorm:"column:rm_approved_by;type:uuid" json:"reportingManagerApprovedBy,omitempty"`
	ReportingManagerApprovedAt *time.Time `gorm:"column:rm_approved_at" json:"reportingManagerApprovedAt,omitempty"`
	HRApproval                 string     `gorm:"column:hr_approval;type:varchar(20);not null;default:'PENDING'" json:"hrApproval"`
	HRApprovedBy               *uuid.UUID `gorm:"column:hr_approved_by;type:uuid" json:"hrApprovedBy,omitempty"`
	HRApprovedAt               *time.Time `gorm:"column:hr_approved_at" json:"hrApprovedAt,omitempty"`

	// Routing metadata, immutable after creation
	DepartmentID      *uuid.UUID `gorm:"type:uuid" json:"departmentId,omitempty"`
	HodStaffID        *uuid.UUID `gorm:"type:uuid" json:"hodStaffId,omitempty"`
	RMApproverUserID  *uuid.UUID `gorm:"column:rm_approver_user_id;type:uuid;index" json:"rmApproverUserId,omitempty"`
	RMApproverType    string     `gorm:"column:rm_approver_type;type:varchar(20);not null;default:'NONE'" json:"rmApproverType"`
	RMStageBypassed   bool       `gorm:"column:rm_stage_bypassed;default:false" json:"rmStageBypassed"`
	HRApproverUserID  uuid.UUID  `gorm:"column:hr_approver_user_id;type:uuid;not null;index" json:"hrApproverUserId"`
	HRApproverType    string     `gorm:"column:hr_approver_type;type:varchar(20);not null" json:"hrApproverType"`
	RoutingResolvedAt time.Time  `gorm:"not null" json:"routingResolvedAt"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	History []LeaveHistoryEntry `gorm:"foreignKey:RequestID" json:"history,omitempty"`
}

// TableName returns the table name for LeaveRequest
func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// IsTerminal returns true if the status is a terminal state
func (r *LeaveRequest) IsTerminal() bool {
	return r.Status == LeaveStatusApproved ||
		r.Status == LeaveStatusRejected ||
		r.Status == LeaveStatusCancelled
}

// Overlaps reports whether the request's inclusive date range intersects
// the given inclusive range.
func (r *LeaveRequest) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

// Routing returns the routing decision baked into the request at submission
func (r *LeaveRequest) Routing() RoutingDecision {
	return RoutingDecision{
		DepartmentID:     r.DepartmentID,
		HodStaffID:       r.HodStaffID,
		RMApproverUserID: r.RMApproverUserID,
		RMApproverType:   r.RMApproverType,
		RMStageBypassed:  r.RMStageBypassed,
		HRApproverUserID: r.HRApproverUserID,
		HRApproverType:   r.HRApproverType,
		ResolvedAt:       r.RoutingResolvedAt,
	}
}

// ApplyRouting copies a resolved routing decision onto a request being
// created. Must only be called before the request is first persisted.
func (r *LeaveRequest) ApplyRouting(d RoutingDecision) {
	r.DepartmentID = d.DepartmentID
	r.HodStaffID = d.HodStaffID
	r.RMApproverUserID = d.RMApproverUserID
	r.RMApproverType = d.RMApproverType
	r.RMStageBypassed = d.RMStageBypassed
	r.HRApproverUserID = d.HRApproverUserID
	r.HRApproverType = d.HRApproverType
	r.RoutingResolvedAt = d.ResolvedAt
}

// History entry action constants
const (
	HistoryLeaveApplied   = "LEAVE_APPLIED"
	HistoryRMApproved     = "LEAVE_RM_APPROVED"
	HistoryRMRejected     = "LEAVE_RM_REJECTED"
	HistoryHRApproved     = "LEAVE_HR_APPROVED"
	HistoryHRRejected     = "LEAVE_HR_REJECTED"
	HistoryLeaveCancelled = "LEAVE_CANCELLED"
)

// LeaveHistoryEntry is one append-only lifecycle event on a leave request.
// Entries are never updated or deleted.
type LeaveHistoryEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RequestID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"requestId"`
	BranchID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"branchId"`
	ActorUserID *uuid.UUID     `gorm:"type:uuid" json:"actorUserId,omitempty"` // nil for system actions
	Action      string         `gorm:"type:varchar(50);not null" json:"action"`
	Note        string         `gorm:"type:text" json:"note,omitempty"`
	Meta        datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for LeaveHistoryEntry
func (LeaveHistoryEntry) TableName() string {
	return "leave_history_entries"
}

// LeaveType is a catalog entry for a kind of leave (casual, sick, earned...)
type LeaveType struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for LeaveType
func (LeaveType) TableName() string {
	return "leave_types"
}
