package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit action constants
const (
	AuditLeaveApplied     = "STAFF_LEAVE_APPLIED"
	AuditLeaveRMApproved  = "STAFF_LEAVE_RM_APPROVED"
	AuditLeaveRMRejected  = "STAFF_LEAVE_RM_REJECTED"
	AuditLeaveHRApproved  = "STAFF_LEAVE_HR_APPROVED"
	AuditLeaveHRRejected  = "STAFF_LEAVE_HR_REJECTED"
	AuditLeaveCancelled   = "STAFF_LEAVE_CANCELLED"
	AuditPrivilegeExpired = "STAFF_PRIVILEGE_EXPIRED"
)

// AuditLog is a branch-scoped record of a state transition. Audit writes
// are fire-and-forget: a failed write never rolls back the transition.
type AuditLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BranchID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"branchId"`
	ActorUserID *uuid.UUID     `gorm:"type:uuid" json:"actorUserId,omitempty"`
	Action      string         `gorm:"type:varchar(50);not null;index" json:"action"`
	Entity      string         `gorm:"type:varchar(50);not null" json:"entity"`
	EntityID    *uuid.UUID     `gorm:"type:uuid" json:"entityId,omitempty"`
	Meta        datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
