package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Staff represents a staff member's master record
type Staff struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BranchID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"branchId"`
	EmpCode     string         `gorm:"type:varchar(50);not null" json:"empCode"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Designation string         `gorm:"type:varchar(100)" json:"designation,omitempty"`
	Specialties pq.StringArray `gorm:"type:text[]" json:"specialties,omitempty"`
	IsActive    bool           `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Staff
func (Staff) TableName() string {
	return "staff"
}

// Assignment approval status constants
const (
	AssignmentApprovalPending  = "PENDING"
	AssignmentApprovalApproved = "APPROVED"
	AssignmentApprovalRejected = "REJECTED"
)

// StaffAssignment places one staff member in one branch/department.
// Assignments are never deleted; they are deactivated.
type StaffAssignment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StaffID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"staffId"`
	BranchID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"branchId"`
	DepartmentID     *uuid.UUID `gorm:"type:uuid" json:"departmentId,omitempty"`
	IsPrimary        bool       `gorm:"default:false" json:"isPrimary"`
	IsActive         bool       `gorm:"default:true" json:"isActive"`
	RequiresApproval bool       `gorm:"default:false" json:"requiresApproval"`
	ApprovalStatus   string     `gorm:"type:varchar(20);default:'PENDING'" json:"approvalStatus"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for StaffAssignment
func (StaffAssignment) TableName() string {
	return "staff_assignments"
}

// IsEffective reports whether the assignment can be used for organizational
// routing: it must be active, and approved when approval is required.
func (a *StaffAssignment) IsEffective() bool {
	if !a.IsActive {
		return false
	}
	if a.RequiresApproval {
		return a.ApprovalStatus == AssignmentApprovalApproved
	}
	return true
}

// Department represents a department within a branch
type Department struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BranchID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"branchId"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	HeadStaffID *uuid.UUID `gorm:"type:uuid" json:"headStaffId,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Department
func (Department) TableName() string {
	return "departments"
}
