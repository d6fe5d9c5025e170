package models

import (
	"time"

	"github.com/google/uuid"
)

// Role code constants
const (
	RoleSuperAdmin     = "SUPER_ADMIN"
	RoleCorporateAdmin = "CORPORATE_ADMIN"
	RoleBranchAdmin    = "BRANCH_ADMIN"
	RoleStaff          = "STAFF"
)

// User represents a login account, optionally linked to a staff record
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email     string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Role      string     `gorm:"type:varchar(50);not null" json:"role"`
	StaffID   *uuid.UUID `gorm:"type:uuid;index" json:"staffId,omitempty"`
	BranchID  *uuid.UUID `gorm:"type:uuid;index" json:"branchId,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// UserRoleBinding scopes a role to a branch for a user, with a validity
// window. Supersedes the legacy single-branch User.Role/User.BranchID pair.
type UserRoleBinding struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	BranchID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"branchId"`
	RoleCode      string     `gorm:"type:varchar(50);not null" json:"roleCode"`
	IsPrimary     bool       `gorm:"default:false" json:"isPrimary"`
	IsActive      bool       `gorm:"default:true" json:"isActive"`
	EffectiveFrom time.Time  `gorm:"not null" json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for UserRoleBinding
func (UserRoleBinding) TableName() string {
	return "user_role_bindings"
}

// IsEffectiveAt reports whether the binding is active and within its
// validity window at the given instant.
func (b *UserRoleBinding) IsEffectiveAt(t time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.EffectiveFrom.After(t) {
		return false
	}
	return b.EffectiveTo == nil || !b.EffectiveTo.Before(t)
}
