package models

import (
	"time"

	"github.com/google/uuid"
)

// Privilege target type constants. TargetNone marks a generic grant not
// scoped to any particular resource kind.
const (
	TargetNone           = "NONE"
	TargetServiceItem    = "SERVICE_ITEM"
	TargetDiagnosticItem = "DIAGNOSTIC_ITEM"
	TargetOrderSet       = "ORDER_SET"
	TargetOther          = "OTHER"
)

// AreaAdmin is the administrative privilege area. It is the only area
// where a global admin role can stand in for an explicit grant.
const AreaAdmin = "ADMIN"

// Grant status constants
const (
	GrantStatusActive   = "ACTIVE"
	GrantStatusInactive = "INACTIVE"
	GrantStatusExpired  = "EXPIRED"
)

// PrivilegeGrant represents one clinical authorization a staff member holds.
// Grants are created and expired by HR/admin processes; the matcher only
// reads them.
type PrivilegeGrant struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StaffID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"staffId"`
	BranchID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"branchId"`
	Area          string     `gorm:"type:varchar(50);not null" json:"area"`
	Action        string     `gorm:"type:varchar(50);not null" json:"action"`
	TargetType    string     `gorm:"type:varchar(30);not null;default:'NONE'" json:"targetType"`
	TargetID      *uuid.UUID `gorm:"type:uuid" json:"targetId,omitempty"` // nil = all targets of TargetType
	Status        string     `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	EffectiveFrom time.Time  `gorm:"not null" json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty"` // nil = open-ended
	GrantedBy     *uuid.UUID `gorm:"type:uuid" json:"grantedBy,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for PrivilegeGrant
func (PrivilegeGrant) TableName() string {
	return "privilege_grants"
}

// IsEffectiveAt reports whether the grant is active and within its
// [effectiveFrom, effectiveTo] window at the given instant. An absent
// effectiveTo means open-ended.
func (g *PrivilegeGrant) IsEffectiveAt(t time.Time) bool {
	if g.Status != GrantStatusActive {
		return false
	}
	if g.EffectiveFrom.After(t) {
		return false
	}
	return g.EffectiveTo == nil || !g.EffectiveTo.Before(t)
}

// MatchesTarget evaluates the target-scoping rules against a requested
// (targetType, targetId):
//   - requested NONE matches only grants with targetType NONE
//   - otherwise a NONE grant is a wildcard covering every target kind,
//     and a same-type grant matches when its targetId is nil (all items
//     of that kind) or equals the requested id exactly
func (g *PrivilegeGrant) MatchesTarget(targetType string, targetID *uuid.UUID) bool {
	if targetType == "" || targetType == TargetNone {
		return g.TargetType == TargetNone
	}
	if g.TargetType == TargetNone {
		return true
	}
	if g.TargetType != targetType {
		return false
	}
	if g.TargetID == nil {
		return true
	}
	return targetID != nil && *g.TargetID == *targetID
}
