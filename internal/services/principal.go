package services

import (
	"github.com/google/uuid"

	"workforce-service/internal/apperrors"
	"workforce-service/internal/models"
)

// Principal is the authenticated caller as seen by the service layer.
// StaffID is nil for accounts with no linked staff profile.
type Principal struct {
	UserID   uuid.UUID
	StaffID  *uuid.UUID
	BranchID *uuid.UUID
	Role     string
}

// RequireStaff returns the caller's staff ID, failing when the account
// has no linked staff profile.
func (p Principal) RequireStaff() (uuid.UUID, error) {
	if p.StaffID == nil {
		return uuid.Nil, apperrors.Forbidden("user account has no linked staff profile")
	}
	return *p.StaffID, nil
}

// IsGlobalAdmin reports whether the caller holds a cross-branch admin role
func (p Principal) IsGlobalAdmin() bool {
	return p.Role == models.RoleSuperAdmin || p.Role == models.RoleCorporateAdmin
}
