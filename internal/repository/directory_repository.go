package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workforce-service/internal/models"
)

// DirectoryRepositoryInterface resolves organizational structure and
// identity: effective assignments, department heads, and the admin users
// that back approval routing.
type DirectoryRepositoryInterface interface {
	GetEffectiveAssignment(ctx context.Context, staffID, branchID uuid.UUID) (*models.StaffAssignment, error)
	GetDepartment(ctx context.Context, departmentID, branchID uuid.UUID) (*models.Department, error)
	GetActiveUserByStaffID(ctx context.Context, staffID uuid.UUID) (*models.User, error)
	GetSuperAdminUser(ctx context.Context) (*models.User, error)
	GetBranchAdminUser(ctx context.Context, branchID uuid.UUID) (*models.User, error)
}

// DirectoryRepository is the GORM-backed organization directory
type DirectoryRepository struct {
	db *gorm.DB
}

// Ensure DirectoryRepository implements the interface
var _ DirectoryRepositoryInterface = (*DirectoryRepository)(nil)

// NewDirectoryRepository creates a new DirectoryRepository
func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetEffectiveAssignment resolves the single effective assignment for a
// staff+branch pair: active, approved when approval is required, ties
// broken by isPrimary desc then most-recently-updated.
func (r *DirectoryRepository) GetEffectiveAssignment(ctx context.Context, staffID, branchID uuid.UUID) (*models.StaffAssignment, error) {
	var rows []models.StaffAssignment
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND branch_id = ? AND is_active = true", staffID, branchID).
		Order("is_primary DESC, updated_at DESC").
		Limit(20).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if rows[i].IsEffective() {
			return &rows[i], nil
		}
	}
	return nil, ErrNotFound
}

// GetDepartment retrieves an active department in a branch
func (r *DirectoryRepository) GetDepartment(ctx context.Context, departmentID, branchID uuid.UUID) (*models.Department, error) {
	var dept models.Department
	err := r.db.WithContext(ctx).
		Where("id = ? AND branch_id = ? AND is_active = true", departmentID, branchID).
		First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dept, nil
}

// GetActiveUserByStaffID resolves the active user account linked to a staff record
func (r *DirectoryRepository) GetActiveUserByStaffID(ctx context.Context, staffID uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND is_active = true", staffID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetSuperAdminUser resolves the single active super admin account.
// Earliest-created wins if more than one exists.
func (r *DirectoryRepository) GetSuperAdminUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = true", models.RoleSuperAdmin).
		Order("created_at ASC").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetBranchAdminUser resolves the designated branch admin for a branch.
// Prefers an active BRANCH_ADMIN role binding effective now; falls back to
// a legacy single-branch BRANCH_ADMIN user row.
func (r *DirectoryRepository) GetBranchAdminUser(ctx context.Context, branchID uuid.UUID) (*models.User, error) {
	now := time.Now()

	var binding models.UserRoleBinding
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND role_code = ? AND is_active = true", branchID, models.RoleBranchAdmin).
		Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", now, now).
		Order("is_primary DESC, created_at ASC").
		First(&binding).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		var user models.User
		uerr := r.db.WithContext(ctx).
			Where("id = ? AND is_active = true", binding.UserID).
			First(&user).Error
		if uerr == nil {
			return &user, nil
		}
		if !errors.Is(uerr, gorm.ErrRecordNotFound) {
			return nil, uerr
		}
		// Binding points at a deactivated user; try the legacy fallback.
	}

	var legacy models.User
	err = r.db.WithContext(ctx).
		Where("role = ? AND branch_id = ? AND is_active = true", models.RoleBranchAdmin, branchID).
		Order("created_at ASC").
		First(&legacy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &legacy, nil
}
