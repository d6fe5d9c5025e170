package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workforce-service/internal/models"
)

// PrivilegeRepositoryInterface defines read and maintenance operations on
// privilege grants. The matcher only reads; the expiry sweeper maintains
// the denormalized status column.
type PrivilegeRepositoryInterface interface {
	ListGrants(ctx context.Context, staffID, branchID uuid.UUID, includeInactive bool) ([]models.PrivilegeGrant, error)
	ExpireLapsedGrants(ctx context.Context, now time.Time) ([]models.PrivilegeGrant, error)
}

// PrivilegeRepository handles database operations for privilege grants
type PrivilegeRepository struct {
	db *gorm.DB
}

// Ensure PrivilegeRepository implements the interface
var _ PrivilegeRepositoryInterface = (*PrivilegeRepository)(nil)

// NewPrivilegeRepository creates a new PrivilegeRepository
func NewPrivilegeRepository(db *gorm.DB) *PrivilegeRepository {
	return &PrivilegeRepository{db: db}
}

// ListGrants retrieves a staff member's grants in a branch, most recent
// validity window first
func (r *PrivilegeRepository) ListGrants(ctx context.Context, staffID, branchID uuid.UUID, includeInactive bool) ([]models.PrivilegeGrant, error) {
	query := r.db.WithContext(ctx).
		Where("staff_id = ? AND branch_id = ?", staffID, branchID)

	if !includeInactive {
		query = query.Where("status = ?", models.GrantStatusActive)
	}

	var grants []models.PrivilegeGrant
	err := query.
		Order("effective_from DESC, created_at DESC").
		Limit(500).
		Find(&grants).Error
	return grants, err
}

// ExpireLapsedGrants marks ACTIVE grants whose window has closed as
// EXPIRED and returns the affected rows so caches can be invalidated.
// Status upkeep only - the matcher's window check never relies on it.
func (r *PrivilegeRepository) ExpireLapsedGrants(ctx context.Context, now time.Time) ([]models.PrivilegeGrant, error) {
	var lapsed []models.PrivilegeGrant

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("status = ? AND effective_to IS NOT NULL AND effective_to < ?", models.GrantStatusActive, now).
			Find(&lapsed).Error; err != nil {
			return err
		}

		if len(lapsed) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(lapsed))
		for _, g := range lapsed {
			ids = append(ids, g.ID)
		}

		return tx.Model(&models.PrivilegeGrant{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     models.GrantStatusExpired,
				"updated_at": now,
			}).Error
	})

	return lapsed, err
}
