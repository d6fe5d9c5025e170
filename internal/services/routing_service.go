package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"workforce-service/internal/apperrors"
	"workforce-service/internal/models"
	"workforce-service/internal/repository"
)

// RoutingResolver computes the approval chain for a leave request
type RoutingResolver interface {
	ResolveRouting(ctx context.Context, staffID, branchID uuid.UUID) (*models.RoutingDecision, error)
}

// ApproverResolver resolves the two-stage approval chain from the
// organization directory at submission time. Resolution is deterministic
// and side-effect free; the resulting decision is frozen onto the request.
//
// RM stage fallback order: department head -> branch admin -> super admin.
// A requester who is their own department head bypasses the RM stage.
// The HR stage is always the super admin.
type ApproverResolver struct {
	directory repository.DirectoryRepositoryInterface
}

// Ensure ApproverResolver implements RoutingResolver
var _ RoutingResolver = (*ApproverResolver)(nil)

// NewApproverResolver creates a new ApproverResolver
func NewApproverResolver(directory repository.DirectoryRepositoryInterface) *ApproverResolver {
	return &ApproverResolver{directory: directory}
}

// rmCandidate is one tier of the RM fallback chain. It returns a nil user
// ID when the tier cannot produce an approver, letting the next tier try.
type rmCandidate func(ctx context.Context) (*uuid.UUID, string, error)

// ResolveRouting computes the routing decision for a leave request.
// Fails with ConfigurationError when no active super admin exists, since
// the HR stage would have no possible approver.
func (r *ApproverResolver) ResolveRouting(ctx context.Context, staffID, branchID uuid.UUID) (*models.RoutingDecision, error) {
	var departmentID *uuid.UUID

	assignment, err := r.directory.GetEffectiveAssignment(ctx, staffID, branchID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if assignment != nil {
		departmentID = assignment.DepartmentID
	}

	hodStaffID, hodUserID, err := r.resolveDepartmentHead(ctx, branchID, departmentID)
	if err != nil {
		return nil, err
	}

	superAdmin, err := r.directory.GetSuperAdminUser(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Configuration("no active SUPER_ADMIN user available for HR approval")
		}
		return nil, err
	}

	decision := &models.RoutingDecision{
		DepartmentID:     departmentID,
		HodStaffID:       hodStaffID,
		RMApproverType:   models.ApproverTypeNone,
		HRApproverUserID: superAdmin.ID,
		HRApproverType:   models.ApproverTypeSuperAdmin,
		ResolvedAt:       time.Now().UTC(),
	}

	// A requester approving their own leave would be meaningless; when the
	// requester is the department head the RM stage is bypassed entirely.
	if hodStaffID != nil && *hodStaffID == staffID {
		decision.RMStageBypassed = true
		return decision, nil
	}

	chain := []rmCandidate{
		func(context.Context) (*uuid.UUID, string, error) {
			return hodUserID, models.ApproverTypeHOD, nil
		},
		func(ctx context.Context) (*uuid.UUID, string, error) {
			admin, err := r.directory.GetBranchAdminUser(ctx, branchID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, "", nil
				}
				return nil, "", err
			}
			return &admin.ID, models.ApproverTypeBranchAdmin, nil
		},
		func(context.Context) (*uuid.UUID, string, error) {
			return &superAdmin.ID, models.ApproverTypeSuperAdmin, nil
		},
	}

	for _, candidate := range chain {
		userID, kind, err := candidate(ctx)
		if err != nil {
			return nil, err
		}
		if userID != nil {
			decision.RMApproverUserID = userID
			decision.RMApproverType = kind
			break
		}
	}

	return decision, nil
}

// resolveDepartmentHead looks up the department's designated head and that
// head's linked active user account. Hierarchy gaps (no department, no
// head, head without a user) yield nils rather than errors.
func (r *ApproverResolver) resolveDepartmentHead(ctx context.Context, branchID uuid.UUID, departmentID *uuid.UUID) (hodStaffID, hodUserID *uuid.UUID, err error) {
	if departmentID == nil {
		return nil, nil, nil
	}

	dept, err := r.directory.GetDepartment(ctx, *departmentID, branchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if dept.HeadStaffID == nil {
		return nil, nil, nil
	}

	user, err := r.directory.GetActiveUserByStaffID(ctx, *dept.HeadStaffID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dept.HeadStaffID, nil, nil
		}
		return nil, nil, err
	}

	return dept.HeadStaffID, &user.ID, nil
}
