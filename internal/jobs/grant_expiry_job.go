package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"workforce-service/internal/audit"
	"workforce-service/internal/models"
	"workforce-service/internal/repository"
	"workforce-service/internal/services"
)

// GrantExpiryJob periodically marks privilege grants whose validity window
// has closed as EXPIRED and drops their cached grant lists. The privilege
// matcher checks windows directly, so this job is status upkeep for
// listings and reporting, never a correctness dependency.
type GrantExpiryJob struct {
	repo       repository.PrivilegeRepositoryInterface
	privileges *services.PrivilegeService
	auditor    audit.Recorder
	logger     *logrus.Logger
	interval   time.Duration
	stopCh     chan struct{}
}

// NewGrantExpiryJob creates a new grant expiry job
func NewGrantExpiryJob(repo repository.PrivilegeRepositoryInterface, privileges *services.PrivilegeService, auditor audit.Recorder, logger *logrus.Logger, interval time.Duration) *GrantExpiryJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GrantExpiryJob{
		repo:       repo,
		privileges: privileges,
		auditor:    auditor,
		logger:     logger,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the expiry sweep loop
func (j *GrantExpiryJob) Start(ctx context.Context) {
	j.logger.Info("Grant expiry job started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.runSweep(ctx)
		case <-j.stopCh:
			j.logger.Info("Grant expiry job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Grant expiry job context cancelled")
			return
		}
	}
}

// Stop signals the job to stop
func (j *GrantExpiryJob) Stop() {
	close(j.stopCh)
}

func (j *GrantExpiryJob) runSweep(ctx context.Context) {
	lapsed, err := j.repo.ExpireLapsedGrants(ctx, time.Now().UTC())
	if err != nil {
		j.logger.Errorf("Failed to expire lapsed grants: %v", err)
		return
	}
	if len(lapsed) == 0 {
		return
	}

	j.logger.Infof("Expired %d lapsed privilege grants", len(lapsed))

	for i := range lapsed {
		grant := &lapsed[i]

		j.privileges.InvalidateGrants(ctx, grant.BranchID, grant.StaffID)

		if j.auditor != nil {
			j.auditor.Log(ctx, audit.Entry{
				BranchID: grant.BranchID,
				Action:   models.AuditPrivilegeExpired,
				Entity:   "privilege_grant",
				EntityID: &grant.ID,
				Meta: map[string]interface{}{
					"staffId": grant.StaffID.String(),
					"area":    grant.Area,
					"action":  grant.Action,
				},
			})
		}
	}
}
