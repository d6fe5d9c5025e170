// Package audit writes branch-scoped audit records for state transitions.
// Writes are fire-and-forget: failures are surfaced to operators through
// the log, never to the caller, and never roll back the transition.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"workforce-service/internal/models"
)

// Entry describes one auditable transition
type Entry struct {
	BranchID    uuid.UUID
	ActorUserID *uuid.UUID
	Action      string
	Entity      string
	EntityID    *uuid.UUID
	Meta        map[string]interface{}
}

// Recorder accepts audit entries
type Recorder interface {
	Log(ctx context.Context, entry Entry)
}

// Sink is the database-backed Recorder
type Sink struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// Ensure Sink implements Recorder
var _ Recorder = (*Sink)(nil)

// NewSink creates a new audit sink
func NewSink(db *gorm.DB, logger *logrus.Logger) *Sink {
	if logger == nil {
		logger = logrus.New()
	}
	return &Sink{
		db:     db,
		logger: logger.WithField("component", "audit"),
	}
}

// Log writes one audit record. Errors are logged, not returned.
func (s *Sink) Log(ctx context.Context, entry Entry) {
	metaJSON, _ := json.Marshal(entry.Meta)

	record := &models.AuditLog{
		BranchID:    entry.BranchID,
		ActorUserID: entry.ActorUserID,
		Action:      entry.Action,
		Entity:      entry.Entity,
		EntityID:    entry.EntityID,
		Meta:        datatypes.JSON(metaJSON),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.WithFields(logrus.Fields{
			"action":   entry.Action,
			"entity":   entry.Entity,
			"branchId": entry.BranchID,
		}).WithError(err).Error("Failed to write audit log")
	}
}
