package journal

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

// Entry is the write-side shape for one audit event.
type Entry struct {
	OrgID      uuid.UUID
	EventKind  string
	ActorID    *uuid.UUID // nil for system-initiated events (sweeper)
	EntityType string
	EntityID   uuid.UUID
	Related    map[string]interface{}
	Payload    map[string]interface{}
}

type Service struct {
	DB *gorm.DB
}

// Emit appends one immutable journal row inside the caller's transaction so
// the audit trail commits or rolls back with the mutation it describes.
func (s *Service) Emit(tx *gorm.DB, e Entry) error {
	row := domain.JournalEntry{
		OrgID:      e.OrgID,
		EventKind:  e.EventKind,
		ActorID:    e.ActorID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
	}
	if e.Related != nil {
		b, _ := json.Marshal(e.Related)
		row.RelatedIDs = datatypes.JSON(b)
	}
	if e.Payload != nil {
		b, _ := json.Marshal(e.Payload)
		row.Payload = datatypes.JSON(b)
	}
	return tx.Create(&row).Error
}

// Timeline returns the org's journal, newest first.
func (s *Service) Timeline(ctx context.Context, orgID uuid.UUID, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []domain.JournalEntry
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// EntityTimeline returns the journal rows for one entity, oldest first, for
// lifecycle reconstruction.
func (s *Service) EntityTimeline(ctx context.Context, orgID, entityID uuid.UUID) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	err := s.DB.WithContext(ctx).Where("org_id = ? AND entity_id = ?", orgID, entityID).
		Order("created_at ASC").Find(&out).Error
	return out, err
}
