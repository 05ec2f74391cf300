package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalEntry is one immutable audit record: a guardrail decision or a
// lifecycle transition. Append-only; nothing ever updates or deletes rows.
type JournalEntry struct {
	EntryID    uuid.UUID      `gorm:"column:entry_id;type:uuid;primaryKey" json:"entry_id"`
	OrgID      uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	EventKind  string         `gorm:"column:event_kind;type:varchar(40);not null" json:"event_kind"`
	ActorID    *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	EntityType string         `gorm:"column:entity_type;type:varchar(20);not null" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"column:entity_id;type:uuid;not null;index" json:"entity_id"`
	RelatedIDs datatypes.JSON `gorm:"column:related_ids" json:"related_ids"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (JournalEntry) TableName() string {
	return "JournalEntries"
}

func (e *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if e.EntryID == uuid.Nil {
		e.EntryID = uuid.New()
	}
	return nil
}
