package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cause is a donation target registered by the org.
type Cause struct {
	CauseID     uuid.UUID `gorm:"column:cause_id;type:uuid;primaryKey" json:"cause_id"`
	OrgID       uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description *string   `gorm:"column:description" json:"description"`
	CreatedBy   uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Cause) TableName() string {
	return "Causes"
}

func (c *Cause) BeforeCreate(tx *gorm.DB) error {
	if c.CauseID == uuid.Nil {
		c.CauseID = uuid.New()
	}
	return nil
}
