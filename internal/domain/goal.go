package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is a savings target backed by its own envelope account and money-map
// node. Progress is derived from the envelope balance on every executed
// contribution, not incremented blindly.
type Goal struct {
	GoalID        uuid.UUID `gorm:"column:goal_id;type:uuid;primaryKey" json:"goal_id"`
	OrgID         uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	NodeID        uuid.UUID `gorm:"column:node_id;type:uuid;not null" json:"node_id"`
	AccountID     uuid.UUID `gorm:"column:account_id;type:uuid;not null" json:"account_id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	TargetCents   int64     `gorm:"column:target_cents;not null" json:"target_cents"`
	ProgressCents int64     `gorm:"column:progress_cents;not null;default:0" json:"progress_cents"`
	Currency      string    `gorm:"column:currency;type:char(3);not null" json:"currency"`
	CreatedBy     uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Goal) TableName() string {
	return "Goals"
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.GoalID == uuid.Nil {
		g.GoalID = uuid.New()
	}
	return nil
}
