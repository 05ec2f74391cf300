package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Budget is a spending line for one period (PeriodKey "YYYY-MM") scoped to a
// money-map node. SpentCents accumulates executed spends against the line.
type Budget struct {
	BudgetID   uuid.UUID `gorm:"column:budget_id;type:uuid;primaryKey" json:"budget_id"`
	OrgID      uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	NodeID     uuid.UUID `gorm:"column:node_id;type:uuid;not null" json:"node_id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	PeriodKey  string    `gorm:"column:period_key;type:char(7);not null" json:"period_key"`
	LimitCents int64     `gorm:"column:limit_cents;not null" json:"limit_cents"`
	SpentCents int64     `gorm:"column:spent_cents;not null;default:0" json:"spent_cents"`
	Currency   string    `gorm:"column:currency;type:char(3);not null" json:"currency"`
	CreatedBy  uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Budget) TableName() string {
	return "Budgets"
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.BudgetID == uuid.Nil {
		b.BudgetID = uuid.New()
	}
	return nil
}
