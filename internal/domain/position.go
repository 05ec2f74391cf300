package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Position holds quantity and weighted-average cost per (account, symbol).
// Version backs the compare-and-swap on fills: concurrent read-modify-write
// of the same position must not lose updates.
type Position struct {
	PositionID uuid.UUID       `gorm:"column:position_id;type:uuid;primaryKey" json:"position_id"`
	OrgID      uuid.UUID       `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	AccountID  uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index:idx_positions_account_symbol" json:"account_id"`
	Symbol     string          `gorm:"column:symbol;type:varchar(12);not null;index:idx_positions_account_symbol" json:"symbol"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(20,8);not null" json:"quantity"`
	AvgCost    decimal.Decimal `gorm:"column:avg_cost;type:decimal(20,8);not null" json:"avg_cost"`
	Version    int64           `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (Position) TableName() string {
	return "Positions"
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.PositionID == uuid.Nil {
		p.PositionID = uuid.New()
	}
	return nil
}
