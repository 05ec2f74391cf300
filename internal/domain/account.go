package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account kinds.
const (
	AccountKindChecking  = "checking"
	AccountKindSavings   = "savings"
	AccountKindBrokerage = "brokerage"
	AccountKindGoal      = "goal"
)

// Account is a spendable/fundable bucket of money. Synced accounts carry a
// provider reference; goal envelopes are created internally with no provider.
type Account struct {
	AccountID    uuid.UUID  `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	OrgID        uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	NodeID       *uuid.UUID `gorm:"column:node_id;type:uuid" json:"node_id"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	Kind         string     `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	Provider     *string    `gorm:"column:provider" json:"provider"`
	ProviderRef  *string    `gorm:"column:provider_ref;index" json:"provider_ref"`
	BalanceCents int64      `gorm:"column:balance_cents;not null;default:0" json:"balance_cents"`
	Currency     string     `gorm:"column:currency;type:char(3);not null;default:USD" json:"currency"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Account) TableName() string {
	return "Accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}
