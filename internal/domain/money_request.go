package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Money-movement request kinds.
const (
	RequestKindTransfer = "transfer"
	RequestKindOrder    = "order"
)

// Money-movement request statuses. Monotone except the terminal branches:
// pending_approval|awaiting_parent -> approved -> executed
// pending_approval|awaiting_parent -> declined | canceled
// execution errors land in failed.
const (
	StatusPendingApproval = "pending_approval"
	StatusAwaitingParent  = "awaiting_parent"
	StatusApproved        = "approved"
	StatusExecuted        = "executed"
	StatusDeclined        = "declined"
	StatusCanceled        = "canceled"
	StatusFailed          = "failed"
)

// Approval tiers recorded on pending requests so the approve transition knows
// which roles may act.
const (
	TierParent = "parent"
	TierAdmin  = "admin"
)

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// MoneyRequest unifies transfers and investment orders: one append-only
// financial record driven through the lifecycle manager. Never deleted.
type MoneyRequest struct {
	RequestID uuid.UUID `gorm:"column:request_id;type:uuid;primaryKey" json:"request_id"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Intent    string    `gorm:"column:intent;type:varchar(10);not null" json:"intent"`
	Kind      string    `gorm:"column:kind;type:varchar(10);not null" json:"kind"`

	FromAccountID *uuid.UUID `gorm:"column:from_account_id;type:uuid" json:"from_account_id"`
	ToAccountID   *uuid.UUID `gorm:"column:to_account_id;type:uuid" json:"to_account_id"`
	NodeID        *uuid.UUID `gorm:"column:node_id;type:uuid" json:"node_id"`

	// Order-only fields.
	Symbol         *string             `gorm:"column:symbol;type:varchar(12)" json:"symbol"`
	Side           *string             `gorm:"column:side;type:varchar(4)" json:"side"`
	InstrumentKind *string             `gorm:"column:instrument_kind;type:varchar(12)" json:"instrument_kind"`
	Quantity       decimal.NullDecimal `gorm:"column:quantity;type:decimal(20,8)" json:"quantity"`
	ExecutionPrice decimal.NullDecimal `gorm:"column:execution_price;type:decimal(20,8)" json:"execution_price"`

	AmountCents int64  `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency    string `gorm:"column:currency;type:char(3);not null" json:"currency"`

	Status        string  `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	ApprovalTier  *string `gorm:"column:approval_tier;type:varchar(10)" json:"approval_tier"`
	Reason        *string `gorm:"column:reason" json:"reason"`
	FailureReason *string `gorm:"column:failure_reason" json:"failure_reason"`

	// Free-form context: guardrail decision snapshot, goal/budget/cause/stream ids.
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata"`

	RequestedBy uuid.UUID  `gorm:"column:requested_by;type:uuid;not null" json:"requested_by"`
	ApprovedBy  *uuid.UUID `gorm:"column:approved_by;type:uuid" json:"approved_by"`

	RequestedAt time.Time  `gorm:"column:requested_at;not null" json:"requested_at"`
	ApprovedAt  *time.Time `gorm:"column:approved_at" json:"approved_at"`
	ExecutedAt  *time.Time `gorm:"column:executed_at" json:"executed_at"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (MoneyRequest) TableName() string {
	return "MoneyRequests"
}

func (r *MoneyRequest) BeforeCreate(tx *gorm.DB) error {
	if r.RequestID == uuid.Nil {
		r.RequestID = uuid.New()
	}
	return nil
}

// IsPending reports whether the request still waits for a human decision.
func (r *MoneyRequest) IsPending() bool {
	return r.Status == StatusPendingApproval || r.Status == StatusAwaitingParent
}

// IsTerminal reports whether the request reached a state it can never leave.
func (r *MoneyRequest) IsTerminal() bool {
	switch r.Status {
	case StatusExecuted, StatusDeclined, StatusCanceled, StatusFailed:
		return true
	}
	return false
}
