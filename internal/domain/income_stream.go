package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Income stream cadences.
const (
	CadenceWeekly   = "weekly"
	CadenceBiweekly = "biweekly"
	CadenceMonthly  = "monthly"
)

// IsValidCadence returns true for a known payout cadence.
func IsValidCadence(c string) bool {
	return c == CadenceWeekly || c == CadenceBiweekly || c == CadenceMonthly
}

// IncomeStream is a recurring payout (allowance, chores, payroll) into an
// account. The sweeper re-runs the earn create path for streams that are due.
type IncomeStream struct {
	StreamID     uuid.UUID `gorm:"column:stream_id;type:uuid;primaryKey" json:"stream_id"`
	OrgID        uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	ToAccountID  uuid.UUID `gorm:"column:to_account_id;type:uuid;not null" json:"to_account_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	AmountCents  int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency     string    `gorm:"column:currency;type:char(3);not null" json:"currency"`
	Cadence      string    `gorm:"column:cadence;type:varchar(10);not null" json:"cadence"`
	NextPayoutAt time.Time `gorm:"column:next_payout_at;not null;index" json:"next_payout_at"`
	Active       bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedBy    uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (IncomeStream) TableName() string {
	return "IncomeStreams"
}

func (s *IncomeStream) BeforeCreate(tx *gorm.DB) error {
	if s.StreamID == uuid.Nil {
		s.StreamID = uuid.New()
	}
	return nil
}

// AdvanceNextPayout moves NextPayoutAt forward one cadence step from the
// given time.
func (s *IncomeStream) AdvanceNextPayout(from time.Time) {
	switch s.Cadence {
	case CadenceWeekly:
		s.NextPayoutAt = from.AddDate(0, 0, 7)
	case CadenceBiweekly:
		s.NextPayoutAt = from.AddDate(0, 0, 14)
	default:
		s.NextPayoutAt = from.AddDate(0, 1, 0)
	}
}
