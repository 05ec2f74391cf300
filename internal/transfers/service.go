package transfers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
	"minta-backend/internal/movements"
)

var (
	ErrSameAccount     = errors.New("Cannot transfer to the same account")
	ErrAccountNotFound = errors.New("Account not found")
	ErrInvalidAmount   = errors.New("Amount must be a positive number")
)

type Service struct {
	DB        *gorm.DB
	Journal   *journal.Service
	Movements *movements.Service
}

// TransferResult pairs the movement record with the decision that drove it.
type TransferResult struct {
	Request  *domain.MoneyRequest `json:"request"`
	Decision guardrails.Decision  `json:"decision"`
}

// Initiate creates an account-to-account transfer under the manual intent.
// Both accounts must belong to the org; a foreign-scoped account is a
// validation error, nothing is persisted.
func (s *Service) Initiate(ctx context.Context, orgID uuid.UUID, actor movements.Actor, fromAccountID, toAccountID uuid.UUID, amountCents int64, currency string) (*TransferResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if fromAccountID == toAccountID {
		return nil, ErrSameAccount
	}

	var result *TransferResult
	var execErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", fromAccountID, orgID).First(&from).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		var to domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", toAccountID, orgID).First(&to).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		candidates, err := guardrails.ListByIntent(tx, orgID, domain.IntentManual)
		if err != nil {
			return err
		}
		g := guardrails.Resolve(candidates, domain.IntentManual, guardrails.CandidateScopes{
			AccountID: &from.AccountID,
			NodeID:    from.NodeID,
		})
		decision := guardrails.Evaluate(g, amountCents, actor.Role, domain.PolicyParentRequired)

		req, err := s.Movements.Create(ctx, tx, movements.CreateParams{
			OrgID:         orgID,
			Intent:        domain.IntentManual,
			Kind:          domain.RequestKindTransfer,
			FromAccountID: &from.AccountID,
			ToAccountID:   &to.AccountID,
			NodeID:        from.NodeID,
			AmountCents:   amountCents,
			Currency:      currency,
			RequestedBy:   actor,
			Decision:      decision,
			EventPrefix:   "transfer",
		})
		if err != nil {
			var ee *movements.ExecutionError
			if errors.As(err, &ee) {
				result = &TransferResult{Request: req, Decision: decision}
				execErr = err
				return nil
			}
			return err
		}
		result = &TransferResult{Request: req, Decision: decision}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if execErr != nil {
		return result, execErr
	}
	return result, nil
}
