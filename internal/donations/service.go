package donations

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
	ErrCauseNotFound   = errors.New("Cause not found")
	ErrAccountNotFound = errors.New("Account not found")
	ErrInvalidAmount   = errors.New("Amount must be a positive number")
)

type Service struct {
	DB        *gorm.DB
	Journal   *journal.Service
	Movements *movements.Service
}

// CreateCause registers a donation target for the org.
func (s *Service) CreateCause(ctx context.Context, orgID uuid.UUID, actor movements.Actor, name string, description *string) (*domain.Cause, error) {
	if name == "" {
		return nil, errors.New("Cause name is required")
	}
	cause := domain.Cause{
		OrgID:       orgID,
		Name:        name,
		Description: description,
		CreatedBy:   actor.UserID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&cause).Error; err != nil {
			return err
		}
		return s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  "cause_created",
			ActorID:    &actor.UserID,
			EntityType: "cause",
			EntityID:   cause.CauseID,
			Payload:    map[string]interface{}{"name": name},
		})
	})
	if err != nil {
		return nil, err
	}
	return &cause, nil
}

// DonationResult pairs the movement record with the decision that drove it.
type DonationResult struct {
	Request  *domain.MoneyRequest `json:"request"`
	Decision guardrails.Decision  `json:"decision"`
}

// Schedule initiates an outbound donation from an account toward a cause.
func (s *Service) Schedule(ctx context.Context, orgID, causeID uuid.UUID, actor movements.Actor, fromAccountID uuid.UUID, amountCents int64, currency string) (*DonationResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *DonationResult
	var execErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cause domain.Cause
		if err := tx.Where("cause_id = ? AND org_id = ?", causeID, orgID).First(&cause).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCauseNotFound
			}
			return err
		}
		var from domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", fromAccountID, orgID).First(&from).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		candidates, err := guardrails.ListByIntent(tx, orgID, domain.IntentDonate)
		if err != nil {
			return err
		}
		g := guardrails.Resolve(candidates, domain.IntentDonate, guardrails.CandidateScopes{
			AccountID: &from.AccountID,
			NodeID:    from.NodeID,
		})
		decision := guardrails.Evaluate(g, amountCents, actor.Role, domain.PolicyParentRequired)

		req, err := s.Movements.Create(ctx, tx, movements.CreateParams{
			OrgID:         orgID,
			Intent:        domain.IntentDonate,
			Kind:          domain.RequestKindTransfer,
			FromAccountID: &from.AccountID,
			NodeID:        from.NodeID,
			AmountCents:   amountCents,
			Currency:      currency,
			RequestedBy:   actor,
			Decision:      decision,
			EventPrefix:   "donation",
			CauseID:       &cause.CauseID,
		})
		if err != nil {
			var ee *movements.ExecutionError
			if errors.As(err, &ee) {
				result = &DonationResult{Request: req, Decision: decision}
				execErr = err
				return nil
			}
			return err
		}
		result = &DonationResult{Request: req, Decision: decision}
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

// ViewCauses lists the org's registered causes.
func (s *Service) ViewCauses(ctx context.Context, orgID uuid.UUID) ([]domain.Cause, error) {
	var out []domain.Cause
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&out).Error
	return out, err
}
