package income

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
	"minta-backend/internal/movements"
)

var (
	ErrStreamNotFound  = errors.New("Income stream not found")
	ErrStreamInactive  = errors.New("Income stream is not active")
	ErrAccountNotFound = errors.New("Account not found")
	ErrInvalidAmount   = errors.New("Amount must be a positive number")
	ErrInvalidCadence  = errors.New("Invalid cadence")
)

type Service struct {
	DB        *gorm.DB
	Journal   *journal.Service
	Movements *movements.Service
}

type CreateStreamInput struct {
	Name         string
	ToAccountID  uuid.UUID
	AmountCents  int64
	Currency     string
	Cadence      string
	FirstPayout  time.Time
}

// CreateStream registers a recurring payout into an account.
func (s *Service) CreateStream(ctx context.Context, orgID uuid.UUID, actor movements.Actor, in CreateStreamInput) (*domain.IncomeStream, error) {
	if in.Name == "" {
		return nil, errors.New("Stream name is required")
	}
	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !domain.IsValidCadence(in.Cadence) {
		return nil, ErrInvalidCadence
	}

	var stream *domain.IncomeStream
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", in.ToAccountID, orgID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		st := domain.IncomeStream{
			OrgID:        orgID,
			ToAccountID:  account.AccountID,
			Name:         in.Name,
			AmountCents:  in.AmountCents,
			Currency:     in.Currency,
			Cadence:      in.Cadence,
			NextPayoutAt: in.FirstPayout,
			Active:       true,
			CreatedBy:    actor.UserID,
		}
		if err := tx.Create(&st).Error; err != nil {
			return err
		}
		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  "income_stream_created",
			ActorID:    &actor.UserID,
			EntityType: "income_stream",
			EntityID:   st.StreamID,
			Payload:    map[string]interface{}{"name": st.Name, "amount_cents": st.AmountCents, "cadence": st.Cadence},
		}); err != nil {
			return err
		}
		stream = &st
		return nil
	})
	return stream, err
}

// PayoutResult pairs the movement record with the decision that drove it.
type PayoutResult struct {
	Request  *domain.MoneyRequest `json:"request"`
	Decision guardrails.Decision  `json:"decision"`
}

// RequestPayout runs the earn create path for one stream. Earn deposits
// declare themselves approval-exempt: the fallback policy is auto, a stricter
// earn guardrail still wins when one exists.
//
// A nil actor ID means system-initiated (the sweeper); the stream creator is
// recorded as requester so the audit trail still names a responsible user.
func (s *Service) RequestPayout(ctx context.Context, orgID, streamID uuid.UUID, actor *movements.Actor) (*PayoutResult, error) {
	var result *PayoutResult
	var execErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stream domain.IncomeStream
		if err := tx.Where("stream_id = ? AND org_id = ?", streamID, orgID).First(&stream).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStreamNotFound
			}
			return err
		}
		if !stream.Active {
			return ErrStreamInactive
		}

		requester := movements.Actor{UserID: stream.CreatedBy, Role: constants.Guardian}
		if actor != nil {
			requester = *actor
		}

		var account domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", stream.ToAccountID, orgID).First(&account).Error; err != nil {
			return err
		}

		candidates, err := guardrails.ListByIntent(tx, orgID, domain.IntentEarn)
		if err != nil {
			return err
		}
		g := guardrails.Resolve(candidates, domain.IntentEarn, guardrails.CandidateScopes{
			AccountID: &account.AccountID,
			NodeID:    account.NodeID,
		})
		decision := guardrails.Evaluate(g, stream.AmountCents, requester.Role, domain.PolicyAuto)

		req, err := s.Movements.Create(ctx, tx, movements.CreateParams{
			OrgID:       orgID,
			Intent:      domain.IntentEarn,
			Kind:        domain.RequestKindTransfer,
			ToAccountID: &account.AccountID,
			NodeID:      account.NodeID,
			AmountCents: stream.AmountCents,
			Currency:    stream.Currency,
			RequestedBy: requester,
			Decision:    decision,
			EventPrefix: "income_payout",
			StreamID:    &stream.StreamID,
		})
		if err != nil {
			var ee *movements.ExecutionError
			if errors.As(err, &ee) {
				result = &PayoutResult{Request: req, Decision: decision}
				execErr = err
				return nil
			}
			return err
		}
		result = &PayoutResult{Request: req, Decision: decision}
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

// MarkPaid advances a stream's next payout past now. Called by the sweeper
// after a payout attempt so one stream is not retried within the same sweep.
func (s *Service) MarkPaid(ctx context.Context, streamID uuid.UUID, from time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stream domain.IncomeStream
		if err := tx.Where("stream_id = ?", streamID).First(&stream).Error; err != nil {
			return err
		}
		stream.AdvanceNextPayout(from)
		return tx.Save(&stream).Error
	})
}

// DueStreams returns active streams whose payout time has arrived.
func (s *Service) DueStreams(ctx context.Context, now time.Time) ([]domain.IncomeStream, error) {
	var out []domain.IncomeStream
	err := s.DB.WithContext(ctx).
		Where("active = ? AND next_payout_at <= ?", true, now).
		Order("next_payout_at ASC").Find(&out).Error
	return out, err
}

// ViewStreams lists the org's income streams.
func (s *Service) ViewStreams(ctx context.Context, orgID uuid.UUID) ([]domain.IncomeStream, error) {
	var out []domain.IncomeStream
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&out).Error
	return out, err
}
