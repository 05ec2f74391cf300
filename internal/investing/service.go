package investing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
	"minta-backend/internal/movements"
	"minta-backend/internal/pkg/validation"
)

var (
	ErrAccountNotFound   = errors.New("Account not found")
	ErrNotBrokerage      = errors.New("Account is not a brokerage account")
	ErrInvalidSymbol     = errors.New("Invalid symbol")
	ErrInvalidSide       = errors.New("Side must be buy or sell")
	ErrInvalidAmount     = errors.New("Amount must be a positive number")
	ErrInvalidInstrument = errors.New("Instrument kind is required")
)

type Service struct {
	DB        *gorm.DB
	Journal   *journal.Service
	Movements *movements.Service
}

type OrderInput struct {
	AccountID      uuid.UUID
	Symbol         string
	Side           string
	InstrumentKind string
	NotionalCents  int64
	Currency       string
}

// OrderResult pairs the order record with the decision that drove it.
type OrderResult struct {
	Request  *domain.MoneyRequest `json:"request"`
	Decision guardrails.Decision  `json:"decision"`
}

// OrderBlockedError surfaces an outright guardrail veto. Blocked orders are
// rejected before any quote lookup; nothing is persisted.
type OrderBlockedError struct {
	ReasonCode string
}

func (e *OrderBlockedError) Error() string {
	return "Order blocked by guardrail: " + e.ReasonCode
}

// SubmitOrder evaluates and creates an investment order. The invest path is
// stricter than transfers: symbol blocklist and instrument allowlist veto the
// order before any amount or quote logic runs; pending orders park in
// awaiting_parent (or pending_approval for admin_only policies) and execute
// on approval.
func (s *Service) SubmitOrder(ctx context.Context, orgID uuid.UUID, actor movements.Actor, in OrderInput) (*OrderResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if !validation.IsValidSymbol(symbol) {
		return nil, ErrInvalidSymbol
	}
	if in.Side != domain.SideBuy && in.Side != domain.SideSell {
		return nil, ErrInvalidSide
	}
	if in.NotionalCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(in.InstrumentKind) == "" {
		return nil, ErrInvalidInstrument
	}

	var result *OrderResult
	var execErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", in.AccountID, orgID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if account.Kind != domain.AccountKindBrokerage {
			return ErrNotBrokerage
		}

		candidates, err := guardrails.ListByIntent(tx, orgID, domain.IntentInvest)
		if err != nil {
			return err
		}
		g := guardrails.Resolve(candidates, domain.IntentInvest, guardrails.CandidateScopes{
			AccountID: &account.AccountID,
			NodeID:    account.NodeID,
		})
		decision := guardrails.EvaluateOrder(g, in.NotionalCents, guardrails.OrderContext{
			Symbol:         symbol,
			Side:           in.Side,
			InstrumentKind: in.InstrumentKind,
			InitiatorRole:  actor.Role,
		})
		if decision.Outcome == guardrails.OutcomeBlocked {
			return &OrderBlockedError{ReasonCode: decision.ReasonCode}
		}

		kind := guardrails.NormalizeInstrumentKind(in.InstrumentKind)
		req, err := s.Movements.Create(ctx, tx, movements.CreateParams{
			OrgID:          orgID,
			Intent:         domain.IntentInvest,
			Kind:           domain.RequestKindOrder,
			FromAccountID:  &account.AccountID,
			NodeID:         account.NodeID,
			Symbol:         &symbol,
			Side:           &in.Side,
			InstrumentKind: &kind,
			AmountCents:    in.NotionalCents,
			Currency:       in.Currency,
			RequestedBy:    actor,
			Decision:       decision,
			EventPrefix:    "order",
		})
		if err != nil {
			var ee *movements.ExecutionError
			if errors.As(err, &ee) {
				result = &OrderResult{Request: req, Decision: decision}
				execErr = err
				return nil
			}
			return err
		}
		result = &OrderResult{Request: req, Decision: decision}
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

// ViewPositions lists open positions for an account.
func (s *Service) ViewPositions(ctx context.Context, orgID, accountID uuid.UUID) ([]domain.Position, error) {
	var out []domain.Position
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND account_id = ? AND quantity > 0", orgID, accountID).
		Order("symbol ASC").Find(&out).Error
	return out, err
}
