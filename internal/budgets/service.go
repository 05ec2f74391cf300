package budgets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
	"minta-backend/internal/movements"
	"minta-backend/internal/pkg/validation"
)

var (
	ErrBudgetNotFound   = errors.New("Budget not found")
	ErrInvalidPeriodKey = errors.New("Malformed period key, expected YYYY-MM")
	ErrInvalidLimit     = errors.New("Limit must be a positive amount")
	ErrInvalidAmount    = errors.New("Amount must be a positive number")
)

type Service struct {
	DB        *gorm.DB
	Journal   *journal.Service
	Movements *movements.Service
}

type CreateBudgetInput struct {
	Name       string
	PeriodKey  string
	LimitCents int64
	Currency   string
	ParentNode *uuid.UUID
}

// CreateBudget creates the budget line with its money-map node and provisions
// the default spend guardrail at node scope.
func (s *Service) CreateBudget(ctx context.Context, orgID uuid.UUID, actor movements.Actor, in CreateBudgetInput) (*domain.Budget, error) {
	if in.Name == "" {
		return nil, errors.New("Budget name is required")
	}
	if !validation.IsValidPeriodKey(in.PeriodKey) {
		return nil, ErrInvalidPeriodKey
	}
	if in.LimitCents <= 0 {
		return nil, ErrInvalidLimit
	}

	var budget *domain.Budget
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node := domain.MoneyMapNode{
			OrgID:    orgID,
			ParentID: in.ParentNode,
			Name:     in.Name,
			Kind:     domain.NodeKindBudget,
		}
		if err := tx.Create(&node).Error; err != nil {
			return err
		}

		b := domain.Budget{
			OrgID:      orgID,
			NodeID:     node.NodeID,
			Name:       in.Name,
			PeriodKey:  in.PeriodKey,
			LimitCents: in.LimitCents,
			Currency:   in.Currency,
			CreatedBy:  actor.UserID,
		}
		if err := tx.Create(&b).Error; err != nil {
			return err
		}

		if _, err := guardrails.EnsureNodeSpend(tx, orgID, node.NodeID, actor.UserID); err != nil {
			return err
		}

		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  "budget_created",
			ActorID:    &actor.UserID,
			EntityType: "budget",
			EntityID:   b.BudgetID,
			Payload:    map[string]interface{}{"name": b.Name, "period_key": b.PeriodKey, "limit_cents": b.LimitCents},
		}); err != nil {
			return err
		}
		budget = &b
		return nil
	})
	return budget, err
}

// SpendResult pairs the movement record with the decision that drove it.
type SpendResult struct {
	Request  *domain.MoneyRequest `json:"request"`
	Decision guardrails.Decision  `json:"decision"`
}

// RecordSpend initiates an outbound spend against a budget line.
func (s *Service) RecordSpend(ctx context.Context, orgID, budgetID uuid.UUID, actor movements.Actor, fromAccountID uuid.UUID, amountCents int64, currency string) (*SpendResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *SpendResult
	var execErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var budget domain.Budget
		if err := tx.Where("budget_id = ? AND org_id = ?", budgetID, orgID).First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBudgetNotFound
			}
			return err
		}

		candidates, err := guardrails.ListByIntent(tx, orgID, domain.IntentSpend)
		if err != nil {
			return err
		}
		g := guardrails.Resolve(candidates, domain.IntentSpend, guardrails.CandidateScopes{
			AccountID: &fromAccountID,
			NodeID:    &budget.NodeID,
		})
		decision := guardrails.Evaluate(g, amountCents, actor.Role, domain.PolicyParentRequired)

		req, err := s.Movements.Create(ctx, tx, movements.CreateParams{
			OrgID:         orgID,
			Intent:        domain.IntentSpend,
			Kind:          domain.RequestKindTransfer,
			FromAccountID: &fromAccountID,
			NodeID:        &budget.NodeID,
			AmountCents:   amountCents,
			Currency:      currency,
			RequestedBy:   actor,
			Decision:      decision,
			EventPrefix:   "budget_spend",
			BudgetID:      &budget.BudgetID,
		})
		if err != nil {
			var ee *movements.ExecutionError
			if errors.As(err, &ee) {
				result = &SpendResult{Request: req, Decision: decision}
				execErr = err
				return nil
			}
			return err
		}
		result = &SpendResult{Request: req, Decision: decision}
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

// ViewBudgets lists the org's budget lines for one period (all when empty).
func (s *Service) ViewBudgets(ctx context.Context, orgID uuid.UUID, periodKey string) ([]domain.Budget, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if periodKey != "" {
		if !validation.IsValidPeriodKey(periodKey) {
			return nil, ErrInvalidPeriodKey
		}
		q = q.Where("period_key = ?", periodKey)
	}
	var out []domain.Budget
	err := q.Order("created_at ASC").Find(&out).Error
	return out, err
}
