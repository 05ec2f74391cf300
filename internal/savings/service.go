package savings

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
	ErrGoalNotFound   = errors.New("Goal not found")
	ErrInvalidTarget  = errors.New("Target must be a positive amount")
	ErrInvalidAmount  = errors.New("Amount must be a positive number")
	ErrCurrencyNeeded = errors.New("Currency is required")
)

type Service struct {
	DB        *gorm.DB
	Journal   *journal.Service
	Movements *movements.Service
}

type CreateGoalInput struct {
	Name        string
	TargetCents int64
	Currency    string
	ParentNode  *uuid.UUID
}

// CreateGoal creates the goal with its money-map node and envelope account,
// and provisions the default guardrails for its scopes: deposits auto
// (unlimited), withdrawals parent_required.
func (s *Service) CreateGoal(ctx context.Context, orgID uuid.UUID, actor movements.Actor, in CreateGoalInput) (*domain.Goal, error) {
	if in.Name == "" {
		return nil, errors.New("Goal name is required")
	}
	if in.TargetCents <= 0 {
		return nil, ErrInvalidTarget
	}

	var goal *domain.Goal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node := domain.MoneyMapNode{
			OrgID:    orgID,
			ParentID: in.ParentNode,
			Name:     in.Name,
			Kind:     domain.NodeKindGoal,
		}
		if err := tx.Create(&node).Error; err != nil {
			return err
		}

		account := domain.Account{
			OrgID:    orgID,
			NodeID:   &node.NodeID,
			Name:     in.Name + " envelope",
			Kind:     domain.AccountKindGoal,
			Currency: in.Currency,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		g := domain.Goal{
			OrgID:       orgID,
			NodeID:      node.NodeID,
			AccountID:   account.AccountID,
			Name:        in.Name,
			TargetCents: in.TargetCents,
			Currency:    in.Currency,
			CreatedBy:   actor.UserID,
		}
		if err := tx.Create(&g).Error; err != nil {
			return err
		}

		if _, err := guardrails.EnsureNodeDeposit(tx, orgID, node.NodeID, actor.UserID, domain.IntentSave); err != nil {
			return err
		}
		if _, err := guardrails.EnsureNodeSpend(tx, orgID, node.NodeID, actor.UserID); err != nil {
			return err
		}

		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  "goal_created",
			ActorID:    &actor.UserID,
			EntityType: "goal",
			EntityID:   g.GoalID,
			Payload:    map[string]interface{}{"name": g.Name, "target_cents": g.TargetCents},
		}); err != nil {
			return err
		}
		goal = &g
		return nil
	})
	return goal, err
}

// ContributionResult pairs the movement record with the decision that drove
// it, so the UI can explain "why pending".
type ContributionResult struct {
	Request  *domain.MoneyRequest `json:"request"`
	Decision guardrails.Decision  `json:"decision"`
}

// Contribute initiates a savings transfer into the goal's envelope.
// Guardrail read, decision and movement insert share one transaction.
func (s *Service) Contribute(ctx context.Context, orgID, goalID uuid.UUID, actor movements.Actor, fromAccountID *uuid.UUID, amountCents int64, currency string) (*ContributionResult, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		return nil, ErrCurrencyNeeded
	}

	var result *ContributionResult
	var execErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var goal domain.Goal
		if err := tx.Where("goal_id = ? AND org_id = ?", goalID, orgID).First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGoalNotFound
			}
			return err
		}

		candidates, err := guardrails.ListByIntent(tx, orgID, domain.IntentSave)
		if err != nil {
			return err
		}
		g := guardrails.Resolve(candidates, domain.IntentSave, guardrails.CandidateScopes{
			AccountID: &goal.AccountID,
			NodeID:    &goal.NodeID,
		})
		decision := guardrails.Evaluate(g, amountCents, actor.Role, domain.PolicyParentRequired)

		req, err := s.Movements.Create(ctx, tx, movements.CreateParams{
			OrgID:         orgID,
			Intent:        domain.IntentSave,
			Kind:          domain.RequestKindTransfer,
			FromAccountID: fromAccountID,
			ToAccountID:   &goal.AccountID,
			NodeID:        &goal.NodeID,
			AmountCents:   amountCents,
			Currency:      currency,
			RequestedBy:   actor,
			Decision:      decision,
			EventPrefix:   "goal_contribution",
			GoalID:        &goal.GoalID,
		})
		if err != nil {
			var ee *movements.ExecutionError
			if errors.As(err, &ee) {
				// The failed request must be committed, not rolled back.
				result = &ContributionResult{Request: req, Decision: decision}
				execErr = err
				return nil
			}
			return err
		}
		result = &ContributionResult{Request: req, Decision: decision}
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

// ViewGoals lists the org's goals.
func (s *Service) ViewGoals(ctx context.Context, orgID uuid.UUID) ([]domain.Goal, error) {
	var out []domain.Goal
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&out).Error
	return out, err
}
