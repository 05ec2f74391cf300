package guardrails

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
	"minta-backend/internal/journal"
)

var (
	ErrGuardrailNotFound = errors.New("Guardrail not found")
	ErrInvalidPolicy     = errors.New("Invalid approval policy")
	ErrInvalidIntent     = errors.New("Invalid intent")
)

type Service struct {
	DB      *gorm.DB
	Journal *journal.Service
}

// List returns the org's guardrails in stored order.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]domain.Guardrail, error) {
	var out []domain.Guardrail
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

// ListByIntent pre-fetches the candidate set the resolver works on. Guardrail
// volume per org is small, so one indexed query covers every resolution.
func ListByIntent(tx *gorm.DB, orgID uuid.UUID, intent string) ([]domain.Guardrail, error) {
	var out []domain.Guardrail
	err := tx.Where("org_id = ? AND intent = ?", orgID, intent).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

// UpdateInput patches policy fields on an existing guardrail. Nil fields are
// left untouched.
type UpdateInput struct {
	ApprovalPolicy         *string
	AutoApproveUpToCents   *int64
	ClearAutoApproveLimit  bool
	DailyLimitCents        *int64
	WeeklyLimitCents       *int64
	AllowedInstrumentKinds []string
	BlockedSymbols         []string
	MaxOrderAmountCents    *int64
	RequireApprovalForSell *bool
	AllowedRolesToInitiate []string
}

// Update patches a guardrail and journals the change. Guardrail edits are
// privileged (owner/admin), enforced by the route's permission middleware.
func (s *Service) Update(ctx context.Context, orgID, guardrailID, actorID uuid.UUID, in UpdateInput) (*domain.Guardrail, error) {
	var out *domain.Guardrail
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g domain.Guardrail
		if err := tx.Where("guardrail_id = ? AND org_id = ?", guardrailID, orgID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGuardrailNotFound
			}
			return err
		}

		if in.ApprovalPolicy != nil {
			if !domain.IsValidPolicy(*in.ApprovalPolicy) {
				return ErrInvalidPolicy
			}
			g.ApprovalPolicy = *in.ApprovalPolicy
		}
		if in.ClearAutoApproveLimit {
			g.AutoApproveUpToCents = nil
		} else if in.AutoApproveUpToCents != nil {
			g.AutoApproveUpToCents = in.AutoApproveUpToCents
		}
		if in.DailyLimitCents != nil {
			g.DailyLimitCents = in.DailyLimitCents
		}
		if in.WeeklyLimitCents != nil {
			g.WeeklyLimitCents = in.WeeklyLimitCents
		}
		if in.AllowedInstrumentKinds != nil {
			g.AllowedInstrumentKinds = domain.StringListJSON(in.AllowedInstrumentKinds)
		}
		if in.BlockedSymbols != nil {
			g.BlockedSymbols = domain.StringListJSON(in.BlockedSymbols)
		}
		if in.MaxOrderAmountCents != nil {
			g.MaxOrderAmountCents = in.MaxOrderAmountCents
		}
		if in.RequireApprovalForSell != nil {
			g.RequireApprovalForSell = in.RequireApprovalForSell
		}
		if in.AllowedRolesToInitiate != nil {
			g.AllowedRolesToInitiate = domain.StringListJSON(in.AllowedRolesToInitiate)
		}

		if err := tx.Save(&g).Error; err != nil {
			return err
		}
		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  "guardrail_updated",
			ActorID:    &actorID,
			EntityType: "guardrail",
			EntityID:   g.GuardrailID,
			Payload: map[string]interface{}{
				"intent":          g.Intent,
				"scope_type":      g.ScopeType,
				"approval_policy": g.ApprovalPolicy,
			},
		}); err != nil {
			return err
		}
		out = &g
		return nil
	})
	return out, err
}
