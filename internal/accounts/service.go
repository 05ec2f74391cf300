package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
)

var ErrInvalidKind = errors.New("Invalid account kind")

type Service struct {
	DB      *gorm.DB
	Journal *journal.Service
}

// SyncInput is one normalized account record from the external aggregator.
type SyncInput struct {
	Provider     string
	ProviderRef  string
	Name         string
	Kind         string
	BalanceCents int64
	Currency     string
	NodeID       *uuid.UUID
}

// RecordSynced upserts a synced account by (org, provider ref) and guarantees
// a spend guardrail exists for it before any request can target it. Re-running
// a sync never duplicates accounts or guardrails.
func (s *Service) RecordSynced(ctx context.Context, orgID, actorID uuid.UUID, in SyncInput) (*domain.Account, error) {
	switch in.Kind {
	case domain.AccountKindChecking, domain.AccountKindSavings, domain.AccountKindBrokerage:
	default:
		return nil, ErrInvalidKind
	}

	var account *domain.Account
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Account
		err := tx.Where("org_id = ? AND provider = ? AND provider_ref = ?", orgID, in.Provider, in.ProviderRef).
			First(&existing).Error
		if err == nil {
			existing.Name = in.Name
			existing.BalanceCents = in.BalanceCents
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			account = &existing
			// Guardrail may still be missing for accounts synced before
			// provisioning existed; ensure is idempotent either way.
			_, err = guardrails.EnsureAccountSpend(tx, orgID, existing.AccountID, actorID)
			return err
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		a := domain.Account{
			OrgID:        orgID,
			NodeID:       in.NodeID,
			Name:         in.Name,
			Kind:         in.Kind,
			Provider:     &in.Provider,
			ProviderRef:  &in.ProviderRef,
			BalanceCents: in.BalanceCents,
			Currency:     in.Currency,
		}
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		if _, err := guardrails.EnsureAccountSpend(tx, orgID, a.AccountID, actorID); err != nil {
			return err
		}
		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  "account_synced",
			ActorID:    &actorID,
			EntityType: "account",
			EntityID:   a.AccountID,
			Payload:    map[string]interface{}{"name": a.Name, "kind": a.Kind, "provider": in.Provider},
		}); err != nil {
			return err
		}
		account = &a
		return nil
	})
	return account, err
}

// ViewAccounts lists the org's accounts.
func (s *Service) ViewAccounts(ctx context.Context, orgID uuid.UUID) ([]domain.Account, error) {
	var out []domain.Account
	err := s.DB.WithContext(ctx).Where("org_id = ?", orgID).Order("created_at ASC").Find(&out).Error
	return out, err
}
