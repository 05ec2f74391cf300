package guardrails

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

// EnsureParams identifies one (org, intent, scope) triple plus the default
// policy to install when no guardrail exists yet.
type EnsureParams struct {
	OrgID                uuid.UUID
	Intent               string
	ScopeType            string
	NodeID               *uuid.UUID
	AccountID            *uuid.UUID
	Policy               string
	AutoApproveUpToCents *int64
	CreatedBy            uuid.UUID
}

// Ensure guarantees a guardrail exists for the triple without ever creating a
// duplicate: look up the org+intent set, filter by scope match, insert only if
// absent. Safe to call repeatedly from goal creation, budget creation and
// account sync. Must run inside the caller's transaction.
func Ensure(tx *gorm.DB, p EnsureParams) (*domain.Guardrail, error) {
	var existing []domain.Guardrail
	if err := tx.Where("org_id = ? AND intent = ?", p.OrgID, p.Intent).
		Order("created_at ASC").Find(&existing).Error; err != nil {
		return nil, err
	}
	for i := range existing {
		if scopeMatches(&existing[i], p) {
			return &existing[i], nil
		}
	}

	g := domain.Guardrail{
		OrgID:                p.OrgID,
		Intent:               p.Intent,
		ScopeType:            p.ScopeType,
		NodeID:               p.NodeID,
		AccountID:            p.AccountID,
		ApprovalPolicy:       p.Policy,
		AutoApproveUpToCents: p.AutoApproveUpToCents,
		CreatedBy:            p.CreatedBy,
	}
	if err := tx.Create(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func scopeMatches(g *domain.Guardrail, p EnsureParams) bool {
	if g.ScopeType != p.ScopeType {
		return false
	}
	switch g.ScopeType {
	case domain.ScopeAccount:
		return g.AccountID != nil && p.AccountID != nil && *g.AccountID == *p.AccountID
	case domain.ScopeMoneyMapNode:
		return g.NodeID != nil && p.NodeID != nil && *g.NodeID == *p.NodeID
	default:
		return true
	}
}

// EnsureOrgDefaults installs the org-wide baseline: inbound intents run on
// auto, everything that moves money out or into markets waits for a parent.
// Idempotent, so org creation and re-provisioning can both call it.
func EnsureOrgDefaults(tx *gorm.DB, orgID, createdBy uuid.UUID) error {
	defaults := []struct {
		intent string
		policy string
	}{
		{domain.IntentSave, domain.PolicyAuto},
		{domain.IntentEarn, domain.PolicyAuto},
		{domain.IntentSpend, domain.PolicyParentRequired},
		{domain.IntentDonate, domain.PolicyParentRequired},
		{domain.IntentInvest, domain.PolicyParentRequired},
		{domain.IntentManual, domain.PolicyParentRequired},
	}
	for _, d := range defaults {
		if _, err := Ensure(tx, EnsureParams{
			OrgID:     orgID,
			Intent:    d.intent,
			ScopeType: domain.ScopeOrganization,
			Policy:    d.policy,
			CreatedBy: createdBy,
		}); err != nil {
			return err
		}
	}
	return nil
}

// EnsureNodeDeposit installs the default inbound policy for a node scope:
// auto with no limit. Accumulation into a goal is the low-risk direction.
func EnsureNodeDeposit(tx *gorm.DB, orgID, nodeID, createdBy uuid.UUID, intent string) (*domain.Guardrail, error) {
	return Ensure(tx, EnsureParams{
		OrgID:     orgID,
		Intent:    intent,
		ScopeType: domain.ScopeMoneyMapNode,
		NodeID:    &nodeID,
		Policy:    domain.PolicyAuto,
		CreatedBy: createdBy,
	})
}

// EnsureNodeSpend installs the default outbound policy for a node scope:
// parent_required. Outbound movement is the risk surface needing oversight.
func EnsureNodeSpend(tx *gorm.DB, orgID, nodeID, createdBy uuid.UUID) (*domain.Guardrail, error) {
	return Ensure(tx, EnsureParams{
		OrgID:     orgID,
		Intent:    domain.IntentSpend,
		ScopeType: domain.ScopeMoneyMapNode,
		NodeID:    &nodeID,
		Policy:    domain.PolicyParentRequired,
		CreatedBy: createdBy,
	})
}

// EnsureAccountSpend installs the default outbound policy for a newly synced
// account.
func EnsureAccountSpend(tx *gorm.DB, orgID, accountID, createdBy uuid.UUID) (*domain.Guardrail, error) {
	return Ensure(tx, EnsureParams{
		OrgID:     orgID,
		Intent:    domain.IntentSpend,
		ScopeType: domain.ScopeAccount,
		AccountID: &accountID,
		Policy:    domain.PolicyParentRequired,
		CreatedBy: createdBy,
	})
}
