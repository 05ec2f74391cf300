package guardrails

import (
	"minta-backend/internal/domain"

	"github.com/google/uuid"
)

// CandidateScopes names the account and money-map node a requested action
// touches. Each domain derives these itself; the resolver only matches.
type CandidateScopes struct {
	AccountID *uuid.UUID
	NodeID    *uuid.UUID
}

// Resolve picks the single applicable guardrail out of the org's guardrails
// for one intent. Precedence, most specific first: account scope, then
// money-map-node scope, then organization scope. Returns nil when nothing
// matches; callers fall back to their domain default policy.
//
// Ties inside one specificity level (a provisioning bug) resolve to the first
// match in stored order so the outcome stays deterministic.
func Resolve(guardrails []domain.Guardrail, intent string, scopes CandidateScopes) *domain.Guardrail {
	if scopes.AccountID != nil {
		for i := range guardrails {
			g := &guardrails[i]
			if g.Intent != intent || g.ScopeType != domain.ScopeAccount {
				continue
			}
			if g.AccountID != nil && *g.AccountID == *scopes.AccountID {
				return g
			}
		}
	}
	if scopes.NodeID != nil {
		for i := range guardrails {
			g := &guardrails[i]
			if g.Intent != intent || g.ScopeType != domain.ScopeMoneyMapNode {
				continue
			}
			if g.NodeID != nil && *g.NodeID == *scopes.NodeID {
				return g
			}
		}
	}
	for i := range guardrails {
		g := &guardrails[i]
		if g.Intent == intent && g.ScopeType == domain.ScopeOrganization {
			return g
		}
	}
	return nil
}
