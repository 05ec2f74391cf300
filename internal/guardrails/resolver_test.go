package guardrails

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minta-backend/internal/domain"
)

func TestResolve_AccountBeatsNodeBeatsOrg(t *testing.T) {
	orgID := uuid.New()
	accountID := uuid.New()
	nodeID := uuid.New()

	orgG := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeOrganization}
	nodeG := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeMoneyMapNode, NodeID: &nodeID}
	acctG := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeAccount, AccountID: &accountID}
	all := []domain.Guardrail{orgG, nodeG, acctG}

	got := Resolve(all, domain.IntentSpend, CandidateScopes{AccountID: &accountID, NodeID: &nodeID})
	require.NotNil(t, got)
	assert.Equal(t, acctG.GuardrailID, got.GuardrailID)

	got = Resolve(all, domain.IntentSpend, CandidateScopes{NodeID: &nodeID})
	require.NotNil(t, got)
	assert.Equal(t, nodeG.GuardrailID, got.GuardrailID)

	got = Resolve(all, domain.IntentSpend, CandidateScopes{})
	require.NotNil(t, got)
	assert.Equal(t, orgG.GuardrailID, got.GuardrailID)
}

func TestResolve_IntentMustMatch(t *testing.T) {
	orgID := uuid.New()
	all := []domain.Guardrail{
		{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSave, ScopeType: domain.ScopeOrganization},
	}
	assert.Nil(t, Resolve(all, domain.IntentSpend, CandidateScopes{}))
}

func TestResolve_UnmatchedScopeFallsThrough(t *testing.T) {
	orgID := uuid.New()
	otherAccount := uuid.New()
	requestAccount := uuid.New()

	orgG := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeOrganization}
	acctG := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeAccount, AccountID: &otherAccount}

	got := Resolve([]domain.Guardrail{acctG, orgG}, domain.IntentSpend, CandidateScopes{AccountID: &requestAccount})
	require.NotNil(t, got)
	assert.Equal(t, orgG.GuardrailID, got.GuardrailID)
}

func TestResolve_TieBreaksOnStoredOrder(t *testing.T) {
	orgID := uuid.New()
	accountID := uuid.New()

	first := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeAccount, AccountID: &accountID}
	second := domain.Guardrail{GuardrailID: uuid.New(), OrgID: orgID, Intent: domain.IntentSpend, ScopeType: domain.ScopeAccount, AccountID: &accountID}

	got := Resolve([]domain.Guardrail{first, second}, domain.IntentSpend, CandidateScopes{AccountID: &accountID})
	require.NotNil(t, got)
	assert.Equal(t, first.GuardrailID, got.GuardrailID)
}

func TestResolve_NoMatchReturnsNil(t *testing.T) {
	assert.Nil(t, Resolve(nil, domain.IntentSpend, CandidateScopes{}))
}
