package guardrails

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

func setupProvisionDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Guardrail{}))
	return db
}

func TestEnsure_CreatesThenReuses(t *testing.T) {
	db := setupProvisionDB(t)
	orgID := uuid.New()
	createdBy := uuid.New()

	p := EnsureParams{
		OrgID:     orgID,
		Intent:    domain.IntentSpend,
		ScopeType: domain.ScopeOrganization,
		Policy:    domain.PolicyParentRequired,
		CreatedBy: createdBy,
	}

	first, err := Ensure(db, p)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := Ensure(db, p)
	require.NoError(t, err)
	assert.Equal(t, first.GuardrailID, second.GuardrailID)

	var count int64
	require.NoError(t, db.Model(&domain.Guardrail{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsure_DistinctScopesCoexist(t *testing.T) {
	db := setupProvisionDB(t)
	orgID := uuid.New()
	createdBy := uuid.New()
	accountA := uuid.New()
	accountB := uuid.New()

	a, err := Ensure(db, EnsureParams{
		OrgID:     orgID,
		Intent:    domain.IntentSpend,
		ScopeType: domain.ScopeAccount,
		AccountID: &accountA,
		Policy:    domain.PolicyParentRequired,
		CreatedBy: createdBy,
	})
	require.NoError(t, err)

	b, err := Ensure(db, EnsureParams{
		OrgID:     orgID,
		Intent:    domain.IntentSpend,
		ScopeType: domain.ScopeAccount,
		AccountID: &accountB,
		Policy:    domain.PolicyParentRequired,
		CreatedBy: createdBy,
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.GuardrailID, b.GuardrailID)

	// Org scope for the same intent is yet another guardrail.
	o, err := Ensure(db, EnsureParams{
		OrgID:     orgID,
		Intent:    domain.IntentSpend,
		ScopeType: domain.ScopeOrganization,
		Policy:    domain.PolicyAuto,
		CreatedBy: createdBy,
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.GuardrailID, o.GuardrailID)

	var count int64
	require.NoError(t, db.Model(&domain.Guardrail{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestEnsureOrgDefaults_Idempotent(t *testing.T) {
	db := setupProvisionDB(t)
	orgID := uuid.New()
	createdBy := uuid.New()

	require.NoError(t, EnsureOrgDefaults(db, orgID, createdBy))
	require.NoError(t, EnsureOrgDefaults(db, orgID, createdBy))

	var all []domain.Guardrail
	require.NoError(t, db.Where("org_id = ?", orgID).Find(&all).Error)
	assert.Len(t, all, 6)

	policies := map[string]string{}
	for _, g := range all {
		assert.Equal(t, domain.ScopeOrganization, g.ScopeType)
		policies[g.Intent] = g.ApprovalPolicy
	}
	assert.Equal(t, domain.PolicyAuto, policies[domain.IntentSave])
	assert.Equal(t, domain.PolicyAuto, policies[domain.IntentEarn])
	assert.Equal(t, domain.PolicyParentRequired, policies[domain.IntentSpend])
	assert.Equal(t, domain.PolicyParentRequired, policies[domain.IntentDonate])
	assert.Equal(t, domain.PolicyParentRequired, policies[domain.IntentInvest])
	assert.Equal(t, domain.PolicyParentRequired, policies[domain.IntentManual])
}

func TestEnsureNodeDeposit_ScopedToNode(t *testing.T) {
	db := setupProvisionDB(t)
	orgID := uuid.New()
	createdBy := uuid.New()
	nodeID := uuid.New()

	g, err := EnsureNodeDeposit(db, orgID, nodeID, createdBy, domain.IntentSave)
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeMoneyMapNode, g.ScopeType)
	require.NotNil(t, g.NodeID)
	assert.Equal(t, nodeID, *g.NodeID)
	assert.Equal(t, domain.PolicyAuto, g.ApprovalPolicy)

	again, err := EnsureNodeDeposit(db, orgID, nodeID, createdBy, domain.IntentSave)
	require.NoError(t, err)
	assert.Equal(t, g.GuardrailID, again.GuardrailID)
}
