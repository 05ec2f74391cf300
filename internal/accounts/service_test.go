package accounts

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
	"minta-backend/internal/journal"
)

func setupAccounts(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Guardrail{},
		&domain.JournalEntry{},
	))
	return &Service{DB: db, Journal: &journal.Service{DB: db}}, db
}

func TestRecordSynced_CreatesAccountWithSpendGuardrail(t *testing.T) {
	svc, db := setupAccounts(t)
	orgID := uuid.New()
	actorID := uuid.New()

	a, err := svc.RecordSynced(context.Background(), orgID, actorID, SyncInput{
		Provider:     "plaid",
		ProviderRef:  "acct-123",
		Name:         "Family checking",
		Kind:         domain.AccountKindChecking,
		BalanceCents: 125_000,
		Currency:     "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(125_000), a.BalanceCents)

	var rail domain.Guardrail
	require.NoError(t, db.First(&rail, "account_id = ?", a.AccountID).Error)
	assert.Equal(t, domain.IntentSpend, rail.Intent)
	assert.Equal(t, domain.ScopeAccount, rail.ScopeType)
	assert.Equal(t, domain.PolicyParentRequired, rail.ApprovalPolicy)
}

func TestRecordSynced_ResyncUpdatesInPlace(t *testing.T) {
	svc, db := setupAccounts(t)
	orgID := uuid.New()
	actorID := uuid.New()

	in := SyncInput{
		Provider:     "plaid",
		ProviderRef:  "acct-123",
		Name:         "Family checking",
		Kind:         domain.AccountKindChecking,
		BalanceCents: 125_000,
		Currency:     "USD",
	}
	first, err := svc.RecordSynced(context.Background(), orgID, actorID, in)
	require.NoError(t, err)

	in.Name = "Family checking (renamed)"
	in.BalanceCents = 99_000
	second, err := svc.RecordSynced(context.Background(), orgID, actorID, in)
	require.NoError(t, err)
	assert.Equal(t, first.AccountID, second.AccountID)
	assert.Equal(t, int64(99_000), second.BalanceCents)

	var accounts, rails int64
	require.NoError(t, db.Model(&domain.Account{}).Count(&accounts).Error)
	require.NoError(t, db.Model(&domain.Guardrail{}).Count(&rails).Error)
	assert.Equal(t, int64(1), accounts)
	assert.Equal(t, int64(1), rails)
}

func TestRecordSynced_RejectsUnknownKind(t *testing.T) {
	svc, _ := setupAccounts(t)
	_, err := svc.RecordSynced(context.Background(), uuid.New(), uuid.New(), SyncInput{
		Provider:    "plaid",
		ProviderRef: "acct-123",
		Name:        "Mystery",
		Kind:        "crypto_wallet",
		Currency:    "USD",
	})
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestViewAccounts_ScopedToOrg(t *testing.T) {
	svc, _ := setupAccounts(t)
	orgID := uuid.New()
	actorID := uuid.New()

	_, err := svc.RecordSynced(context.Background(), orgID, actorID, SyncInput{
		Provider: "plaid", ProviderRef: "a1", Name: "Checking", Kind: domain.AccountKindChecking, Currency: "USD",
	})
	require.NoError(t, err)

	mine, err := svc.ViewAccounts(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ViewAccounts(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
