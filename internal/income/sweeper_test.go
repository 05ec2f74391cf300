package income

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
	"minta-backend/internal/journal"
	"minta-backend/internal/movements"
)

func setupIncome(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Goal{},
		&domain.Budget{},
		&domain.Guardrail{},
		&domain.IncomeStream{},
		&domain.MoneyRequest{},
		&domain.JournalEntry{},
	))
	j := &journal.Service{DB: db}
	return &Service{
		DB:        db,
		Journal:   j,
		Movements: &movements.Service{DB: db, Journal: j},
	}, db
}

func payoutAccount(t *testing.T, db *gorm.DB, orgID uuid.UUID) *domain.Account {
	a := domain.Account{
		OrgID:    orgID,
		Name:     "Allowance",
		Kind:     domain.AccountKindChecking,
		Currency: "USD",
	}
	require.NoError(t, db.Create(&a).Error)
	return &a
}

func TestCreateStream_Validates(t *testing.T) {
	svc, db := setupIncome(t)
	orgID := uuid.New()
	actor := movements.Actor{UserID: uuid.New(), Role: constants.Guardian}
	acct := payoutAccount(t, db, orgID)

	_, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Allowance", ToAccountID: acct.AccountID, AmountCents: 0, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: time.Now(),
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Allowance", ToAccountID: acct.AccountID, AmountCents: 500, Currency: "USD", Cadence: "daily", FirstPayout: time.Now(),
	})
	assert.ErrorIs(t, err, ErrInvalidCadence)

	_, err = svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Allowance", ToAccountID: uuid.New(), AmountCents: 500, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: time.Now(),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRequestPayout_EarnRunsOnAutoFallback(t *testing.T) {
	svc, db := setupIncome(t)
	orgID := uuid.New()
	actor := movements.Actor{UserID: uuid.New(), Role: constants.Guardian}
	acct := payoutAccount(t, db, orgID)

	stream, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Allowance", ToAccountID: acct.AccountID, AmountCents: 500, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: time.Now().UTC(),
	})
	require.NoError(t, err)

	// No earn guardrail configured: the fallback is auto, not parent_required.
	res, err := svc.RequestPayout(context.Background(), orgID, stream.StreamID, &actor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, res.Request.Status)

	var row domain.Account
	require.NoError(t, db.First(&row, "account_id = ?", acct.AccountID).Error)
	assert.Equal(t, int64(500), row.BalanceCents)
}

func TestRequestPayout_InactiveStream(t *testing.T) {
	svc, db := setupIncome(t)
	orgID := uuid.New()
	actor := movements.Actor{UserID: uuid.New(), Role: constants.Guardian}
	acct := payoutAccount(t, db, orgID)

	stream, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Allowance", ToAccountID: acct.AccountID, AmountCents: 500, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.IncomeStream{}).Where("stream_id = ?", stream.StreamID).Update("active", false).Error)

	_, err = svc.RequestPayout(context.Background(), orgID, stream.StreamID, &actor)
	assert.ErrorIs(t, err, ErrStreamInactive)
}

func TestSweeper_RunOncePaysDueStreamsAndAdvancesSchedule(t *testing.T) {
	svc, db := setupIncome(t)
	orgID := uuid.New()
	actor := movements.Actor{UserID: uuid.New(), Role: constants.Guardian}
	acct := payoutAccount(t, db, orgID)

	now := time.Now().UTC()
	due, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Allowance", ToAccountID: acct.AccountID, AmountCents: 500, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	notDue, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Chores", ToAccountID: acct.AccountID, AmountCents: 200, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: now.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	sweeper := &Sweeper{Service: svc}
	sweeper.RunOnce(context.Background(), now)

	// Only the due stream paid out.
	var row domain.Account
	require.NoError(t, db.First(&row, "account_id = ?", acct.AccountID).Error)
	assert.Equal(t, int64(500), row.BalanceCents)

	// Due stream advanced one cadence step; the other is untouched.
	var paid, waiting domain.IncomeStream
	require.NoError(t, db.First(&paid, "stream_id = ?", due.StreamID).Error)
	require.NoError(t, db.First(&waiting, "stream_id = ?", notDue.StreamID).Error)
	assert.True(t, paid.NextPayoutAt.After(now.AddDate(0, 0, 6)))
	assert.WithinDuration(t, notDue.NextPayoutAt, waiting.NextPayoutAt, time.Second)

	// System-initiated payout records the stream creator as requester.
	var req domain.MoneyRequest
	require.NoError(t, db.First(&req, "org_id = ?", orgID).Error)
	assert.Equal(t, actor.UserID, req.RequestedBy)

	// Second sweep at the same instant finds nothing due.
	sweeper.RunOnce(context.Background(), now)
	require.NoError(t, db.First(&row, "account_id = ?", acct.AccountID).Error)
	assert.Equal(t, int64(500), row.BalanceCents)
}

func TestSweeper_FailingStreamIsSkippedNotRetried(t *testing.T) {
	svc, db := setupIncome(t)
	orgID := uuid.New()
	actor := movements.Actor{UserID: uuid.New(), Role: constants.Guardian}
	acct := payoutAccount(t, db, orgID)

	now := time.Now().UTC()
	broken, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Broken", ToAccountID: acct.AccountID, AmountCents: 500, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	healthy, err := svc.CreateStream(context.Background(), orgID, actor, CreateStreamInput{
		Name: "Healthy", ToAccountID: acct.AccountID, AmountCents: 200, Currency: "USD", Cadence: domain.CadenceWeekly, FirstPayout: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	// Break the first stream's destination after creation.
	require.NoError(t, db.Model(&domain.IncomeStream{}).Where("stream_id = ?", broken.StreamID).Update("to_account_id", uuid.New()).Error)

	sweeper := &Sweeper{Service: svc}
	sweeper.RunOnce(context.Background(), now)

	// The healthy stream still paid out.
	var row domain.Account
	require.NoError(t, db.First(&row, "account_id = ?", acct.AccountID).Error)
	assert.Equal(t, int64(200), row.BalanceCents)

	// Both streams advanced, so the broken one is not retried every sweep.
	var b, h domain.IncomeStream
	require.NoError(t, db.First(&b, "stream_id = ?", broken.StreamID).Error)
	require.NoError(t, db.First(&h, "stream_id = ?", healthy.StreamID).Error)
	assert.True(t, b.NextPayoutAt.After(now))
	assert.True(t, h.NextPayoutAt.After(now))
}
