package movements

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
)

type fakeQuotes struct {
	prices map[string]int64
	calls  int
}

func (f *fakeQuotes) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	f.calls++
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, errors.New("Quote unavailable for symbol")
	}
	return decimal.NewFromInt(p), nil
}

func setupMovements(t *testing.T) (*Service, *gorm.DB, *fakeQuotes) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Goal{},
		&domain.Budget{},
		&domain.MoneyRequest{},
		&domain.Position{},
		&domain.JournalEntry{},
	))
	quotes := &fakeQuotes{prices: map[string]int64{"VTI": 10_000}}
	svc := &Service{DB: db, Journal: &journal.Service{DB: db}, Quotes: quotes}
	return svc, db, quotes
}

func makeAccount(t *testing.T, db *gorm.DB, orgID uuid.UUID, balance int64) *domain.Account {
	a := domain.Account{
		OrgID:        orgID,
		Name:         "Checking",
		Kind:         domain.AccountKindChecking,
		BalanceCents: balance,
		Currency:     "USD",
	}
	require.NoError(t, db.Create(&a).Error)
	return &a
}

func executeDecision() guardrails.Decision {
	return guardrails.Decision{
		Outcome:    guardrails.OutcomeExecute,
		ReasonCode: guardrails.ReasonWithinAutoLimit,
		Policy:     domain.PolicyAuto,
	}
}

func pendingParentDecision() guardrails.Decision {
	return guardrails.Decision{
		Outcome:    guardrails.OutcomePending,
		ReasonCode: guardrails.ReasonParentRequired,
		Policy:     domain.PolicyParentRequired,
	}
}

func countEvents(t *testing.T, db *gorm.DB, kind string) int64 {
	var n int64
	require.NoError(t, db.Model(&domain.JournalEntry{}).Where("event_kind = ?", kind).Count(&n).Error)
	return n
}

func TestCreate_AutoExecuteMovesBalanceAndSelfApproves(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	from := makeAccount(t, db, orgID, 10_000)
	to := makeAccount(t, db, orgID, 0)
	requester := Actor{UserID: uuid.New(), Role: constants.Member}

	var req *domain.MoneyRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var cerr error
		req, cerr = svc.Create(context.Background(), tx, CreateParams{
			OrgID:         orgID,
			Intent:        domain.IntentSave,
			Kind:          domain.RequestKindTransfer,
			FromAccountID: &from.AccountID,
			ToAccountID:   &to.AccountID,
			AmountCents:   2_500,
			Currency:      "USD",
			RequestedBy:   requester,
			Decision:      executeDecision(),
			EventPrefix:   "goal_contribution",
		})
		return cerr
	})
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Equal(t, domain.StatusExecuted, req.Status)
	// Auto-execution records the requester as the approver.
	require.NotNil(t, req.ApprovedBy)
	assert.Equal(t, requester.UserID, *req.ApprovedBy)
	assert.NotNil(t, req.ExecutedAt)

	var fromRow, toRow domain.Account
	require.NoError(t, db.First(&fromRow, "account_id = ?", from.AccountID).Error)
	require.NoError(t, db.First(&toRow, "account_id = ?", to.AccountID).Error)
	assert.Equal(t, int64(7_500), fromRow.BalanceCents)
	assert.Equal(t, int64(2_500), toRow.BalanceCents)

	assert.Equal(t, int64(1), countEvents(t, db, "goal_contribution_requested"))
	assert.Equal(t, int64(1), countEvents(t, db, "goal_contribution_executed"))
}

func TestCreate_BlockedDecisionPersistsNothing(t *testing.T) {
	svc, db, _ := setupMovements(t)

	_, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:       uuid.New(),
		Intent:      domain.IntentInvest,
		Kind:        domain.RequestKindOrder,
		AmountCents: 100,
		Currency:    "USD",
		RequestedBy: Actor{UserID: uuid.New(), Role: constants.Member},
		Decision: guardrails.Decision{
			Outcome:    guardrails.OutcomeBlocked,
			ReasonCode: guardrails.ReasonSymbolBlocked,
		},
		EventPrefix: "order",
	})
	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, guardrails.ReasonSymbolBlocked, blocked.ReasonCode)

	var n int64
	require.NoError(t, db.Model(&domain.MoneyRequest{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreate_PendingWaitsForParent(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	from := makeAccount(t, db, orgID, 10_000)
	to := makeAccount(t, db, orgID, 0)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:         orgID,
		Intent:        domain.IntentSpend,
		Kind:          domain.RequestKindTransfer,
		FromAccountID: &from.AccountID,
		ToAccountID:   &to.AccountID,
		AmountCents:   2_500,
		Currency:      "USD",
		RequestedBy:   Actor{UserID: uuid.New(), Role: constants.Member},
		Decision:      pendingParentDecision(),
		EventPrefix:   "spend",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, req.Status)
	require.NotNil(t, req.ApprovalTier)
	assert.Equal(t, domain.TierParent, *req.ApprovalTier)

	// No balance moved while pending.
	var fromRow domain.Account
	require.NoError(t, db.First(&fromRow, "account_id = ?", from.AccountID).Error)
	assert.Equal(t, int64(10_000), fromRow.BalanceCents)
	assert.Equal(t, int64(0), countEvents(t, db, "spend_executed"))
}

func TestApprove_GuardianExecutesPendingTransfer(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	from := makeAccount(t, db, orgID, 10_000)
	to := makeAccount(t, db, orgID, 0)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:         orgID,
		Intent:        domain.IntentSpend,
		Kind:          domain.RequestKindTransfer,
		FromAccountID: &from.AccountID,
		ToAccountID:   &to.AccountID,
		AmountCents:   4_000,
		Currency:      "USD",
		RequestedBy:   Actor{UserID: uuid.New(), Role: constants.Member},
		Decision:      pendingParentDecision(),
		EventPrefix:   "spend",
	})
	require.NoError(t, err)

	guardian := Actor{UserID: uuid.New(), Role: constants.Guardian}
	approved, err := svc.Approve(context.Background(), orgID, req.RequestID, guardian)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, guardian.UserID, *approved.ApprovedBy)

	var fromRow domain.Account
	require.NoError(t, db.First(&fromRow, "account_id = ?", from.AccountID).Error)
	assert.Equal(t, int64(6_000), fromRow.BalanceCents)

	assert.Equal(t, int64(1), countEvents(t, db, "spend_approved"))
	assert.Equal(t, int64(1), countEvents(t, db, "spend_executed"))

	// Executed is terminal.
	_, err = svc.Approve(context.Background(), orgID, req.RequestID, guardian)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestApprove_MemberCannotApprove(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	to := makeAccount(t, db, orgID, 0)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:       orgID,
		Intent:      domain.IntentSpend,
		Kind:        domain.RequestKindTransfer,
		ToAccountID: &to.AccountID,
		AmountCents: 100,
		Currency:    "USD",
		RequestedBy: Actor{UserID: uuid.New(), Role: constants.Member},
		Decision:    pendingParentDecision(),
		EventPrefix: "spend",
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Member})
	assert.ErrorIs(t, err, ErrForbiddenApprover)
}

func TestApprove_AdminTierRejectsGuardian(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	to := makeAccount(t, db, orgID, 0)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:       orgID,
		Intent:      domain.IntentManual,
		Kind:        domain.RequestKindTransfer,
		ToAccountID: &to.AccountID,
		AmountCents: 100,
		Currency:    "USD",
		RequestedBy: Actor{UserID: uuid.New(), Role: constants.Member},
		Decision: guardrails.Decision{
			Outcome:    guardrails.OutcomePending,
			ReasonCode: guardrails.ReasonAdminRequired,
			Policy:     domain.PolicyAdminOnly,
		},
		EventPrefix: "manual_movement",
	})
	require.NoError(t, err)
	require.NotNil(t, req.ApprovalTier)
	assert.Equal(t, domain.TierAdmin, *req.ApprovalTier)

	_, err = svc.Approve(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Guardian})
	assert.ErrorIs(t, err, ErrForbiddenApprover)

	approved, err := svc.Approve(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Admin})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, approved.Status)
}

func TestDecline_GuardianOnlyAndTerminal(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	to := makeAccount(t, db, orgID, 0)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:       orgID,
		Intent:      domain.IntentSpend,
		Kind:        domain.RequestKindTransfer,
		ToAccountID: &to.AccountID,
		AmountCents: 100,
		Currency:    "USD",
		RequestedBy: Actor{UserID: uuid.New(), Role: constants.Member},
		Decision:    pendingParentDecision(),
		EventPrefix: "spend",
	})
	require.NoError(t, err)

	_, err = svc.Decline(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Member}, "no")
	assert.ErrorIs(t, err, ErrForbiddenApprover)

	declined, err := svc.Decline(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Guardian}, "not this month")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, declined.Status)
	require.NotNil(t, declined.Reason)
	assert.Equal(t, "not this month", *declined.Reason)
	assert.Equal(t, int64(1), countEvents(t, db, "spend_declined"))

	_, err = svc.Decline(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Guardian}, "again")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestCancel_RequesterOrGuardian(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	to := makeAccount(t, db, orgID, 0)
	requester := Actor{UserID: uuid.New(), Role: constants.Member}

	mk := func() *domain.MoneyRequest {
		req, err := svc.Create(context.Background(), db, CreateParams{
			OrgID:       orgID,
			Intent:      domain.IntentSpend,
			Kind:        domain.RequestKindTransfer,
			ToAccountID: &to.AccountID,
			AmountCents: 100,
			Currency:    "USD",
			RequestedBy: requester,
			Decision:    pendingParentDecision(),
			EventPrefix: "spend",
		})
		require.NoError(t, err)
		return req
	}

	// Another member cannot cancel someone else's request.
	req := mk()
	_, err := svc.Cancel(context.Background(), orgID, req.RequestID, Actor{UserID: uuid.New(), Role: constants.Member}, "")
	assert.ErrorIs(t, err, ErrForbiddenCancel)

	canceled, err := svc.Cancel(context.Background(), orgID, req.RequestID, requester, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)

	// A guardian can cancel on the requester's behalf.
	req2 := mk()
	canceled2, err := svc.Cancel(context.Background(), orgID, req2.RequestID, Actor{UserID: uuid.New(), Role: constants.Guardian}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled2.Status)
}

func TestCreate_ExecutionFailureKeepsRequestRollsBackSideEffects(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	from := makeAccount(t, db, orgID, 10_000)
	missing := uuid.New()

	var req *domain.MoneyRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var cerr error
		req, cerr = svc.Create(context.Background(), tx, CreateParams{
			OrgID:         orgID,
			Intent:        domain.IntentSpend,
			Kind:          domain.RequestKindTransfer,
			FromAccountID: &from.AccountID,
			ToAccountID:   &missing,
			AmountCents:   2_500,
			Currency:      "USD",
			RequestedBy:   Actor{UserID: uuid.New(), Role: constants.Member},
			Decision:      executeDecision(),
			EventPrefix:   "spend",
		})
		var execErr *ExecutionError
		if errors.As(cerr, &execErr) {
			// Handlers commit the failed request and surface the error after.
			return nil
		}
		return cerr
	})
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, domain.StatusFailed, req.Status)
	require.NotNil(t, req.FailureReason)
	assert.Equal(t, ErrAccountNotFound.Error(), *req.FailureReason)

	// Failed request row survives the rollback of its side effects.
	var stored domain.MoneyRequest
	require.NoError(t, db.First(&stored, "request_id = ?", req.RequestID).Error)
	assert.Equal(t, domain.StatusFailed, stored.Status)

	var fromRow domain.Account
	require.NoError(t, db.First(&fromRow, "account_id = ?", from.AccountID).Error)
	assert.Equal(t, int64(10_000), fromRow.BalanceCents)

	assert.Equal(t, int64(1), countEvents(t, db, "spend_failed"))
	assert.Equal(t, int64(0), countEvents(t, db, "spend_executed"))
}

func TestApplyTransfer_GoalProgressTracksEnvelopeBalance(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	from := makeAccount(t, db, orgID, 10_000)
	envelope := makeAccount(t, db, orgID, 1_000)

	goal := domain.Goal{
		OrgID:       orgID,
		Name:        "Bike",
		TargetCents: 50_000,
		AccountID:   envelope.AccountID,
		CreatedBy:   uuid.New(),
	}
	require.NoError(t, db.Create(&goal).Error)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:         orgID,
		Intent:        domain.IntentSave,
		Kind:          domain.RequestKindTransfer,
		FromAccountID: &from.AccountID,
		ToAccountID:   &envelope.AccountID,
		AmountCents:   2_000,
		Currency:      "USD",
		RequestedBy:   Actor{UserID: uuid.New(), Role: constants.Member},
		Decision:      executeDecision(),
		EventPrefix:   "goal_contribution",
		GoalID:        &goal.GoalID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, req.Status)

	var stored domain.Goal
	require.NoError(t, db.First(&stored, "goal_id = ?", goal.GoalID).Error)
	assert.Equal(t, int64(3_000), stored.ProgressCents)
}

func TestApplyFill_BuyCreatesThenAveragesPosition(t *testing.T) {
	svc, db, quotes := setupMovements(t)
	orgID := uuid.New()
	acct := makeAccount(t, db, orgID, 0)
	requester := Actor{UserID: uuid.New(), Role: constants.Member}

	order := func(amount int64, side string) (*domain.MoneyRequest, error) {
		sym := "VTI"
		kind := "etf"
		return svc.Create(context.Background(), db, CreateParams{
			OrgID:          orgID,
			Intent:         domain.IntentInvest,
			Kind:           domain.RequestKindOrder,
			FromAccountID:  &acct.AccountID,
			Symbol:         &sym,
			Side:           &side,
			InstrumentKind: &kind,
			AmountCents:    amount,
			Currency:       "USD",
			RequestedBy:    requester,
			Decision:       executeDecision(),
			EventPrefix:    "order",
		})
	}

	// Buy 10000 cents at price 10000 -> 1 share at avg 10000.
	req, err := order(10_000, domain.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, req.Status)
	require.True(t, req.ExecutionPrice.Valid)
	assert.True(t, req.ExecutionPrice.Decimal.Equal(decimal.NewFromInt(10_000)))
	require.True(t, req.Quantity.Valid)
	assert.True(t, req.Quantity.Decimal.Equal(decimal.NewFromInt(1)))

	var pos domain.Position
	require.NoError(t, db.First(&pos, "account_id = ? AND symbol = ?", acct.AccountID, "VTI").Error)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, pos.AvgCost.Equal(decimal.NewFromInt(10_000)))

	// Second buy at a higher price re-averages the cost basis.
	quotes.prices["VTI"] = 20_000
	_, err = order(20_000, domain.SideBuy)
	require.NoError(t, err)

	require.NoError(t, db.First(&pos, "account_id = ? AND symbol = ?", acct.AccountID, "VTI").Error)
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(2)), "quantity: %s", pos.Quantity)
	assert.True(t, pos.AvgCost.Equal(decimal.NewFromInt(15_000)), "avg cost: %s", pos.AvgCost)
	assert.Equal(t, int64(1), pos.Version)
}

func TestApplyFill_SellChecksQuantityAndZeroesResidual(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	acct := makeAccount(t, db, orgID, 0)
	requester := Actor{UserID: uuid.New(), Role: constants.Member}

	order := func(amount int64, side string) (*domain.MoneyRequest, error) {
		sym := "VTI"
		kind := "etf"
		return svc.Create(context.Background(), db, CreateParams{
			OrgID:          orgID,
			Intent:         domain.IntentInvest,
			Kind:           domain.RequestKindOrder,
			FromAccountID:  &acct.AccountID,
			Symbol:         &sym,
			Side:           &side,
			InstrumentKind: &kind,
			AmountCents:    amount,
			Currency:       "USD",
			RequestedBy:    requester,
			Decision:       executeDecision(),
			EventPrefix:    "order",
		})
	}

	// Selling with no position fails and leaves the request marked failed.
	req, err := order(10_000, domain.SideSell)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, execErr.Err, ErrInsufficientQuantity)
	assert.Equal(t, domain.StatusFailed, req.Status)

	// Buy 2 shares, then sell them all: the position zeroes out.
	_, err = order(20_000, domain.SideBuy)
	require.NoError(t, err)
	_, err = order(20_000, domain.SideSell)
	require.NoError(t, err)

	var pos domain.Position
	require.NoError(t, db.First(&pos, "account_id = ? AND symbol = ?", acct.AccountID, "VTI").Error)
	assert.True(t, pos.Quantity.IsZero(), "quantity: %s", pos.Quantity)
	assert.True(t, pos.AvgCost.IsZero(), "avg cost: %s", pos.AvgCost)

	// Selling more than held fails without touching the position.
	_, err = order(10_000, domain.SideSell)
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, execErr.Err, ErrInsufficientQuantity)
}

func TestCasPosition_ConflictWhenVersionMoved(t *testing.T) {
	_, db, _ := setupMovements(t)
	pos := domain.Position{
		OrgID:     uuid.New(),
		AccountID: uuid.New(),
		Symbol:    "VTI",
		Quantity:  decimal.NewFromInt(1),
		AvgCost:   decimal.NewFromInt(10_000),
	}
	require.NoError(t, db.Create(&pos).Error)

	stale := pos
	// Another writer bumps the version first.
	require.NoError(t, casPosition(db, &pos, decimal.NewFromInt(2), decimal.NewFromInt(10_000)))

	err := casPosition(db, &stale, decimal.NewFromInt(3), decimal.NewFromInt(10_000))
	assert.ErrorIs(t, err, ErrPositionConflict)
}

func TestListAndGet_ScopedToOrg(t *testing.T) {
	svc, db, _ := setupMovements(t)
	orgID := uuid.New()
	otherOrg := uuid.New()
	to := makeAccount(t, db, orgID, 0)

	req, err := svc.Create(context.Background(), db, CreateParams{
		OrgID:       orgID,
		Intent:      domain.IntentSpend,
		Kind:        domain.RequestKindTransfer,
		ToAccountID: &to.AccountID,
		AmountCents: 100,
		Currency:    "USD",
		RequestedBy: Actor{UserID: uuid.New(), Role: constants.Member},
		Decision:    pendingParentDecision(),
		EventPrefix: "spend",
	})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), orgID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(context.Background(), orgID, domain.StatusExecuted)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Get(context.Background(), otherOrg, req.RequestID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}
