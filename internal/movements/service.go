package movements

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"minta-backend/internal/constants"
	"minta-backend/internal/domain"
	"minta-backend/internal/guardrails"
	"minta-backend/internal/journal"
)

// QuoteSource supplies an execution price (minor units per share) for a
// symbol. Injected so order execution never talks to a market feed directly.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Positions below this quantity are treated as closed after a sell.
var positionEpsilon = decimal.New(1, -8)

type Service struct {
	DB      *gorm.DB
	Journal *journal.Service
	Quotes  QuoteSource
}

// Actor is the verified session identity driving a transition.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// CreateParams describes one requested movement plus the guardrail decision
// that already evaluated it.
type CreateParams struct {
	OrgID         uuid.UUID
	Intent        string
	Kind          string
	FromAccountID *uuid.UUID
	ToAccountID   *uuid.UUID
	NodeID        *uuid.UUID

	Symbol         *string
	Side           *string
	InstrumentKind *string

	AmountCents int64
	Currency    string

	RequestedBy Actor
	Decision    guardrails.Decision

	// EventPrefix names the journal events ("goal_contribution_requested",
	// "order_executed", ...). Related ids travel in the metadata snapshot.
	EventPrefix string
	GoalID      *uuid.UUID
	BudgetID    *uuid.UUID
	CauseID     *uuid.UUID
	StreamID    *uuid.UUID
}

// requestMeta is the persisted metadata shape.
type requestMeta struct {
	EventPrefix string                 `json:"event_prefix"`
	Decision    map[string]interface{} `json:"decision"`
	GoalID      *uuid.UUID             `json:"goal_id,omitempty"`
	BudgetID    *uuid.UUID             `json:"budget_id,omitempty"`
	CauseID     *uuid.UUID             `json:"cause_id,omitempty"`
	StreamID    *uuid.UUID             `json:"stream_id,omitempty"`
}

// Create persists a movement with the decision-determined initial status and
// runs execution side effects when the decision allows it. Must be called
// inside the same transaction that read the guardrails, so a guardrail
// tightened mid-flight cannot be bypassed.
//
// An execution failure is recorded on the request as failed and returned to
// the caller; the request row itself survives (side effects roll back via a
// savepoint).
func (s *Service) Create(ctx context.Context, tx *gorm.DB, p CreateParams) (*domain.MoneyRequest, error) {
	if p.Decision.Outcome == guardrails.OutcomeBlocked {
		return nil, &BlockedError{ReasonCode: p.Decision.ReasonCode}
	}

	now := time.Now().UTC()
	req := domain.MoneyRequest{
		OrgID:          p.OrgID,
		Intent:         p.Intent,
		Kind:           p.Kind,
		FromAccountID:  p.FromAccountID,
		ToAccountID:    p.ToAccountID,
		NodeID:         p.NodeID,
		Symbol:         p.Symbol,
		Side:           p.Side,
		InstrumentKind: p.InstrumentKind,
		AmountCents:    p.AmountCents,
		Currency:       p.Currency,
		RequestedBy:    p.RequestedBy.UserID,
		RequestedAt:    now,
	}

	meta := requestMeta{
		EventPrefix: p.EventPrefix,
		Decision:    p.Decision.Snapshot(),
		GoalID:      p.GoalID,
		BudgetID:    p.BudgetID,
		CauseID:     p.CauseID,
		StreamID:    p.StreamID,
	}
	metaBytes, _ := json.Marshal(meta)
	req.Metadata = datatypes.JSON(metaBytes)

	switch p.Decision.Outcome {
	case guardrails.OutcomeExecute:
		req.Status = domain.StatusApproved
	case guardrails.OutcomeNeedsAdmin:
		req.Status = domain.StatusPendingApproval
		tier := domain.TierAdmin
		req.ApprovalTier = &tier
	case guardrails.OutcomeNeedsParent:
		req.Status = domain.StatusAwaitingParent
		tier := domain.TierParent
		req.ApprovalTier = &tier
	default: // OutcomePending
		req.Status = domain.StatusPendingApproval
		tier := domain.TierParent
		if p.Decision.ReasonCode == guardrails.ReasonAdminRequired {
			tier = domain.TierAdmin
		}
		req.ApprovalTier = &tier
	}

	if err := tx.Create(&req).Error; err != nil {
		return nil, err
	}
	if err := s.Journal.Emit(tx, journal.Entry{
		OrgID:      p.OrgID,
		EventKind:  p.EventPrefix + "_requested",
		ActorID:    &p.RequestedBy.UserID,
		EntityType: "money_request",
		EntityID:   req.RequestID,
		Payload: map[string]interface{}{
			"amount_cents": p.AmountCents,
			"currency":     p.Currency,
			"intent":       p.Intent,
			"decision":     p.Decision.Snapshot(),
		},
	}); err != nil {
		return nil, err
	}

	if p.Decision.Outcome != guardrails.OutcomeExecute {
		return &req, nil
	}
	return s.autoExecute(ctx, tx, &req, p.RequestedBy)
}

// autoExecute is the named self-approval transition: the initiating actor is
// recorded as the approver, that is the defined semantics of auto-execution.
func (s *Service) autoExecute(ctx context.Context, tx *gorm.DB, req *domain.MoneyRequest, actor Actor) (*domain.MoneyRequest, error) {
	now := time.Now().UTC()
	req.Status = domain.StatusApproved
	req.ApprovedBy = &actor.UserID
	req.ApprovedAt = &now

	execErr := s.runExecution(ctx, tx, req, &actor.UserID)
	if execErr != nil {
		return req, execErr
	}
	return req, nil
}

// Approve transitions a pending request to approved and executes it
// immediately. The approver's role must match the recorded approval tier.
func (s *Service) Approve(ctx context.Context, orgID, requestID uuid.UUID, actor Actor) (*domain.MoneyRequest, error) {
	var req *domain.MoneyRequest
	var execErr error

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.lockRequest(tx, orgID, requestID)
		if err != nil {
			return err
		}
		if !r.IsPending() {
			return ErrNotPending
		}
		if !allowedApprover(r, actor.Role) {
			return ErrForbiddenApprover
		}

		now := time.Now().UTC()
		r.Status = domain.StatusApproved
		r.ApprovedBy = &actor.UserID
		r.ApprovedAt = &now
		if err := tx.Save(r).Error; err != nil {
			return err
		}
		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  eventPrefix(r) + "_approved",
			ActorID:    &actor.UserID,
			EntityType: "money_request",
			EntityID:   r.RequestID,
		}); err != nil {
			return err
		}

		execErr = s.runExecution(ctx, tx, r, &actor.UserID)
		req = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, execErr
}

// Decline terminally rejects a pending request. Guardian/admin only; the
// caller-supplied reason is recorded.
func (s *Service) Decline(ctx context.Context, orgID, requestID uuid.UUID, actor Actor, reason string) (*domain.MoneyRequest, error) {
	if !constants.IsGuardianRole(actor.Role) {
		return nil, ErrForbiddenApprover
	}
	return s.terminate(ctx, orgID, requestID, actor, domain.StatusDeclined, reason, func(r *domain.MoneyRequest) error {
		return nil
	})
}

// Cancel terminally withdraws a pending request: the original requester, or a
// guardian acting on their behalf.
func (s *Service) Cancel(ctx context.Context, orgID, requestID uuid.UUID, actor Actor, reason string) (*domain.MoneyRequest, error) {
	return s.terminate(ctx, orgID, requestID, actor, domain.StatusCanceled, reason, func(r *domain.MoneyRequest) error {
		if r.RequestedBy != actor.UserID && !constants.IsGuardianRole(actor.Role) {
			return ErrForbiddenCancel
		}
		return nil
	})
}

func (s *Service) terminate(ctx context.Context, orgID, requestID uuid.UUID, actor Actor, status, reason string, authorize func(*domain.MoneyRequest) error) (*domain.MoneyRequest, error) {
	var req *domain.MoneyRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.lockRequest(tx, orgID, requestID)
		if err != nil {
			return err
		}
		if !r.IsPending() {
			return ErrNotPending
		}
		if err := authorize(r); err != nil {
			return err
		}
		r.Status = status
		r.Reason = &reason
		if err := tx.Save(r).Error; err != nil {
			return err
		}
		if err := s.Journal.Emit(tx, journal.Entry{
			OrgID:      orgID,
			EventKind:  eventPrefix(r) + "_" + status,
			ActorID:    &actor.UserID,
			EntityType: "money_request",
			EntityID:   r.RequestID,
			Payload:    map[string]interface{}{"reason": reason},
		}); err != nil {
			return err
		}
		req = r
		return nil
	})
	return req, err
}

// List returns the org's movement requests, newest first, optionally filtered
// by status.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, status string) ([]domain.MoneyRequest, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.MoneyRequest
	err := q.Order("requested_at DESC").Find(&out).Error
	return out, err
}

// Get returns one request scoped to the org.
func (s *Service) Get(ctx context.Context, orgID, requestID uuid.UUID) (*domain.MoneyRequest, error) {
	var r domain.MoneyRequest
	if err := s.DB.WithContext(ctx).Where("request_id = ? AND org_id = ?", requestID, orgID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}

// runExecution performs the side effects inside a savepoint. On failure the
// side effects roll back but the request row is kept and marked failed with
// the reason, and the error is returned to the caller.
func (s *Service) runExecution(ctx context.Context, tx *gorm.DB, req *domain.MoneyRequest, actorID *uuid.UUID) error {
	execErr := tx.Transaction(func(inner *gorm.DB) error {
		return s.execute(ctx, inner, req)
	})
	if execErr != nil {
		reason := execErr.Error()
		req.Status = domain.StatusFailed
		req.FailureReason = &reason
		if err := tx.Save(req).Error; err != nil {
			return err
		}
		_ = s.Journal.Emit(tx, journal.Entry{
			OrgID:      req.OrgID,
			EventKind:  eventPrefix(req) + "_failed",
			ActorID:    actorID,
			EntityType: "money_request",
			EntityID:   req.RequestID,
			Payload:    map[string]interface{}{"failure_reason": reason},
		})
		return &ExecutionError{Err: execErr}
	}

	if err := tx.Save(req).Error; err != nil {
		return err
	}
	return s.Journal.Emit(tx, journal.Entry{
		OrgID:      req.OrgID,
		EventKind:  eventPrefix(req) + "_executed",
		ActorID:    actorID,
		EntityType: "money_request",
		EntityID:   req.RequestID,
		Payload:    map[string]interface{}{"amount_cents": req.AmountCents},
	})
}

// execute applies the domain side effect and stamps executed_at. Mutates req
// in place; the caller persists it.
func (s *Service) execute(ctx context.Context, tx *gorm.DB, req *domain.MoneyRequest) error {
	switch req.Kind {
	case domain.RequestKindOrder:
		if err := s.applyFill(ctx, tx, req); err != nil {
			return err
		}
	default:
		if err := s.applyTransfer(tx, req); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	req.Status = domain.StatusExecuted
	req.ExecutedAt = &now
	return nil
}

// applyTransfer moves balance between internal accounts and recomputes any
// goal/budget the movement funds.
func (s *Service) applyTransfer(tx *gorm.DB, req *domain.MoneyRequest) error {
	if req.FromAccountID != nil {
		var from domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", req.FromAccountID, req.OrgID).First(&from).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		from.BalanceCents -= req.AmountCents
		if err := tx.Save(&from).Error; err != nil {
			return err
		}
	}

	var toBalance int64
	if req.ToAccountID != nil {
		var to domain.Account
		if err := tx.Where("account_id = ? AND org_id = ?", req.ToAccountID, req.OrgID).First(&to).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		to.BalanceCents += req.AmountCents
		if err := tx.Save(&to).Error; err != nil {
			return err
		}
		toBalance = to.BalanceCents
	}

	meta := parseMeta(req)
	if meta.GoalID != nil {
		var goal domain.Goal
		if err := tx.Where("goal_id = ? AND org_id = ?", meta.GoalID, req.OrgID).First(&goal).Error; err != nil {
			return err
		}
		// Progress derives from the envelope balance, not a blind increment.
		goal.ProgressCents = toBalance
		if err := tx.Save(&goal).Error; err != nil {
			return err
		}
	}
	if meta.BudgetID != nil {
		var budget domain.Budget
		if err := tx.Where("budget_id = ? AND org_id = ?", meta.BudgetID, req.OrgID).First(&budget).Error; err != nil {
			return err
		}
		budget.SpentCents += req.AmountCents
		if err := tx.Save(&budget).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFill quotes the symbol and applies the fill to the (account, symbol)
// position. A buy recomputes weighted-average cost; a sell requires enough
// quantity and zeroes the position below epsilon. The version compare-and-swap
// serializes concurrent writers on the same position.
func (s *Service) applyFill(ctx context.Context, tx *gorm.DB, req *domain.MoneyRequest) error {
	if req.Symbol == nil || req.Side == nil || req.FromAccountID == nil {
		return errors.New("Order is missing symbol, side or account")
	}
	price, err := s.Quotes.Quote(ctx, *req.Symbol)
	if err != nil {
		return err
	}
	if price.Sign() <= 0 {
		return errors.New("Quote unavailable for symbol")
	}
	fillQty := decimal.NewFromInt(req.AmountCents).DivRound(price, 8)
	req.ExecutionPrice = decimal.NewNullDecimal(price)
	req.Quantity = decimal.NewNullDecimal(fillQty)

	var pos domain.Position
	err = tx.Where("account_id = ? AND symbol = ?", req.FromAccountID, *req.Symbol).First(&pos).Error
	missing := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !missing {
		return err
	}

	if *req.Side == domain.SideSell {
		if missing || pos.Quantity.LessThan(fillQty) {
			return ErrInsufficientQuantity
		}
		newQty := pos.Quantity.Sub(fillQty)
		newAvg := pos.AvgCost
		if newQty.LessThan(positionEpsilon) {
			newQty = decimal.Zero
			newAvg = decimal.Zero
		}
		return casPosition(tx, &pos, newQty, newAvg)
	}

	if missing {
		pos = domain.Position{
			OrgID:     req.OrgID,
			AccountID: *req.FromAccountID,
			Symbol:    *req.Symbol,
			Quantity:  fillQty,
			AvgCost:   price,
		}
		return tx.Create(&pos).Error
	}

	// newAvgCost = (oldQty*oldAvgCost + fillQty*fillPrice) / (oldQty+fillQty)
	totalQty := pos.Quantity.Add(fillQty)
	newAvg := pos.Quantity.Mul(pos.AvgCost).Add(fillQty.Mul(price)).DivRound(totalQty, 8)
	return casPosition(tx, &pos, totalQty, newAvg)
}

// casPosition applies a read-modify-write guarded by the version column.
// RowsAffected 0 means another writer won; the fill fails rather than losing
// the update.
func casPosition(tx *gorm.DB, pos *domain.Position, qty, avg decimal.Decimal) error {
	res := tx.Model(&domain.Position{}).
		Where("position_id = ? AND version = ?", pos.PositionID, pos.Version).
		Updates(map[string]interface{}{
			"quantity": qty,
			"avg_cost": avg,
			"version":  pos.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPositionConflict
	}
	return nil
}

func (s *Service) lockRequest(tx *gorm.DB, orgID, requestID uuid.UUID) (*domain.MoneyRequest, error) {
	var r domain.MoneyRequest
	if err := tx.Where("request_id = ? AND org_id = ?", requestID, orgID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}

func allowedApprover(r *domain.MoneyRequest, role string) bool {
	tier := domain.TierParent
	if r.ApprovalTier != nil {
		tier = *r.ApprovalTier
	}
	if tier == domain.TierAdmin {
		return constants.IsAdminRole(role)
	}
	return constants.IsGuardianRole(role)
}

func parseMeta(r *domain.MoneyRequest) requestMeta {
	var m requestMeta
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &m)
	}
	return m
}

func eventPrefix(r *domain.MoneyRequest) string {
	if p := parseMeta(r).EventPrefix; p != "" {
		return p
	}
	return "movement"
}
