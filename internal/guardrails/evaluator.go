package guardrails

import (
	"strings"

	"minta-backend/internal/domain"
)

// OrderContext carries the action-specific attributes the investing path
// checks on top of the amount.
type OrderContext struct {
	Symbol         string
	Side           string
	InstrumentKind string
	InitiatorRole  string
}

// Evaluate runs the generic transfer/save/donate/earn path.
//
// The guardrail may be nil when nothing resolved; fallbackPolicy then stands
// in for the approval policy (each domain declares its own default, e.g.
// parent_required for spends, auto for earn payouts).
func Evaluate(g *domain.Guardrail, amountCents int64, initiatorRole string, fallbackPolicy string) Decision {
	policy := fallbackPolicy
	var limit *int64
	if g != nil {
		policy = g.ApprovalPolicy
		limit = g.AutoApproveUpToCents
		if d, blocked := roleGate(g, initiatorRole); blocked {
			return d
		}
	}

	d := Decision{Policy: policy}
	if g != nil {
		id := g.GuardrailID.String()
		d.GuardrailID = &id
	}

	switch policy {
	case domain.PolicyAuto:
		if limit == nil || amountCents <= *limit {
			d.Outcome = OutcomeExecute
			d.ReasonCode = ReasonWithinAutoLimit
			return d
		}
		d.Outcome = OutcomePending
		d.ReasonCode = ReasonAboveAutoLimit
		d.LimitCents = limit
		return d
	case domain.PolicyAdminOnly:
		d.Outcome = OutcomePending
		d.ReasonCode = ReasonAdminRequired
		return d
	default:
		d.Outcome = OutcomePending
		d.ReasonCode = ReasonParentRequired
		return d
	}
}

// EvaluateOrder runs the stricter investing path. Ordered checks, first match
// wins: absolute vetoes (blocklist, instrument allowlist) short-circuit before
// any approval-tier logic, and sell-approval overrides a plain auto threshold.
func EvaluateOrder(g *domain.Guardrail, notionalCents int64, octx OrderContext) Decision {
	if g == nil {
		// No invest guardrail means the household never opted into
		// self-serve investing; everything waits for a guardian.
		return Decision{Outcome: OutcomeNeedsParent, ReasonCode: ReasonParentRequired, Policy: domain.PolicyParentRequired}
	}

	if d, blocked := roleGate(g, octx.InitiatorRole); blocked {
		return d
	}

	id := g.GuardrailID.String()
	d := Decision{Policy: g.ApprovalPolicy, GuardrailID: &id}

	symbol := strings.ToUpper(strings.TrimSpace(octx.Symbol))
	for _, blocked := range g.BlockedSymbolList() {
		if strings.ToUpper(blocked) == symbol {
			d.Outcome = OutcomeBlocked
			d.ReasonCode = ReasonSymbolBlocked
			return d
		}
	}

	if kinds := g.InstrumentKindList(); len(kinds) > 0 {
		want := NormalizeInstrumentKind(octx.InstrumentKind)
		allowed := false
		for _, k := range kinds {
			if NormalizeInstrumentKind(k) == want {
				allowed = true
				break
			}
		}
		if !allowed {
			d.Outcome = OutcomeBlocked
			d.ReasonCode = ReasonInstrumentNotAllowed
			return d
		}
	}

	if g.ApprovalPolicy == domain.PolicyAdminOnly {
		d.Outcome = OutcomeNeedsAdmin
		d.ReasonCode = ReasonAdminPolicy
		return d
	}
	if g.RequireApprovalForSell != nil && *g.RequireApprovalForSell && octx.Side == domain.SideSell {
		d.Outcome = OutcomeNeedsParent
		d.ReasonCode = ReasonSellRequiresApproval
		return d
	}

	if g.ApprovalPolicy == domain.PolicyParentRequired {
		d.Outcome = OutcomeNeedsParent
		d.ReasonCode = ReasonParentPolicy
		return d
	}
	if g.MaxOrderAmountCents != nil && *g.MaxOrderAmountCents > 0 && notionalCents > *g.MaxOrderAmountCents {
		d.Outcome = OutcomeNeedsParent
		d.ReasonCode = ReasonExceedsAutoLimit
		d.LimitCents = g.MaxOrderAmountCents
		return d
	}

	d.Outcome = OutcomeExecute
	d.ReasonCode = ReasonWithinAutoLimit
	return d
}

// NormalizeInstrumentKind maps legacy labels onto canonical ones before any
// allowlist comparison: stock -> equity, bond -> cash.
func NormalizeInstrumentKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "stock":
		return "equity"
	case "bond":
		return "cash"
	default:
		return strings.ToLower(strings.TrimSpace(kind))
	}
}

// roleGate blocks initiators outside the guardrail's allowed-roles set. An
// unset list means any role may initiate.
func roleGate(g *domain.Guardrail, role string) (Decision, bool) {
	roles := g.InitiatorRoleList()
	if len(roles) == 0 {
		return Decision{}, false
	}
	for _, r := range roles {
		if r == role {
			return Decision{}, false
		}
	}
	id := g.GuardrailID.String()
	return Decision{
		Outcome:     OutcomeBlocked,
		ReasonCode:  ReasonRoleNotAllowed,
		Policy:      g.ApprovalPolicy,
		GuardrailID: &id,
	}, true
}
