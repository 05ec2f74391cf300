package guardrails

// Decision outcomes. Transfers and other generic intents use Execute/Pending/
// Blocked; the investing path splits Pending into NeedsParent/NeedsAdmin.
const (
	OutcomeExecute     = "execute"
	OutcomePending     = "pending"
	OutcomeNeedsParent = "needs_parent"
	OutcomeNeedsAdmin  = "needs_admin"
	OutcomeBlocked     = "blocked"
)

// Machine-readable reason codes.
const (
	ReasonWithinAutoLimit      = "within_auto_limit"
	ReasonAboveAutoLimit       = "above_auto_limit"
	ReasonParentRequired       = "parent_required"
	ReasonAdminRequired        = "admin_required"
	ReasonSymbolBlocked        = "symbol_blocked"
	ReasonInstrumentNotAllowed = "instrument_not_allowed"
	ReasonAdminPolicy          = "admin_policy"
	ReasonSellRequiresApproval = "sell_requires_approval"
	ReasonParentPolicy         = "parent_policy"
	ReasonExceedsAutoLimit     = "exceeds_auto_limit"
	ReasonRoleNotAllowed       = "role_not_allowed"
)

// Decision is the evaluator's verdict for one requested movement. It is not
// persisted as its own record; the lifecycle manager snapshots it into the
// request metadata.
type Decision struct {
	Outcome    string `json:"outcome"`
	ReasonCode string `json:"reason_code"`
	// LimitCents is the threshold that produced the outcome, when one did.
	LimitCents *int64 `json:"limit_cents,omitempty"`
	// Policy and GuardrailID describe what drove the decision so callers can
	// explain "why pending" to the user.
	Policy      string  `json:"policy"`
	GuardrailID *string `json:"guardrail_id,omitempty"`
}

// NeedsApproval reports whether the decision parks the request in a pending
// state.
func (d Decision) NeedsApproval() bool {
	return d.Outcome == OutcomePending || d.Outcome == OutcomeNeedsParent || d.Outcome == OutcomeNeedsAdmin
}

// Snapshot renders the decision for request metadata and journal payloads.
func (d Decision) Snapshot() map[string]interface{} {
	m := map[string]interface{}{
		"outcome":     d.Outcome,
		"reason_code": d.ReasonCode,
		"policy":      d.Policy,
	}
	if d.LimitCents != nil {
		m["limit_cents"] = *d.LimitCents
	}
	if d.GuardrailID != nil {
		m["guardrail_id"] = *d.GuardrailID
	}
	return m
}
