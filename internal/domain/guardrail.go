package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Intents a guardrail can govern.
const (
	IntentSave   = "save"
	IntentSpend  = "spend"
	IntentDonate = "donate"
	IntentEarn   = "earn"
	IntentInvest = "invest"
	IntentManual = "manual"
)

// ValidIntents lists the allowed intent enum values.
var ValidIntents = []string{IntentSave, IntentSpend, IntentDonate, IntentEarn, IntentInvest, IntentManual}

// IsValidIntent returns true if intent is a known enum value.
func IsValidIntent(intent string) bool {
	for _, i := range ValidIntents {
		if i == intent {
			return true
		}
	}
	return false
}

// Guardrail scope types, most specific last-to-first: account > node > organization.
const (
	ScopeOrganization = "organization"
	ScopeMoneyMapNode = "money_map_node"
	ScopeAccount      = "account"
)

// Approval policies.
const (
	PolicyAuto           = "auto"
	PolicyParentRequired = "parent_required"
	PolicyAdminOnly      = "admin_only"
)

// IsValidPolicy returns true if p is a known approval policy.
func IsValidPolicy(p string) bool {
	return p == PolicyAuto || p == PolicyParentRequired || p == PolicyAdminOnly
}

// Guardrail is a stored approval policy bound to a scope and an intent.
// At most one guardrail exists per (org, intent, scope key); the Ensure
// provisioning helpers keep that true, there is no DB uniqueness constraint.
type Guardrail struct {
	GuardrailID uuid.UUID  `gorm:"column:guardrail_id;type:uuid;primaryKey" json:"guardrail_id"`
	OrgID       uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index:idx_guardrails_org_intent" json:"org_id"`
	Intent      string     `gorm:"column:intent;type:varchar(10);not null;index:idx_guardrails_org_intent" json:"intent"`
	ScopeType   string     `gorm:"column:scope_type;type:varchar(20);not null" json:"scope_type"`
	NodeID      *uuid.UUID `gorm:"column:node_id;type:uuid" json:"node_id"`
	AccountID   *uuid.UUID `gorm:"column:account_id;type:uuid" json:"account_id"`

	ApprovalPolicy       string `gorm:"column:approval_policy;type:varchar(20);not null;default:parent_required" json:"approval_policy"`
	AutoApproveUpToCents *int64 `gorm:"column:auto_approve_up_to_cents" json:"auto_approve_up_to_cents"`
	DailyLimitCents      *int64 `gorm:"column:daily_limit_cents" json:"daily_limit_cents"`
	WeeklyLimitCents     *int64 `gorm:"column:weekly_limit_cents" json:"weekly_limit_cents"`

	// Investing-only attributes; null/empty for other intents.
	AllowedInstrumentKinds datatypes.JSON `gorm:"column:allowed_instrument_kinds" json:"allowed_instrument_kinds"`
	BlockedSymbols         datatypes.JSON `gorm:"column:blocked_symbols" json:"blocked_symbols"`
	MaxOrderAmountCents    *int64         `gorm:"column:max_order_amount_cents" json:"max_order_amount_cents"`
	RequireApprovalForSell *bool          `gorm:"column:require_approval_for_sell" json:"require_approval_for_sell"`

	AllowedRolesToInitiate datatypes.JSON `gorm:"column:allowed_roles_to_initiate" json:"allowed_roles_to_initiate"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Guardrail) TableName() string {
	return "Guardrails"
}

func (g *Guardrail) BeforeCreate(tx *gorm.DB) error {
	if g.GuardrailID == uuid.Nil {
		g.GuardrailID = uuid.New()
	}
	return nil
}

// InstrumentKindList decodes the allowed-instrument-kinds JSON column.
// Nil means "no allowlist" (every kind allowed).
func (g *Guardrail) InstrumentKindList() []string {
	return decodeStringList(g.AllowedInstrumentKinds)
}

// BlockedSymbolList decodes the blocked-symbols JSON column.
func (g *Guardrail) BlockedSymbolList() []string {
	return decodeStringList(g.BlockedSymbols)
}

// InitiatorRoleList decodes the allowed-roles-to-initiate JSON column.
// Nil means "any role may initiate".
func (g *Guardrail) InitiatorRoleList() []string {
	return decodeStringList(g.AllowedRolesToInitiate)
}

func decodeStringList(j datatypes.JSON) []string {
	if len(j) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(j, &out); err != nil {
		return nil
	}
	return out
}

// StringListJSON encodes a string slice for the JSON set columns.
// Nil input stays nil so "unset" and "empty set" remain distinguishable.
func StringListJSON(items []string) datatypes.JSON {
	if items == nil {
		return nil
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}
