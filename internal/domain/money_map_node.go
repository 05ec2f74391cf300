package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Money map node kinds.
const (
	NodeKindCategory = "category"
	NodeKindGoal     = "goal"
	NodeKindBudget   = "budget"
)

// MoneyMapNode is one node of the hierarchical money map. Guardrails can be
// scoped to a node so a policy covers everything under that part of the map.
type MoneyMapNode struct {
	NodeID    uuid.UUID  `gorm:"column:node_id;type:uuid;primaryKey" json:"node_id"`
	OrgID     uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid" json:"parent_id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Kind      string     `gorm:"column:kind;type:varchar(20);not null;default:category" json:"kind"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (MoneyMapNode) TableName() string {
	return "MoneyMapNodes"
}

func (n *MoneyMapNode) BeforeCreate(tx *gorm.DB) error {
	if n.NodeID == uuid.Nil {
		n.NodeID = uuid.New()
	}
	return nil
}
