package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Org is a household or institution. Every record in the system hangs off an org.
type Org struct {
	OrgID     uuid.UUID      `gorm:"column:org_id;type:uuid;primaryKey" json:"org_id"`
	OrgName   string         `gorm:"column:org_name;not null;uniqueIndex" json:"org_name"`
	OrgCode   string         `gorm:"column:org_code;type:varchar(10);not null;uniqueIndex" json:"org_code"`
	Currency  string         `gorm:"column:currency;type:char(3);not null;default:USD" json:"currency"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Org) TableName() string {
	return "Orgs"
}

// BeforeCreate ensures org_id is set for DBs without default uuid.
func (o *Org) BeforeCreate(tx *gorm.DB) error {
	if o.OrgID == uuid.Nil {
		o.OrgID = uuid.New()
	}
	return nil
}
