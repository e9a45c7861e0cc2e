package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents one store/organization in the multi-tenant cloud.
// Every sync request is scoped to exactly one tenant.
type Tenant struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Subdomain string `gorm:"uniqueIndex;not null" json:"subdomain"`

	// ConflictStrategy is the tenant-wide default:
	// SERVER_WINS | CLIENT_WINS | LAST_WRITE_WINS | MANUAL | MERGE
	ConflictStrategy string `gorm:"default:'LAST_WRITE_WINS'" json:"conflictStrategy"`

	// EntityStrategies optionally overrides the strategy per entity type,
	// e.g. {"product": "SERVER_WINS", "order": "CLIENT_WINS"}
	EntityStrategies JSONB `gorm:"type:jsonb;default:'{}'" json:"entityStrategies"`

	IsActive bool `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}
