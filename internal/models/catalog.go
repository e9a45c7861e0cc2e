package models

import "time"

// Synchronizable models deliberately do not use gorm.DeletedAt: deletion is
// communicated through the SyncMetadata tombstone (IsDeleted/DeletedAt) so the
// record stays visible to deltas until every device has acknowledged it.

// Category groups products in the catalog
type Category struct {
	ID       string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	ParentID *string `gorm:"index" json:"parentId,omitempty"`

	SyncMetadata

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return "categories" }

// GetEntityID implements SyncableEntity
func (c Category) GetEntityID() string { return c.ID }

// GetEntityType implements SyncableEntity
func (c Category) GetEntityType() string { return "category" }

// Product is one sellable catalog item
type Product struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SKU        string  `gorm:"index" json:"sku"`
	Barcode    string  `gorm:"index" json:"barcode"`
	Name       string  `gorm:"not null" json:"name"`
	CategoryID *string `gorm:"index" json:"categoryId,omitempty"`
	Price      float64 `json:"price"`
	TaxRate    float64 `json:"taxRate"`
	StockQty   float64 `json:"stockQty"`
	Active     bool    `gorm:"default:true" json:"active"`

	SyncMetadata

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

// GetEntityID implements SyncableEntity
func (p Product) GetEntityID() string { return p.ID }

// GetEntityType implements SyncableEntity
func (p Product) GetEntityType() string { return "product" }

// Customer is a known buyer attached to orders
type Customer struct {
	ID    string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"index" json:"email"`
	Phone string `json:"phone"`

	SyncMetadata

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

// GetEntityID implements SyncableEntity
func (c Customer) GetEntityID() string { return c.ID }

// GetEntityType implements SyncableEntity
func (c Customer) GetEntityType() string { return "customer" }
