package models

import "time"

// OrderStatus defines possible order statuses
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"      // Being rung up on a till
	OrderStatusPaid      OrderStatus = "paid"      // Payment captured
	OrderStatusCancelled OrderStatus = "cancelled" // Voided
	OrderStatusRefunded  OrderStatus = "refunded"  // Paid and later refunded
)

// Order represents one sale rung up on a till. Orders are created offline on
// the device and reach the cloud on the next push.
type Order struct {
	ID          string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OrderNumber string      `gorm:"index" json:"orderNumber"`
	DeviceID    string      `gorm:"index" json:"deviceId"`
	CustomerID  *string     `gorm:"index" json:"customerId,omitempty"`
	Status      OrderStatus `gorm:"default:'open';index" json:"status"`
	Subtotal    float64     `json:"subtotal"`
	TaxTotal    float64     `json:"taxTotal"`
	Total       float64     `json:"total"`
	PlacedAt    *time.Time  `json:"placedAt,omitempty"`

	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`

	SyncMetadata

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

// GetEntityID implements SyncableEntity
func (o Order) GetEntityID() string { return o.ID }

// GetEntityType implements SyncableEntity
func (o Order) GetEntityType() string { return "order" }

// OrderItem is one line on an order
type OrderItem struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OrderID   string  `gorm:"index;not null" json:"orderId"`
	ProductID string  `gorm:"index" json:"productId"`
	Name      string  `json:"name"` // denormalized product name at sale time
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	TaxRate   float64 `json:"taxRate"`
	LineTotal float64 `json:"lineTotal"`

	SyncMetadata

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (OrderItem) TableName() string { return "order_items" }

// GetEntityID implements SyncableEntity
func (oi OrderItem) GetEntityID() string { return oi.ID }

// GetEntityType implements SyncableEntity
func (oi OrderItem) GetEntityType() string { return "order_item" }

// PaymentMethod defines how an order was paid
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// Payment records a captured payment against an order
type Payment struct {
	ID         string        `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	OrderID    string        `gorm:"index;not null" json:"orderId"`
	Method     PaymentMethod `gorm:"default:'cash'" json:"method"`
	Amount     float64       `json:"amount"`
	CapturedAt time.Time     `json:"capturedAt"`

	SyncMetadata

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

// GetEntityID implements SyncableEntity
func (p Payment) GetEntityID() string { return p.ID }

// GetEntityType implements SyncableEntity
func (p Payment) GetEntityType() string { return "payment" }
