package orders

import (
	"time"

	"gorm.io/datatypes"
)

// Order status machine: pending -> created -> captured | failed.
// There is no way back from captured or failed; refunds are an
// administrative flow on top, not a status transition.
const (
	StatusPending  = "pending"
	StatusCreated  = "created"
	StatusCaptured = "captured"
	StatusFailed   = "failed"
)

type Order struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	UserID        *uint64 `gorm:"index:ix_orders_user_id"`
	CustomerName  string  `gorm:"type:varchar(255);not null"`
	CustomerEmail string  `gorm:"type:varchar(255);not null;index:ix_orders_customer_email"`

	ShippingAddressJSON datatypes.JSON `gorm:"type:json"`

	Status   string `gorm:"type:varchar(32);not null;index:ix_orders_status"`
	Currency string `gorm:"type:char(3);not null"`

	SubtotalCents int64 `gorm:"not null"`
	ShippingCents int64 `gorm:"not null"`
	TotalCents    int64 `gorm:"not null"`

	ProviderOrderID *string `gorm:"type:varchar(64);index:ix_orders_provider_order_id"`
	CaptureID       *string `gorm:"type:varchar(64)"`
	FailReason      *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time  `gorm:"type:datetime(3);not null"`
	PaidAt    *time.Time `gorm:"type:datetime(3)"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID uint64 `gorm:"not null;index:ix_order_items_order_id"`

	ProductID   uint64 `gorm:"not null;index:ix_order_items_product_id"`
	ProductName string `gorm:"type:varchar(255);not null"`
	Color       string `gorm:"type:varchar(64);not null"`
	Size        string `gorm:"type:varchar(32);not null"`

	Quantity       int    `gorm:"not null"`
	UnitPriceCents int64  `gorm:"not null"`
	Currency       string `gorm:"type:char(3);not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// Transaction is the settled-payment ledger row written once a capture
// has been verified against the local order.
type Transaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID     uint64    `gorm:"not null;index:ix_transactions_order_id"`
	CaptureID   string    `gorm:"type:varchar(64);not null"`
	TotalCents  int64     `gorm:"not null"`
	Currency    string    `gorm:"type:char(3);not null"`
	CompletedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Transaction) TableName() string { return "transactions" }
