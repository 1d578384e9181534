package products

import "time"

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

type Product struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text;not null"`
	PriceCents  int64  `gorm:"not null"`
	Currency    string `gorm:"type:char(3);not null;default:'EUR'"`
	Status      string `gorm:"type:varchar(32);not null;index:ix_products_status"`

	// denormalized sum over product_inventory, maintained at capture time
	Stock int `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Product) TableName() string { return "products" }

// Inventory holds per-variant (color/size) quantities.
type Inventory struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ProductID uint64 `gorm:"not null;uniqueIndex:ux_inventory_variant,priority:1"`
	Color     string `gorm:"type:varchar(64);not null;uniqueIndex:ux_inventory_variant,priority:2"`
	Size      string `gorm:"type:varchar(32);not null;uniqueIndex:ux_inventory_variant,priority:3"`
	Quantity  int    `gorm:"not null"`
}

func (Inventory) TableName() string { return "product_inventory" }

type Image struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ProductID uint64 `gorm:"not null;index:ix_product_images_product_id"`

	StorageKey string `gorm:"type:varchar(255);not null"`
	URL        string `gorm:"type:varchar(512);not null"`
	MimeType   string `gorm:"type:varchar(64);not null"`
	Position   int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Image) TableName() string { return "product_images" }
