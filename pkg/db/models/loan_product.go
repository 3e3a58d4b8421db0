package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanProduct is a physical good financed through product-backed loans.
// StockQuantity is mutated only by the inventory reservation logic and must
// never go negative. BuyingPrice is the acquisition cost and is hidden from
// non-admin responses; SellingPrice is the principal basis.
type LoanProduct struct {
	ID                     uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                   string          `gorm:"column:name;not null"`
	SKU                    string          `gorm:"column:sku;not null;uniqueIndex"`
	BuyingPrice            decimal.Decimal `gorm:"column:buying_price;type:numeric(14,2);not null"`
	SellingPrice           decimal.Decimal `gorm:"column:selling_price;type:numeric(14,2);not null"`
	StockQuantity          int             `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold      int             `gorm:"column:low_stock_threshold;not null;default:10"`
	CriticalStockThreshold int             `gorm:"column:critical_stock_threshold;not null;default:3"`
	IsActive               bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
