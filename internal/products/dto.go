package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// CreateProductInput adds a new loan product to the catalogue.
type CreateProductInput struct {
	Name                   string          `json:"name" validate:"required"`
	SKU                    string          `json:"sku" validate:"required"`
	BuyingPrice            decimal.Decimal `json:"buying_price" validate:"required"`
	SellingPrice           decimal.Decimal `json:"selling_price" validate:"required"`
	StockQuantity          int             `json:"stock_quantity" validate:"gte=0"`
	LowStockThreshold      *int            `json:"low_stock_threshold,omitempty"`
	CriticalStockThreshold *int            `json:"critical_stock_threshold,omitempty"`
}

// UpdateProductInput carries admin-only partial edits. Nil fields stay
// untouched.
type UpdateProductInput struct {
	BuyingPrice            *decimal.Decimal `json:"buying_price,omitempty"`
	SellingPrice           *decimal.Decimal `json:"selling_price,omitempty"`
	StockQuantity          *int             `json:"stock_quantity,omitempty"`
	LowStockThreshold      *int             `json:"low_stock_threshold,omitempty"`
	CriticalStockThreshold *int             `json:"critical_stock_threshold,omitempty"`
	IsActive               *bool            `json:"is_active,omitempty"`
}

// CreateLoanTypeInput adds a new interest policy.
type CreateLoanTypeInput struct {
	Name                string             `json:"name" validate:"required"`
	InterestRate        decimal.Decimal    `json:"interest_rate" validate:"required"`
	InterestType        enums.InterestType `json:"interest_type" validate:"required"`
	ChargeFeePercentage decimal.Decimal    `json:"charge_fee_percentage"`
	MinAmount           decimal.Decimal    `json:"min_amount" validate:"required"`
	MaxAmount           decimal.Decimal    `json:"max_amount" validate:"required"`
	DurationMonths      int                `json:"duration_months" validate:"required,gt=0"`
}

// ProductDTO is the transport shape for a loan product. BuyingPrice is only
// populated for admin viewers.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku"`
	BuyingPrice   *decimal.Decimal `json:"buying_price,omitempty"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	StockQuantity int              `json:"stock_quantity"`
	StockLevel    enums.StockLevel `json:"stock_level"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// LoanTypeDTO is the transport shape for an interest policy.
type LoanTypeDTO struct {
	ID                  uuid.UUID          `json:"id"`
	Name                string             `json:"name"`
	InterestRate        decimal.Decimal    `json:"interest_rate"`
	InterestType        enums.InterestType `json:"interest_type"`
	ChargeFeePercentage decimal.Decimal    `json:"charge_fee_percentage"`
	MinAmount           decimal.Decimal    `json:"min_amount"`
	MaxAmount           decimal.Decimal    `json:"max_amount"`
	DurationMonths      int                `json:"duration_months"`
	IsActive            bool               `json:"is_active"`
}

// ToProductDTO converts a product model, revealing the buying price only to
// admin viewers.
func ToProductDTO(product *models.LoanProduct, role enums.MemberRole) *ProductDTO {
	if product == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		SKU:           product.SKU,
		SellingPrice:  product.SellingPrice,
		StockQuantity: product.StockQuantity,
		StockLevel: enums.ClassifyStock(
			product.StockQuantity,
			product.LowStockThreshold,
			product.CriticalStockThreshold,
		),
		IsActive:  product.IsActive,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
	if role == enums.MemberRoleAdmin {
		buying := product.BuyingPrice
		dto.BuyingPrice = &buying
	}
	return dto
}

// ToProductDTOs converts a slice of product models.
func ToProductDTOs(list []models.LoanProduct, role enums.MemberRole) []ProductDTO {
	dtos := make([]ProductDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, *ToProductDTO(&list[i], role))
	}
	return dtos
}

// ToLoanTypeDTO converts a loan type model.
func ToLoanTypeDTO(loanType *models.LoanType) *LoanTypeDTO {
	if loanType == nil {
		return nil
	}
	return &LoanTypeDTO{
		ID:                  loanType.ID,
		Name:                loanType.Name,
		InterestRate:        loanType.InterestRate,
		InterestType:        loanType.InterestType,
		ChargeFeePercentage: loanType.ChargeFeePercentage,
		MinAmount:           loanType.MinAmount,
		MaxAmount:           loanType.MaxAmount,
		DurationMonths:      loanType.DurationMonths,
		IsActive:            loanType.IsActive,
	}
}

// ToLoanTypeDTOs converts a slice of loan type models.
func ToLoanTypeDTOs(list []models.LoanType) []LoanTypeDTO {
	dtos := make([]LoanTypeDTO, 0, len(list))
	for i := range list {
		dtos = append(dtos, *ToLoanTypeDTO(&list[i]))
	}
	return dtos
}
