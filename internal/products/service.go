package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
)

// Service manages the loan product catalogue and interest policies. Stock
// mutations during the loan lifecycle flow through the inventory reservation
// logic; the direct stock edit here is an admin correction path.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput, role enums.MemberRole) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID, role enums.MemberRole) (*ProductDTO, error)
	ListProducts(ctx context.Context, filter ProductFilter, role enums.MemberRole) ([]ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput, role enums.MemberRole) (*ProductDTO, error)
	CreateLoanType(ctx context.Context, input CreateLoanTypeInput, role enums.MemberRole) (*LoanTypeDTO, error)
	ListLoanTypes(ctx context.Context, activeOnly bool) ([]LoanTypeDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the product catalogue service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func requireAdmin(role enums.MemberRole) error {
	if role != enums.MemberRoleAdmin {
		return apperrors.New(apperrors.CodeForbidden, "admin role required")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput, role enums.MemberRole) (*ProductDTO, error) {
	if err := requireAdmin(role); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.SKU) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name and sku are required")
	}
	if input.SellingPrice.IsNegative() || input.BuyingPrice.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "prices must not be negative")
	}
	if input.StockQuantity < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "stock quantity must not be negative")
	}

	product := &models.LoanProduct{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		SKU:           strings.TrimSpace(input.SKU),
		BuyingPrice:   input.BuyingPrice,
		SellingPrice:  input.SellingPrice,
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	} else {
		product.LowStockThreshold = 10
	}
	if input.CriticalStockThreshold != nil {
		product.CriticalStockThreshold = *input.CriticalStockThreshold
	} else {
		product.CriticalStockThreshold = 3
	}
	if product.CriticalStockThreshold > product.LowStockThreshold {
		return nil, apperrors.New(apperrors.CodeValidation, "critical threshold cannot exceed low threshold")
	}

	if err := s.repo.CreateProduct(product); err != nil {
		if db.IsUniqueViolation(err, "sku") {
			return nil, apperrors.New(apperrors.CodeConflict, "sku already in use")
		}
		return nil, err
	}
	return ToProductDTO(product, role), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID, role enums.MemberRole) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "loan product not found")
		}
		return nil, err
	}
	return ToProductDTO(product, role), nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter, role enums.MemberRole) ([]ProductDTO, error) {
	list, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToProductDTOs(list, role), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput, role enums.MemberRole) (*ProductDTO, error) {
	if err := requireAdmin(role); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}

	updates := map[string]any{}
	if input.BuyingPrice != nil {
		if input.BuyingPrice.IsNegative() {
			return nil, apperrors.New(apperrors.CodeValidation, "buying price must not be negative")
		}
		updates["buying_price"] = *input.BuyingPrice
	}
	if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			return nil, apperrors.New(apperrors.CodeValidation, "selling price must not be negative")
		}
		updates["selling_price"] = *input.SellingPrice
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "stock quantity must not be negative")
		}
		updates["stock_quantity"] = *input.StockQuantity
	}
	if input.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}
	if input.CriticalStockThreshold != nil {
		updates["critical_stock_threshold"] = *input.CriticalStockThreshold
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no fields to update")
	}
	updates["updated_at"] = time.Now()

	updated, err := s.repo.UpdateProduct(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperrors.New(apperrors.CodeNotFound, "loan product not found")
	}
	return s.GetProduct(ctx, id, role)
}

func (s *service) CreateLoanType(ctx context.Context, input CreateLoanTypeInput, role enums.MemberRole) (*LoanTypeDTO, error) {
	if err := requireAdmin(role); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if !input.InterestType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid interest type %q", input.InterestType))
	}
	if input.InterestRate.IsNegative() || input.ChargeFeePercentage.IsNegative() {
		return nil, apperrors.New(apperrors.CodeValidation, "rates must not be negative")
	}
	if input.MinAmount.IsNegative() || input.MaxAmount.LessThan(input.MinAmount) {
		return nil, apperrors.New(apperrors.CodeValidation, "amount range is invalid")
	}
	if input.DurationMonths <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "duration months must be positive")
	}

	loanType := &models.LoanType{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(input.Name),
		InterestRate:        input.InterestRate,
		InterestType:        input.InterestType,
		ChargeFeePercentage: input.ChargeFeePercentage,
		MinAmount:           input.MinAmount,
		MaxAmount:           input.MaxAmount,
		DurationMonths:      input.DurationMonths,
		IsActive:            true,
	}
	if err := s.repo.CreateLoanType(loanType); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, apperrors.New(apperrors.CodeConflict, "loan type name already in use")
		}
		return nil, err
	}
	return ToLoanTypeDTO(loanType), nil
}

func (s *service) ListLoanTypes(ctx context.Context, activeOnly bool) ([]LoanTypeDTO, error) {
	list, err := s.repo.ListLoanTypes(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return ToLoanTypeDTOs(list), nil
}
