package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
)

// ProductFilter narrows loan product listings.
type ProductFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository manages loan product and loan type persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(product *models.LoanProduct) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.LoanProduct, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.LoanProduct, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	CreateLoanType(loanType *models.LoanType) error
	GetLoanType(ctx context.Context, id uuid.UUID) (*models.LoanType, error)
	ListLoanTypes(ctx context.Context, activeOnly bool) ([]models.LoanType, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(product *models.LoanProduct) error {
	return r.db.Create(product).Error
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.LoanProduct, error) {
	var product models.LoanProduct
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.LoanProduct, error) {
	query := r.db.WithContext(ctx).Model(&models.LoanProduct{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var list []models.LoanProduct
	if err := query.Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LoanProduct{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CreateLoanType(loanType *models.LoanType) error {
	return r.db.Create(loanType).Error
}

func (r *repository) GetLoanType(ctx context.Context, id uuid.UUID) (*models.LoanType, error) {
	var loanType models.LoanType
	if err := r.db.WithContext(ctx).First(&loanType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loanType, nil
}

func (r *repository) ListLoanTypes(ctx context.Context, activeOnly bool) ([]models.LoanType, error) {
	query := r.db.WithContext(ctx).Model(&models.LoanType{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var list []models.LoanType
	if err := query.Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
