package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// LoanFilter narrows loan listings.
type LoanFilter struct {
	MemberID *uuid.UUID
	Status   *enums.LoanStatus
	Limit    int
}

// Repository manages persistence for loans and their product items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	GetLoanType(ctx context.Context, id uuid.UUID) (*models.LoanType, error)
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) ([]models.LoanProduct, error)
	List(ctx context.Context, filter LoanFilter) ([]models.Loan, error)
	TransitionStatus(ctx context.Context, loanID uuid.UUID, from, to enums.LoanStatus, updates map[string]any) (bool, error)
	ReduceOutstanding(ctx context.Context, loanID uuid.UUID, before, after models.Loan) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a loan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *repository) GetLoanType(ctx context.Context, id uuid.UUID) (*models.LoanType, error) {
	var loanType models.LoanType
	if err := r.db.WithContext(ctx).First(&loanType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loanType, nil
}

func (r *repository) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) GetProducts(ctx context.Context, ids []uuid.UUID) ([]models.LoanProduct, error) {
	var products []models.LoanProduct
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) List(ctx context.Context, filter LoanFilter) ([]models.Loan, error) {
	query := r.db.WithContext(ctx).Model(&models.Loan{}).Preload("Items")
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var loans []models.Loan
	if err := query.Order("application_date DESC").Order("id DESC").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

// TransitionStatus flips the loan status only when it still holds the
// expected previous value. A false return means the loan was missing or in
// another state; callers use this guard to reject illegal transitions without
// racing a concurrent writer.
func (r *repository) TransitionStatus(ctx context.Context, loanID uuid.UUID, from, to enums.LoanStatus, updates map[string]any) (bool, error) {
	values := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	for column, value := range updates {
		values[column] = value
	}

	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReduceOutstanding writes the repayment outcome guarded on the previous
// outstanding balance, serializing concurrent repayments on one loan.
func (r *repository) ReduceOutstanding(ctx context.Context, loanID uuid.UUID, before, after models.Loan) (bool, error) {
	values := map[string]any{
		"outstanding_balance": after.OutstandingBalance,
		"status":              after.Status,
		"updated_at":          time.Now(),
	}

	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ? AND outstanding_balance = ?",
			loanID, before.Status, before.OutstandingBalance).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
