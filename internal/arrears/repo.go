package arrears

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// Repository reads active loans whose due date has passed a cutoff. The scan
// never locks rows; the lifecycle services own all writes.
type Repository interface {
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.Loan, error)
	SumOverdueOutstanding(ctx context.Context, cutoff time.Time) (int64, decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an arrears repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) overdueQuery(ctx context.Context, cutoff time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status = ?", enums.LoanStatusActive).
		Where("due_date IS NOT NULL AND due_date < ?", cutoff)
}

func (r *repository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.Loan, error) {
	query := r.overdueQuery(ctx, cutoff).Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var loans []models.Loan
	if err := query.Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) SumOverdueOutstanding(ctx context.Context, cutoff time.Time) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64
		Total *string
	}
	err := r.overdueQuery(ctx, cutoff).
		Select("COUNT(*) AS count, SUM(outstanding_balance) AS total").
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	if row.Total == nil {
		return row.Count, decimal.Zero, nil
	}
	total, err := decimal.NewFromString(*row.Total)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, total, nil
}
