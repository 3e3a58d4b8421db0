package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// Repository runs the aggregate queries behind the dashboard stats.
type Repository interface {
	CountMembers(ctx context.Context, status *enums.MemberStatus) (int64, error)
	SumBalances(ctx context.Context, accountType enums.AccountType) (decimal.Decimal, error)
	CountLoansByStatus(ctx context.Context) (map[enums.LoanStatus]int64, error)
	SumOutstanding(ctx context.Context) (decimal.Decimal, error)
	SumDisbursed(ctx context.Context) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dashboard repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountMembers(ctx context.Context, status *enums.MemberStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Member{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) SumBalances(ctx context.Context, accountType enums.AccountType) (decimal.Decimal, error) {
	return r.sumColumn(ctx, r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("type = ?", accountType).
		Select("SUM(balance)"))
}

func (r *repository) CountLoansByStatus(ctx context.Context) (map[enums.LoanStatus]int64, error) {
	var rows []struct {
		Status enums.LoanStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.LoanStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) SumOutstanding(ctx context.Context) (decimal.Decimal, error) {
	return r.sumColumn(ctx, r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status = ?", enums.LoanStatusActive).
		Select("SUM(outstanding_balance)"))
}

func (r *repository) SumDisbursed(ctx context.Context) (decimal.Decimal, error) {
	return r.sumColumn(ctx, r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status IN ?", []enums.LoanStatus{
			enums.LoanStatusActive,
			enums.LoanStatusCompleted,
			enums.LoanStatusDefaulted,
		}).
		Select("SUM(principle_amount)"))
}

func (r *repository) sumColumn(_ context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var raw *string
	if err := query.Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
