package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/pagination"
)

// TransactionFilter narrows ledger reads. Cursor points at the last row of
// the previous page; rows strictly older than it are returned.
type TransactionFilter struct {
	AccountID   *uuid.UUID
	MemberID    *uuid.UUID
	LoanID      *uuid.UUID
	Type        *enums.TransactionType
	AccountType *enums.AccountType
	Cursor      *pagination.Cursor
	Limit       int
}

// Repository manages persistence for accounts and their transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetMemberAccount(ctx context.Context, memberID uuid.UUID, accountType enums.AccountType) (*models.Account, error)
	CompareAndSwapBalance(ctx context.Context, accountID uuid.UUID, before, after decimal.Decimal) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	SumTransactionAmounts(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) GetMemberAccount(ctx context.Context, memberID uuid.UUID, accountType enums.AccountType) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		First(&account, "member_id = ? AND type = ?", memberID, accountType).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// CompareAndSwapBalance updates the cached balance only when it still holds
// the expected previous value. A false return means another writer got there
// first and the caller should re-read and retry.
func (r *repository) CompareAndSwapBalance(ctx context.Context, accountID uuid.UUID, before, after decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND balance = ?", accountID, before).
		Updates(map[string]any{
			"balance":    after,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.LoanID != nil {
		query = query.Where("loan_id = ?", *filter.LoanID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.AccountType != nil {
		query = query.Where("account_type = ?", *filter.AccountType)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var txns []models.Transaction
	if err := query.Order("created_at DESC").Order("id DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) SumTransactionAmounts(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var raw *string
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Select("SUM(amount)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}
