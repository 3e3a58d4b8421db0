package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// Transaction is an append-only ledger entry. Rows are never updated or
// deleted after creation; BalanceAfter must equal BalanceBefore + Amount.
type Transaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID     uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	MemberID      uuid.UUID             `gorm:"column:member_id;type:uuid;not null;index"`
	AccountType   enums.AccountType     `gorm:"column:account_type;not null"`
	Type          enums.TransactionType `gorm:"column:type;not null"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	BalanceBefore decimal.Decimal       `gorm:"column:balance_before;type:numeric(14,2);not null"`
	BalanceAfter  decimal.Decimal       `gorm:"column:balance_after;type:numeric(14,2);not null"`
	LoanID        *uuid.UUID            `gorm:"column:loan_id;type:uuid;index"`
	Reference     string                `gorm:"column:reference"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
