package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// Loan is the aggregate root of the lending lifecycle. Financial terms are
// snapshotted from the loan type at application time; OutstandingBalance
// starts at TotalAmount and only decreases through repayments.
type Loan struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID           uuid.UUID         `gorm:"column:member_id;type:uuid;not null;index"`
	LoanTypeID         uuid.UUID         `gorm:"column:loan_type_id;type:uuid;not null"`
	Status             enums.LoanStatus  `gorm:"column:status;not null;default:pending;index"`
	PrincipleAmount    decimal.Decimal   `gorm:"column:principle_amount;type:numeric(14,2);not null"`
	InterestAmount     decimal.Decimal   `gorm:"column:interest_amount;type:numeric(14,2);not null"`
	ChargeFee          decimal.Decimal   `gorm:"column:charge_fee;type:numeric(14,2);not null"`
	TotalAmount        decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	OutstandingBalance decimal.Decimal   `gorm:"column:outstanding_balance;type:numeric(14,2);not null"`
	ApplicationDate    time.Time         `gorm:"column:application_date;not null"`
	ApprovalDate       *time.Time        `gorm:"column:approval_date"`
	DisbursementDate   *time.Time        `gorm:"column:disbursement_date"`
	DueDate            *time.Time        `gorm:"column:due_date;index"`
	ApprovedBy         *uuid.UUID        `gorm:"column:approved_by;type:uuid"`
	DisbursedBy        *uuid.UUID        `gorm:"column:disbursed_by;type:uuid"`
	Items              []LoanProductItem `gorm:"foreignKey:LoanID"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
