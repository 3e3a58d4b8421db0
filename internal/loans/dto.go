package loans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/interest"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

// ProductItemInput is one requested product line on an application.
type ProductItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// ApplyInput opens a loan application. Cash loans carry Amount; product-backed
// loans carry Items and derive the principal from product selling prices.
type ApplyInput struct {
	MemberID   uuid.UUID          `json:"member_id" validate:"required"`
	LoanTypeID uuid.UUID          `json:"loan_type_id" validate:"required"`
	Amount     *decimal.Decimal   `json:"amount,omitempty"`
	Items      []ProductItemInput `json:"items,omitempty" validate:"dive"`
}

// RepayInput applies a payment against an active loan.
type RepayInput struct {
	LoanID    uuid.UUID       `json:"loan_id" validate:"required"`
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
}

// RepayResult reports the repayment outcome including the ledger leg.
type RepayResult struct {
	Loan        *LoanDTO            `json:"loan"`
	Transaction *models.Transaction `json:"transaction"`
	AmountPaid  decimal.Decimal     `json:"amount_paid"`
	Completed   bool                `json:"completed"`
}

// ProductItemDTO is the transport shape for a loan product line.
type ProductItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// LoanDTO is the transport shape for a loan record.
type LoanDTO struct {
	ID                 uuid.UUID                `json:"id"`
	MemberID           uuid.UUID                `json:"member_id"`
	LoanTypeID         uuid.UUID                `json:"loan_type_id"`
	Status             enums.LoanStatus         `json:"status"`
	PrincipleAmount    decimal.Decimal          `json:"principle_amount"`
	InterestAmount     decimal.Decimal          `json:"interest_amount"`
	ChargeFee          decimal.Decimal          `json:"charge_fee"`
	TotalAmount        decimal.Decimal          `json:"total_amount"`
	OutstandingBalance decimal.Decimal          `json:"outstanding_balance"`
	ApplicationDate    time.Time                `json:"application_date"`
	ApprovalDate       *time.Time               `json:"approval_date,omitempty"`
	DisbursementDate   *time.Time               `json:"disbursement_date,omitempty"`
	DueDate            *time.Time               `json:"due_date,omitempty"`
	ApprovedBy         *uuid.UUID               `json:"approved_by,omitempty"`
	DisbursedBy        *uuid.UUID               `json:"disbursed_by,omitempty"`
	Items              []ProductItemDTO         `json:"items,omitempty"`
	Schedule           []interest.ScheduleEntry `json:"schedule,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// ToDTO converts a loan model to the external DTO.
func ToDTO(loan *models.Loan) *LoanDTO {
	if loan == nil {
		return nil
	}

	dto := &LoanDTO{
		ID:                 loan.ID,
		MemberID:           loan.MemberID,
		LoanTypeID:         loan.LoanTypeID,
		Status:             loan.Status,
		PrincipleAmount:    loan.PrincipleAmount,
		InterestAmount:     loan.InterestAmount,
		ChargeFee:          loan.ChargeFee,
		TotalAmount:        loan.TotalAmount,
		OutstandingBalance: loan.OutstandingBalance,
		ApplicationDate:    loan.ApplicationDate,
		ApprovalDate:       loan.ApprovalDate,
		DisbursementDate:   loan.DisbursementDate,
		DueDate:            loan.DueDate,
		ApprovedBy:         loan.ApprovedBy,
		DisbursedBy:        loan.DisbursedBy,
		CreatedAt:          loan.CreatedAt,
		UpdatedAt:          loan.UpdatedAt,
	}
	for _, item := range loan.Items {
		dto.Items = append(dto.Items, ProductItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		})
	}
	return dto
}

// ToDTOs converts a slice of loan models.
func ToDTOs(loans []models.Loan) []LoanDTO {
	dtos := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		dtos = append(dtos, *ToDTO(&loans[i]))
	}
	return dtos
}
