package interest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Quote is the financial outcome of applying a loan type to a principal.
type Quote struct {
	Principal      decimal.Decimal    `json:"principal"`
	InterestAmount decimal.Decimal    `json:"interest_amount"`
	ChargeFee      decimal.Decimal    `json:"charge_fee"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	DueDate        time.Time          `json:"due_date"`
	Schedule       []ScheduleEntry    `json:"schedule,omitempty"`
	InterestType   enums.InterestType `json:"interest_type"`
}

// Engine computes loan financial terms. It performs no I/O.
type Engine interface {
	Compute(principal decimal.Decimal, loanType *models.LoanType, anchorDate time.Time) (*Quote, error)
	Schedule(principal decimal.Decimal, loanType *models.LoanType) []ScheduleEntry
}

type engine struct{}

// NewEngine returns the interest calculator.
func NewEngine() Engine {
	return engine{}
}

func (engine) Compute(principal decimal.Decimal, loanType *models.LoanType, anchorDate time.Time) (*Quote, error) {
	if loanType == nil {
		return nil, fmt.Errorf("loan type is required")
	}
	if !loanType.InterestType.IsValid() {
		return nil, fmt.Errorf("invalid interest type %q", loanType.InterestType)
	}
	if loanType.DurationMonths <= 0 {
		return nil, fmt.Errorf("loan type duration must be positive")
	}
	if principal.LessThan(loanType.MinAmount) || principal.GreaterThan(loanType.MaxAmount) {
		return nil, apperrors.New(apperrors.CodeOutOfRange,
			fmt.Sprintf("principal must be between %s and %s", loanType.MinAmount, loanType.MaxAmount)).
			WithDetails(map[string]string{
				"principal": principal.String(),
				"min":       loanType.MinAmount.String(),
				"max":       loanType.MaxAmount.String(),
			})
	}

	var (
		interest decimal.Decimal
		schedule []ScheduleEntry
	)
	switch loanType.InterestType {
	case enums.InterestTypeFlat:
		interest = flatInterest(principal, loanType.InterestRate, loanType.DurationMonths)
	case enums.InterestTypeReducing:
		schedule = reducingSchedule(principal, loanType.InterestRate, loanType.DurationMonths)
		interest = scheduleInterestTotal(schedule)
	case enums.InterestTypeCompound:
		interest = compoundInterest(principal, loanType.InterestRate, loanType.DurationMonths)
	}

	fee := principal.Mul(loanType.ChargeFeePercentage).Div(hundred).Round(2)
	total := principal.Add(interest).Add(fee)

	return &Quote{
		Principal:      principal,
		InterestAmount: interest,
		ChargeFee:      fee,
		TotalAmount:    total,
		DueDate:        anchorDate.AddDate(0, loanType.DurationMonths, 0),
		Schedule:       schedule,
		InterestType:   loanType.InterestType,
	}, nil
}

// Schedule rebuilds the per-period repayment plan for an existing loan.
// Only reducing-balance loans carry one; the plan is deterministic from the
// principal and loan type, so it is recomputed rather than stored.
func (engine) Schedule(principal decimal.Decimal, loanType *models.LoanType) []ScheduleEntry {
	if loanType == nil || loanType.InterestType != enums.InterestTypeReducing || loanType.DurationMonths <= 0 {
		return nil
	}
	return reducingSchedule(principal, loanType.InterestRate, loanType.DurationMonths)
}

// flatInterest applies the simple rate once per stated duration; total
// interest is fixed regardless of repayment pace.
func flatInterest(principal, rate decimal.Decimal, months int) decimal.Decimal {
	return principal.
		Mul(rate).
		Div(hundred).
		Mul(decimal.NewFromInt(int64(months))).
		Round(2)
}

// compoundInterest grows the balance by rate once per month and returns the
// growth over the principal.
func compoundInterest(principal, rate decimal.Decimal, months int) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	final := principal.Mul(factor.Pow(decimal.NewFromInt(int64(months))))
	return final.Sub(principal).Round(2)
}
