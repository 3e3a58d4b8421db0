package arrears

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
)

// OverdueLoan is one active loan past its due date plus the grace window.
type OverdueLoan struct {
	LoanID             uuid.UUID       `json:"loan_id"`
	MemberID           uuid.UUID       `json:"member_id"`
	DueDate            time.Time       `json:"due_date"`
	DaysOverdue        int             `json:"days_overdue"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// Report is the outcome of one arrears scan.
type Report struct {
	AsOf             time.Time       `json:"as_of"`
	Cutoff           time.Time       `json:"cutoff"`
	GraceDays        int             `json:"grace_days"`
	LoansInArrears   int64           `json:"loans_in_arrears"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Loans            []OverdueLoan   `json:"loans,omitempty"`
}

// Service scans for loans in arrears. It is read-only; flagging a loan as
// defaulted stays a deliberate officer action on the lifecycle service.
type Service interface {
	Scan(ctx context.Context, asOf time.Time) (*Report, error)
	Summary(ctx context.Context, asOf time.Time) (*Report, error)
}

type service struct {
	repo    Repository
	policy  config.LoanPolicyConfig
	logg    *logger.Logger
	maxRows int
}

const defaultScanLimit = 500

// NewService wires the arrears monitor.
func NewService(repo Repository, policy config.LoanPolicyConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("arrears repository required")
	}
	if policy.ArrearsGraceDays < 0 {
		return nil, fmt.Errorf("arrears grace days must not be negative")
	}
	return &service{
		repo:    repo,
		policy:  policy,
		logg:    logg,
		maxRows: defaultScanLimit,
	}, nil
}

func (s *service) cutoff(asOf time.Time) time.Time {
	return asOf.AddDate(0, 0, -s.policy.ArrearsGraceDays)
}

// Scan returns the full per-loan breakdown for the worker.
func (s *service) Scan(ctx context.Context, asOf time.Time) (*Report, error) {
	cutoff := s.cutoff(asOf)

	loans, err := s.repo.ListOverdue(ctx, cutoff, s.maxRows)
	if err != nil {
		return nil, err
	}

	report := &Report{
		AsOf:             asOf,
		Cutoff:           cutoff,
		GraceDays:        s.policy.ArrearsGraceDays,
		LoansInArrears:   int64(len(loans)),
		TotalOutstanding: decimal.Zero,
	}
	for _, loan := range loans {
		overdue := OverdueLoan{
			LoanID:             loan.ID,
			MemberID:           loan.MemberID,
			OutstandingBalance: loan.OutstandingBalance,
		}
		if loan.DueDate != nil {
			overdue.DueDate = *loan.DueDate
			overdue.DaysOverdue = int(asOf.Sub(*loan.DueDate).Hours() / 24)
		}
		report.Loans = append(report.Loans, overdue)
		report.TotalOutstanding = report.TotalOutstanding.Add(loan.OutstandingBalance)
	}

	if s.logg != nil && report.LoansInArrears > 0 {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"count":             report.LoansInArrears,
			"total_outstanding": report.TotalOutstanding.String(),
		})
		s.logg.Warn(ctx, "loans in arrears detected")
	}
	return report, nil
}

// Summary aggregates without loading loan rows; the dashboard uses this.
func (s *service) Summary(ctx context.Context, asOf time.Time) (*Report, error) {
	cutoff := s.cutoff(asOf)

	count, total, err := s.repo.SumOverdueOutstanding(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return &Report{
		AsOf:             asOf,
		Cutoff:           cutoff,
		GraceDays:        s.policy.ArrearsGraceDays,
		LoansInArrears:   count,
		TotalOutstanding: total,
	}, nil
}
