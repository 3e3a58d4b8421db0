package arrears

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

func TestService_ScanFlagsLoansPastGrace(t *testing.T) {
	t.Parallel()

	conn := setupArrearsTestDB(t)
	svc, err := NewService(NewRepository(conn), config.LoanPolicyConfig{ArrearsGraceDays: 7}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	// 10 days overdue: past the 7-day grace, in arrears.
	overdue := mustCreateLoan(t, conn, enums.LoanStatusActive, daysAgo(10), 5000)
	// 3 days overdue: inside grace, not flagged.
	mustCreateLoan(t, conn, enums.LoanStatusActive, daysAgo(3), 2000)
	// Not yet due.
	future := time.Now().AddDate(0, 1, 0)
	mustCreateLoan(t, conn, enums.LoanStatusActive, &future, 3000)
	// Overdue but already defaulted; the scan only looks at active loans.
	mustCreateLoan(t, conn, enums.LoanStatusDefaulted, daysAgo(30), 9000)
	// Active with no due date (not yet disbursed under some policies).
	mustCreateLoan(t, conn, enums.LoanStatusActive, nil, 1000)

	report, err := svc.Scan(ctx, time.Now())
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if report.LoansInArrears != 1 {
		t.Fatalf("loans in arrears = %d, want 1", report.LoansInArrears)
	}
	if !report.TotalOutstanding.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("total outstanding = %s, want 5000", report.TotalOutstanding)
	}
	entry := report.Loans[0]
	if entry.LoanID != overdue.ID {
		t.Errorf("flagged loan = %s, want %s", entry.LoanID, overdue.ID)
	}
	if entry.DaysOverdue < 9 || entry.DaysOverdue > 10 {
		t.Errorf("days overdue = %d, want ~10", entry.DaysOverdue)
	}
}

func TestService_ScanEmptyBook(t *testing.T) {
	t.Parallel()

	conn := setupArrearsTestDB(t)
	svc, err := NewService(NewRepository(conn), config.LoanPolicyConfig{ArrearsGraceDays: 7}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	report, err := svc.Scan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if report.LoansInArrears != 0 || len(report.Loans) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if !report.TotalOutstanding.IsZero() {
		t.Errorf("total outstanding = %s, want 0", report.TotalOutstanding)
	}
}

func TestService_SummaryAggregates(t *testing.T) {
	t.Parallel()

	conn := setupArrearsTestDB(t)
	svc, err := NewService(NewRepository(conn), config.LoanPolicyConfig{ArrearsGraceDays: 7}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	mustCreateLoan(t, conn, enums.LoanStatusActive, daysAgo(20), 5000)
	mustCreateLoan(t, conn, enums.LoanStatusActive, daysAgo(15), 2500)
	mustCreateLoan(t, conn, enums.LoanStatusActive, daysAgo(1), 8000)

	report, err := svc.Summary(ctx, time.Now())
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if report.LoansInArrears != 2 {
		t.Errorf("loans in arrears = %d, want 2", report.LoansInArrears)
	}
	if !report.TotalOutstanding.Equal(decimal.NewFromInt(7500)) {
		t.Errorf("total outstanding = %s, want 7500", report.TotalOutstanding)
	}
	if len(report.Loans) != 0 {
		t.Errorf("summary should not load loan rows, got %d", len(report.Loans))
	}
}

func TestService_ZeroGraceCountsImmediately(t *testing.T) {
	t.Parallel()

	conn := setupArrearsTestDB(t)
	svc, err := NewService(NewRepository(conn), config.LoanPolicyConfig{ArrearsGraceDays: 0}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	mustCreateLoan(t, conn, enums.LoanStatusActive, daysAgo(1), 1200)

	report, err := svc.Scan(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if report.LoansInArrears != 1 {
		t.Errorf("loans in arrears = %d, want 1", report.LoansInArrears)
	}
}

func TestNewService_RejectsNegativeGrace(t *testing.T) {
	t.Parallel()

	conn := setupArrearsTestDB(t)
	if _, err := NewService(NewRepository(conn), config.LoanPolicyConfig{ArrearsGraceDays: -1}, nil); err == nil {
		t.Fatal("expected error for negative grace days")
	}
}
