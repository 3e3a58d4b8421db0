package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/arrears"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

func setupDashboardTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:dashboard_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := `
CREATE TABLE members (
	id TEXT PRIMARY KEY,
	branch_id TEXT,
	group_id TEXT,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	phone_number TEXT NOT NULL UNIQUE,
	national_id TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE accounts (
	id TEXT PRIMARY KEY,
	member_id TEXT NOT NULL,
	type TEXT NOT NULL,
	balance NUMERIC NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE loans (
	id TEXT PRIMARY KEY,
	member_id TEXT NOT NULL,
	loan_type_id TEXT NOT NULL,
	status TEXT NOT NULL,
	principle_amount NUMERIC NOT NULL DEFAULT 0,
	interest_amount NUMERIC NOT NULL DEFAULT 0,
	charge_fee NUMERIC NOT NULL DEFAULT 0,
	total_amount NUMERIC NOT NULL DEFAULT 0,
	outstanding_balance NUMERIC NOT NULL DEFAULT 0,
	application_date DATETIME NOT NULL,
	approval_date DATETIME,
	disbursement_date DATETIME,
	due_date DATETIME,
	approved_by TEXT,
	disbursed_by TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return conn
}

type fakeCache struct {
	values map[string]string
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	f.sets++
	return nil
}

func (f *fakeCache) CacheKey(name string) string {
	return "test:" + name
}

func seedMember(t *testing.T, conn *gorm.DB, status enums.MemberStatus, savings, drawdown int64) *models.Member {
	t.Helper()
	member := &models.Member{
		ID:          uuid.New(),
		FirstName:   "Test",
		LastName:    "Member",
		PhoneNumber: "+2547" + uuid.NewString()[:8],
		Status:      status,
	}
	if err := conn.Create(member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	for accountType, balance := range map[enums.AccountType]int64{
		enums.AccountTypeSavings:  savings,
		enums.AccountTypeDrawdown: drawdown,
	} {
		account := &models.Account{
			ID:       uuid.New(),
			MemberID: member.ID,
			Type:     accountType,
			Balance:  decimal.NewFromInt(balance),
		}
		if err := conn.Create(account).Error; err != nil {
			t.Fatalf("create account: %v", err)
		}
	}
	return member
}

func seedLoan(t *testing.T, conn *gorm.DB, memberID uuid.UUID, status enums.LoanStatus, principal, outstanding int64, dueDate *time.Time) {
	t.Helper()
	loan := &models.Loan{
		ID:                 uuid.New(),
		MemberID:           memberID,
		LoanTypeID:         uuid.New(),
		Status:             status,
		PrincipleAmount:    decimal.NewFromInt(principal),
		TotalAmount:        decimal.NewFromInt(principal),
		OutstandingBalance: decimal.NewFromInt(outstanding),
		ApplicationDate:    time.Now().AddDate(0, -1, 0),
		DueDate:            dueDate,
	}
	if err := conn.Create(loan).Error; err != nil {
		t.Fatalf("create loan: %v", err)
	}
}

func newDashboardService(t *testing.T, conn *gorm.DB, cache Cache) Service {
	t.Helper()
	arrearsSvc, err := arrears.NewService(arrears.NewRepository(conn), config.LoanPolicyConfig{ArrearsGraceDays: 7}, nil)
	if err != nil {
		t.Fatalf("new arrears service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), arrearsSvc, cache, nil)
	if err != nil {
		t.Fatalf("new dashboard service: %v", err)
	}
	return svc
}

func TestService_StatsAggregates(t *testing.T) {
	t.Parallel()

	conn := setupDashboardTestDB(t)
	svc := newDashboardService(t, conn, nil)
	ctx := context.Background()

	first := seedMember(t, conn, enums.MemberStatusActive, 1500, 0)
	second := seedMember(t, conn, enums.MemberStatusActive, 500, 200)
	seedMember(t, conn, enums.MemberStatusBlocked, 0, 0)

	overdue := time.Now().AddDate(0, 0, -20)
	seedLoan(t, conn, first.ID, enums.LoanStatusActive, 10000, 6000, &overdue)
	future := time.Now().AddDate(0, 2, 0)
	seedLoan(t, conn, second.ID, enums.LoanStatusActive, 5000, 4000, &future)
	seedLoan(t, conn, second.ID, enums.LoanStatusCompleted, 3000, 0, nil)
	seedLoan(t, conn, first.ID, enums.LoanStatusPending, 2000, 2000, nil)

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}

	if stats.TotalMembers != 3 || stats.ActiveMembers != 2 {
		t.Errorf("member counts = %d/%d, want 3/2", stats.TotalMembers, stats.ActiveMembers)
	}
	if !stats.TotalSavings.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("total savings = %s, want 2000", stats.TotalSavings)
	}
	if !stats.TotalDrawdown.Equal(decimal.NewFromInt(200)) {
		t.Errorf("total drawdown = %s, want 200", stats.TotalDrawdown)
	}
	if stats.LoansByStatus[enums.LoanStatusActive] != 2 {
		t.Errorf("active loans = %d, want 2", stats.LoansByStatus[enums.LoanStatusActive])
	}
	if !stats.TotalOutstanding.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("total outstanding = %s, want 10000", stats.TotalOutstanding)
	}
	// Pending loans have not been disbursed and do not count.
	if !stats.TotalDisbursed.Equal(decimal.NewFromInt(18000)) {
		t.Errorf("total disbursed = %s, want 18000", stats.TotalDisbursed)
	}
	if stats.LoansInArrears != 1 || !stats.ArrearsTotal.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("arrears = %d/%s, want 1/6000", stats.LoansInArrears, stats.ArrearsTotal)
	}
}

func TestService_StatsUsesCache(t *testing.T) {
	t.Parallel()

	conn := setupDashboardTestDB(t)
	cache := newFakeCache()
	svc := newDashboardService(t, conn, cache)
	ctx := context.Background()

	member := seedMember(t, conn, enums.MemberStatusActive, 1000, 0)

	first, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("first Stats error: %v", err)
	}
	if first.FromCache {
		t.Error("first read should compute, not hit the cache")
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}

	// A write after caching is invisible until the TTL lapses.
	seedLoan(t, conn, member.ID, enums.LoanStatusActive, 9000, 9000, nil)

	second, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("second Stats error: %v", err)
	}
	if !second.FromCache {
		t.Error("second read should come from the cache")
	}
	if second.LoansByStatus[enums.LoanStatusActive] != 0 {
		t.Errorf("cached stats should predate the new loan, got %d active", second.LoansByStatus[enums.LoanStatusActive])
	}
}

func TestService_StatsEmptyDatabase(t *testing.T) {
	t.Parallel()

	conn := setupDashboardTestDB(t)
	svc := newDashboardService(t, conn, nil)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.TotalMembers != 0 || !stats.TotalSavings.IsZero() || !stats.TotalOutstanding.IsZero() {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}
