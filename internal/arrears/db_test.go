package arrears

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

func setupArrearsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:arrears_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := `
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

func mustCreateLoan(t *testing.T, db *gorm.DB, status enums.LoanStatus, dueDate *time.Time, outstanding int64) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		ID:                 uuid.New(),
		MemberID:           uuid.New(),
		LoanTypeID:         uuid.New(),
		Status:             status,
		PrincipleAmount:    decimal.NewFromInt(outstanding),
		TotalAmount:        decimal.NewFromInt(outstanding),
		OutstandingBalance: decimal.NewFromInt(outstanding),
		ApplicationDate:    time.Now().AddDate(0, -2, 0),
		DueDate:            dueDate,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return loan
}

func daysAgo(n int) *time.Time {
	ts := time.Now().AddDate(0, 0, -n)
	return &ts
}
