package loans

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
)

func setupLoansTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:loans_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  branch_id TEXT,
  group_id TEXT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone_number TEXT NOT NULL,
  national_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  member_id TEXT NOT NULL,
  type TEXT NOT NULL,
  balance NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  member_id TEXT NOT NULL,
  account_type TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  balance_before NUMERIC NOT NULL,
  balance_after NUMERIC NOT NULL,
  loan_id TEXT,
  reference TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS loan_types (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  interest_rate NUMERIC NOT NULL,
  interest_type TEXT NOT NULL,
  charge_fee_percentage NUMERIC NOT NULL DEFAULT 0,
  min_amount NUMERIC NOT NULL,
  max_amount NUMERIC NOT NULL,
  duration_months INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS loan_products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT NOT NULL,
  buying_price NUMERIC NOT NULL,
  selling_price NUMERIC NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 10,
  critical_stock_threshold INTEGER NOT NULL DEFAULT 3,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS loans (
  id TEXT PRIMARY KEY,
  member_id TEXT NOT NULL,
  loan_type_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  principle_amount NUMERIC NOT NULL,
  interest_amount NUMERIC NOT NULL,
  charge_fee NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  outstanding_balance NUMERIC NOT NULL,
  application_date DATETIME NOT NULL,
  approval_date DATETIME,
  disbursement_date DATETIME,
  due_date DATETIME,
  approved_by TEXT,
  disbursed_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS loan_product_items (
  id TEXT PRIMARY KEY,
  loan_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}

	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func mustCreateMember(t *testing.T, db *gorm.DB, status enums.MemberStatus) *models.Member {
	t.Helper()
	member := &models.Member{
		ID:          uuid.New(),
		FirstName:   "Wanjiru",
		LastName:    "Kamau",
		PhoneNumber: "+2547" + uuid.NewString()[:8],
		Status:      status,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member
}

func mustCreateMemberAccount(t *testing.T, db *gorm.DB, memberID uuid.UUID, accountType enums.AccountType, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:       uuid.New(),
		MemberID: memberID,
		Type:     accountType,
		Balance:  decimal.NewFromInt(balance),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

func mustCreateLoanType(t *testing.T, db *gorm.DB, interestType enums.InterestType, rate, feePct string, months int) *models.LoanType {
	t.Helper()
	loanType := &models.LoanType{
		ID:                  uuid.New(),
		Name:                "type-" + uuid.NewString(),
		InterestRate:        decimal.RequireFromString(rate),
		InterestType:        interestType,
		ChargeFeePercentage: decimal.RequireFromString(feePct),
		MinAmount:           decimal.NewFromInt(2000),
		MaxAmount:           decimal.NewFromInt(20000),
		DurationMonths:      months,
		IsActive:            true,
	}
	if err := db.Create(loanType).Error; err != nil {
		t.Fatalf("create loan type: %v", err)
	}
	return loanType
}

func mustCreateLoanProduct(t *testing.T, db *gorm.DB, sellingPrice int64, stock int) *models.LoanProduct {
	t.Helper()
	product := &models.LoanProduct{
		ID:            uuid.New(),
		Name:          "Solar Kit",
		SKU:           "SKU-" + uuid.NewString(),
		BuyingPrice:   decimal.NewFromInt(sellingPrice - 500),
		SellingPrice:  decimal.NewFromInt(sellingPrice),
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create loan product: %v", err)
	}
	return product
}
