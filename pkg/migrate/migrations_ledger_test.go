package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestTransactionsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_transactions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CHECK (balance_after = balance_before + amount)",
		"FOREIGN KEY (account_id) REFERENCES accounts(id)",
		"DROP TABLE IF EXISTS transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLoanProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_loan_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS loan_products",
		"CHECK (stock_quantity >= 0)",
		"DROP TABLE IF EXISTS loan_products",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAccountsMigrationEnforcesOnePerType(t *testing.T) {
	content := readMigration(t, "*_create_accounts.sql")

	if !strings.Contains(content, "ux_accounts_member_type ON accounts (member_id, type)") {
		t.Error("missing unique index on (member_id, type)")
	}
	if !strings.Contains(content, "CHECK (balance >= 0)") {
		t.Error("missing non-negative balance check")
	}
}
