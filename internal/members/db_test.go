package members

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
)

func setupMembersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:members_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := `
CREATE TABLE branches (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	code TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE groups (
	id TEXT PRIMARY KEY,
	branch_id TEXT,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
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
	balance NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (member_id, type)
);
CREATE TABLE transactions (
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
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE outbox_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	published_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return conn
}

func mustCreateBranch(t *testing.T, db *gorm.DB, name, code string) *models.Branch {
	t.Helper()
	branch := &models.Branch{ID: uuid.New(), Name: name, Code: code}
	if err := db.Create(branch).Error; err != nil {
		t.Fatalf("create branch: %v", err)
	}
	return branch
}

func mustCreateGroup(t *testing.T, db *gorm.DB, branchID *uuid.UUID, name string) *models.Group {
	t.Helper()
	group := &models.Group{ID: uuid.New(), BranchID: branchID, Name: name}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}
