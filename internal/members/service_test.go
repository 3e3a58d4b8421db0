package members

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/ledger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/outbox"
)

func newMemberService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	client := db.FromConn(conn)
	ledgerSvc, err := ledger.NewService(client, ledger.NewRepository(conn), config.LoanPolicyConfig{LedgerRetryAttempts: 3}, nil)
	if err != nil {
		t.Fatalf("new ledger service: %v", err)
	}
	svc, err := NewService(client, NewRepository(conn), ledgerSvc, outbox.NewService(outbox.NewRepository(conn), nil), nil)
	if err != nil {
		t.Fatalf("new member service: %v", err)
	}
	return svc
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestService_RegisterCreatesAccountPair(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	member, err := svc.Register(ctx, RegisterInput{
		FirstName:   "Achieng",
		LastName:    "Odhiambo",
		PhoneNumber: "+254700000001",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if member.Status != enums.MemberStatusActive {
		t.Errorf("status = %s, want active", member.Status)
	}
	if len(member.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(member.Accounts))
	}
	types := map[enums.AccountType]bool{}
	for _, account := range member.Accounts {
		if !account.Balance.IsZero() {
			t.Errorf("account %s balance = %s, want 0", account.Type, account.Balance)
		}
		types[account.Type] = true
	}
	if !types[enums.AccountTypeSavings] || !types[enums.AccountTypeDrawdown] {
		t.Errorf("expected savings and drawdown accounts, got %v", types)
	}

	var count int64
	if err := conn.Model(&models.Account{}).Where("member_id = ?", member.ID).Count(&count).Error; err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 2 {
		t.Errorf("persisted accounts = %d, want 2", count)
	}
	var events int64
	if err := conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventMemberRegistered).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Errorf("member.registered events = %d, want 1", events)
	}
}

func TestService_RegisterWithDepositAndFee(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	member, err := svc.Register(ctx, RegisterInput{
		FirstName:       "Brian",
		LastName:        "Kiprop",
		PhoneNumber:     "+254700000002",
		InitialDeposit:  decimalPtr(1000),
		RegistrationFee: decimalPtr(200),
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	var savings models.Account
	if err := conn.First(&savings, "member_id = ? AND type = ?", member.ID, enums.AccountTypeSavings).Error; err != nil {
		t.Fatalf("load savings: %v", err)
	}
	if !savings.Balance.Equal(decimal.NewFromInt(800)) {
		t.Errorf("savings balance = %s, want 800", savings.Balance)
	}

	var txns []models.Transaction
	if err := conn.Order("created_at ASC").Find(&txns, "account_id = ?", savings.ID).Error; err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txns))
	}
	var sum decimal.Decimal
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	if !sum.Equal(savings.Balance) {
		t.Errorf("ledger sum %s != cached balance %s", sum, savings.Balance)
	}
}

func TestService_RegisterFeeExceedingDepositRollsBack(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		FirstName:       "Cynthia",
		LastName:        "Wambui",
		PhoneNumber:     "+254700000003",
		InitialDeposit:  decimalPtr(100),
		RegistrationFee: decimalPtr(500),
	})
	if !apperrors.IsCode(err, apperrors.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}

	var members int64
	if err := conn.Model(&models.Member{}).Count(&members).Error; err != nil {
		t.Fatalf("count members: %v", err)
	}
	if members != 0 {
		t.Errorf("member persisted despite failed registration fee")
	}
}

func TestService_RegisterDuplicatePhone(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	input := RegisterInput{FirstName: "Dan", LastName: "Mutua", PhoneNumber: "+254700000004"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first Register error: %v", err)
	}
	if _, err := svc.Register(ctx, input); !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT on duplicate phone, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	negative := decimal.NewFromInt(-5)
	tests := []struct {
		name  string
		input RegisterInput
		code  apperrors.Code
	}{
		{
			name:  "missing name",
			input: RegisterInput{PhoneNumber: "+254700000005"},
			code:  apperrors.CodeValidation,
		},
		{
			name:  "missing phone",
			input: RegisterInput{FirstName: "Esther", LastName: "Njeri"},
			code:  apperrors.CodeValidation,
		},
		{
			name: "negative deposit",
			input: RegisterInput{
				FirstName: "Esther", LastName: "Njeri",
				PhoneNumber: "+254700000006", InitialDeposit: &negative,
			},
			code: apperrors.CodeValidation,
		},
		{
			name: "unknown branch",
			input: RegisterInput{
				FirstName: "Esther", LastName: "Njeri",
				PhoneNumber: "+254700000007", BranchID: func() *uuid.UUID { id := uuid.New(); return &id }(),
			},
			code: apperrors.CodeNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.input); !apperrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestService_SetStatusAndList(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	member, err := svc.Register(ctx, RegisterInput{
		FirstName: "Faith", LastName: "Chebet", PhoneNumber: "+254700000008",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	blocked, err := svc.SetStatus(ctx, member.ID, enums.MemberStatusBlocked)
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if blocked.Status != enums.MemberStatusBlocked {
		t.Errorf("status = %s, want blocked", blocked.Status)
	}

	status := enums.MemberStatusBlocked
	list, err := svc.List(ctx, MemberFilter{Status: &status})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0].ID != member.ID {
		t.Errorf("blocked list = %+v, want just %s", list, member.ID)
	}

	if _, err := svc.SetStatus(ctx, uuid.New(), enums.MemberStatusActive); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for unknown member, got %v", err)
	}
}

func TestService_BranchesAndGroups(t *testing.T) {
	t.Parallel()

	conn := setupMembersTestDB(t)
	svc := newMemberService(t, conn)
	ctx := context.Background()

	branch := mustCreateBranch(t, conn, "Nakuru", "NKR")
	other := mustCreateBranch(t, conn, "Eldoret", "ELD")
	mustCreateGroup(t, conn, &branch.ID, "Umoja")
	mustCreateGroup(t, conn, &other.ID, "Tumaini")

	branches, err := svc.ListBranches(ctx)
	if err != nil {
		t.Fatalf("ListBranches error: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("branches = %d, want 2", len(branches))
	}

	groups, err := svc.ListGroups(ctx, &branch.ID)
	if err != nil {
		t.Fatalf("ListGroups error: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Umoja" {
		t.Errorf("groups = %+v, want just Umoja", groups)
	}

	member, err := svc.Register(ctx, RegisterInput{
		FirstName: "Grace", LastName: "Moraa",
		PhoneNumber: "+254700000009",
		BranchID:    &branch.ID,
	})
	if err != nil {
		t.Fatalf("Register with branch error: %v", err)
	}
	if member.BranchID == nil || *member.BranchID != branch.ID {
		t.Errorf("member branch = %v, want %s", member.BranchID, branch.ID)
	}
}
