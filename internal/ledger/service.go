package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
)

const defaultListLimit = 50

// PostInput captures one signed ledger posting.
type PostInput struct {
	AccountID uuid.UUID             `json:"account_id"`
	Type      enums.TransactionType `json:"type"`
	Amount    decimal.Decimal       `json:"amount"`
	LoanID    *uuid.UUID            `json:"loan_id,omitempty"`
	Reference string                `json:"reference,omitempty"`
}

// TransferInput moves a positive amount between two accounts.
type TransferInput struct {
	FromAccountID uuid.UUID       `json:"from_account_id"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference,omitempty"`
}

// TransferResult carries both legs of a completed transfer.
type TransferResult struct {
	Debit  *models.Transaction `json:"debit"`
	Credit *models.Transaction `json:"credit"`
}

// ReconciliationResult compares an account's cached balance against the sum
// of its ledger entries.
type ReconciliationResult struct {
	AccountID     uuid.UUID       `json:"account_id"`
	CachedBalance decimal.Decimal `json:"cached_balance"`
	LedgerSum     decimal.Decimal `json:"ledger_sum"`
	Consistent    bool            `json:"consistent"`
	DriftDetected bool            `json:"drift_detected"`
}

// Service defines the account ledger operations. Every posting writes exactly
// one transaction row and moves the cached balance in the same atomic unit.
type Service interface {
	Post(ctx context.Context, input PostInput) (*models.Transaction, error)
	PostInTx(ctx context.Context, tx *gorm.DB, input PostInput) (*models.Transaction, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	GetMemberAccount(ctx context.Context, memberID uuid.UUID, accountType enums.AccountType) (*models.Account, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (*ReconciliationResult, error)
}

type service struct {
	client   *db.Client
	repo     Repository
	attempts int
	logg     *logger.Logger
}

// NewService wires the ledger service.
func NewService(client *db.Client, repo Repository, policy config.LoanPolicyConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	attempts := policy.LedgerRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &service{client: client, repo: repo, attempts: attempts, logg: logg}, nil
}

func validatePost(input PostInput) error {
	if input.AccountID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "account id is required")
	}
	if !input.Type.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.Amount.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "amount must not be zero")
	}
	if !input.Type.IsDebitGuarded() && input.Amount.IsNegative() {
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("%s amount must be positive", input.Type))
	}
	if input.Type.IsDebitOnly() && input.Amount.IsPositive() {
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("%s amount must be negative", input.Type))
	}
	return nil
}

// PostInTx runs a single posting attempt inside the caller's transaction.
// Callers composing multiple postings own the retry decision.
func (s *service) PostInTx(ctx context.Context, tx *gorm.DB, input PostInput) (*models.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validatePost(input); err != nil {
		return nil, err
	}

	repo := s.repo.WithTx(tx)

	account, err := repo.GetAccount(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return nil, err
	}

	balanceBefore := account.Balance
	balanceAfter := balanceBefore.Add(input.Amount)
	if balanceAfter.IsNegative() {
		if input.Type.IsDebitGuarded() {
			return nil, apperrors.New(apperrors.CodeInsufficientFunds,
				fmt.Sprintf("balance %s cannot cover %s", balanceBefore, input.Amount.Abs())).
				WithDetails(map[string]string{
					"balance": balanceBefore.String(),
					"amount":  input.Amount.String(),
				})
		}
		return nil, apperrors.New(apperrors.CodeValidation, "posting would drive balance negative")
	}

	swapped, err := repo.CompareAndSwapBalance(ctx, account.ID, balanceBefore, balanceAfter)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, apperrors.New(apperrors.CodeConcurrency, "account balance changed concurrently")
	}

	txn := &models.Transaction{
		ID:            uuid.New(),
		AccountID:     account.ID,
		MemberID:      account.MemberID,
		AccountType:   account.Type,
		Type:          input.Type,
		Amount:        input.Amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		LoanID:        input.LoanID,
		Reference:     input.Reference,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Post(ctx context.Context, input PostInput) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.retryOnConflict(ctx, func() error {
		return s.client.WithTx(ctx, func(tx *gorm.DB) error {
			posted, err := s.PostInTx(ctx, tx, input)
			if err != nil {
				return err
			}
			txn = posted
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.FromAccountID == uuid.Nil || input.ToAccountID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "both account ids are required")
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot transfer to the same account")
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "transfer amount must be positive")
	}

	var result TransferResult
	err := s.retryOnConflict(ctx, func() error {
		return s.client.WithTx(ctx, func(tx *gorm.DB) error {
			debit, err := s.PostInTx(ctx, tx, PostInput{
				AccountID: input.FromAccountID,
				Type:      enums.TransactionTypeTransfer,
				Amount:    input.Amount.Neg(),
				Reference: input.Reference,
			})
			if err != nil {
				return err
			}
			credit, err := s.PostInTx(ctx, tx, PostInput{
				AccountID: input.ToAccountID,
				Type:      enums.TransactionTypeTransfer,
				Amount:    input.Amount,
				Reference: input.Reference,
			})
			if err != nil {
				return err
			}
			result = TransferResult{Debit: debit, Credit: credit}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// retryOnConflict re-runs fn while it fails with a concurrency conflict, up
// to the configured attempt budget.
func (s *service) retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.attempts; attempt++ {
		err = fn()
		if !apperrors.IsCode(err, apperrors.CodeConcurrency) {
			return err
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "ledger posting conflicted, retrying")
		}
	}
	return err
}

func (s *service) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	if accountID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "account id is required")
	}
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return nil, err
	}
	return account, nil
}

func (s *service) GetMemberAccount(ctx context.Context, memberID uuid.UUID, accountType enums.AccountType) (*models.Account, error) {
	if memberID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "member id is required")
	}
	if !accountType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid account type %q", accountType))
	}
	account, err := s.repo.GetMemberAccount(ctx, memberID, accountType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "account not found")
		}
		return nil, err
	}
	return account, nil
}

func (s *service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	return s.repo.ListTransactions(ctx, filter)
}

func (s *service) Reconcile(ctx context.Context, accountID uuid.UUID) (*ReconciliationResult, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.SumTransactionAmounts(ctx, accountID)
	if err != nil {
		return nil, err
	}
	consistent := account.Balance.Equal(sum)
	return &ReconciliationResult{
		AccountID:     account.ID,
		CachedBalance: account.Balance,
		LedgerSum:     sum,
		Consistent:    consistent,
		DriftDetected: !consistent,
	}, nil
}
