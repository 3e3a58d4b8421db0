package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/interest"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/inventory"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/ledger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/outbox"
)

// Service orchestrates the loan lifecycle:
// pending -> approved -> disbursed -> active -> completed | defaulted,
// plus pending -> cancelled. Every transition runs as one atomic unit.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*LoanDTO, error)
	Cancel(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*LoanDTO, error)
	Approve(ctx context.Context, loanID uuid.UUID, approverID uuid.UUID) (*LoanDTO, error)
	Disburse(ctx context.Context, loanID uuid.UUID, disburserID uuid.UUID) (*LoanDTO, error)
	Repay(ctx context.Context, input RepayInput) (*RepayResult, error)
	MarkDefaulted(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*LoanDTO, error)
	Get(ctx context.Context, loanID uuid.UUID) (*LoanDTO, error)
	List(ctx context.Context, filter LoanFilter) ([]LoanDTO, error)
}

type service struct {
	client    *db.Client
	repo      Repository
	engine    interest.Engine
	inventory inventory.Service
	ledger    ledger.Service
	events    *outbox.Service
	policy    config.LoanPolicyConfig
	logg      *logger.Logger
}

// ServiceParams collects the loan service dependencies.
type ServiceParams struct {
	Client    *db.Client
	Repo      Repository
	Engine    interest.Engine
	Inventory inventory.Service
	Ledger    ledger.Service
	Events    *outbox.Service
	Policy    config.LoanPolicyConfig
	Logger    *logger.Logger
}

// NewService wires the loan lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("loan repository required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("interest engine required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Policy.LedgerRetryAttempts < 1 {
		params.Policy.LedgerRetryAttempts = 1
	}
	return &service{
		client:    params.Client,
		repo:      params.Repo,
		engine:    params.Engine,
		inventory: params.Inventory,
		ledger:    params.Ledger,
		events:    params.Events,
		policy:    params.Policy,
		logg:      params.Logger,
	}, nil
}

type loanEventPayload struct {
	LoanID             uuid.UUID        `json:"loan_id"`
	MemberID           uuid.UUID        `json:"member_id"`
	Status             enums.LoanStatus `json:"status"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, actorID uuid.UUID, loan *models.Loan, amount *decimal.Decimal) error {
	if s.events == nil {
		return nil
	}
	var actor *outbox.ActorRef
	if actorID != uuid.Nil {
		actor = &outbox.ActorRef{UserID: actorID}
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateLoan,
		AggregateID:   loan.ID,
		Actor:         actor,
		Data: loanEventPayload{
			LoanID:             loan.ID,
			MemberID:           loan.MemberID,
			Status:             loan.Status,
			OutstandingBalance: loan.OutstandingBalance,
			Amount:             amount,
		},
	})
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*LoanDTO, error) {
	if input.MemberID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "member id is required")
	}
	if input.LoanTypeID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan type id is required")
	}
	hasAmount := input.Amount != nil && !input.Amount.IsZero()
	if hasAmount == (len(input.Items) > 0) {
		return nil, apperrors.New(apperrors.CodeValidation, "provide either an amount or product items, not both")
	}

	member, err := s.repo.GetMember(ctx, input.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "member not found")
		}
		return nil, err
	}
	if member.Status != enums.MemberStatusActive {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("member is %s, only active members can borrow", member.Status))
	}

	loanType, err := s.repo.GetLoanType(ctx, input.LoanTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "loan type not found")
		}
		return nil, err
	}
	if !loanType.IsActive {
		return nil, apperrors.New(apperrors.CodeValidation, "loan type is inactive")
	}

	principal, items, reservations, err := s.resolvePrincipal(ctx, input)
	if err != nil {
		return nil, err
	}

	applicationDate := time.Now()
	quote, err := s.engine.Compute(principal, loanType, applicationDate)
	if err != nil {
		return nil, err
	}

	loan := &models.Loan{
		ID:                 uuid.New(),
		MemberID:           input.MemberID,
		LoanTypeID:         input.LoanTypeID,
		Status:             enums.LoanStatusPending,
		PrincipleAmount:    principal,
		InterestAmount:     quote.InterestAmount,
		ChargeFee:          quote.ChargeFee,
		TotalAmount:        quote.TotalAmount,
		OutstandingBalance: quote.TotalAmount,
		ApplicationDate:    applicationDate,
	}
	if !s.policy.AnchorsToDisbursement() {
		due := quote.DueDate
		loan.DueDate = &due
	}
	for _, item := range items {
		item.LoanID = loan.ID
		loan.Items = append(loan.Items, item)
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if len(reservations) > 0 {
			results, rerr := s.inventory.ReserveInTx(ctx, tx, reservations)
			if rerr != nil {
				return rerr
			}
			if failure, failed := inventory.FirstFailure(results); failed {
				return apperrors.New(apperrors.CodeInsufficientStock, failure.Reason).
					WithDetails(map[string]any{
						"product_id": failure.ProductID,
						"quantity":   failure.Quantity,
					})
			}
		}
		if cerr := s.repo.WithTx(tx).Create(ctx, loan); cerr != nil {
			return cerr
		}
		return s.emit(ctx, tx, enums.EventLoanApplied, input.MemberID, loan, &principal)
	})
	if err != nil {
		return nil, err
	}

	dto := ToDTO(loan)
	dto.Schedule = quote.Schedule
	return dto, nil
}

// resolvePrincipal derives the principal and line items from the request. For
// product-backed loans the unit price snapshots the product's selling price.
func (s *service) resolvePrincipal(ctx context.Context, input ApplyInput) (decimal.Decimal, []models.LoanProductItem, []inventory.ReservationRequest, error) {
	if len(input.Items) == 0 {
		if input.Amount.IsNegative() {
			return decimal.Zero, nil, nil, apperrors.New(apperrors.CodeValidation, "amount must be positive")
		}
		return *input.Amount, nil, nil, nil
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return decimal.Zero, nil, nil, apperrors.New(apperrors.CodeValidation, "product id is required")
		}
		if item.Quantity <= 0 {
			return decimal.Zero, nil, nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return decimal.Zero, nil, nil, err
	}
	byID := make(map[uuid.UUID]models.LoanProduct, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	principal := decimal.Zero
	items := make([]models.LoanProductItem, 0, len(input.Items))
	reservations := make([]inventory.ReservationRequest, 0, len(input.Items))
	for _, requested := range input.Items {
		product, ok := byID[requested.ProductID]
		if !ok {
			return decimal.Zero, nil, nil, apperrors.New(apperrors.CodeNotFound, "loan product not found")
		}
		if !product.IsActive {
			return decimal.Zero, nil, nil, apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("product %s is inactive", product.Name))
		}
		item := models.LoanProductItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Quantity:  requested.Quantity,
			UnitPrice: product.SellingPrice,
		}
		principal = principal.Add(item.LineTotal())
		items = append(items, item)
		reservations = append(reservations, inventory.ReservationRequest{
			ProductID: product.ID,
			Quantity:  requested.Quantity,
		})
	}
	return principal, items, reservations, nil
}

func (s *service) Cancel(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*LoanDTO, error) {
	if loanID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan id is required")
	}

	var cancelled *models.Loan
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loan, lerr := repo.GetByID(ctx, loanID)
		if lerr != nil {
			if errors.Is(lerr, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "loan not found")
			}
			return lerr
		}

		// The status guard is the idempotency barrier: a second cancel sees
		// zero rows and stock is never re-credited.
		flipped, terr := repo.TransitionStatus(ctx, loanID, enums.LoanStatusPending, enums.LoanStatusCancelled, map[string]any{
			"outstanding_balance": decimal.Zero,
		})
		if terr != nil {
			return terr
		}
		if !flipped {
			return apperrors.New(apperrors.CodeInvalidTransition,
				fmt.Sprintf("cannot cancel loan in status %s", loan.Status)).
				WithDetails(map[string]string{"status": loan.Status.String()})
		}

		if len(loan.Items) > 0 {
			requests := make([]inventory.ReservationRequest, 0, len(loan.Items))
			for _, item := range loan.Items {
				requests = append(requests, inventory.ReservationRequest{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
				})
			}
			if rerr := s.inventory.ReleaseInTx(ctx, tx, requests); rerr != nil {
				return rerr
			}
		}

		loan.Status = enums.LoanStatusCancelled
		loan.OutstandingBalance = decimal.Zero
		cancelled = loan
		return s.emit(ctx, tx, enums.EventLoanCancelled, actorID, loan, nil)
	})
	if err != nil {
		return nil, err
	}
	return ToDTO(cancelled), nil
}

func (s *service) Approve(ctx context.Context, loanID uuid.UUID, approverID uuid.UUID) (*LoanDTO, error) {
	if loanID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan id is required")
	}
	if approverID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "approver id is required")
	}

	now := time.Now()
	var approved *models.Loan
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		flipped, terr := repo.TransitionStatus(ctx, loanID, enums.LoanStatusPending, enums.LoanStatusApproved, map[string]any{
			"approval_date": now,
			"approved_by":   approverID,
		})
		if terr != nil {
			return terr
		}
		if !flipped {
			return s.transitionError(ctx, repo, loanID, "approve")
		}

		loan, lerr := repo.GetByID(ctx, loanID)
		if lerr != nil {
			return lerr
		}
		approved = loan
		return s.emit(ctx, tx, enums.EventLoanApproved, approverID, loan, nil)
	})
	if err != nil {
		return nil, err
	}
	return ToDTO(approved), nil
}

func (s *service) Disburse(ctx context.Context, loanID uuid.UUID, disburserID uuid.UUID) (*LoanDTO, error) {
	if loanID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan id is required")
	}
	if disburserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "disburser id is required")
	}

	var disbursed *models.Loan
	err := s.retryOnConflict(ctx, func() error {
		return s.client.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			loan, lerr := repo.GetByID(ctx, loanID)
			if lerr != nil {
				if errors.Is(lerr, gorm.ErrRecordNotFound) {
					return apperrors.New(apperrors.CodeNotFound, "loan not found")
				}
				return lerr
			}

			now := time.Now()
			updates := map[string]any{
				"disbursement_date": now,
				"disbursed_by":      disburserID,
			}
			if s.policy.AnchorsToDisbursement() {
				loanType, lterr := repo.GetLoanType(ctx, loan.LoanTypeID)
				if lterr != nil {
					return lterr
				}
				updates["due_date"] = now.AddDate(0, loanType.DurationMonths, 0)
			}

			flipped, terr := repo.TransitionStatus(ctx, loanID, enums.LoanStatusApproved, enums.LoanStatusDisbursed, updates)
			if terr != nil {
				return terr
			}
			if !flipped {
				return s.transitionError(ctx, repo, loanID, "disburse")
			}

			drawdown, aerr := s.ledger.GetMemberAccount(ctx, loan.MemberID, enums.AccountTypeDrawdown)
			if aerr != nil {
				return aerr
			}
			if _, perr := s.ledger.PostInTx(ctx, tx, ledger.PostInput{
				AccountID: drawdown.ID,
				Type:      enums.TransactionTypeLoanDisbursement,
				Amount:    loan.PrincipleAmount,
				LoanID:    &loan.ID,
				Reference: "loan disbursement",
			}); perr != nil {
				return perr
			}

			// Stock already left the pool at application time.
			if len(loan.Items) > 0 {
				requests := make([]inventory.ReservationRequest, 0, len(loan.Items))
				for _, item := range loan.Items {
					requests = append(requests, inventory.ReservationRequest{
						ProductID: item.ProductID,
						Quantity:  item.Quantity,
					})
				}
				if cerr := s.inventory.Commit(ctx, requests); cerr != nil {
					return cerr
				}
			}

			// disbursed and active are adjacent with no business action in
			// between; keep disbursed in the audit trail and land on active.
			activated, aerr2 := repo.TransitionStatus(ctx, loanID, enums.LoanStatusDisbursed, enums.LoanStatusActive, nil)
			if aerr2 != nil {
				return aerr2
			}
			if !activated {
				return apperrors.New(apperrors.CodeConcurrency, "loan changed concurrently during disbursement")
			}

			final, ferr := repo.GetByID(ctx, loanID)
			if ferr != nil {
				return ferr
			}
			disbursed = final
			return s.emit(ctx, tx, enums.EventLoanDisbursed, disburserID, final, &loan.PrincipleAmount)
		})
	})
	if err != nil {
		return nil, err
	}
	return ToDTO(disbursed), nil
}

func (s *service) Repay(ctx context.Context, input RepayInput) (*RepayResult, error) {
	if input.LoanID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan id is required")
	}
	if input.AccountID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "account id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "repayment amount must be positive")
	}

	var result *RepayResult
	err := s.retryOnConflict(ctx, func() error {
		return s.client.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			loan, lerr := repo.GetByID(ctx, input.LoanID)
			if lerr != nil {
				if errors.Is(lerr, gorm.ErrRecordNotFound) {
					return apperrors.New(apperrors.CodeNotFound, "loan not found")
				}
				return lerr
			}
			if loan.Status != enums.LoanStatusActive {
				return apperrors.New(apperrors.CodeInvalidTransition,
					fmt.Sprintf("cannot repay loan in status %s", loan.Status)).
					WithDetails(map[string]string{"status": loan.Status.String()})
			}

			// Overshooting payments are clamped to what is owed.
			payment := input.Amount
			if payment.GreaterThan(loan.OutstandingBalance) {
				payment = loan.OutstandingBalance
			}

			txn, perr := s.ledger.PostInTx(ctx, tx, ledger.PostInput{
				AccountID: input.AccountID,
				Type:      enums.TransactionTypeLoanRepayment,
				Amount:    payment.Neg(),
				LoanID:    &loan.ID,
				Reference: "loan repayment",
			})
			if perr != nil {
				return perr
			}

			after := *loan
			after.OutstandingBalance = loan.OutstandingBalance.Sub(payment)
			if after.OutstandingBalance.IsZero() {
				after.Status = enums.LoanStatusCompleted
			}

			reduced, rerr := repo.ReduceOutstanding(ctx, loan.ID, *loan, after)
			if rerr != nil {
				return rerr
			}
			if !reduced {
				return apperrors.New(apperrors.CodeConcurrency, "loan repayment conflicted, retry")
			}

			if eerr := s.emit(ctx, tx, enums.EventLoanRepaid, loan.MemberID, &after, &payment); eerr != nil {
				return eerr
			}
			if after.Status == enums.LoanStatusCompleted {
				if eerr := s.emit(ctx, tx, enums.EventLoanCompleted, loan.MemberID, &after, nil); eerr != nil {
					return eerr
				}
			}

			result = &RepayResult{
				Loan:        ToDTO(&after),
				Transaction: txn,
				AmountPaid:  payment,
				Completed:   after.Status == enums.LoanStatusCompleted,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) MarkDefaulted(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*LoanDTO, error) {
	if loanID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan id is required")
	}

	var defaulted *models.Loan
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		flipped, terr := repo.TransitionStatus(ctx, loanID, enums.LoanStatusActive, enums.LoanStatusDefaulted, nil)
		if terr != nil {
			return terr
		}
		if !flipped {
			return s.transitionError(ctx, repo, loanID, "default")
		}

		loan, lerr := repo.GetByID(ctx, loanID)
		if lerr != nil {
			return lerr
		}
		defaulted = loan
		return s.emit(ctx, tx, enums.EventLoanDefaulted, actorID, loan, nil)
	})
	if err != nil {
		return nil, err
	}
	return ToDTO(defaulted), nil
}

func (s *service) Get(ctx context.Context, loanID uuid.UUID) (*LoanDTO, error) {
	if loanID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "loan id is required")
	}
	loan, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "loan not found")
		}
		return nil, err
	}

	dto := ToDTO(loan)
	loanType, err := s.repo.GetLoanType(ctx, loan.LoanTypeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if loanType != nil {
		dto.Schedule = s.engine.Schedule(loan.PrincipleAmount, loanType)
	}
	return dto, nil
}

func (s *service) List(ctx context.Context, filter LoanFilter) ([]LoanDTO, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid loan status %q", *filter.Status))
	}
	loans, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToDTOs(loans), nil
}

// transitionError inspects the loan to tell a missing record apart from an
// illegal transition.
func (s *service) transitionError(ctx context.Context, repo Repository, loanID uuid.UUID, action string) error {
	loan, err := repo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "loan not found")
		}
		return err
	}
	return apperrors.New(apperrors.CodeInvalidTransition,
		fmt.Sprintf("cannot %s loan in status %s", action, loan.Status)).
		WithDetails(map[string]string{"status": loan.Status.String()})
}

func (s *service) retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.policy.LedgerRetryAttempts; attempt++ {
		err = fn()
		if !apperrors.IsCode(err, apperrors.CodeConcurrency) {
			return err
		}
		if s.logg != nil {
			s.logg.Warn(ctx, "loan transition conflicted, retrying")
		}
	}
	return err
}
