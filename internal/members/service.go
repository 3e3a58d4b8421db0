package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/ledger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	apperrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/outbox"
)

// Service registers members and exposes member/organisation reads. Every
// member owns exactly one savings and one drawdown account, created together
// with the member row.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*MemberDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error)
	List(ctx context.Context, filter MemberFilter) ([]MemberDTO, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.MemberStatus) (*MemberDTO, error)
	ListBranches(ctx context.Context) ([]BranchDTO, error)
	ListGroups(ctx context.Context, branchID *uuid.UUID) ([]GroupDTO, error)
}

type service struct {
	client *db.Client
	repo   Repository
	ledger ledger.Service
	events *outbox.Service
	logg   *logger.Logger
}

// NewService wires the member service.
func NewService(client *db.Client, repo Repository, ledgerSvc ledger.Service, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &service{
		client: client,
		repo:   repo,
		ledger: ledgerSvc,
		events: events,
		logg:   logg,
	}, nil
}

type memberEventPayload struct {
	MemberID    uuid.UUID  `json:"member_id"`
	PhoneNumber string     `json:"phone_number"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*MemberDTO, error) {
	if err := validateRegister(input); err != nil {
		return nil, err
	}
	if input.BranchID != nil {
		if _, err := s.repo.GetBranch(ctx, *input.BranchID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.New(apperrors.CodeNotFound, "branch not found")
			}
			return nil, err
		}
	}
	if input.GroupID != nil {
		if _, err := s.repo.GetGroup(ctx, *input.GroupID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.New(apperrors.CodeNotFound, "group not found")
			}
			return nil, err
		}
	}

	member := &models.Member{
		ID:          uuid.New(),
		BranchID:    input.BranchID,
		GroupID:     input.GroupID,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		NationalID:  input.NationalID,
		Status:      enums.MemberStatusActive,
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if cerr := repo.Create(member); cerr != nil {
			if db.IsUniqueViolation(cerr, "phone_number") {
				return apperrors.New(apperrors.CodeConflict, "phone number already registered")
			}
			return cerr
		}

		savings := &models.Account{ID: uuid.New(), MemberID: member.ID, Type: enums.AccountTypeSavings}
		drawdown := &models.Account{ID: uuid.New(), MemberID: member.ID, Type: enums.AccountTypeDrawdown}
		if aerr := repo.CreateAccount(savings); aerr != nil {
			return aerr
		}
		if aerr := repo.CreateAccount(drawdown); aerr != nil {
			return aerr
		}
		member.Accounts = []models.Account{*savings, *drawdown}

		if input.InitialDeposit != nil && input.InitialDeposit.IsPositive() {
			if _, perr := s.ledger.PostInTx(ctx, tx, ledger.PostInput{
				AccountID: savings.ID,
				Type:      enums.TransactionTypeDeposit,
				Amount:    *input.InitialDeposit,
				Reference: "initial deposit",
			}); perr != nil {
				return perr
			}
			member.Accounts[0].Balance = *input.InitialDeposit
		}
		if input.RegistrationFee != nil && input.RegistrationFee.IsPositive() {
			if _, perr := s.ledger.PostInTx(ctx, tx, ledger.PostInput{
				AccountID: savings.ID,
				Type:      enums.TransactionTypeRegistrationFee,
				Amount:    input.RegistrationFee.Neg(),
				Reference: "registration fee",
			}); perr != nil {
				return perr
			}
			member.Accounts[0].Balance = member.Accounts[0].Balance.Sub(*input.RegistrationFee)
		}

		if s.events != nil {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventMemberRegistered,
				AggregateType: enums.AggregateMember,
				AggregateID:   member.ID,
				Data: memberEventPayload{
					MemberID:    member.ID,
					PhoneNumber: member.PhoneNumber,
					BranchID:    member.BranchID,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithMemberID(ctx, member.ID.String()), "member registered")
	}
	return ToDTO(member), nil
}

func validateRegister(input RegisterInput) error {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return apperrors.New(apperrors.CodeValidation, "first and last name are required")
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return apperrors.New(apperrors.CodeValidation, "phone number is required")
	}
	if input.InitialDeposit != nil && input.InitialDeposit.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "initial deposit must not be negative")
	}
	if input.RegistrationFee != nil && input.RegistrationFee.IsNegative() {
		return apperrors.New(apperrors.CodeValidation, "registration fee must not be negative")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "member id is required")
	}
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "member not found")
		}
		return nil, err
	}
	return ToDTO(member), nil
}

func (s *service) List(ctx context.Context, filter MemberFilter) ([]MemberDTO, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid member status %q", *filter.Status))
	}
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToDTOs(list), nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.MemberStatus) (*MemberDTO, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "member id is required")
	}
	if !status.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid member status %q", status))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperrors.New(apperrors.CodeNotFound, "member not found")
	}
	return s.Get(ctx, id)
}

func (s *service) ListBranches(ctx context.Context) ([]BranchDTO, error) {
	branches, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	return ToBranchDTOs(branches), nil
}

func (s *service) ListGroups(ctx context.Context, branchID *uuid.UUID) ([]GroupDTO, error) {
	groups, err := s.repo.ListGroups(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return ToGroupDTOs(groups), nil
}
