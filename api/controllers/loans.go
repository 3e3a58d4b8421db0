package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/middleware"
	"github.com/MaiyoDenis/imarisha-loans-sub003/api/responses"
	"github.com/MaiyoDenis/imarisha-loans-sub003/api/validators"
	loansvc "github.com/MaiyoDenis/imarisha-loans-sub003/internal/loans"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	pkgerrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/pagination"
)

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.MemberIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid member context")
	}
	return id, nil
}

// ApplyLoan opens a loan application for a cash amount or a product basket.
func ApplyLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		var payload loansvc.ApplyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.Apply(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, loan)
	}
}

type loanTransition func(svc loansvc.Service, r *http.Request, loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error)

func loanTransitionHandler(svc loansvc.Service, logg *logger.Logger, transition loanTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loanID, err := validators.PathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := transition(svc, r, loanID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loan)
	}
}

// CancelLoan withdraws a pending application and restores reserved stock.
func CancelLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return loanTransitionHandler(svc, logg, func(svc loansvc.Service, r *http.Request, loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
		return svc.Cancel(r.Context(), loanID, actorID)
	})
}

// ApproveLoan moves a pending application to approved.
func ApproveLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return loanTransitionHandler(svc, logg, func(svc loansvc.Service, r *http.Request, loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
		return svc.Approve(r.Context(), loanID, actorID)
	})
}

// DisburseLoan pays an approved loan out to the member's drawdown account.
func DisburseLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return loanTransitionHandler(svc, logg, func(svc loansvc.Service, r *http.Request, loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
		return svc.Disburse(r.Context(), loanID, actorID)
	})
}

// DefaultLoan flags an active loan as defaulted.
func DefaultLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return loanTransitionHandler(svc, logg, func(svc loansvc.Service, r *http.Request, loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
		return svc.MarkDefaulted(r.Context(), loanID, actorID)
	})
}

type repayRequest struct {
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
}

// RepayLoan applies a payment against an active loan. Overpayments are
// clamped to the outstanding balance.
func RepayLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loanID, err := validators.PathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload repayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Repay(r.Context(), loansvc.RepayInput{
			LoanID:    loanID,
			AccountID: payload.AccountID,
			Amount:    payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// GetLoan fetches one loan with its product items.
func GetLoan(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loanID, err := validators.PathUUID(chi.URLParam(r, "loanId"), "loanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.Get(r.Context(), loanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loan)
	}
}

// ListLoans returns loans filtered by member and lifecycle status.
func ListLoans(svc loansvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := validators.ParseQueryUUID(r, "member_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := loansvc.LoanFilter{MemberID: memberID, Limit: limit}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := enums.LoanStatus(raw)
			filter.Status = &status
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
