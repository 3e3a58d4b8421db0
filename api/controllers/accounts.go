package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/responses"
	"github.com/MaiyoDenis/imarisha-loans-sub003/api/validators"
	ledgersvc "github.com/MaiyoDenis/imarisha-loans-sub003/internal/ledger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db/models"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	pkgerrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/pagination"
)

// GetAccount fetches one account with its cached balance.
func GetAccount(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.GetAccount(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, account)
	}
}

type postingRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reference string          `json:"reference,omitempty"`
}

// AccountDeposit credits an account.
func AccountDeposit(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload postingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "deposit amount must be positive"))
			return
		}

		txn, err := svc.Post(r.Context(), ledgersvc.PostInput{
			AccountID: id,
			Type:      enums.TransactionTypeDeposit,
			Amount:    payload.Amount,
			Reference: payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// AccountWithdrawal debits an account, guarded against overdraft.
func AccountWithdrawal(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload postingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive"))
			return
		}

		txn, err := svc.Post(r.Context(), ledgersvc.PostInput{
			AccountID: id,
			Type:      enums.TransactionTypeWithdrawal,
			Amount:    payload.Amount.Neg(),
			Reference: payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// Transfer moves funds between two accounts as a single atomic pair of legs.
func Transfer(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ledgersvc.TransferInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Transfer(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type transactionPage struct {
	Items      []models.Transaction `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// ListTransactions returns ledger entries newest first, filtered by account,
// member, loan, account type, or transaction type. Pages follow the
// next_cursor returned with each response.
func ListTransactions(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := validators.ParseQueryUUID(r, "account_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		memberID, err := validators.ParseQueryUUID(r, "member_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loanID, err := validators.ParseQueryUUID(r, "loan_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := ledgersvc.TransactionFilter{
			AccountID: accountID,
			MemberID:  memberID,
			LoanID:    loanID,
			Limit:     pagination.LimitWithBuffer(limit),
		}
		if raw := r.URL.Query().Get("type"); raw != "" {
			txnType, parseErr := enums.ParseTransactionType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid transaction type"))
				return
			}
			filter.Type = &txnType
		}
		if raw := r.URL.Query().Get("account_type"); raw != "" {
			accountType, parseErr := enums.ParseAccountType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid account type"))
				return
			}
			filter.AccountType = &accountType
		}
		if raw := r.URL.Query().Get("cursor"); raw != "" {
			cursor, parseErr := pagination.ParseCursor(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid cursor"))
				return
			}
			filter.Cursor = cursor
		}

		list, err := svc.ListTransactions(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := transactionPage{Items: list}
		if len(list) > limit {
			page.Items = list[:limit]
			last := page.Items[limit-1]
			page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		}

		responses.WriteSuccess(w, page)
	}
}

// ReconcileAccount compares the cached balance against the transaction sum.
func ReconcileAccount(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "accountId"), "accountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reconcile(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
