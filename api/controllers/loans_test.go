package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/middleware"
	loansvc "github.com/MaiyoDenis/imarisha-loans-sub003/internal/loans"
	pkgerrors "github.com/MaiyoDenis/imarisha-loans-sub003/pkg/errors"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
)

type stubLoanService struct {
	approved  []uuid.UUID
	actor     uuid.UUID
	approveFn func(loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error)
}

func (s *stubLoanService) Apply(ctx context.Context, input loansvc.ApplyInput) (*loansvc.LoanDTO, error) {
	panic("unimplemented")
}

func (s *stubLoanService) Cancel(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
	panic("unimplemented")
}

func (s *stubLoanService) Approve(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
	s.approved = append(s.approved, loanID)
	s.actor = actorID
	if s.approveFn != nil {
		return s.approveFn(loanID, actorID)
	}
	return &loansvc.LoanDTO{ID: loanID}, nil
}

func (s *stubLoanService) Disburse(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
	panic("unimplemented")
}

func (s *stubLoanService) Repay(ctx context.Context, input loansvc.RepayInput) (*loansvc.RepayResult, error) {
	panic("unimplemented")
}

func (s *stubLoanService) MarkDefaulted(ctx context.Context, loanID uuid.UUID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
	panic("unimplemented")
}

func (s *stubLoanService) Get(ctx context.Context, loanID uuid.UUID) (*loansvc.LoanDTO, error) {
	panic("unimplemented")
}

func (s *stubLoanService) List(ctx context.Context, filter loansvc.LoanFilter) ([]loansvc.LoanDTO, error) {
	panic("unimplemented")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func approveRequest(loanID string, ctx context.Context) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/"+loanID+"/approve", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("loanId", loanID)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestApproveLoan(t *testing.T) {
	logg := testLogger()
	loanID := uuid.New()
	actorID := uuid.New()

	t.Run("missing actor", func(t *testing.T) {
		stub := &stubLoanService{}
		rec := httptest.NewRecorder()
		ApproveLoan(stub, logg).ServeHTTP(rec, approveRequest(loanID.String(), context.Background()))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without actor context, got %d", rec.Code)
		}
		if len(stub.approved) != 0 {
			t.Fatalf("service called despite missing actor")
		}
	})

	t.Run("invalid loan id", func(t *testing.T) {
		ctx := middleware.WithMemberID(context.Background(), actorID.String())
		rec := httptest.NewRecorder()
		ApproveLoan(&stubLoanService{}, logg).ServeHTTP(rec, approveRequest("not-a-uuid", ctx))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("success records actor", func(t *testing.T) {
		ctx := middleware.WithMemberID(context.Background(), actorID.String())
		stub := &stubLoanService{}
		rec := httptest.NewRecorder()
		ApproveLoan(stub, logg).ServeHTTP(rec, approveRequest(loanID.String(), ctx))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(stub.approved) != 1 || stub.approved[0] != loanID {
			t.Fatalf("approve called with %v, want %s", stub.approved, loanID)
		}
		if stub.actor != actorID {
			t.Fatalf("actor = %s, want %s", stub.actor, actorID)
		}
	})

	t.Run("transition error maps to 422", func(t *testing.T) {
		ctx := middleware.WithMemberID(context.Background(), actorID.String())
		stub := &stubLoanService{
			approveFn: func(loanID, actorID uuid.UUID) (*loansvc.LoanDTO, error) {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "loan is approved, expected pending")
			},
		}
		rec := httptest.NewRecorder()
		ApproveLoan(stub, logg).ServeHTTP(rec, approveRequest(loanID.String(), ctx))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "INVALID_TRANSITION") {
			t.Fatalf("body missing code: %s", rec.Body.String())
		}
	})
}

func TestApplyLoanRejectsUnknownFields(t *testing.T) {
	logg := testLogger()
	body := strings.NewReader(`{"member_id":"` + uuid.NewString() + `","loan_type_id":"` + uuid.NewString() + `","surprise":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", body)
	rec := httptest.NewRecorder()

	ApplyLoan(&stubLoanService{}, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}
