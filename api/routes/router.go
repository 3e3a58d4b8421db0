package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/controllers"
	"github.com/MaiyoDenis/imarisha-loans-sub003/api/middleware"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/dashboard"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/ledger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/loans"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/members"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/products"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	memberService members.Service,
	ledgerService ledger.Service,
	loanService loans.Service,
	productService products.Service,
	dashboardService dashboard.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	officerRoles := []string{string(enums.MemberRoleAdmin), string(enums.MemberRoleOfficer)}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		var store redis.IdempotencyStore
		if redisClient != nil {
			store = redisClient
		}
		r.Use(middleware.Idempotency(store, logg))

		r.Route("/members", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, officerRoles...)).Post("/", controllers.RegisterMember(memberService, logg))
			r.Get("/", controllers.ListMembers(memberService, logg))
			r.Get("/{memberId}", controllers.GetMember(memberService, logg))
			r.With(middleware.RequireRole(logg, officerRoles...)).Post("/{memberId}/status", controllers.SetMemberStatus(memberService, logg))
		})

		r.Get("/branches", controllers.ListBranches(memberService, logg))
		r.Get("/groups", controllers.ListGroups(memberService, logg))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{accountId}", controllers.GetAccount(ledgerService, logg))
			r.Get("/{accountId}/reconciliation", controllers.ReconcileAccount(ledgerService, logg))
			r.Post("/{accountId}/deposits", controllers.AccountDeposit(ledgerService, logg))
			r.Post("/{accountId}/withdrawals", controllers.AccountWithdrawal(ledgerService, logg))
		})
		r.Post("/transfers", controllers.Transfer(ledgerService, logg))
		r.Get("/transactions", controllers.ListTransactions(ledgerService, logg))

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", controllers.ApplyLoan(loanService, logg))
			r.Get("/", controllers.ListLoans(loanService, logg))
			r.Get("/{loanId}", controllers.GetLoan(loanService, logg))
			r.Post("/{loanId}/cancel", controllers.CancelLoan(loanService, logg))
			r.Post("/{loanId}/repay", controllers.RepayLoan(loanService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, officerRoles...))
				r.Post("/{loanId}/approve", controllers.ApproveLoan(loanService, logg))
				r.Post("/{loanId}/disburse", controllers.DisburseLoan(loanService, logg))
				r.Post("/{loanId}/default", controllers.DefaultLoan(loanService, logg))
			})
		})

		r.Route("/loan-products", func(r chi.Router) {
			r.Get("/", controllers.ListLoanProducts(productService, logg))
			r.Get("/{productId}", controllers.GetLoanProduct(productService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, string(enums.MemberRoleAdmin)))
				r.Post("/", controllers.CreateLoanProduct(productService, logg))
				r.Patch("/{productId}", controllers.UpdateLoanProduct(productService, logg))
			})
		})

		r.Route("/loan-types", func(r chi.Router) {
			r.Get("/", controllers.ListLoanTypes(productService, logg))
			r.With(middleware.RequireRole(logg, string(enums.MemberRoleAdmin))).Post("/", controllers.CreateLoanType(productService, logg))
		})

		r.With(middleware.RequireRole(logg, officerRoles...)).Get("/dashboard/stats", controllers.DashboardStats(dashboardService, logg))
	})

	return r
}
