package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/arrears"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/enums"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
)

const (
	statsCacheKey = "dashboard:stats"
	statsCacheTTL = 60 * time.Second
)

// Stats is the dashboard aggregate snapshot.
type Stats struct {
	GeneratedAt      time.Time                  `json:"generated_at"`
	TotalMembers     int64                      `json:"total_members"`
	ActiveMembers    int64                      `json:"active_members"`
	TotalSavings     decimal.Decimal            `json:"total_savings"`
	TotalDrawdown    decimal.Decimal            `json:"total_drawdown"`
	LoansByStatus    map[enums.LoanStatus]int64 `json:"loans_by_status"`
	TotalOutstanding decimal.Decimal            `json:"total_outstanding"`
	TotalDisbursed   decimal.Decimal            `json:"total_disbursed"`
	LoansInArrears   int64                      `json:"loans_in_arrears"`
	ArrearsTotal     decimal.Decimal            `json:"arrears_total"`
	FromCache        bool                       `json:"-"`
}

// Cache is the slice of the redis client the dashboard needs. A nil cache
// disables caching entirely.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(name string) string
}

// Service assembles the dashboard stats with a short-lived cache in front.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo    Repository
	arrears arrears.Service
	cache   Cache
	logg    *logger.Logger
}

// NewService wires the dashboard service.
func NewService(repo Repository, arrearsSvc arrears.Service, cache Cache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if arrearsSvc == nil {
		return nil, fmt.Errorf("arrears service required")
	}
	return &service{repo: repo, arrears: arrearsSvc, cache: cache, logg: logg}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, stats)
	return stats, nil
}

func (s *service) compute(ctx context.Context) (*Stats, error) {
	totalMembers, err := s.repo.CountMembers(ctx, nil)
	if err != nil {
		return nil, err
	}
	active := enums.MemberStatusActive
	activeMembers, err := s.repo.CountMembers(ctx, &active)
	if err != nil {
		return nil, err
	}

	savings, err := s.repo.SumBalances(ctx, enums.AccountTypeSavings)
	if err != nil {
		return nil, err
	}
	drawdown, err := s.repo.SumBalances(ctx, enums.AccountTypeDrawdown)
	if err != nil {
		return nil, err
	}

	loanCounts, err := s.repo.CountLoansByStatus(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.repo.SumOutstanding(ctx)
	if err != nil {
		return nil, err
	}
	disbursed, err := s.repo.SumDisbursed(ctx)
	if err != nil {
		return nil, err
	}

	arrearsReport, err := s.arrears.Summary(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	return &Stats{
		GeneratedAt:      time.Now().UTC(),
		TotalMembers:     totalMembers,
		ActiveMembers:    activeMembers,
		TotalSavings:     savings,
		TotalDrawdown:    drawdown,
		LoansByStatus:    loanCounts,
		TotalOutstanding: outstanding,
		TotalDisbursed:   disbursed,
		LoansInArrears:   arrearsReport.LoansInArrears,
		ArrearsTotal:     arrearsReport.TotalOutstanding,
	}, nil
}

// fromCache returns the cached snapshot or nil. Cache failures degrade to a
// recompute, never to a request failure.
func (s *service) fromCache(ctx context.Context) *Stats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(statsCacheKey))
	if err != nil || raw == "" {
		return nil
	}
	var stats Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil
	}
	stats.FromCache = true
	return &stats
}

func (s *service) toCache(ctx context.Context, stats *Stats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey(statsCacheKey), string(raw), statsCacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "dashboard stats cache write failed")
	}
}
