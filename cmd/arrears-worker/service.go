package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/arrears"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/metrics"
)

const (
	jobName          = "arrears_scan"
	lockName         = "arrears-scan"
	defaultInterval  = 10 * time.Minute
	lockTTLHeadstart = 30 * time.Second
)

type locker interface {
	AcquireLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Scanner  arrears.Service
	Lock     locker
	Metrics  *metrics.WorkerMetrics
	Interval time.Duration
}

// Service runs the periodic arrears scan. A redis leader lock keeps a single
// instance scanning when several replicas run.
type Service struct {
	logg     *logger.Logger
	scanner  arrears.Service
	lock     locker
	metrics  *metrics.WorkerMetrics
	interval time.Duration
	holder   string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Scanner == nil {
		return nil, errors.New("arrears scanner is required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	holder, _ := os.Hostname()
	if holder == "" {
		holder = "arrears-worker"
	}
	return &Service{
		logg:     params.Logger,
		scanner:  params.Scanner,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		holder:   holder,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Scan once on startup so a fresh deploy reports arrears immediately.
	s.scanOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *Service) scanOnce(ctx context.Context) {
	if s.lock != nil {
		ttl := s.interval
		if ttl > lockTTLHeadstart {
			ttl -= lockTTLHeadstart
		}
		acquired, err := s.lock.AcquireLock(ctx, lockName, s.holder, ttl)
		if err != nil {
			s.logg.Error(ctx, "failed to acquire arrears scan lock", err)
			s.metrics.IncFailure(jobName)
			return
		}
		if !acquired {
			s.logg.Info(ctx, "arrears scan held by another instance")
			return
		}
		defer func() {
			if err := s.lock.ReleaseLock(ctx, lockName); err != nil {
				s.logg.Error(ctx, "failed to release arrears scan lock", err)
			}
		}()
	}

	started := time.Now()
	report, err := s.scanner.Scan(ctx, started)
	s.metrics.ObserveDuration(jobName, time.Since(started))
	if err != nil {
		s.logg.Error(ctx, "arrears scan failed", err)
		s.metrics.IncFailure(jobName)
		return
	}

	s.metrics.IncSuccess(jobName)
	s.metrics.SetLoansInArrears(int(report.LoansInArrears))

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"loans_in_arrears":  report.LoansInArrears,
		"total_outstanding": report.TotalOutstanding.String(),
		"cutoff":            report.Cutoff.Format(time.RFC3339),
	})
	s.logg.Info(logCtx, "arrears scan complete")
}
