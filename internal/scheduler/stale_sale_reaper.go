package scheduler

import (
	"context"
	"time"

	"treeleads/platform/logger"
)

const (
	defaultStaleSaleSweepInterval = time.Hour
	defaultPendingSaleTTL         = 14 * 24 * time.Hour
)

// StaleSaleReturner returns pending sales that nobody bought in time.
type StaleSaleReturner interface {
	ReturnStaleSales(ctx context.Context, olderThan time.Duration) (int, error)
}

// StaleSaleReaper periodically puts unsold pending sales back into the available pool.
type StaleSaleReaper struct {
	leads    StaleSaleReturner
	log      *logger.Logger
	interval time.Duration
	ttl      time.Duration
}

func NewStaleSaleReaper(leads StaleSaleReturner, log *logger.Logger, interval, ttl time.Duration) *StaleSaleReaper {
	if interval <= 0 {
		interval = defaultStaleSaleSweepInterval
	}
	if ttl <= 0 {
		ttl = defaultPendingSaleTTL
	}

	return &StaleSaleReaper{
		leads:    leads,
		log:      log,
		interval: interval,
		ttl:      ttl,
	}
}

func (r *StaleSaleReaper) Run(ctx context.Context) {
	if r == nil || r.leads == nil {
		return
	}

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *StaleSaleReaper) sweep(ctx context.Context) {
	returned, err := r.leads.ReturnStaleSales(ctx, r.ttl)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Warn("stale sale sweep failed", "returned", returned, "error", err)
		}
		return
	}

	if returned > 0 {
		r.log.Info("stale sale sweep returned leads", "returned", returned, "ttl", r.ttl)
	}
}
