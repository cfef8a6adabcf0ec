package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pray-app/pray_api/internal/billing"
	"github.com/pray-app/pray_api/internal/logging"
	"github.com/pray-app/pray_api/internal/pray"
)

const (
	// LeaseKey guards a sweep so only one instance runs it at a time.
	LeaseKey        = "reconcile:lease"
	defaultInterval = 60 * time.Second
)

// Source lists the payments that still await confirmation.
type Source interface {
	ListUnpaid(ctx context.Context) ([]pray.Payment, error)
}

// Confirmer asks the provider about one payment and records the outcome.
type Confirmer interface {
	Confirm(ctx context.Context, payment pray.Payment) (pray.Confirmation, error)
}

// Result summarises one sweep.
type Result struct {
	Checked int
	Paid    int
	Skipped int
}

// Sweeper periodically confirms unpaid payments against the provider.
type Sweeper struct {
	source    Source
	confirmer Confirmer
	interval  time.Duration
	cache     *redis.Client
	logger    *slog.Logger
}

// Option customises a Sweeper.
type Option func(*Sweeper)

// WithLease makes each sweep take a redis lease first. Sweeps are skipped
// while another holder keeps the lease.
func WithLease(client *redis.Client) Option {
	return func(s *Sweeper) { s.cache = client }
}

// New builds a sweeper. A non-positive interval falls back to one minute.
func New(source Source, confirmer Confirmer, interval time.Duration, logger *slog.Logger, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	s := &Sweeper{
		source:    source,
		confirmer: confirmer,
		interval:  interval,
		logger:    logging.Component(logger, "reconcile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// releaseScript deletes the lease only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reconciliation started", slog.Duration("interval", s.interval))
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconciliation stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("sweep failed", slog.Any("error", err))
	}
}

// RunOnce performs a single sweep over every unpaid payment. Provider
// failures and orphaned payments are skipped; store failures abort the sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	acquired, release := s.lease(ctx)
	if !acquired {
		s.logger.Debug("sweep skipped, lease held elsewhere")
		return res, nil
	}
	defer release()

	payments, err := s.source.ListUnpaid(ctx)
	if err != nil {
		return res, fmt.Errorf("list unpaid: %w", err)
	}

	for _, payment := range payments {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		confirmation, err := s.confirmer.Confirm(ctx, payment)
		switch {
		case errors.Is(err, billing.ErrProvider):
			res.Skipped++
			s.logger.Warn("provider status unavailable", slog.String("bill_id", payment.BillID), slog.Any("error", err))
			continue
		case errors.Is(err, pray.ErrNotFound):
			res.Skipped++
			s.logger.Warn("payment without pray", slog.Int64("payment_id", payment.ID), slog.Int64("pray_id", payment.PrayID))
			continue
		case err != nil:
			return res, fmt.Errorf("confirm payment %d: %w", payment.ID, err)
		}
		if confirmation.Changed {
			res.Paid++
		}
	}

	if res.Checked > 0 {
		s.logger.Info("sweep finished",
			slog.Int("checked", res.Checked),
			slog.Int("paid", res.Paid),
			slog.Int("skipped", res.Skipped),
		)
	}
	return res, nil
}

// lease takes the sweep lease under a fresh token. When Redis cannot be
// reached the sweep proceeds without it.
func (s *Sweeper) lease(ctx context.Context) (bool, func()) {
	noop := func() {}
	if s.cache == nil {
		return true, noop
	}
	token := uuid.NewString()
	ok, err := s.cache.SetNX(ctx, LeaseKey, token, s.interval).Result()
	if err != nil {
		s.logger.Warn("lease unavailable, sweeping without it", slog.Any("error", err))
		return true, noop
	}
	if !ok {
		return false, noop
	}
	return true, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, s.cache, []string{LeaseKey}, token).Err(); err != nil {
			s.logger.Warn("release lease", slog.Any("error", err))
		}
	}
}
