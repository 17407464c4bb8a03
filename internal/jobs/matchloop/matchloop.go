package matchloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/services/matching"
)

const (
	DefaultInterval = 30 * time.Second
	leaseKey        = "lease:matchloop"
)

type Pairer interface {
	Pass(ctx context.Context) (matching.PassResult, error)
}

type Expirer interface {
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
}

type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error)
}

// Job is one scheduler tick: a pairing pass followed by an expiry sweep.
type Job struct {
	pairer   Pairer
	expirer  Expirer
	lease    Lease
	interval time.Duration
	entryTTL time.Duration
	logger   *zap.Logger
}

func New(pairer Pairer, expirer Expirer, interval, entryTTL time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if entryTTL <= 0 {
		entryTTL = matching.DefaultEntryTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		pairer:   pairer,
		expirer:  expirer,
		interval: interval,
		entryTTL: entryTTL,
		logger:   logger,
	}
}

// AttachLease makes ticks exclusive across replicas. When the lease backend fails the tick still
// runs; row locks keep concurrent ticks correct.
func (j *Job) AttachLease(lease Lease) {
	j.lease = lease
}

func (j *Job) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("matching tick panic: %v", r)
		}
	}()

	if j.lease != nil {
		release, ok, leaseErr := j.lease.Acquire(ctx, leaseKey, j.interval)
		switch {
		case leaseErr != nil:
			j.logger.Warn("matching tick lease unavailable, running without it", zap.Error(leaseErr))
		case !ok:
			j.logger.Debug("matching tick skipped, lease held elsewhere")
			return nil
		default:
			defer func() {
				if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
					j.logger.Warn("release matching tick lease", zap.Error(relErr))
				}
			}()
		}
	}

	var errs []error
	if j.pairer != nil {
		res, passErr := j.pairer.Pass(ctx)
		if passErr != nil {
			errs = append(errs, fmt.Errorf("pairing pass: %w", passErr))
		} else if res.Pairs > 0 {
			j.logger.Info("pairing pass completed", zap.Int("scanned", res.Scanned), zap.Int("pairs", res.Pairs))
		}
	}
	if j.expirer != nil {
		if _, sweepErr := j.expirer.Sweep(ctx, j.entryTTL); sweepErr != nil {
			errs = append(errs, fmt.Errorf("expiry sweep: %w", sweepErr))
		}
	}

	return errors.Join(errs...)
}

// Loop runs a tick immediately and then on every interval until ctx is canceled. Tick failures
// are logged and never stop the loop.
func (j *Job) Loop(ctx context.Context) {
	j.tick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("matching loop stopped")
			return
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

func (j *Job) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := j.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.logger.Error("matching tick failed", zap.Error(err))
	}
}
