package matching

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	notifysvc "github.com/ivankudzin/skillswap/internal/services/notify"
)

const DefaultEntryTTL = 24 * time.Hour

// Sweeper cancels entries that stayed pending or matched for longer than the TTL.
type Sweeper struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweeper(store Store, notifier Notifier, logger *zap.Logger) *Sweeper {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Sweeper) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("%w: entry ttl must be positive", ErrValidation)
	}
	if s.store == nil {
		return 0, fmt.Errorf("queue store is nil")
	}

	cutoff := s.now().UTC().Add(-ttl)
	stale, err := s.store.ScanStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("scan stale entries: %w", err)
	}

	expired := 0
	for _, candidate := range stale {
		entry, ok, err := s.expireOne(ctx, candidate.ID, cutoff)
		if err != nil {
			return expired, fmt.Errorf("expire entry %d: %w", candidate.ID, err)
		}
		if !ok {
			continue
		}
		expired++

		at := s.now()
		for _, userID := range entry.Participants() {
			s.notifier.Notify(ctx, notifysvc.MatchExpired(entry, userID, at))
		}
	}

	if expired > 0 {
		s.logger.Info("expired stale queue entries", zap.Int("expired", expired), zap.Duration("ttl", ttl))
	}

	return expired, nil
}

// expireOne re-checks the row under lock; an entry that resolved after the scan is left alone.
func (s *Sweeper) expireOne(ctx context.Context, entryID int64, cutoff time.Time) (model.QueueEntry, bool, error) {
	var (
		expired model.QueueEntry
		done    bool
	)

	err := s.store.WithTx(ctx, func(txCtx context.Context, tx Tx) error {
		expired = model.QueueEntry{}
		done = false

		entry, err := tx.LockEntry(txCtx, entryID)
		if err != nil {
			return err
		}

		switch entry.Status {
		case enums.QueueStatusPending, enums.QueueStatusMatched:
		case enums.QueueStatusConfirmed, enums.QueueStatusCanceled:
			return nil
		default:
			return fmt.Errorf("unexpected queue status %q", entry.Status)
		}
		if !entry.RequestedAt.Before(cutoff) {
			return nil
		}

		now := s.now().UTC()
		entry.Status = enums.QueueStatusCanceled
		entry.TerminatedAt = &now
		if err := tx.UpdateEntry(txCtx, entry); err != nil {
			return err
		}
		if err := tx.SetAvailability(txCtx, true, entry.Participants()...); err != nil {
			return err
		}

		expired = entry
		done = true
		return nil
	})
	if err != nil {
		return model.QueueEntry{}, false, err
	}

	return expired, done, nil
}
