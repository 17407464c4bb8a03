package matching

import (
	"context"
	"errors"
	"time"

	"github.com/ivankudzin/skillswap/internal/domain/model"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrAlreadyQueued = errors.New("user already has an active queue entry")
	ErrEntryNotFound = errors.New("queue entry not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrTransient     = errors.New("transient store failure")
)

// Tx is a unit of work over the queue. Implementations lock what they read through the Lock*
// methods until the surrounding WithTx returns. Callers lock entries before users, ids ascending.
type Tx interface {
	LockUser(ctx context.Context, userID int64) (model.User, error)
	LockEntry(ctx context.Context, entryID int64) (model.QueueEntry, error)
	ActiveEntryForUser(ctx context.Context, userID int64) (model.QueueEntry, bool, error)
	InsertEntry(ctx context.Context, requesterID int64, requestedAt time.Time) (model.QueueEntry, error)
	UpdateEntry(ctx context.Context, entry model.QueueEntry) error
	SetAvailability(ctx context.Context, available bool, userIDs ...int64) error
}

// Store is the durable matching queue. WithTx may call fn more than once when the backend reports
// a serialization conflict, so fn must only have effects through tx and its own return values.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	FindByID(ctx context.Context, entryID int64) (model.QueueEntry, error)
	FindActiveByUser(ctx context.Context, userID int64) (model.QueueEntry, error)
	ScanPending(ctx context.Context) ([]model.QueueEntry, error)
	ScanStale(ctx context.Context, cutoff time.Time) ([]model.QueueEntry, error)
	CountMatchedBetween(ctx context.Context, from, to time.Time) (int, error)
}

type UserDirectory interface {
	FindUser(ctx context.Context, userID int64) (model.User, error)
}

type SkillCatalog interface {
	DeclarationsFor(ctx context.Context, userID int64) (model.Declarations, error)
}

// Notifier receives match events after the transition that produced them has committed.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) {}

// Enqueue creates a pending entry for the requester and takes their matching slot. When the user
// already holds an active entry it is returned together with ErrAlreadyQueued.
func Enqueue(ctx context.Context, store Store, requesterID int64, now time.Time) (model.QueueEntry, error) {
	if requesterID <= 0 {
		return model.QueueEntry{}, ErrValidation
	}
	if store == nil {
		return model.QueueEntry{}, errors.New("queue store is nil")
	}

	var created model.QueueEntry
	err := store.WithTx(ctx, func(txCtx context.Context, tx Tx) error {
		created = model.QueueEntry{}

		if _, err := tx.LockUser(txCtx, requesterID); err != nil {
			return err
		}

		existing, ok, err := tx.ActiveEntryForUser(txCtx, requesterID)
		if err != nil {
			return err
		}
		if ok {
			created = existing
			return ErrAlreadyQueued
		}

		entry, err := tx.InsertEntry(txCtx, requesterID, now)
		if err != nil {
			return err
		}
		if err := tx.SetAvailability(txCtx, false, requesterID); err != nil {
			return err
		}
		created = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyQueued) {
			return created, ErrAlreadyQueued
		}
		return model.QueueEntry{}, err
	}

	return created, nil
}
