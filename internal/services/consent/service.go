package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/services/matching"
	notifysvc "github.com/ivankudzin/skillswap/internal/services/notify"
)

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("user is not a party to this match")
	ErrNotMatched = errors.New("entry has no partner yet")
)

type Decision struct {
	Result enums.ConsentResult
	Entry  model.QueueEntry
}

type Service struct {
	store    matching.Store
	notifier matching.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

type Dependencies struct {
	Store    matching.Store
	Notifier matching.Notifier
	Logger   *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:    deps.Store,
		notifier: deps.Notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit records one party's answer. A single "no" cancels the match at once; two "yes" answers
// confirm it. Answers are never overwritten.
func (s *Service) Submit(ctx context.Context, entryID, userID int64, accepted bool) (Decision, error) {
	if entryID <= 0 || userID <= 0 {
		return Decision{}, ErrValidation
	}
	if s.store == nil {
		return Decision{}, fmt.Errorf("queue store is nil")
	}

	var decision Decision
	err := s.store.WithTx(ctx, func(txCtx context.Context, tx matching.Tx) error {
		decision = Decision{}

		entry, err := tx.LockEntry(txCtx, entryID)
		if err != nil {
			return err
		}
		if !entry.IsParty(userID) {
			return ErrForbidden
		}

		switch entry.Status {
		case enums.QueueStatusConfirmed, enums.QueueStatusCanceled:
			decision = Decision{Result: enums.ConsentResultAlreadyAnswered, Entry: entry}
			return nil
		case enums.QueueStatusPending:
			return ErrNotMatched
		case enums.QueueStatusMatched:
		default:
			return fmt.Errorf("unexpected queue status %q", entry.Status)
		}

		own, other := &entry.RequesterConsent, &entry.PartnerConsent
		if userID != entry.RequesterID {
			own, other = &entry.PartnerConsent, &entry.RequesterConsent
		}
		if own.Decided() {
			decision = Decision{Result: enums.ConsentResultAlreadyAnswered, Entry: entry}
			return nil
		}

		now := s.now().UTC()
		*own = enums.ConsentFromBool(&accepted)

		result := enums.ConsentResultWaiting
		switch {
		case !accepted:
			entry.Status = enums.QueueStatusCanceled
			entry.TerminatedAt = &now
			result = enums.ConsentResultCanceled
		case *other == enums.ConsentYes:
			entry.Status = enums.QueueStatusConfirmed
			entry.TerminatedAt = &now
			result = enums.ConsentResultConfirmed
		}

		if err := tx.UpdateEntry(txCtx, entry); err != nil {
			return err
		}
		if entry.Status.Terminal() {
			if err := tx.SetAvailability(txCtx, true, entry.Participants()...); err != nil {
				return err
			}
		}

		decision = Decision{Result: result, Entry: entry}
		return nil
	})
	if err != nil {
		return Decision{}, err
	}

	s.emit(ctx, decision)
	return decision, nil
}

func (s *Service) emit(ctx context.Context, decision Decision) {
	if s.notifier == nil {
		return
	}

	at := s.now()
	switch decision.Result {
	case enums.ConsentResultConfirmed:
		for _, userID := range decision.Entry.Participants() {
			s.notifier.Notify(ctx, notifysvc.MatchSuccess(decision.Entry, userID, at))
		}
		s.logger.Info("match confirmed", zap.Int64("entry_id", decision.Entry.ID))
	case enums.ConsentResultCanceled:
		for _, userID := range decision.Entry.Participants() {
			s.notifier.Notify(ctx, notifysvc.MatchCanceled(decision.Entry, userID, at))
		}
		s.logger.Info("match canceled by participant", zap.Int64("entry_id", decision.Entry.ID))
	case enums.ConsentResultWaiting, enums.ConsentResultAlreadyAnswered:
	}
}
