package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/domain/rules"
	notifysvc "github.com/ivankudzin/skillswap/internal/services/notify"
)

type staleSide int

const (
	staleNone staleSide = iota
	staleEarlier
	staleLater
)

// Engine runs pairing passes over the pending part of the queue.
type Engine struct {
	store    Store
	users    UserDirectory
	skills   SkillCatalog
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

type EngineDependencies struct {
	Store    Store
	Users    UserDirectory
	Skills   SkillCatalog
	Notifier Notifier
	Logger   *zap.Logger
}

type PassResult struct {
	Scanned int
	Pairs   int
}

func NewEngine(deps EngineDependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &Engine{
		store:    deps.Store,
		users:    deps.Users,
		skills:   deps.Skills,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Pass makes one first-fit sweep over pending entries, oldest first. Each pair is committed in its
// own transaction after both rows are re-locked and found still pending; pairs that went stale
// since the scan are skipped.
func (e *Engine) Pass(ctx context.Context) (PassResult, error) {
	if e.store == nil || e.users == nil || e.skills == nil {
		return PassResult{}, fmt.Errorf("pairing dependencies are not configured")
	}

	pending, err := e.store.ScanPending(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("scan pending entries: %w", err)
	}

	result := PassResult{Scanned: len(pending)}
	if len(pending) < 2 {
		return result, nil
	}

	profiles := make(map[int64]*rules.Candidate, len(pending))
	loadCandidate := func(entry model.QueueEntry) (rules.Candidate, error) {
		profile, ok := profiles[entry.RequesterID]
		if !ok {
			loaded, err := e.loadProfile(ctx, entry.RequesterID)
			if err != nil {
				return rules.Candidate{}, err
			}
			profile = loaded
			profiles[entry.RequesterID] = profile
		}
		if profile == nil {
			return rules.Candidate{Entry: entry}, nil
		}
		c := *profile
		c.Entry = entry
		return c, nil
	}

	consumed := make(map[int64]bool, len(pending))
	for i := range pending {
		if consumed[pending[i].ID] {
			continue
		}
		a, err := loadCandidate(pending[i])
		if err != nil {
			return result, err
		}
		if !rules.Eligible(a) {
			continue
		}

		for j := i + 1; j < len(pending); j++ {
			if consumed[pending[j].ID] {
				continue
			}
			b, err := loadCandidate(pending[j])
			if err != nil {
				return result, err
			}
			if !rules.Compatible(a, b) {
				continue
			}

			matched, stale, err := e.commitPair(ctx, a, b)
			if err != nil {
				return result, fmt.Errorf("commit pair %d/%d: %w", a.Entry.ID, b.Entry.ID, err)
			}
			if stale == staleEarlier {
				consumed[a.Entry.ID] = true
				break
			}
			if stale == staleLater {
				consumed[b.Entry.ID] = true
				continue
			}

			consumed[a.Entry.ID] = true
			consumed[b.Entry.ID] = true
			result.Pairs++

			at := e.now()
			e.notifier.Notify(ctx, notifysvc.MatchFound(matched, a.Entry.RequesterID, b.Entry.RequesterID, b.Nickname, at))
			e.notifier.Notify(ctx, notifysvc.MatchFound(matched, b.Entry.RequesterID, a.Entry.RequesterID, a.Nickname, at))
			e.logger.Info("queue entries paired",
				zap.Int64("entry_id", matched.ID),
				zap.Int64("absorbed_entry_id", b.Entry.ID),
				zap.Int64("requester_id", a.Entry.RequesterID),
				zap.Int64("partner_id", b.Entry.RequesterID),
				zap.String("shared_category", a.Declarations.Learn),
			)
			break
		}
	}

	return result, nil
}

// loadProfile returns nil for users that no longer exist; they are never eligible.
func (e *Engine) loadProfile(ctx context.Context, userID int64) (*rules.Candidate, error) {
	user, err := e.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	c := &rules.Candidate{
		Nickname: user.Nickname,
		Cohort:   user.Cohort,
	}
	if !user.Cohort.Pairable() {
		return c, nil
	}

	decl, err := e.skills.DeclarationsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load declarations for user %d: %w", userID, err)
	}
	c.Declarations = decl
	return c, nil
}

func (e *Engine) commitPair(ctx context.Context, a, b rules.Candidate) (model.QueueEntry, staleSide, error) {
	var (
		matched model.QueueEntry
		stale   staleSide
	)

	err := e.store.WithTx(ctx, func(txCtx context.Context, tx Tx) error {
		matched = model.QueueEntry{}
		stale = staleNone

		first, second := a.Entry.ID, b.Entry.ID
		if first > second {
			first, second = second, first
		}
		locked := make(map[int64]model.QueueEntry, 2)
		for _, id := range []int64{first, second} {
			entry, err := tx.LockEntry(txCtx, id)
			if err != nil {
				return err
			}
			locked[id] = entry
		}

		earlier := locked[a.Entry.ID]
		later := locked[b.Entry.ID]
		if !stillPending(earlier) {
			stale = staleEarlier
			return nil
		}
		if !stillPending(later) {
			stale = staleLater
			return nil
		}

		now := e.now().UTC()
		partnerID := later.RequesterID
		category := a.Declarations.Learn

		earlier.Status = enums.QueueStatusMatched
		earlier.PartnerID = &partnerID
		earlier.SharedCategory = &category
		earlier.MatchedAt = &now
		earlier.RequesterConsent = enums.ConsentUnset
		earlier.PartnerConsent = enums.ConsentUnset

		later.Status = enums.QueueStatusCanceled
		later.TerminatedAt = &now

		if err := tx.UpdateEntry(txCtx, earlier); err != nil {
			return err
		}
		if err := tx.UpdateEntry(txCtx, later); err != nil {
			return err
		}
		if err := tx.SetAvailability(txCtx, false, earlier.RequesterID, partnerID); err != nil {
			return err
		}

		matched = earlier
		return nil
	})
	if err != nil {
		return model.QueueEntry{}, staleNone, err
	}

	return matched, stale, nil
}

func stillPending(entry model.QueueEntry) bool {
	return entry.Status == enums.QueueStatusPending && !entry.HasPartner()
}
