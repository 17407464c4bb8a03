package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
)

type StartLimiter interface {
	AllowStart(ctx context.Context, userID int64) (int64, bool, error)
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return fmt.Sprintf("too many matching requests, retry after %d seconds", e.RetryAfterSec)
}

func IsTooFast(err error) (TooFastError, bool) {
	var target TooFastError
	if errors.As(err, &target) {
		return target, true
	}
	return TooFastError{}, false
}

type StartOutcome struct {
	Result  enums.StartResult
	EntryID int64
}

type Service struct {
	store   Store
	users   UserDirectory
	skills  SkillCatalog
	engine  *Engine
	limiter StartLimiter
	logger  *zap.Logger
	now     func() time.Time
}

type Dependencies struct {
	Store   Store
	Users   UserDirectory
	Skills  SkillCatalog
	Engine  *Engine
	Limiter StartLimiter
	Logger  *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:   deps.Store,
		users:   deps.Users,
		skills:  deps.Skills,
		engine:  deps.Engine,
		limiter: deps.Limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// Start puts the user in the queue and runs one pairing pass straight away so that a waiting
// partner is found without waiting for the next scheduler tick.
func (s *Service) Start(ctx context.Context, userID int64) (StartOutcome, error) {
	if userID <= 0 {
		return StartOutcome{}, ErrValidation
	}
	if s.store == nil || s.users == nil || s.skills == nil {
		return StartOutcome{}, fmt.Errorf("matching dependencies are not configured")
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowStart(ctx, userID)
		if err != nil {
			s.logger.Warn("start rate limiter unavailable, allowing request", zap.Error(err), zap.Int64("user_id", userID))
		} else if !allowed {
			return StartOutcome{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return StartOutcome{}, err
	}
	if !user.Cohort.Pairable() {
		return StartOutcome{Result: enums.StartResultIneligibleCohort}, nil
	}

	decl, err := s.skills.DeclarationsFor(ctx, userID)
	if err != nil {
		return StartOutcome{}, fmt.Errorf("load declarations: %w", err)
	}
	if !decl.Complete() {
		return StartOutcome{Result: enums.StartResultNoDeclarations}, nil
	}

	entry, err := Enqueue(ctx, s.store, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrAlreadyQueued) {
			return StartOutcome{Result: enums.StartResultAlreadyWaiting, EntryID: entry.ID}, nil
		}
		return StartOutcome{}, fmt.Errorf("enqueue: %w", err)
	}

	if s.engine != nil {
		if _, err := s.engine.Pass(ctx); err != nil {
			s.logger.Warn("inline pairing pass failed", zap.Error(err), zap.Int64("entry_id", entry.ID))
		}
	}

	active, err := s.store.FindActiveByUser(ctx, userID)
	if err == nil && active.Status == enums.QueueStatusMatched {
		return StartOutcome{Result: enums.StartResultMatchedImmediately, EntryID: active.ID}, nil
	}
	if err != nil && !errors.Is(err, ErrEntryNotFound) {
		s.logger.Warn("lookup active entry after enqueue failed", zap.Error(err), zap.Int64("user_id", userID))
	}

	return StartOutcome{Result: enums.StartResultQueued, EntryID: entry.ID}, nil
}

func (s *Service) Get(ctx context.Context, entryID int64) (model.QueueEntry, error) {
	if entryID <= 0 {
		return model.QueueEntry{}, ErrValidation
	}
	if s.store == nil {
		return model.QueueEntry{}, fmt.Errorf("queue store is nil")
	}
	return s.store.FindByID(ctx, entryID)
}

func (s *Service) Active(ctx context.Context, userID int64) (model.QueueEntry, error) {
	if userID <= 0 {
		return model.QueueEntry{}, ErrValidation
	}
	if s.store == nil {
		return model.QueueEntry{}, fmt.Errorf("queue store is nil")
	}
	return s.store.FindActiveByUser(ctx, userID)
}
