package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
)

const (
	defaultEmitTimeout = 5 * time.Second
	fallbackCategory   = "skill exchange"
)

// Sink delivers or stores a notification. Sinks are independent; one failing does not stop the rest.
type Sink interface {
	Emit(ctx context.Context, n model.Notification) error
}

type Dispatcher struct {
	sinks   []Sink
	logger  *zap.Logger
	timeout time.Duration
	newID   func() string
}

func NewDispatcher(logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	active := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}

	return &Dispatcher{
		sinks:   active,
		logger:  logger,
		timeout: defaultEmitTimeout,
		newID:   uuid.NewString,
	}
}

// Notify fans the notification out to every sink. The caller's cancellation is dropped: the state
// change has already committed and delivery must not depend on the request staying open.
func (d *Dispatcher) Notify(ctx context.Context, n model.Notification) {
	if d == nil || len(d.sinks) == 0 {
		return
	}
	if n.EventID == "" {
		n.EventID = d.newID()
	}

	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	for _, sink := range d.sinks {
		if err := sink.Emit(emitCtx, n); err != nil {
			d.logger.Warn("notification sink failed",
				zap.Error(err),
				zap.String("event_id", n.EventID),
				zap.String("kind", string(n.Kind)),
				zap.Int64("user_id", n.UserID),
				zap.Int64("entry_id", n.EntryID),
			)
		}
	}
}

type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, n model.Notification) error {
	s.logger.Info("match notification",
		zap.String("event_id", n.EventID),
		zap.String("kind", string(n.Kind)),
		zap.Int64("user_id", n.UserID),
		zap.Int64("entry_id", n.EntryID),
	)
	return nil
}

func MatchFound(entry model.QueueEntry, userID, partnerID int64, partnerNickname string, at time.Time) model.Notification {
	category := fallbackCategory
	if entry.SharedCategory != nil && *entry.SharedCategory != "" {
		category = *entry.SharedCategory
	}

	return model.Notification{
		UserID:   userID,
		Kind:     enums.NotificationMatchFound,
		EntryID:  entry.ID,
		Content:  fmt.Sprintf("You can now exchange '%s' skills with %s!", category, partnerNickname),
		LinkPath: "/matches/" + strconv.FormatInt(entry.ID, 10),
		Payload: map[string]any{
			"shared_category":  category,
			"partner_id":       partnerID,
			"partner_nickname": partnerNickname,
		},
		OccurredAt: at.UTC(),
	}
}

func MatchSuccess(entry model.QueueEntry, userID int64, at time.Time) model.Notification {
	return model.Notification{
		UserID:     userID,
		Kind:       enums.NotificationMatchSuccess,
		EntryID:    entry.ID,
		Content:    "The match is confirmed. Start sharing skills through messages now.",
		LinkPath:   "/messages/" + strconv.FormatInt(entry.ID, 10),
		OccurredAt: at.UTC(),
	}
}

func MatchCanceled(entry model.QueueEntry, userID int64, at time.Time) model.Notification {
	return model.Notification{
		UserID:     userID,
		Kind:       enums.NotificationMatchCanceled,
		EntryID:    entry.ID,
		Content:    "The match was canceled. Feel free to request a new skill exchange.",
		OccurredAt: at.UTC(),
	}
}

func MatchExpired(entry model.QueueEntry, userID int64, at time.Time) model.Notification {
	return model.Notification{
		UserID:     userID,
		Kind:       enums.NotificationMatchExpired,
		EntryID:    entry.ID,
		Content:    "The matching window expired before a match was completed.",
		OccurredAt: at.UTC(),
	}
}
