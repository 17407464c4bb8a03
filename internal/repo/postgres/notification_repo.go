package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/skillswap/internal/domain/model"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Emit stores the notification row. Re-emitting the same event for a user is a no-op.
func (r *NotificationRepo) Emit(ctx context.Context, n model.Notification) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	payload := n.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	var linkPath *string
	if n.LinkPath != "" {
		linkPath = &n.LinkPath
	}
	var entryID *int64
	if n.EntryID > 0 {
		entryID = &n.EntryID
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO notifications (event_id, user_id, type, match_id, content, link_path, payload, created_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7::jsonb, $8)
ON CONFLICT (event_id, user_id) DO NOTHING
`, n.EventID, n.UserID, string(n.Kind), entryID, n.Content, linkPath, payloadJSON, n.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
