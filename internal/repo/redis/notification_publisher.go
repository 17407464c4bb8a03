package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ivankudzin/skillswap/internal/domain/model"
)

type NotificationPublisher struct {
	client *redis.Client
}

func NewNotificationPublisher(client *redis.Client) *NotificationPublisher {
	return &NotificationPublisher{client: client}
}

func NotificationChannel(userID int64) string {
	return "notifications:user:" + strconv.FormatInt(userID, 10)
}

// Emit publishes the notification to the user's channel for connected clients.
func (p *NotificationPublisher) Emit(ctx context.Context, n model.Notification) error {
	if p.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, NotificationChannel(n.UserID), body).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
