package model

import (
	"time"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
)

type Notification struct {
	EventID    string                 `json:"event_id"`
	UserID     int64                  `json:"user_id"`
	Kind       enums.NotificationKind `json:"kind"`
	EntryID    int64                  `json:"entry_id"`
	Content    string                 `json:"content"`
	LinkPath   string                 `json:"link_path,omitempty"`
	Payload    map[string]any         `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
