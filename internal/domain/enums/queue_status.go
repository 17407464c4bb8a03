package enums

import (
	"fmt"
	"strings"
)

type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "pending"
	QueueStatusMatched   QueueStatus = "matched"
	QueueStatusConfirmed QueueStatus = "confirmed"
	QueueStatusCanceled  QueueStatus = "canceled"
)

func ParseQueueStatus(raw string) (QueueStatus, error) {
	switch QueueStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case QueueStatusPending:
		return QueueStatusPending, nil
	case QueueStatusMatched:
		return QueueStatusMatched, nil
	case QueueStatusConfirmed:
		return QueueStatusConfirmed, nil
	case QueueStatusCanceled:
		return QueueStatusCanceled, nil
	default:
		return "", fmt.Errorf("unknown queue status %q", raw)
	}
}

// Active statuses hold the user's single search or match slot.
func (s QueueStatus) Active() bool {
	switch s {
	case QueueStatusPending, QueueStatusMatched:
		return true
	case QueueStatusConfirmed, QueueStatusCanceled:
		return false
	default:
		return false
	}
}

func (s QueueStatus) Terminal() bool {
	switch s {
	case QueueStatusConfirmed, QueueStatusCanceled:
		return true
	case QueueStatusPending, QueueStatusMatched:
		return false
	default:
		return false
	}
}
