package enums

type NotificationKind string

const (
	NotificationMatchFound    NotificationKind = "MATCH_FOUND"
	NotificationMatchSuccess  NotificationKind = "MATCH_SUCCESS"
	NotificationMatchCanceled NotificationKind = "MATCH_CANCELED"
	NotificationMatchExpired  NotificationKind = "MATCH_EXPIRED"
)
