package model

import (
	"time"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
)

// QueueEntry is one row of the matching queue: a user's search and, once paired, the match itself.
type QueueEntry struct {
	ID               int64             `json:"id"`
	RequesterID      int64             `json:"requester_id"`
	PartnerID        *int64            `json:"partner_id,omitempty"`
	Status           enums.QueueStatus `json:"status"`
	RequesterConsent enums.Consent     `json:"requester_consent"`
	PartnerConsent   enums.Consent     `json:"partner_consent"`
	SharedCategory   *string           `json:"shared_category,omitempty"`
	RequestedAt      time.Time         `json:"requested_at"`
	MatchedAt        *time.Time        `json:"matched_at,omitempty"`
	TerminatedAt     *time.Time        `json:"terminated_at,omitempty"`
}

func (e QueueEntry) HasPartner() bool {
	return e.PartnerID != nil && *e.PartnerID > 0
}

func (e QueueEntry) IsParty(userID int64) bool {
	if userID <= 0 {
		return false
	}
	if e.RequesterID == userID {
		return true
	}
	return e.HasPartner() && *e.PartnerID == userID
}

// Participants returns the requester and, when paired, the partner.
func (e QueueEntry) Participants() []int64 {
	if e.HasPartner() {
		return []int64{e.RequesterID, *e.PartnerID}
	}
	return []int64{e.RequesterID}
}

// Counterpart returns the other party of a paired entry.
func (e QueueEntry) Counterpart(userID int64) (int64, bool) {
	if !e.HasPartner() {
		return 0, false
	}
	switch userID {
	case e.RequesterID:
		return *e.PartnerID, true
	case *e.PartnerID:
		return e.RequesterID, true
	default:
		return 0, false
	}
}
