package dto

import "time"

type StartMatchResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	MatchID *int64 `json:"match_id,omitempty"`
}

type AgreementRequest struct {
	IsAgreed *bool `json:"is_agreed"`
}

type AgreementResponse struct {
	Result  string `json:"result"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type QueueEntryResponse struct {
	ID             int64      `json:"match_id"`
	UserAID        int64      `json:"user_a_id"`
	UserBID        *int64     `json:"user_b_id"`
	Status         string     `json:"status"`
	AConsent       *bool      `json:"a_consent"`
	BConsent       *bool      `json:"b_consent"`
	SharedCategory *string    `json:"shared_category"`
	RequestedAt    time.Time  `json:"requested_at"`
	MatchedAt      *time.Time `json:"matched_at"`
	TerminatedAt   *time.Time `json:"terminated_at"`
	PartnerUserID  *int64     `json:"partner_user_id,omitempty"`
	MyConsent      *bool      `json:"my_consent"`
	PartnerConsent *bool      `json:"partner_consent"`
}

type TodayStatsResponse struct {
	Date         string `json:"date"`
	MatchedPairs int    `json:"matched_pairs"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}
