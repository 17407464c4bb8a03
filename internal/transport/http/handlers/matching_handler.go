package handlers

import (
	"errors"
	"net/http"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	authsvc "github.com/ivankudzin/skillswap/internal/services/auth"
	consentsvc "github.com/ivankudzin/skillswap/internal/services/consent"
	matchingsvc "github.com/ivankudzin/skillswap/internal/services/matching"
	"github.com/ivankudzin/skillswap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/skillswap/internal/transport/http/errors"
)

var startMessages = map[enums.StartResult]string{
	enums.StartResultQueued:             "Your request is in the queue. We will let you know when a partner is found.",
	enums.StartResultAlreadyWaiting:     "You already have an active matching request.",
	enums.StartResultIneligibleCohort:   "Skill exchange is open to young and senior members only.",
	enums.StartResultNoDeclarations:     "Declare one skill to teach and one to learn before matching.",
	enums.StartResultMatchedImmediately: "A partner was found. Please answer the match request.",
}

var agreementMessages = map[enums.ConsentResult]string{
	enums.ConsentResultWaiting:         "Waiting for the other participant to answer.",
	enums.ConsentResultConfirmed:       "The match is confirmed. Start sharing skills through messages now.",
	enums.ConsentResultCanceled:        "The match was canceled. Feel free to request a new skill exchange.",
	enums.ConsentResultAlreadyAnswered: "This match has already been answered.",
}

type MatchingHandler struct {
	matching *matchingsvc.Service
	consent  *consentsvc.Service
}

func NewMatchingHandler(matching *matchingsvc.Service, consent *consentsvc.Service) *MatchingHandler {
	return &MatchingHandler{matching: matching, consent: consent}
}

func (h *MatchingHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.matching == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	outcome, err := h.matching.Start(r.Context(), identity.UserID)
	if err != nil {
		if tooFast, ok := matchingsvc.IsTooFast(err); ok {
			httperrors.WriteRateLimited(w, httperrors.RateLimitError{
				Code:          "TOO_MANY_REQUESTS",
				Message:       "too many matching requests",
				RetryAfterSec: tooFast.RetryAfterSec,
			})
			return
		}
		switch {
		case errors.Is(err, matchingsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matching request")
		case errors.Is(err, matchingsvc.ErrUserNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "user not found")
		case errors.Is(err, matchingsvc.ErrTransient):
			writeUnavailable(w, "TEMP_UNAVAILABLE", "matching is busy, please retry")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to start matching")
		}
		return
	}

	resp := dto.StartMatchResponse{
		Result:  string(outcome.Result),
		Message: startMessages[outcome.Result],
	}
	if outcome.EntryID > 0 {
		entryID := outcome.EntryID
		resp.MatchID = &entryID
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MatchingHandler) Agreement(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.consent == nil {
		writeInternal(w, "CONSENT_SERVICE_UNAVAILABLE", "consent service is unavailable")
		return
	}

	entryID, ok := parsePathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	var req dto.AgreementRequest
	if err := decodeJSON(r, &req); err != nil || req.IsAgreed == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	decision, err := h.consent.Submit(r.Context(), entryID, identity.UserID, *req.IsAgreed)
	if err != nil {
		switch {
		case errors.Is(err, consentsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid agreement request")
		case errors.Is(err, matchingsvc.ErrEntryNotFound):
			writeNotFound(w, "NOT_FOUND", "match not found")
		case errors.Is(err, consentsvc.ErrForbidden):
			writeForbidden(w, "FORBIDDEN", "you are not a participant of this match")
		case errors.Is(err, consentsvc.ErrNotMatched):
			writeConflict(w, "NOT_MATCHED", "no partner has been found for this request yet")
		case errors.Is(err, matchingsvc.ErrTransient):
			writeUnavailable(w, "TEMP_UNAVAILABLE", "matching is busy, please retry")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record agreement")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AgreementResponse{
		Result:  string(decision.Result),
		Status:  string(decision.Entry.Status),
		Message: agreementMessages[decision.Result],
	})
}

func (h *MatchingHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.matching == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	entry, err := h.matching.Active(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, matchingsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid user")
		case errors.Is(err, matchingsvc.ErrEntryNotFound):
			writeNotFound(w, "NOT_FOUND", "no active match")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load match")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, entryResponse(entry, identity.UserID))
}

func (h *MatchingHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.matching == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	entryID, ok := parsePathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	entry, err := h.matching.Get(r.Context(), entryID)
	if err != nil {
		switch {
		case errors.Is(err, matchingsvc.ErrEntryNotFound):
			writeNotFound(w, "NOT_FOUND", "match not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load match")
		}
		return
	}
	if !entry.IsParty(identity.UserID) {
		writeForbidden(w, "FORBIDDEN", "you are not a participant of this match")
		return
	}

	httperrors.Write(w, http.StatusOK, entryResponse(entry, identity.UserID))
}
