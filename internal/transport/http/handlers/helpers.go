package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/skillswap/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeUnavailable(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func parsePathID(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// entryResponse renders an entry from the viewpoint of userID.
func entryResponse(entry model.QueueEntry, userID int64) dto.QueueEntryResponse {
	resp := dto.QueueEntryResponse{
		ID:             entry.ID,
		UserAID:        entry.RequesterID,
		UserBID:        entry.PartnerID,
		Status:         string(entry.Status),
		AConsent:       entry.RequesterConsent.Bool(),
		BConsent:       entry.PartnerConsent.Bool(),
		SharedCategory: entry.SharedCategory,
		RequestedAt:    entry.RequestedAt,
		MatchedAt:      entry.MatchedAt,
		TerminatedAt:   entry.TerminatedAt,
	}
	if partnerID, ok := entry.Counterpart(userID); ok {
		resp.PartnerUserID = &partnerID
	}
	switch {
	case userID == entry.RequesterID:
		resp.MyConsent = resp.AConsent
		resp.PartnerConsent = resp.BConsent
	case entry.IsParty(userID):
		resp.MyConsent = resp.BConsent
		resp.PartnerConsent = resp.AConsent
	}
	return resp
}
