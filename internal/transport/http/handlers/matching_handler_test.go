package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/skillswap/internal/domain/enums"
	"github.com/ivankudzin/skillswap/internal/domain/model"
	"github.com/ivankudzin/skillswap/internal/repo/memory"
	authsvc "github.com/ivankudzin/skillswap/internal/services/auth"
	consentsvc "github.com/ivankudzin/skillswap/internal/services/consent"
	matchingsvc "github.com/ivankudzin/skillswap/internal/services/matching"
	"github.com/ivankudzin/skillswap/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/skillswap/internal/transport/http/errors"
)

func TestStartRequiresIdentity(t *testing.T) {
	router, _ := newMatchingRouter(t, nil)

	rr := doRequest(t, router, http.MethodPost, "/matches/start", 0, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestStartQueuesThenMatchesPartner(t *testing.T) {
	router, _ := newMatchingRouter(t, nil)

	first := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 1, nil))
	if first.Result != string(enums.StartResultQueued) || first.MatchID == nil {
		t.Fatalf("unexpected first start: %+v", first)
	}
	if first.Message == "" {
		t.Fatalf("expected a message for %s", first.Result)
	}

	again := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 1, nil))
	if again.Result != string(enums.StartResultAlreadyWaiting) || again.MatchID == nil || *again.MatchID != *first.MatchID {
		t.Fatalf("unexpected repeated start: %+v", again)
	}

	second := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 2, nil))
	if second.Result != string(enums.StartResultMatchedImmediately) {
		t.Fatalf("unexpected partner start: %+v", second)
	}
	if second.MatchID == nil || *second.MatchID != *first.MatchID {
		t.Fatalf("partner must be pointed at the surviving entry: %+v", second)
	}
}

func TestStartReportsIneligibleCohort(t *testing.T) {
	router, _ := newMatchingRouter(t, nil)

	resp := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 4, nil))
	if resp.Result != string(enums.StartResultIneligibleCohort) || resp.MatchID != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStartReturnsTooManyRequests(t *testing.T) {
	router, _ := newMatchingRouter(t, denyLimiter{retryAfter: 17})

	rr := doRequest(t, router, http.MethodPost, "/matches/start", 1, nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") != "17" {
		t.Fatalf("unexpected Retry-After: %q", rr.Header().Get("Retry-After"))
	}

	var payload httperrors.RateLimitError
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "TOO_MANY_REQUESTS" || payload.RetryAfterSec != 17 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestAgreementFlow(t *testing.T) {
	router, _ := newMatchingRouter(t, nil)
	entryID := pairUsers(t, router)
	path := "/matches/" + strconv.FormatInt(entryID, 10) + "/agreement"

	tests := []struct {
		name     string
		path     string
		userID   int64
		body     any
		wantCode int
		wantErr  string
	}{
		{name: "missing flag", path: path, userID: 1, body: map[string]any{}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR"},
		{name: "unknown field", path: path, userID: 1, body: map[string]any{"is_agreed": true, "x": 1}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR"},
		{name: "bad id", path: "/matches/abc/agreement", userID: 1, body: map[string]any{"is_agreed": true}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR"},
		{name: "unknown match", path: "/matches/999/agreement", userID: 1, body: map[string]any{"is_agreed": true}, wantCode: http.StatusNotFound, wantErr: "NOT_FOUND"},
		{name: "outsider", path: path, userID: 3, body: map[string]any{"is_agreed": true}, wantCode: http.StatusForbidden, wantErr: "FORBIDDEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, router, http.MethodPost, tc.path, tc.userID, tc.body)
			if rr.Code != tc.wantCode {
				t.Fatalf("unexpected status: got %d want %d body=%s", rr.Code, tc.wantCode, rr.Body.String())
			}
			var payload httperrors.APIError
			if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if payload.Code != tc.wantErr {
				t.Fatalf("unexpected code: got %s want %s", payload.Code, tc.wantErr)
			}
		})
	}

	first := decodeAgreement(t, doRequest(t, router, http.MethodPost, path, 1, map[string]any{"is_agreed": true}))
	if first.Result != string(enums.ConsentResultWaiting) || first.Status != string(enums.QueueStatusMatched) {
		t.Fatalf("unexpected first answer: %+v", first)
	}

	second := decodeAgreement(t, doRequest(t, router, http.MethodPost, path, 2, map[string]any{"is_agreed": true}))
	if second.Result != string(enums.ConsentResultConfirmed) || second.Status != string(enums.QueueStatusConfirmed) {
		t.Fatalf("unexpected second answer: %+v", second)
	}

	late := decodeAgreement(t, doRequest(t, router, http.MethodPost, path, 2, map[string]any{"is_agreed": false}))
	if late.Result != string(enums.ConsentResultAlreadyAnswered) {
		t.Fatalf("unexpected late answer: %+v", late)
	}
}

func TestAgreementOnPendingEntryConflicts(t *testing.T) {
	router, _ := newMatchingRouter(t, nil)
	start := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 1, nil))

	rr := doRequest(t, router, http.MethodPost, "/matches/"+strconv.FormatInt(*start.MatchID, 10)+"/agreement", 1, map[string]any{"is_agreed": true})
	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusConflict)
	}
}

func TestMeAndGetShowCallerView(t *testing.T) {
	router, _ := newMatchingRouter(t, nil)

	if rr := doRequest(t, router, http.MethodGet, "/matches/me", 1, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before start, got %d", rr.Code)
	}

	entryID := pairUsers(t, router)
	path := "/matches/" + strconv.FormatInt(entryID, 10)
	if rr := doRequest(t, router, http.MethodPost, path+"/agreement", 2, map[string]any{"is_agreed": true}); rr.Code != http.StatusOK {
		t.Fatalf("agreement failed: %d %s", rr.Code, rr.Body.String())
	}

	me := decodeEntry(t, doRequest(t, router, http.MethodGet, "/matches/me", 2, nil))
	if me.ID != entryID || me.PartnerUserID == nil || *me.PartnerUserID != 1 {
		t.Fatalf("unexpected entry for partner: %+v", me)
	}
	if me.MyConsent == nil || !*me.MyConsent || me.PartnerConsent != nil {
		t.Fatalf("unexpected consent view for partner: %+v", me)
	}
	if me.SharedCategory == nil || *me.SharedCategory != "Cooking" {
		t.Fatalf("unexpected shared category: %+v", me.SharedCategory)
	}

	own := decodeEntry(t, doRequest(t, router, http.MethodGet, path, 1, nil))
	if own.MyConsent != nil || own.PartnerConsent == nil || !*own.PartnerConsent {
		t.Fatalf("unexpected consent view for requester: %+v", own)
	}

	if rr := doRequest(t, router, http.MethodGet, path, 3, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider, got %d", rr.Code)
	}
	if rr := doRequest(t, router, http.MethodGet, "/matches/999", 1, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown entry, got %d", rr.Code)
	}
}

func pairUsers(t *testing.T, router http.Handler) int64 {
	t.Helper()

	first := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 1, nil))
	second := decodeStart(t, doRequest(t, router, http.MethodPost, "/matches/start", 2, nil))
	if second.Result != string(enums.StartResultMatchedImmediately) || first.MatchID == nil {
		t.Fatalf("users were not paired: %+v %+v", first, second)
	}
	return *first.MatchID
}

func newMatchingRouter(t *testing.T, limiter matchingsvc.StartLimiter) (http.Handler, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	store.PutUser(model.User{ID: 1, Nickname: "u1", Cohort: enums.CohortYoung, AvailableForMatching: true})
	store.PutUser(model.User{ID: 2, Nickname: "u2", Cohort: enums.CohortSenior, AvailableForMatching: true})
	store.PutUser(model.User{ID: 3, Nickname: "u3", Cohort: enums.CohortYoung, AvailableForMatching: true})
	store.PutUser(model.User{ID: 4, Nickname: "u4", Cohort: enums.CohortMiddle, AvailableForMatching: true})
	store.AddDeclaration(1, enums.SkillRoleTeach, "IT")
	store.AddDeclaration(1, enums.SkillRoleLearn, "Cooking")
	store.AddDeclaration(2, enums.SkillRoleTeach, "Cooking")
	store.AddDeclaration(2, enums.SkillRoleLearn, "IT")

	engine := matchingsvc.NewEngine(matchingsvc.EngineDependencies{Store: store, Users: store, Skills: store})
	matching := matchingsvc.NewService(matchingsvc.Dependencies{
		Store:   store,
		Users:   store,
		Skills:  store,
		Engine:  engine,
		Limiter: limiter,
	})
	consent := consentsvc.NewService(consentsvc.Dependencies{Store: store})
	h := NewMatchingHandler(matching, consent)

	r := chi.NewRouter()
	r.Use(testIdentity)
	r.Post("/matches/start", h.Start)
	r.Get("/matches/me", h.Me)
	r.Get("/matches/{id}", h.Get)
	r.Post("/matches/{id}/agreement", h.Agreement)
	return r, store
}

func testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Test-User"); raw != "" {
			userID, _ := strconv.ParseInt(raw, 10, 64)
			r = r.WithContext(authsvc.WithIdentity(r.Context(), authsvc.Identity{UserID: userID}))
		}
		next.ServeHTTP(w, r)
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID > 0 {
		req.Header.Set("X-Test-User", strconv.FormatInt(userID, 10))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeStart(t *testing.T, rr *httptest.ResponseRecorder) dto.StartMatchResponse {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp dto.StartMatchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	return resp
}

func decodeAgreement(t *testing.T, rr *httptest.ResponseRecorder) dto.AgreementResponse {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp dto.AgreementResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode agreement response: %v", err)
	}
	return resp
}

func decodeEntry(t *testing.T, rr *httptest.ResponseRecorder) dto.QueueEntryResponse {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp dto.QueueEntryResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode entry response: %v", err)
	}
	return resp
}

type denyLimiter struct {
	retryAfter int64
}

func (d denyLimiter) AllowStart(context.Context, int64) (int64, bool, error) {
	return d.retryAfter, false, nil
}
