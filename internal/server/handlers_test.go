package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oppscout/oppscout/internal/batcher"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/queue"
)

type fakeStore struct {
	err   error
	saved []*database.Opportunity
}

func (s *fakeStore) Ping(context.Context) error { return s.err }

func (s *fakeStore) SaveOpportunity(_ context.Context, opp *database.Opportunity) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, opp)
	return nil
}

func newTestRouter(q *queue.MemoryQueue, db Store) http.Handler {
	log := slog.New(slog.DiscardHandler)
	b := batcher.New(q, 30*time.Millisecond, log)
	return NewRouter(b, q, db, log)
}

func TestReceiveSMS(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	router := newTestRouter(q, &fakeStore{})

	form := url.Values{}
	form.Set("From", "+15551234567")
	form.Set("Body", "  hello there  ")

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<Response>")

	// The message reaches the queue after the debounce window, trimmed.
	env, err := q.Pop(context.Background(), 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "+15551234567", env.PhoneNumber)
	require.Equal(t, queue.Payload{"hello there"}, env.Message)
	require.False(t, env.IsOutbound)
}

func TestReceiveSMSMissingSender(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	router := newTestRouter(q, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook/sms", strings.NewReader("Body=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 0, q.Len())
}

func TestSendSMS(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	router := newTestRouter(q, &fakeStore{})

	body := `{"to":"+15559876543","message":"your appointment is tomorrow"}`
	req := httptest.NewRequest(http.MethodPost, "/twilio/send/sms", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	require.Equal(t, "Message queued for delivery", resp["message"])

	// Outbound messages skip the batcher and hit the queue immediately.
	env, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, env.IsOutbound)
	require.Equal(t, "+15559876543", env.PhoneNumber)
	require.Equal(t, "your appointment is tomorrow", env.Message.Join())
}

func TestSendSMSValidation(t *testing.T) {
	t.Parallel()

	q := queue.NewMemoryQueue()
	router := newTestRouter(q, &fakeStore{})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing to", body: `{"message":"hi"}`},
		{name: "missing message", body: `{"to":"+1555"}`},
		{name: "empty object", body: `{}`},
		{name: "invalid JSON", body: `not json`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/twilio/send/sms", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, "Missing required fields: to and message", resp["error"])
		})
	}
	require.Equal(t, 0, q.Len())
}

func TestCreateOpportunity(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	router := newTestRouter(queue.NewMemoryQueue(), store)

	body := `{
		"title": "  AI Builders Hackathon  ",
		"description": "48-hour build sprint",
		"type": "hackathon",
		"city": "Boston",
		"state": "MA",
		"deadline": "2026-10-01T00:00:00Z",
		"tags": ["Hackathons", "AI/ML"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/admin/opportunities", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	require.NotEmpty(t, resp["id"])

	require.Len(t, store.saved, 1)
	opp := store.saved[0]
	require.Equal(t, resp["id"], opp.ID)
	require.Equal(t, "AI Builders Hackathon", opp.Title)
	require.Equal(t, "48-hour build sprint", opp.Description)
	require.True(t, opp.Deadline.Valid)
	require.Equal(t, database.StringList{"Hackathons", "AI/ML"}, opp.Tags)
	// Embedding stays empty until the backfill task computes it.
	require.Empty(t, opp.Embedding)
}

func TestCreateOpportunityValidation(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	router := newTestRouter(queue.NewMemoryQueue(), store)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing title",
			body:    `{"description":"no title"}`,
			wantErr: "Missing required field: title",
		},
		{
			name:    "unknown tag",
			body:    `{"title":"Pitch Night","tags":["Hackathons","Underwater Basket Weaving"]}`,
			wantErr: "Unknown tag: Underwater Basket Weaving",
		},
		{
			name:    "bad deadline",
			body:    `{"title":"Pitch Night","deadline":"next tuesday"}`,
			wantErr: "Invalid deadline, expected RFC3339 timestamp",
		},
		{
			name:    "invalid JSON",
			body:    `not json`,
			wantErr: "Invalid JSON body",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/opportunities", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tc.wantErr, resp["error"])
		})
	}
	require.Empty(t, store.saved)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(queue.NewMemoryQueue(), &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Checks["queue"])
	require.Equal(t, "ok", resp.Checks["database"])
}

func TestHealthDegraded(t *testing.T) {
	t.Parallel()

	router := newTestRouter(queue.NewMemoryQueue(), &fakeStore{err: errors.New("db is down")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "db is down")
}
