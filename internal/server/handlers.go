package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oppscout/oppscout/internal/batcher"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/matcher"
	"github.com/oppscout/oppscout/internal/queue"
)

// emptyTwiML acknowledges a webhook without sending an immediate reply. The
// actual reply goes out asynchronously through the queue.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type handlers struct {
	batcher *batcher.Batcher
	queue   queue.Queue
	db      Store
	log     *slog.Logger
}

// receiveSMS handles the provider webhook for inbound messages. The message
// is handed to the batcher and the webhook is acknowledged immediately.
func (h *handlers) receiveSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.log.Error("Failed to parse webhook form", "error", err)
		http.Error(w, "Sorry, we encountered an error processing your message.", http.StatusInternalServerError)
		return
	}

	sender := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if sender == "" {
		h.log.Warn("Webhook request missing From field")
		http.Error(w, "Sorry, we encountered an error processing your message.", http.StatusInternalServerError)
		return
	}

	h.log.Info("Received inbound SMS", "sender", sender, "length", len(body))
	h.batcher.Add(sender, body)

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(emptyTwiML))
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// sendSMS queues an outbound message submitted through the REST API. The
// message rides the same queue as replies, so delivery ordering per sender
// is preserved.
func (h *handlers) sendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Missing required fields: to and message",
		})
		return
	}

	env := queue.NewOutbound(req.To, req.Message)
	if err := h.queue.Push(r.Context(), env); err != nil {
		h.log.Error("Failed to queue outbound message", "to", req.To, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": err.Error(),
		})
		return
	}

	h.log.Info("Queued outbound message", "to", req.To, "envelope_id", env.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message queued for delivery",
	})
}

type opportunityRequest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Deadline    string   `json:"deadline"`
	Tags        []string `json:"tags"`
}

// createOpportunity ingests one opportunity into the catalog. The embedding
// is left empty here; the embed_opportunities task fills it in before the
// matcher can recommend the entry.
func (h *handlers) createOpportunity(w http.ResponseWriter, r *http.Request) {
	var req opportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid JSON body",
		})
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Missing required field: title",
		})
		return
	}

	for _, tag := range req.Tags {
		if !matcher.ValidTag(tag) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": fmt.Sprintf("Unknown tag: %s", tag),
			})
			return
		}
	}

	var deadline sql.NullTime
	if req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "Invalid deadline, expected RFC3339 timestamp",
			})
			return
		}
		deadline = sql.NullTime{Time: t, Valid: true}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	opp := &database.Opportunity{
		ID:          req.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		City:        req.City,
		State:       req.State,
		Deadline:    deadline,
		Tags:        database.StringList(req.Tags),
	}

	if err := h.db.SaveOpportunity(r.Context(), opp); err != nil {
		h.log.Error("Failed to save opportunity", "opportunity_id", opp.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": err.Error(),
		})
		return
	}

	h.log.Info("Ingested opportunity", "opportunity_id", opp.ID, "title", opp.Title)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      opp.ID,
	})
}

// health reports readiness of the queue and database.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := http.StatusOK
	checks := map[string]string{"queue": "ok", "database": "ok"}

	if err := h.queue.Ping(ctx); err != nil {
		checks["queue"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
