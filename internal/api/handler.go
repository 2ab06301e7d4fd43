package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/atrium/internal/gateway"
	"github.com/nidhogg/atrium/internal/orchestrator"
	"github.com/nidhogg/atrium/internal/subagent"
	"go.uber.org/zap"
)

// Processor runs one chat request end to end. Satisfied by the
// orchestrator.
type Processor interface {
	Process(ctx context.Context, message, contextID, userID string) *orchestrator.Result
}

// Archiver persists inbound workspace messages. Satisfied by the
// postgres store; nil disables the webhook ingest route.
type Archiver interface {
	SaveMessage(ctx context.Context, contextID string, msg subagent.Message, category string, importance int) error
}

// StatusReporter exposes live adapter connection state. Satisfied by the
// gateway; nil when no adapters run in this process.
type StatusReporter interface {
	StatusAll() []gateway.AdapterStatus
}

// SourceInfo describes one configured data source for GET /api/sources.
type SourceInfo struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	proc    Processor
	archive Archiver
	sources []SourceInfo
	status  StatusReporter
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(proc Processor, archive Archiver, sources []SourceInfo, status StatusReporter, logger *zap.Logger) *Handler {
	return &Handler{
		proc:    proc,
		archive: archive,
		sources: sources,
		status:  status,
		logger:  logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Post("/chat", h.chat)
		r.Post("/webhook/slack", h.slackWebhook)
		r.Get("/sources", h.listSources)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "atrium"})
}

type chatRequest struct {
	Message   string `json:"message"`
	ContextID string `json:"context_id"`
	UserID    string `json:"user_id"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	result := h.proc.Process(r.Context(), req.Message, req.ContextID, req.UserID)
	writeJSON(w, http.StatusOK, result)
}

// slackEvent is the subset of the Slack Events API payload the ingest
// path cares about.
type slackEvent struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	TeamID    string `json:"team_id"`
	Event     struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		User    string `json:"user"`
		Text    string `json:"text"`
	} `json:"event"`
}

// slackWebhook archives inbound Slack messages with an ingest-time
// category and importance score, so later searches hit the local
// database instead of the Slack API.
func (h *Handler) slackWebhook(w http.ResponseWriter, r *http.Request) {
	var ev slackEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if ev.Type == "url_verification" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": ev.Challenge})
		return
	}
	if ev.Event.Type != "message" || ev.Event.Text == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if h.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "message archive not configured"})
		return
	}

	msg := subagent.Message{
		Channel:   ev.Event.Channel,
		User:      ev.Event.User,
		Text:      ev.Event.Text,
		Timestamp: time.Now(),
	}
	category := subagent.Categorize(msg.Text)
	importance := subagent.ImportanceScore(msg.Text)

	if err := h.archive.SaveMessage(r.Context(), ev.TeamID, msg, category, importance); err != nil {
		h.logger.Error("archive slack message", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "archived",
		"category": category,
	})
}

// listSources reports the configured sources, overriding the static
// connected flags with live adapter state for platforms that run an
// adapter in this process.
func (h *Handler) listSources(w http.ResponseWriter, r *http.Request) {
	sources := append([]SourceInfo(nil), h.sources...)
	if h.status != nil {
		live := make(map[string]bool)
		for _, st := range h.status.StatusAll() {
			live[st.Platform] = st.Connected
		}
		for i := range sources {
			if connected, ok := live[sources[i].Name]; ok {
				sources[i].Connected = connected
			}
		}
	}
	writeJSON(w, http.StatusOK, sources)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
