package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/archive"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/config"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/events"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/honeypot"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/observability"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/session"
)

// Orchestrator is the decision engine the API delegates to.
type Orchestrator interface {
	HandleMessage(ctx context.Context, in honeypot.Inbound) honeypot.Result
}

type Server struct {
	cfg          config.Config
	sessions     *session.Manager
	orchestrator Orchestrator
	reports      archive.Store
	hub          *events.Hub
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, orchestrator Orchestrator, reports archive.Store, hub *events.Hub, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		sessions:     sessions,
		orchestrator: orchestrator,
		reports:      reports,
		hub:          hub,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Operator consoles connect from the same origin; other
				// websites must not be able to watch the event feed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/honeypot/message", s.handleMessage)
		r.Get("/v1/honeypot/sessions", s.handleListSessions)
		r.Get("/v1/honeypot/sessions/{id}", s.handleGetSession)
		r.Get("/v1/honeypot/reports", s.handleListReports)
		r.Get("/v1/honeypot/events/ws", s.handleEventsWS)
	})

	return r
}

// requireAPIKey rejects the request before any session state is touched.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
			respondError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

type messageRequest struct {
	SessionID           string             `json:"sessionId"`
	Message             honeypot.Message   `json:"message"`
	ConversationHistory []honeypot.Message `json:"conversationHistory"`
	Metadata            map[string]any     `json:"metadata"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "sessionId is required")
		return
	}
	if strings.TrimSpace(req.Message.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message.text is required")
		return
	}

	result := s.orchestrator.HandleMessage(r.Context(), honeypot.Inbound{
		SessionID: req.SessionID,
		Message:   req.Message,
		History:   req.ConversationHistory,
		Metadata:  req.Metadata,
	})
	respondJSON(w, http.StatusOK, result)
}

type sessionView struct {
	*session.Session
	Phase        session.Phase       `json:"phase"`
	Intelligence map[string][]string `json:"intelligence"`
}

func viewOf(s *session.Session) sessionView {
	intelMap := make(map[string][]string)
	for c, vals := range s.Intelligence.Snapshot() {
		intelMap[string(c)] = vals
	}
	return sessionView{Session: s, Phase: s.Phase(), Intelligence: intelMap}
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	all := s.sessions.All()
	views := make([]sessionView, 0, len(all))
	for _, sess := range all {
		views = append(views, viewOf(sess))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Snapshot(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session_not_found", "no such session")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.reports.RecentReports(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "archive_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reports": records})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
