package intake

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type StartSessionRequest struct {
	ThreadID    string    `json:"thread_id"`
	ChatHistory []Message `json:"chat_history"`
}

type PostTurnRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// sessionEnvelope is the JSON shape shared by /start and /chat responses.
type sessionEnvelope struct {
	Status              string        `json:"status"`
	ThreadID            string        `json:"thread_id"`
	ChatHistory         []Message     `json:"chat_history"`
	Response            string        `json:"response"`
	InformationComplete bool          `json:"information_complete"`
	ShouldRequestImage  bool          `json:"should_request_image"`
	CollectedInfo       CollectedInfo `json:"collected_info"`
}

func envelopeFor(s *Session) sessionEnvelope {
	return sessionEnvelope{
		Status:              "success",
		ThreadID:            s.ID,
		ChatHistory:         s.Turns,
		Response:            s.LastResponse,
		InformationComplete: s.IsComplete,
		ShouldRequestImage:  s.PendingAction == ActionRequestImage,
		CollectedInfo:       s.Collected(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "request must be JSON")
			return
		}
	}

	session, err := h.svc.StartSession(r.Context(), req.ThreadID, req.ChatHistory)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusOK, envelopeFor(session))
}

func (h *Handler) PostTurn(w http.ResponseWriter, r *http.Request) {
	var req PostTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request must be JSON")
		return
	}

	session, err := h.svc.PostTurn(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "both 'thread_id' and 'message' are required")
		default:
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}
	writeJSON(w, http.StatusOK, envelopeFor(session))
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	session, err := h.svc.GetSession(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no consultation found with thread_id: "+threadID)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "success",
		"thread_id":            session.ID,
		"chat_history":         session.Turns,
		"information_complete": session.IsComplete,
		"should_request_image": session.PendingAction == ActionRequestImage,
		"collected_info":       session.Collected(),
		"message_count":        len(session.Turns),
	})
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "dental-intake-agent",
		"description": "Slot-filling dental intake agent",
		"endpoints": map[string]string{
			"/start":             "POST - Start a new consultation",
			"/chat":              "POST - Send a message in an existing consultation",
			"/state/{thread_id}": "GET - Get current state of a consultation",
			"/health":            "GET - Health check",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "dental-intake-agent",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Root)
	r.Post("/start", h.StartSession)
	r.Post("/chat", h.PostTurn)
	r.Get("/state/{threadID}", h.GetState)
	r.Get("/health", h.Health)
}
