package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voicebank/gateway/internal/bank"
	"github.com/voicebank/gateway/internal/faq"
	"github.com/voicebank/gateway/internal/session"
	"github.com/voicebank/gateway/internal/tools"
	"github.com/voicebank/gateway/internal/trace"
	"github.com/voicebank/gateway/internal/upstream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16384,
	WriteBufferSize: 16384,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandlerConfig holds the shared backends for all voice sessions.
type HandlerConfig struct {
	// Upstream is the base engine config; tool declarations and the
	// resume handle are filled in per session.
	Upstream upstream.Config

	Bank       *bank.Service
	FAQ        *faq.Client
	TraceStore *trace.Store
	TraceRing  *trace.Ring

	// UserID identifies the demo account all sessions operate on.
	UserID string

	MaxConcurrent int
	PollInterval  time.Duration
}

// Handler manages WebSocket voice sessions with admission control.
type Handler struct {
	cfg HandlerConfig
	sem chan struct{}
}

// NewHandler creates a WebSocket handler with shared backends and a
// concurrency limit.
func NewHandler(cfg HandlerConfig) *Handler {
	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 100
	}
	return &Handler{
		cfg: cfg,
		sem: make(chan struct{}, maxConc),
	}
}

// ServeHTTP upgrades the connection and runs the voice session.
// Returns 503 if at max concurrent session capacity.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "at capacity", http.StatusServiceUnavailable)
		return
	}

	resumeHandle := r.URL.Query().Get("resume")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	h.runSession(r.Context(), conn, resumeHandle)
}

func (h *Handler) runSession(ctx context.Context, conn *websocket.Conn, resumeHandle string) {
	client := newWSConn(conn)
	defer client.Close()

	sessionID := uuid.NewString()
	slog.Info("session started", "session_id", sessionID, "user_id", h.cfg.UserID, "resuming", resumeHandle != "")

	tracer := trace.NewTracer(h.cfg.TraceStore, h.cfg.TraceRing, sessionID)
	defer tracer.Close()

	if h.cfg.TraceStore != nil {
		if err := h.cfg.TraceStore.CreateSession(sessionID, h.cfg.UserID); err != nil {
			slog.Warn("trace session create failed", "error", err)
		}
		defer func() {
			if err := h.cfg.TraceStore.EndSession(sessionID); err != nil {
				slog.Warn("trace session end failed", "error", err)
			}
		}()
	}

	registry := tools.NewBankingRegistry(h.cfg.Bank, h.cfg.FAQ, h.cfg.UserID, tracer)

	upCfg := h.cfg.Upstream
	upCfg.Tools = registry.Declarations()
	upCfg.ResumeHandle = resumeHandle

	up, err := upstream.Dial(ctx, upCfg)
	if err != nil {
		slog.Error("upstream dial failed", "session_id", sessionID, "error", err)
		client.WriteJSON(map[string]string{"type": "error", "message": "voice engine unavailable"})
		return
	}

	orch := session.New(session.Config{
		Client:       client,
		Upstream:     up,
		Tools:        registry,
		PollInterval: h.cfg.PollInterval,
	})
	orch.Run(ctx)

	slog.Info("session ended", "session_id", sessionID, "resumable", orch.ResumptionHandle() != "")
}
