package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicebank/gateway/internal/branding"
	"github.com/voicebank/gateway/internal/trace"
)

const (
	// maxLogoBytes bounds logo uploads; anything larger is rejected
	// before image decoding.
	maxLogoBytes = 10 << 20

	// defaultTraceSessionLimit is how many trace sessions are returned
	// when the caller omits the ?limit= query parameter.
	defaultTraceSessionLimit = 20
)

type deps struct {
	wsHandler  http.Handler
	branding   *branding.Service
	traceStore *trace.Store
	eventRing  *trace.Ring
}

// registerRoutes wires all HTTP endpoints to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	mux.Handle("/ws/listen", d.wsHandler)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/upload-logo", d.handleUploadLogo)
	mux.HandleFunc("GET /api/logo", d.handleLogo)
	mux.HandleFunc("GET /api/header-style", d.handleHeaderStyle)

	mux.HandleFunc("GET /api/events", d.handleEvents)
	mux.HandleFunc("POST /api/events/clear", d.handleEventsClear)

	registerTraceRoutes(mux, d.traceStore)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (d deps) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, _, err := r.FormFile("logo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no logo file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read logo file"})
		return
	}

	style, err := d.branding.UploadLogo(r.Context(), data)
	if err != nil {
		slog.Error("logo upload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image format or corrupted image"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Logo uploaded and style generated",
		"dominantColor": style.DominantColor,
	})
}

func (d deps) handleLogo(w http.ResponseWriter, r *http.Request) {
	data, err := d.branding.Logo(r.Context())
	if err != nil {
		if errors.Is(err, branding.ErrNoLogo) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no logo uploaded"})
			return
		}
		slog.Error("logo fetch", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve logo"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func (d deps) handleHeaderStyle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.branding.Style(r.Context()))
}

func (d deps) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := d.eventRing.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "total": len(events)})
}

func (d deps) handleEventsClear(w http.ResponseWriter, r *http.Request) {
	d.eventRing.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"message": "events cleared"})
}

func registerTraceRoutes(mux *http.ServeMux, store *trace.Store) {
	mux.HandleFunc("GET /api/traces/sessions", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "tracing disabled", http.StatusNotFound)
			return
		}
		limit := queryInt(r, "limit", defaultTraceSessionLimit)
		offset := queryInt(r, "offset", 0)
		sessions, total, err := store.ListSessions(limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "total": total})
	})

	mux.HandleFunc("GET /api/traces/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "tracing disabled", http.StatusNotFound)
			return
		}
		events, err := store.ListToolEvents(r.PathValue("id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
