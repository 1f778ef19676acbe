package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lmchat/internal/fetch"
	"lmchat/internal/manager"
	"lmchat/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() ([]types.Model, error)
	Status() types.StatusResponse
	Ready() bool
	// Initialize opens the session; an empty modelPath selects the configured model.
	Initialize(ctx context.Context, modelPath string) error
	Cleanup()
	Chat(ctx context.Context, text string, onChunk func(string) error) (manager.StreamMode, error)
	// Download fetches the model; empty url/path select the configured ones.
	Download(ctx context.Context, url, path string, onProgress func(fetch.Progress)) error
}

// NewMux builds the HTTP handler for svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/status", h.status)
	r.Get("/models", h.models)
	r.Post("/download", h.download)
	r.Post("/session", h.openSession)
	r.Delete("/session", h.closeSession)
	r.Post("/chat", h.chat)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// healthz godoc
// @Summary  Liveness probe
// @Produce  plain
// @Success  200 {string} string "ok"
// @Router   /healthz [get]
func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readyz godoc
// @Summary  Readiness probe; 200 once a session is open
// @Produce  plain
// @Success  200 {string} string "ready"
// @Failure  503 {string} string "not ready"
// @Router   /readyz [get]
func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.svc.Ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

// status godoc
// @Summary  Session status
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// models godoc
// @Summary  List local GGUF models
// @Produce  json
// @Success  200 {object} types.ModelsResponse
// @Failure  500 {object} types.ErrorResponse
// @Router   /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.ListModels()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
}

// download godoc
// @Summary  Download the model, streaming progress as NDJSON
// @Accept   json
// @Produce  application/x-ndjson
// @Param    body body types.DownloadRequest false "source and target"
// @Success  200 {object} types.ProgressEvent
// @Failure  400 {object} types.ErrorResponse
// @Router   /download [post]
func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	var req types.DownloadRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	// The stream opens on the first event so a request rejected before the
	// fetch starts still gets a JSON error status.
	var out *ndjsonWriter
	var received int64
	err := h.svc.Download(ctx, req.URL, req.Path, func(p fetch.Progress) {
		if ip, ok := p.(fetch.InProgress); ok {
			received += ip.ChunkBytes
		}
		if out == nil {
			out = newNDJSON(w, r, "download")
		}
		out.send(progressEvent(p))
	})
	if err != nil && out == nil {
		writeJSONError(w, statusFor(err), err.Error())
	}
	downloadBytesTotal.Add(float64(received))
	switch {
	case err == nil:
		downloadsTotal.WithLabelValues("complete").Inc()
	case ctx.Err() != nil:
		downloadsTotal.WithLabelValues("canceled").Inc()
	default:
		downloadsTotal.WithLabelValues("failed").Inc()
	}
}

// openSession godoc
// @Summary  Open the chat session (load the engine)
// @Accept   json
// @Produce  json
// @Param    body body types.SessionRequest false "model override"
// @Success  200 {object} types.StatusResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  500 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /session [post]
func (h *handlers) openSession(w http.ResponseWriter, r *http.Request) {
	var req types.SessionRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if err := h.svc.Initialize(ctx, req.ModelPath); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// closeSession godoc
// @Summary  Close the chat session and release the engine
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /session [delete]
func (h *handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	h.svc.Cleanup()
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// chat godoc
// @Summary  Send a user turn, streaming reply chunks as NDJSON
// @Accept   json
// @Produce  application/x-ndjson
// @Param    body body types.ChatRequest true "user text"
// @Success  200 {object} types.ChunkEvent
// @Failure  400 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  429 {object} types.ErrorResponse
// @Router   /chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	var out *ndjsonWriter
	mode, err := h.svc.Chat(ctx, req.Text, func(chunk string) error {
		if out == nil {
			out = newNDJSON(w, r, "chat")
		}
		chatChunksTotal.Inc()
		return out.send(types.ChunkEvent{Chunk: chunk})
	})
	if err != nil && out == nil {
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("busy")
		}
		chatTurnsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, status, err.Error())
		return
	}
	if out == nil {
		out = newNDJSON(w, r, "chat")
	}
	final := types.ChunkEvent{Done: true, Mode: string(mode)}
	switch {
	case err == nil:
		chatTurnsTotal.WithLabelValues("complete").Inc()
	case r.Context().Err() != nil || serverBaseCtx.Err() != nil:
		chatTurnsTotal.WithLabelValues("canceled").Inc()
		return
	default:
		chatTurnsTotal.WithLabelValues("failed").Inc()
		final.Error = err.Error()
	}
	_ = out.send(final)
}

// requireJSON enforces a JSON content type on request bodies.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	return true
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if !requireJSON(w, r) {
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// ndjsonWriter streams one JSON document per line, flushing after each.
type ndjsonWriter struct {
	enc   *json.Encoder
	flush func()
}

func newNDJSON(w http.ResponseWriter, r *http.Request, stream string) *ndjsonWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	dst := io.Writer(w)
	if requestLogLevel(r) >= LevelDebug {
		dst = io.MultiWriter(w, &loggingLineWriter{prefix: stream, rid: middleware.GetReqID(r.Context())})
	}
	n := &ndjsonWriter{enc: json.NewEncoder(dst), flush: func() {}}
	if f, ok := w.(http.Flusher); ok {
		n.flush = f.Flush
	}
	return n
}

func (n *ndjsonWriter) send(v any) error {
	if err := n.enc.Encode(v); err != nil {
		return err
	}
	n.flush()
	return nil
}

// progressEvent converts a fetch event to its wire form.
func progressEvent(p fetch.Progress) types.ProgressEvent {
	switch p := p.(type) {
	case fetch.Started:
		return types.ProgressEvent{Type: "started"}
	case fetch.InProgress:
		ev := types.ProgressEvent{Type: "progress", ChunkBytes: p.ChunkBytes, BytesDownloaded: p.BytesDownloaded, TotalBytes: p.TotalBytes}
		if p.PercentKnown() {
			pct := p.Percent
			ev.Percent = &pct
		}
		return ev
	case fetch.Complete:
		return types.ProgressEvent{Type: "complete", Path: p.Path}
	case fetch.Failed:
		return types.ProgressEvent{Type: "failed", Error: p.Message}
	default:
		return types.ProgressEvent{Type: "unknown"}
	}
}
