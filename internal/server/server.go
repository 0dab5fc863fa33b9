// Package server exposes Markdown to image conversion over HTTP.
//
// Routes:
//
//	POST /convert   raw Markdown body, or JSON {"markdown": "..."}; replies with the image
//	GET  /healthz   liveness probe
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	md2img "github.com/alnah/go-md2img"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Timeouts of the underlying http.Server.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Error messages returned to clients. Internal details only go to the log.
const (
	msgEmptyMarkdown = "markdown is required"
	msgBadJSON       = "invalid JSON body"
	msgTooLarge      = "request body too large"
	msgUnavailable   = "converter unavailable"
	msgFailed        = "image generation failed"
)

// Renderer converts one request.
type Renderer interface {
	Convert(ctx context.Context, input md2img.Input) (*md2img.Result, error)
}

// Pool lends renderers to requests.
type Pool interface {
	Acquire(ctx context.Context) (Renderer, error)
	Release(Renderer)
}

// converterPool adapts md2img.ConverterPool to Pool.
type converterPool struct {
	pool *md2img.ConverterPool
}

// FromConverterPool wraps a converter pool for the handler.
func FromConverterPool(p *md2img.ConverterPool) Pool {
	return converterPool{pool: p}
}

func (c converterPool) Acquire(ctx context.Context) (Renderer, error) {
	conv, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (c converterPool) Release(r Renderer) {
	if conv, ok := r.(*md2img.Converter); ok {
		c.pool.Release(conv)
	}
}

// convertRequest is the JSON form of POST /convert.
type convertRequest struct {
	Markdown string `json:"markdown"`
}

// Handler serves the conversion routes.
type Handler struct {
	pool    Pool
	maxBody int64
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewHandler creates a Handler. A non-positive maxBody uses
// DefaultMaxBodyBytes; a nil logger discards.
func NewHandler(pool Pool, maxBody int64, logger *slog.Logger) *Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Handler{
		pool:    pool,
		maxBody: maxBody,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /convert", h.handleConvert)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// handleConvert handles POST /convert.
func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	markdown, status, msg := h.readMarkdown(w, r)
	if status != 0 {
		http.Error(w, msg, status)
		return
	}

	conv, err := h.pool.Acquire(r.Context())
	if err != nil {
		h.logger.Warn("no converter available", "error", err)
		http.Error(w, msgUnavailable, http.StatusServiceUnavailable)
		return
	}
	defer h.pool.Release(conv)

	res, err := conv.Convert(r.Context(), md2img.Input{Markdown: markdown})
	if err != nil {
		if errors.Is(err, md2img.ErrEmptyMarkdown) {
			http.Error(w, msgEmptyMarkdown, http.StatusBadRequest)
			return
		}
		h.logger.Error("conversion failed", "error", err, "remote", r.RemoteAddr)
		http.Error(w, msgFailed, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Image)))
	if _, err := w.Write(res.Image); err != nil {
		h.logger.Debug("writing response failed", "error", err)
	}
}

// readMarkdown extracts the Markdown from the body. A non-zero status means
// the request is rejected with msg.
func (h *Handler) readMarkdown(w http.ResponseWriter, r *http.Request) (markdown string, status int, msg string) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", http.StatusRequestEntityTooLarge, msgTooLarge
		}
		return "", http.StatusBadRequest, msgBadJSON
	}

	markdown = string(data)
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "application/json" {
		var req convertRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return "", http.StatusBadRequest, msgBadJSON
		}
		markdown = req.Markdown
	}

	if strings.TrimSpace(markdown) == "" {
		return "", http.StatusBadRequest, msgEmptyMarkdown
	}
	return markdown, 0, ""
}

// Server runs a Handler until its context ends.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New creates a Server listening on addr.
func New(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
