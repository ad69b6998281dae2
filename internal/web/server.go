package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/easysteem/internal"
	"github.com/vadiminshakov/easysteem/internal/chainprops"
	"github.com/vadiminshakov/easysteem/internal/domain"
)

const snapshotPollInterval = 2 * time.Second

// API is the read side of the client served over HTTP.
type API interface {
	ChainProperties(ctx context.Context, opts ...internal.CallOption) (domain.ChainProperties, error)
	AccountReport(ctx context.Context, name string, opts ...internal.CallOption) (domain.AccountReport, error)
	Votes(ctx context.Context, author, permlink string, option domain.OrderOption, opts ...internal.CallOption) ([]domain.Vote, error)
	Comments(ctx context.Context, author, permlink string, option domain.OrderOption) ([]domain.Comment, error)
}

type snapshotReader interface {
	SnapshotsAfter(index uint64) ([]domain.ChainPropertiesRecord, error)
}

type httpRecorder interface {
	ObserveHTTP(route string, code int, duration time.Duration)
	Handler() http.Handler
}

// Server exposes the derived metrics as JSON and streams persisted chain
// properties snapshots over SSE.
type Server struct {
	Addr    string
	API     API
	Store   snapshotReader
	Metrics httpRecorder
	Origins []string
	Logger  *zap.Logger
}

// NewServer creates a new web server instance. store and metrics may be nil.
func NewServer(addr string, api API, store snapshotReader, metrics httpRecorder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, API: api, Store: store, Metrics: metrics, Origins: []string{"*"}, Logger: logger}
}

// Handler returns the routed handler wrapped with CORS and request metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /props", s.handleProps)
	s.route(mux, "GET /props/stream", s.handlePropsStream)
	s.route(mux, "GET /accounts/{name}", s.handleAccount)
	s.route(mux, "GET /votes/{author}/{permlink}", s.handleVotes)
	s.route(mux, "GET /comments/{author}/{permlink}", s.handleComments)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	c := cors.New(cors.Options{AllowedOrigins: s.Origins})
	return c.Handler(mux)
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("HTTP API listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	route := strings.TrimPrefix(pattern, "GET ")
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		if s.Metrics != nil {
			s.Metrics.ObserveHTTP(route, rec.code, time.Since(start))
		}
	})
}

func (s *Server) handleProps(w http.ResponseWriter, r *http.Request) {
	opts, err := callOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	props, err := s.API.ChainProperties(r.Context(), opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	opts, err := callOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.API.AccountReport(r.Context(), r.PathValue("name"), opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	option, err := orderOption(r, domain.OrderPayout)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := callOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	votes, err := s.API.Votes(r.Context(), r.PathValue("author"), r.PathValue("permlink"), option, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	option, err := orderOption(r, domain.OrderNewest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	comments, err := s.API.Comments(r.Context(), r.PathValue("author"), r.PathValue("permlink"), option)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handlePropsStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat keeps proxies from closing the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(snapshotPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendSnapshots := func() error {
		records, err := s.Store.SnapshotsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Properties)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: props\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendSnapshots(); err != nil {
		http.Error(w, "failed to load snapshots", http.StatusInternalServerError)
		s.Logger.Error("props stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendSnapshots(); err != nil {
				s.Logger.Warn("props stream poll", zap.Error(err))
			}
		}
	}
}

var errBadRequest = errors.New("bad request")

func orderOption(r *http.Request, fallback domain.OrderOption) (domain.OrderOption, error) {
	raw := r.URL.Query().Get("order")
	if raw == "" {
		return fallback, nil
	}
	return domain.ParseOrderOption(raw)
}

// callOptions reads ?decimals=N and ?refresh=always|if_empty|if_stale|never.
func callOptions(r *http.Request) ([]internal.CallOption, error) {
	var opts []internal.CallOption
	q := r.URL.Query()

	if raw := q.Get("decimals"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 18 {
			return nil, fmt.Errorf("%w: decimals must be an integer in [0, 18]", errBadRequest)
		}
		opts = append(opts, internal.WithDecimals(n))
	}

	if raw := q.Get("refresh"); raw != "" {
		mode, err := chainprops.ParseRefreshMode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		opts = append(opts, internal.WithRefreshPolicy(chainprops.RefreshPolicy{Mode: mode, MaxAge: chainprops.DefaultMaxAge}))
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrUnsupportedOrder):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrPropertiesUnavailable), errors.Is(err, domain.ErrRefreshFailed):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
