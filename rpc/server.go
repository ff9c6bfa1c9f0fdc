// Package rpc exposes a node over JSON-RPC 2.0 and streams committed escrow
// events over websockets.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/StorkBison/escrow-sell-SC/core"
	"github.com/StorkBison/escrow-sell-SC/indexer"
	"github.com/StorkBison/escrow-sell-SC/observability"
)

const (
	defaultMaxRequestBytes = 1 << 20
	defaultReadTimeout     = 15 * time.Second
	shutdownGrace          = 5 * time.Second
)

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	JWTSecret    string
	RateLimit    float64
	Burst        int
	ReadTimeout  time.Duration
	MaxBodyBytes int64
}

type handlerFunc func(ctx context.Context, r *http.Request, params []json.RawMessage) (interface{}, *RPCError)

// Server serves JSON-RPC requests against a node.
type Server struct {
	node    *core.Node
	index   *indexer.Indexer
	hub     *Hub
	cfg     ServerConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	limiter *RateLimiter
	auth    *Authenticator
	methods map[string]handlerFunc

	serverMu   sync.Mutex
	httpServer *http.Server
	stopped    bool
}

// NewServer wires the RPC surface. index and hub may be nil, in which case
// listEscrows and /ws report the feature as unavailable.
func NewServer(node *core.Node, index *indexer.Indexer, hub *Hub, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxRequestBytes
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	s := &Server{
		node:    node,
		index:   index,
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
		tracer:  otel.Tracer("escrow/rpc"),
		limiter: NewRateLimiter(cfg.RateLimit, cfg.Burst),
		auth:    NewAuthenticator(cfg.JWTSecret),
	}
	s.methods = map[string]handlerFunc{
		"sendTransaction":    s.handleSendTransaction,
		"getAccount":         s.handleGetAccount,
		"getAccountProof":    s.handleGetAccountProof,
		"getEscrow":          s.handleGetEscrow,
		"getTransaction":     s.handleGetTransaction,
		"listEscrows":        s.handleListEscrows,
		"getListing":         s.handleGetListing,
		"getMetadataAddress": s.handleGetMetadataAddress,
		"getFeeSchedule":     s.handleGetFeeSchedule,
		"getSlot":            s.handleGetSlot,
		"getMinimumBalance":  s.handleGetMinimumBalance,
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		r.Get("/ws", s.hub.ServeHTTP)
	}
	r.Group(func(gr chi.Router) {
		if s.limiter != nil {
			gr.Use(s.limiter.middleware)
		}
		gr.Use(tracing(s.tracer, s.logger, "rpc"))
		gr.Post("/", s.handle)
	})
	return r
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           otelhttp.NewHandler(s.Handler(), "escrow-rpc"),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
	}
	s.serverMu.Lock()
	if s.stopped {
		s.serverMu.Unlock()
		return ln.Close()
	}
	s.httpServer = srv
	s.serverMu.Unlock()
	s.logger.Info("json-rpc server listening", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe binds addr and serves on it.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Shutdown stops the listener and waits for in-flight requests. A server
// shut down before Serve runs never starts.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	s.stopped = true
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGrace)
		defer cancel()
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	req := new(RPCRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to parse request", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "jsonrpc must be \"2.0\"", nil)
		return
	}

	start := time.Now()
	handler, ok := s.methods[req.Method]
	if !ok {
		observability.ModuleMetrics().Observe(req.Method, codeMethodNotFound, time.Since(start))
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return
	}
	result, rpcErr := handler(r.Context(), r, req.Params)
	if rpcErr != nil {
		observability.ModuleMetrics().Observe(req.Method, rpcErr.Code, time.Since(start))
		s.logger.Debug("rpc call failed",
			slog.String("requestId", RequestID(r.Context())),
			slog.String("method", req.Method),
			slog.Int("code", rpcErr.Code),
			slog.String("error", rpcErr.Message))
		writeError(w, statusForCode(rpcErr.Code), req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	observability.ModuleMetrics().Observe(req.Method, 0, time.Since(start))
	writeResult(w, req.ID, result)
}

func statusForCode(code int) int {
	switch code {
	case codeInvalidParams, codeInvalidRequest, codeParseError, codeTxRejected:
		return http.StatusBadRequest
	case codeUnauthorized:
		return http.StatusUnauthorized
	case codeNotFound:
		return http.StatusNotFound
	case codeDuplicateTx:
		return http.StatusConflict
	case codeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, id, codeServerError, "failed to encode result", err.Error())
		return
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: raw}
	_ = json.NewEncoder(w).Encode(resp)
}
