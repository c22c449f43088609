// Package api serves the pointer relay: the /ws session endpoint, the
// connection QR code and the client page.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"padlink/internal/access"
	"padlink/internal/protocol"
)

const shutdownTimeout = 5 * time.Second

// Dispatcher executes decoded actions. Implementations report their own
// failures; the returned error is informational.
type Dispatcher interface {
	Dispatch(action protocol.Action) error
}

// Options configures a Server
type Options struct {
	// Addr is the listen address for ListenAndServe
	Addr string

	// ServiceURL is the address clients open; it is encoded in /qr
	ServiceURL string

	// MaxFrameBytes caps a single incoming frame
	MaxFrameBytes int64

	Filter     *access.Filter
	Dispatcher Dispatcher

	// Assets serves the client UI at "/"; nil disables it
	Assets http.Handler

	Logger *zap.Logger
}

// Server provides the HTTP and WebSocket surface
type Server struct {
	addr          string
	serviceURL    string
	maxFrameBytes int64
	filter        *access.Filter
	dispatcher    Dispatcher
	assets        http.Handler
	logger        *zap.Logger
	qrPNG         []byte
	sessions      *SessionRegistry
	upgrader      websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(opts Options) (*Server, error) {
	if opts.Filter == nil {
		return nil, errors.New("api: access filter is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("api: dispatcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = 64 * 1024
	}

	s := &Server{
		addr:          opts.Addr,
		serviceURL:    opts.ServiceURL,
		maxFrameBytes: opts.MaxFrameBytes,
		filter:        opts.Filter,
		dispatcher:    opts.Dispatcher,
		assets:        opts.Assets,
		logger:        opts.Logger.Named("api"),
		sessions:      newSessionRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Peers are vetted by address before this point, and the page
			// may be opened through any of the host's LAN names.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	if s.serviceURL != "" {
		png, err := encodeQR(s.serviceURL)
		if err != nil {
			return nil, fmt.Errorf("api: encode QR for %s: %w", s.serviceURL, err)
		}
		s.qrPNG = png
	}

	return s, nil
}

// Sessions returns the registry of open sessions
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// Handler returns the full middleware chain. The access filter runs before
// any route, so rejected peers never reach the WebSocket upgrade.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/qr", s.handleQR)
	mux.HandleFunc("/health", s.handleHealth)
	if s.assets != nil {
		mux.Handle("/", s.assets)
	}

	return s.logMiddleware(s.recoverMiddleware(s.filter.Middleware(mux)))
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then stops the
// HTTP server and closes every open session.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	s.logger.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("url", s.serviceURL))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Hijacked connections are invisible to Shutdown
		s.sessions.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", zap.Any("panic", err), zap.String("path", r.URL.Path))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr))
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	})
}
