package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"padlink/internal/protocol"
)

// SessionState is a session's position in its lifecycle. Closed is terminal.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session owns one admitted WebSocket connection
type Session struct {
	id         string
	remote     string
	conn       *websocket.Conn
	dispatcher Dispatcher
	logger     *zap.Logger

	state     atomic.Int32
	closeOnce sync.Once

	received   atomic.Uint64
	dropped    atomic.Uint64
	dispatched atomic.Uint64
	failed     atomic.Uint64
}

// SessionStats counts a session's frames. Every received frame ends up in
// exactly one of Dropped, Dispatched or Failed.
type SessionStats struct {
	Received   uint64
	Dropped    uint64
	Dispatched uint64
	Failed     uint64
}

func newSession(remote string, dispatcher Dispatcher, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:         id,
		remote:     remote,
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("session", id), zap.String("remote", remote)),
	}
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Stats returns a snapshot of the frame counters
func (s *Session) Stats() SessionStats {
	return SessionStats{
		Received:   s.received.Load(),
		Dropped:    s.dropped.Load(),
		Dispatched: s.dispatched.Load(),
		Failed:     s.failed.Load(),
	}
}

// run is the receive loop. Each frame is decoded and dispatched before the
// next one is read, so actions on one session never overlap.
func (s *Session) run() {
	defer s.close()

	s.state.Store(int32(StateOpen))
	s.logger.Info("session opened")

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Warn("read error", zap.Error(err))
			}
			return
		}
		s.received.Add(1)

		if msgType != websocket.TextMessage {
			s.dropped.Add(1)
			s.logger.Debug("ignoring non-text frame", zap.Int("type", msgType))
			continue
		}

		action, err := protocol.Decode(data)
		if err != nil {
			s.dropped.Add(1)
			s.logger.Debug("dropping frame", zap.Error(err), zap.ByteString("frame", truncate(data, 128)))
			continue
		}

		// Injection failures are logged by the dispatcher and never end the session
		if err := s.dispatcher.Dispatch(action); err != nil {
			s.failed.Add(1)
			continue
		}
		s.dispatched.Add(1)
	}
}

// close moves the session to Closed and releases the connection
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		if s.conn != nil {
			s.conn.Close()
		}
		s.logger.Info("session closed",
			zap.Uint64("received", s.received.Load()),
			zap.Uint64("dropped", s.dropped.Load()),
			zap.Uint64("dispatched", s.dispatched.Load()),
			zap.Uint64("failed", s.failed.Load()))
	})
}

// goAway asks the peer to disconnect and closes the transport. The receive
// loop then sees the read error and finishes the session.
func (s *Session) goAway() {
	if s.conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.conn.Close()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// SessionRegistry tracks the open sessions
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func newSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[*Session]struct{})}
}

func (r *SessionRegistry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

func (r *SessionRegistry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

// Count returns the number of registered sessions
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll sends every session a going-away close frame
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.goAway()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := newSession(r.RemoteAddr, s.dispatcher, s.logger.Named("ws"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		sess.state.Store(int32(StateClosed))
		sess.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(s.maxFrameBytes)
	sess.conn = conn

	s.sessions.add(sess)
	defer s.sessions.remove(sess)

	// The net/http connection goroutine is the session's unit of execution
	sess.run()
}
