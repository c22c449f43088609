package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padlink/internal/access"
	"padlink/internal/embedded"
	"padlink/internal/input"
	"padlink/internal/network"
	"padlink/internal/protocol"
)

// recordingPointer is a fake Pointer that logs every call in order. When
// gate is set, MoveTo blocks on it after recording. Events listed in fail
// return that error.
type recordingPointer struct {
	mu     sync.Mutex
	events []string
	gate   chan struct{}
	fail   map[string]error
}

func (p *recordingPointer) record(event string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.fail[event]
}

func (p *recordingPointer) MoveTo(x, y int32) error {
	err := p.record(fmt.Sprintf("move(%d,%d)", x, y))
	if p.gate != nil {
		<-p.gate
	}
	return err
}

func (p *recordingPointer) Press(b protocol.ButtonKind) error {
	return p.record(fmt.Sprintf("press(%s)", b))
}

func (p *recordingPointer) Release(b protocol.ButtonKind) error {
	return p.record(fmt.Sprintf("release(%s)", b))
}

func (p *recordingPointer) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newTestServer(t *testing.T, p input.Pointer, serviceURL string) *Server {
	t.Helper()

	filter, err := access.NewFilter(nil, nil)
	require.NoError(t, err)

	srv, err := NewServer(Options{
		ServiceURL: serviceURL,
		Filter:     filter,
		Dispatcher: input.NewDispatcher(p, nil),
		Assets:     embedded.Handler(""),
	})
	require.NoError(t, err)
	return srv
}

func startServer(t *testing.T, p input.Pointer) (*Server, *httptest.Server) {
	t.Helper()

	srv := newTestServer(t, p, "http://192.168.1.10:3030/")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Sessions().CloseAll()
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *network.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := network.Dial(ctx, strings.TrimPrefix(ts.URL, "http://"))
	require.NoError(t, err)
	return client
}

func waitEvents(t *testing.T, p *recordingPointer, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool { return len(p.Events()) >= n }, 5*time.Second, 10*time.Millisecond)
	return p.Events()
}

// onlySession waits for exactly one registered session and returns it
func onlySession(t *testing.T, srv *Server) *Session {
	t.Helper()
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	srv.Sessions().mu.Lock()
	defer srv.Sessions().mu.Unlock()
	for s := range srv.Sessions().sessions {
		return s
	}
	return nil
}

func TestSessionMoveThenClick(t *testing.T) {
	p := &recordingPointer{}
	_, ts := startServer(t, p)
	client := dial(t, ts)
	defer client.Close()

	require.NoError(t, client.SendRaw([]byte(`{"type":"move","x":100,"y":250}`)))
	require.NoError(t, client.SendRaw([]byte(`{"type":"click","button":"right"}`)))

	assert.Equal(t, []string{"move(100,250)", "press(right)", "release(right)"}, waitEvents(t, p, 3))
}

func TestMalformedFramesDoNotEndSession(t *testing.T) {
	p := &recordingPointer{}
	srv, ts := startServer(t, p)
	client := dial(t, ts)
	defer client.Close()

	for _, frame := range []string{
		`{"type":"scroll"}`,
		`{"type":"move","x":"abc"}`,
		`{"type":"click","button":"Left"}`,
		`not json`,
	} {
		require.NoError(t, client.SendRaw([]byte(frame)))
	}
	require.NoError(t, client.Send(protocol.Move{X: 1, Y: 2}))

	assert.Equal(t, []string{"move(1,2)"}, waitEvents(t, p, 1))
	assert.Equal(t, 1, srv.Sessions().Count())
}

func TestBinaryFramesAreIgnored(t *testing.T) {
	p := &recordingPointer{}
	_, ts := startServer(t, p)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{"type":"move","x":9,"y":9}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move","x":3,"y":4}`)))

	assert.Equal(t, []string{"move(3,4)"}, waitEvents(t, p, 1))
}

func TestFramesDispatchInOrder(t *testing.T) {
	p := &recordingPointer{}
	_, ts := startServer(t, p)
	client := dial(t, ts)
	defer client.Close()

	var want []string
	for i := int32(0); i < 50; i++ {
		require.NoError(t, client.Send(protocol.Move{X: i, Y: -i}))
		want = append(want, fmt.Sprintf("move(%d,%d)", i, -i))
		if i%10 == 0 {
			require.NoError(t, client.Send(protocol.Click{Button: protocol.ButtonMiddle}))
			want = append(want, "press(middle)", "release(middle)")
		}
	}

	assert.Equal(t, want, waitEvents(t, p, len(want)))
}

func TestNextFrameWaitsForDispatch(t *testing.T) {
	p := &recordingPointer{gate: make(chan struct{})}
	_, ts := startServer(t, p)
	client := dial(t, ts)
	defer client.Close()

	require.NoError(t, client.Send(protocol.Move{X: 1, Y: 1}))
	require.NoError(t, client.Send(protocol.Click{Button: protocol.ButtonLeft}))

	waitEvents(t, p, 1)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"move(1,1)"}, p.Events())

	close(p.gate)
	assert.Equal(t, []string{"move(1,1)", "press(left)", "release(left)"}, waitEvents(t, p, 3))
}

func TestSessionLifecycle(t *testing.T) {
	p := &recordingPointer{}
	srv, ts := startServer(t, p)
	client := dial(t, ts)

	sess := onlySession(t, srv)
	require.NotNil(t, sess)
	assert.Equal(t, StateOpen, sess.State())
	assert.NotEmpty(t, sess.ID())

	require.NoError(t, client.Close())

	require.Eventually(t, func() bool {
		return sess.State() == StateClosed && srv.Sessions().Count() == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, p.Events())
}

func TestSessionStatsSeparateFailures(t *testing.T) {
	p := &recordingPointer{fail: map[string]error{"press(left)": errors.New("denied")}}
	srv, ts := startServer(t, p)
	client := dial(t, ts)
	defer client.Close()

	sess := onlySession(t, srv)
	require.NotNil(t, sess)

	require.NoError(t, client.SendRaw([]byte(`{"type":"click","button":"left"}`)))
	require.NoError(t, client.SendRaw([]byte(`{"type":"bogus"}`)))
	require.NoError(t, client.Send(protocol.Move{X: 5, Y: 6}))

	assert.Equal(t, []string{"press(left)", "release(left)", "move(5,6)"}, waitEvents(t, p, 3))
	require.Eventually(t, func() bool { return sess.Stats().Received == 3 && sess.Stats().Dispatched == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, SessionStats{Received: 3, Dropped: 1, Dispatched: 1, Failed: 1}, sess.Stats())
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	p := &recordingPointer{}
	srv, ts := startServer(t, p)
	a := dial(t, ts)
	defer a.Close()
	b := dial(t, ts)

	require.Eventually(t, func() bool { return srv.Sessions().Count() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.SendRaw([]byte(`{"type":"bogus"}`)))
	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Send(protocol.Move{X: 7, Y: 8}))
	assert.Equal(t, []string{"move(7,8)"}, waitEvents(t, p, 1))
}

func TestRejectedPeerIsNeverUpgraded(t *testing.T) {
	p := &recordingPointer{}
	srv := newTestServer(t, p, "")

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Upgrade"))
	assert.Empty(t, rec.Header().Get("Sec-WebSocket-Accept"))
	assert.Equal(t, "Forbidden\n", rec.Body.String())
	assert.Equal(t, 0, srv.Sessions().Count())
	assert.Empty(t, p.Events())
}

func TestRejectedPeerGetsNoOtherRoutes(t *testing.T) {
	srv := newTestServer(t, &recordingPointer{}, "http://192.168.1.10:3030/")

	for _, path := range []string{"/", "/qr", "/health", "/app.js"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "8.8.8.8:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestHealth(t *testing.T) {
	_, ts := startServer(t, &recordingPointer{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.Sessions)
}

func TestQR(t *testing.T) {
	_, ts := startServer(t, &recordingPointer{})

	resp, err := http.Get(ts.URL + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}

func TestQRWithoutServiceURL(t *testing.T) {
	srv := newTestServer(t, &recordingPointer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/qr", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientPage(t *testing.T) {
	_, ts := startServer(t, &recordingPointer{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "<title>padlink</title>")
}

func TestRecoverMiddleware(t *testing.T) {
	srv := newTestServer(t, &recordingPointer{}, "")
	h := srv.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeShutdownClosesSessions(t *testing.T) {
	p := &recordingPointer{}
	srv := newTestServer(t, p, "")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	require.Eventually(t, func() bool { return srv.Sessions().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestNewServerRequiresCollaborators(t *testing.T) {
	filter, err := access.NewFilter(nil, nil)
	require.NoError(t, err)

	_, err = NewServer(Options{Dispatcher: input.NewDispatcher(&recordingPointer{}, nil)})
	assert.Error(t, err)

	_, err = NewServer(Options{Filter: filter})
	assert.Error(t, err)
}
