package eventbus

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// startBroker runs a minimal event service: it answers requests via
// handle, lets the test push events to the client, and can be stopped
// early to simulate a service going away.
func startBroker(t *testing.T, handle func(conn *websocket.Conn, env Envelope)) (ServiceConfig, func(Envelope), func()) {
	t.Helper()

	events := make(chan Envelope, 16)

	// httptest.Server.Close does not close hijacked (websocket)
	// connections, so track them and close them in stop ourselves.
	var connsMu sync.Mutex
	var conns []*websocket.Conn

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connsMu.Lock()
		conns = append(conns, conn)
		connsMu.Unlock()
		defer conn.Close()

		go func() {
			for env := range events {
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			}
		}()

		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			if handle != nil {
				handle(conn, env)
			}
		}
	}))
	stop := func() {
		srv.Close()
		connsMu.Lock()
		defer connsMu.Unlock()
		for _, c := range conns {
			c.Close()
		}
		conns = nil
	}
	t.Cleanup(stop)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := DefaultServiceConfig("test")
	cfg.Host = host
	cfg.Port = port
	cfg.RequestTimeout = time.Second
	return cfg, func(env Envelope) { events <- env }, stop
}

func TestClientSubscribeReceivesEvents(t *testing.T) {
	cfg, push, _ := startBroker(t, nil)
	cfg.Subscriptions = []Subscription{{Path: "/pvt"}}

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	events, cancel := client.Subscribe(cfg.Subscriptions[0], 8)
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()
	require.NoError(t, client.Connect(ctx))

	env, err := NewEnvelope(TypeEvent, "/pvt", map[string]float64{"latitude": 36.97})
	require.NoError(t, err)
	push(env)

	select {
	case event := <-events:
		assert.Equal(t, "/pvt", event.Path)
		var payload struct {
			Latitude float64 `json:"latitude"`
		}
		require.NoError(t, event.Decode(&payload))
		assert.InDelta(t, 36.97, payload.Latitude, 1e-9)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeAnnouncesPath(t *testing.T) {
	announced := make(chan []Subscription, 4)
	cfg, _, _ := startBroker(t, func(conn *websocket.Conn, env Envelope) {
		if env.Type != TypeRequest || env.Path != "/subscribe" {
			return
		}
		var subs []Subscription
		if err := json.Unmarshal(env.Data, &subs); err == nil {
			announced <- subs
		}
	})

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx))

	// A subscription made after connecting reaches the service too.
	_, subCancel := client.Subscribe(Subscription{Path: "/pvt", EveryN: 2}, 4)
	defer subCancel()

	select {
	case subs := <-announced:
		require.Len(t, subs, 1)
		assert.Equal(t, "/pvt", subs[0].Path)
		assert.Equal(t, 2, subs[0].EveryN)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for subscription announcement")
	}
}

func TestClientRequestReply(t *testing.T) {
	cfg, _, _ := startBroker(t, func(conn *websocket.Conn, env Envelope) {
		if env.Type != TypeRequest || env.Path != "/get_state" {
			return
		}
		data, _ := json.Marshal(map[string]string{"state": "RUNNING"})
		conn.WriteJSON(Envelope{
			Type: TypeReply,
			ID:   env.ID,
			Path: env.Path,
			Data: data,
		})
	})

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx))

	reply, err := client.RequestReply(ctx, "/get_state", nil)
	require.NoError(t, err)

	var payload struct {
		State string `json:"state"`
	}
	require.NoError(t, reply.Decode(&payload))
	assert.Equal(t, "RUNNING", payload.State)
}

func TestClientRequestReplyError(t *testing.T) {
	cfg, _, _ := startBroker(t, func(conn *websocket.Conn, env Envelope) {
		if env.Type != TypeRequest || env.Path != "/start" {
			return
		}
		conn.WriteJSON(Envelope{Type: TypeReply, ID: env.ID, Path: env.Path, Error: "service stopped"})
	})

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx))

	_, err = client.RequestReply(ctx, "/start", nil)
	assert.ErrorIs(t, err, ErrReplyFailed)
}

func TestClientRequestTimeout(t *testing.T) {
	cfg, _, _ := startBroker(t, nil) // broker never replies
	cfg.RequestTimeout = 100 * time.Millisecond

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx))

	_, err = client.RequestReply(ctx, "/never", nil)
	assert.ErrorIs(t, err, ErrRequestTimeout)
}

func TestClientNotConnected(t *testing.T) {
	client, err := New(DefaultServiceConfig("idle"), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, client.Publish("/x", nil), ErrNotConnected)
}

func TestConnectWithRetryExhaustsAttempts(t *testing.T) {
	cfg, _, stop := startBroker(t, nil)
	stop() // nothing listening any more

	cfg.ReconnectInterval = 10 * time.Millisecond
	cfg.MaxReconnectAttempts = 2

	client, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = client.ConnectWithRetry(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max reconnect attempts")
	assert.Equal(t, int64(2), client.Stats().ReconnectCount)
}

func TestConnectWithRetryRecovers(t *testing.T) {
	// Reserve a port, release it, and bring the service up on it only
	// after the first connection attempt has failed.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
		}
	})}
	t.Cleanup(func() { srv.Close() })
	go func() {
		time.Sleep(150 * time.Millisecond)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		srv.Serve(ln)
	}()

	cfg := DefaultServiceConfig("late")
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.ReconnectInterval = 50 * time.Millisecond

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.ConnectWithRetry(ctx))
	assert.True(t, client.IsConnected())
	assert.GreaterOrEqual(t, client.Stats().ReconnectCount, int64(1))
}

func TestReconnectStopsAtMaxAttempts(t *testing.T) {
	cfg, _, stop := startBroker(t, nil)
	cfg.ReconnectInterval = 20 * time.Millisecond
	cfg.MaxReconnectAttempts = 2

	client, err := New(cfg, nil)
	require.NoError(t, err)
	defer client.Close()

	events, cancel := client.Subscribe(Subscription{Path: "/x"}, 1)
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()
	require.NoError(t, client.Connect(ctx))

	// Kill the service for good; the background reconnect loop must
	// give up after MaxReconnectAttempts and close the client.
	stop()

	select {
	case _, open := <-events:
		assert.False(t, open, "subscription channel should be closed after giving up")
	case <-time.After(5 * time.Second):
		t.Fatal("client kept retrying past the configured cap")
	}
	assert.LessOrEqual(t, client.Stats().ReconnectCount, int64(2))
	assert.ErrorIs(t, client.Publish("/x", nil), ErrClosed)
}

func TestDispatchEveryN(t *testing.T) {
	client, err := New(DefaultServiceConfig("sub"), nil)
	require.NoError(t, err)

	events, cancel := client.Subscribe(Subscription{Path: "/motor_states", EveryN: 3}, 16)
	defer cancel()

	for i := 0; i < 9; i++ {
		client.dispatch(Envelope{Type: TypeEvent, Path: "/motor_states"})
	}
	assert.Len(t, events, 3)
}

func TestDispatchWildcard(t *testing.T) {
	client, err := New(DefaultServiceConfig("sub"), nil)
	require.NoError(t, err)

	events, cancel := client.Subscribe(Subscription{Path: "*"}, 16)
	defer cancel()

	client.dispatch(Envelope{Type: TypeEvent, Path: "/a"})
	client.dispatch(Envelope{Type: TypeEvent, Path: "/b"})
	assert.Len(t, events, 2)
}

func TestClientCloseClosesSubscriptions(t *testing.T) {
	cfg, _, _ := startBroker(t, nil)

	client, err := New(cfg, nil)
	require.NoError(t, err)

	events, cancel := client.Subscribe(Subscription{Path: "/x"}, 1)
	defer cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()
	require.NoError(t, client.Connect(ctx))
	require.NoError(t, client.Close())

	_, open := <-events
	assert.False(t, open, "subscription channel should be closed")

	assert.ErrorIs(t, client.Publish("/x", nil), ErrClosed)
}
