package observer

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelstream.ai/internal/sim/world"
)

func newHub() *Hub { return NewHub(24, 24, log.New(io.Discard, "", 0)) }

func TestTickStream(t *testing.T) {
	h := newHub()
	srv := httptest.NewServer(h.Mux())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ticks"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Publish(world.TickStats{Tick: 7, Loads: 3, Origin: [2]int{-12, 4}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg TickMsg
	require.NoError(t, json.Unmarshal(b, &msg))
	assert.Equal(t, "TICK", msg.Type)
	assert.Equal(t, Version, msg.ProtocolVersion)
	assert.EqualValues(t, 7, msg.Tick)
	assert.Equal(t, 3, msg.Loads)
	assert.Equal(t, [2]int{-12, 4}, msg.Origin)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBootstrap(t *testing.T) {
	h := newHub()
	srv := httptest.NewServer(h.Mux())
	defer srv.Close()

	get := func() BootstrapResponse {
		resp, err := http.Get(srv.URL + "/v1/bootstrap")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out BootstrapResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	first := get()
	assert.Equal(t, [3]int{16, 256, 16}, first.ChunkSize)
	assert.Equal(t, [2]int{24, 24}, first.Window)
	assert.Nil(t, first.Last)

	h.Publish(world.TickStats{Tick: 42})
	second := get()
	require.NotNil(t, second.Last)
	assert.EqualValues(t, 42, second.Last.Tick)
}

func TestRejectsRemoteClients(t *testing.T) {
	h := newHub()
	for _, path := range []string{"/v1/ticks", "/v1/bootstrap"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.1.2.3:5555"
		rec := httptest.NewRecorder()
		h.Mux().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestBootstrapMethod(t *testing.T) {
	h := newHub()
	req := httptest.NewRequest(http.MethodPost, "/v1/bootstrap", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSlowClientDrops(t *testing.T) {
	h := newHub()
	id, ch := h.subscribe()
	for i := 0; i < clientQueue+5; i++ {
		h.Publish(world.TickStats{Tick: uint64(i)})
	}
	assert.Len(t, ch, clientQueue)
	assert.EqualValues(t, 5, h.Dropped())
	h.unsubscribe(id)
	assert.Zero(t, h.Clients())
}

func TestLoopbackDetection(t *testing.T) {
	assert.True(t, isLoopbackRemote("127.0.0.1:80"))
	assert.True(t, isLoopbackRemote("[::1]:80"))
	assert.False(t, isLoopbackRemote("192.168.0.2:80"))
	assert.False(t, isLoopbackRemote("garbage"))
}
