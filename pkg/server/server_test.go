package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/session"
	"cryptrail/pkg/storage"
	"cryptrail/pkg/watcher"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	sess, err := session.Open(storage.NewMemStore(), authgate.NoopAuthenticator{}, time.Minute)
	require.NoError(t, err)
	w := watcher.New(sess, &watcher.RealDataSource{}, time.Minute, time.Minute)
	return NewServer(sess, w, prices.NewService())
}

func TestHandleStatus(t *testing.T) {
	s := testServer(t)

	req, _ := http.NewRequest("GET", "/api/status", nil)
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Contains(t, resp, "address")
	assert.Contains(t, resp, "network")
	assert.Contains(t, resp, "prices")
	assert.Contains(t, resp, "tracked")
	assert.Equal(t, false, resp["unlocked"])
	// No key material in the payload.
	assert.NotContains(t, strings.ToLower(rr.Body.String()), "secret")
	assert.NotContains(t, strings.ToLower(rr.Body.String()), "passcode")
}

func TestHandleActivity(t *testing.T) {
	s := testServer(t)

	req, _ := http.NewRequest("GET", "/api/activity", nil)
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var entries []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestHandleWS(t *testing.T) {
	s := testServer(t)
	server := httptest.NewServer(s.mux)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	assert.NoError(t, err)
	defer func() { _ = ws.Close() }()

	// Read initial state
	var msg map[string]interface{}
	err = ws.ReadJSON(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "initial", msg["type"])
}
