// Package server exposes a local read-only status API plus a websocket feed
// of watcher events. It never serves key material; only public wallet state
// crosses this boundary.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"cryptrail/pkg/logger"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/session"
	"cryptrail/pkg/watcher"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	session *session.Session
	watcher *watcher.Watcher
	prices  *prices.Service
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
}

func NewServer(sess *session.Session, w *watcher.Watcher, p *prices.Service) *Server {
	s := &Server{
		session: sess,
		watcher: w,
		prices:  p,
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/activity", s.handleActivity)
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) Start(port int) error {
	go s.listenToWatcher()

	logger.Server.Info().Int("port", port).Msg("status server listening")
	return http.ListenAndServe(fmt.Sprintf("127.0.0.1:%d", port), s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) statusPayload() map[string]interface{} {
	state := s.watcher.State()
	network := s.session.Network()
	payload := map[string]interface{}{
		"address":  s.session.Vault.Address(),
		"network":  network.ID,
		"unlocked": s.session.Vault.Unlocked(),
		"stale":    state.Stale,
		"version":  state.Version,
		"prices":   s.prices.Snapshot(),
		"tracked":  s.session.TrackedTokenIDs(),
	}
	if state.Sheet != nil {
		payload["balances"] = state.Sheet.Amounts()
	}
	if state.GasPrice != nil {
		payload["gasPriceWei"] = state.GasPrice.String()
	}
	return payload
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.statusPayload())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.session.Ledger.Entries())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	// Send initial state
	initial := map[string]interface{}{
		"type": "initial",
		"data": s.statusPayload(),
	}
	_ = conn.WriteJSON(initial)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToWatcher() {
	sub := s.watcher.Subscribe()
	defer s.watcher.Unsubscribe(sub)

	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event watcher.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}
