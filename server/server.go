// Package server exposes a running game over HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/meadow/game"
	"github.com/pthm-cable/meadow/store"
	"github.com/pthm-cable/meadow/telemetry"
)

const (
	writeWait   = 5 * time.Second
	pingPeriod  = 30 * time.Second
	pongWait    = 2 * pingPeriod
	sendBuffer  = 64
	maxReadSize = 64 * 1024
)

type client struct {
	send chan []byte
}

// Server serves the game behind a Runner. Tick and message events are
// broadcast to every websocket subscriber; slow subscribers drop events.
type Server struct {
	runner *game.Runner
	store  *store.Store // optional
	logger *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates a server and subscribes it to g's events. It must be called
// before the runner starts. st may be nil.
func New(g *game.Game, r *game.Runner, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner: r,
		store:  st,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	g.OnTick(func(rep game.TickReport) {
		s.broadcast(Event{Type: "tick", Tick: &rep})
	})
	g.OnMessage(func(msg string) {
		s.broadcast(Event{Type: "message", Message: msg})
	})
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/state", s.handleState)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("GET /v1/runs", s.handleRuns)
	mux.HandleFunc("POST /v1/commands", s.handleCommand)
	mux.HandleFunc("GET /v1/ws", s.handleWS)
	return mux
}

// Subscribers returns the number of connected websocket clients.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to encode event", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func (s *Server) writeRunnerError(rw http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrRunnerStopped) {
		http.Error(rw, "simulation stopped", http.StatusServiceUnavailable)
		return
	}
	http.Error(rw, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleState(rw http.ResponseWriter, r *http.Request) {
	var st State
	if err := s.runner.Do(r.Context(), func(g *game.Game) { st = stateOf(g) }); err != nil {
		s.writeRunnerError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, st)
}

// handleHistory serves the live history, or a stored run with ?run=ID.
func (s *Server) handleHistory(rw http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(rw, "bad since", http.StatusBadRequest)
			return
		}
		since = n
	}

	if v := r.URL.Query().Get("run"); v != "" {
		if s.store == nil {
			http.Error(rw, "no run store", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(rw, "bad run", http.StatusBadRequest)
			return
		}
		samples, err := s.store.Samples(r.Context(), id, since)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(rw, http.StatusOK, nonNil(samples))
		return
	}

	var samples []telemetry.Sample
	if err := s.runner.Do(r.Context(), func(g *game.Game) { samples = g.HistorySince(since) }); err != nil {
		s.writeRunnerError(rw, err)
		return
	}
	writeJSON(rw, http.StatusOK, nonNil(samples))
}

func nonNil(samples []telemetry.Sample) []telemetry.Sample {
	if samples == nil {
		return []telemetry.Sample{}
	}
	return samples
}

func (s *Server) handleRuns(rw http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(rw, "no run store", http.StatusNotFound)
		return
	}
	runs, err := s.store.Runs(r.Context())
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(rw, http.StatusOK, runs)
}

func (s *Server) handleCommand(rw http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxReadSize)).Decode(&cmd); err != nil {
		http.Error(rw, "bad command", http.StatusBadRequest)
		return
	}
	res, err := s.exec(r.Context(), cmd)
	if err != nil {
		s.writeRunnerError(rw, err)
		return
	}
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(rw, status, res)
}

func (s *Server) exec(ctx context.Context, cmd Command) (Result, error) {
	var res Result
	err := s.runner.Do(ctx, func(g *game.Game) { res = apply(g, cmd) })
	return res, err
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{send: make(chan []byte, sendBuffer)}

	// The initial state is queued before registration so it is always the
	// first event a subscriber sees.
	if err := s.runner.Do(r.Context(), func(g *game.Game) {
		st := stateOf(g)
		msg, err := json.Marshal(Event{Type: "state", State: &st})
		if err != nil {
			s.logger.Error("failed to encode state", "error", err)
			return
		}
		c.send <- msg
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
	}); err != nil {
		return
	}
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.writeLoop(ctx, conn, c)

	conn.SetReadLimit(maxReadSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		res, err := s.exec(ctx, cmd)
		if err != nil {
			return
		}
		msg, err := json.Marshal(Event{Type: "result", Result: &res})
		if err != nil {
			return
		}
		select {
		case c.send <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	defer conn.Close()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
