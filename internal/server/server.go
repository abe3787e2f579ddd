// Package server exposes a running simulation to external visualization
// clients: every tick report is broadcast as JSON over websocket. The
// engine itself knows nothing about this layer.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/evodyn/internal/dynamics"
	"github.com/lox/evodyn/internal/simulator"
)

// subscriber buffer; a client that falls this far behind is dropped rather
// than allowed to stall the broadcast.
const sendBuffer = 64

// Server broadcasts tick reports to websocket subscribers.
type Server struct {
	logger   zerolog.Logger
	clock    quartz.Clock
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	latest *dynamics.TickReport
}

type subscriber struct {
	conn *websocket.Conn
	send chan dynamics.TickReport
}

// New creates a server. The clock is injectable so tests can drive pacing.
func New(logger zerolog.Logger, clock quartz.Clock) *Server {
	return &Server{
		logger: logger,
		clock:  clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Visualization clients connect from wherever local tooling
			// runs; the stream is read-only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Handler returns the HTTP routes: /ws for the tick stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	sub := &subscriber{conn: conn, send: make(chan dynamics.TickReport, sendBuffer)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	latest := s.latest
	s.mu.Unlock()

	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("subscriber connected")

	// Late joiners get the most recent report immediately.
	if latest != nil {
		sub.send <- *latest
	}

	go s.writeLoop(sub)
	s.readLoop(sub)
}

// readLoop discards inbound messages; its job is noticing the close.
func (s *Server) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			s.drop(sub)
			return
		}
	}
}

func (s *Server) writeLoop(sub *subscriber) {
	for report := range sub.send {
		if err := sub.conn.WriteJSON(report); err != nil {
			s.drop(sub)
			return
		}
	}
	sub.conn.Close()
}

func (s *Server) drop(sub *subscriber) {
	s.mu.Lock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.send)
	}
	s.mu.Unlock()
}

// Broadcast fans a report out to every subscriber. Subscribers whose buffer
// is full are dropped.
func (s *Server) Broadcast(report dynamics.TickReport) {
	s.mu.Lock()
	s.latest = &report
	var stalled []*subscriber
	for sub := range s.subs {
		select {
		case sub.send <- report:
		default:
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		delete(s.subs, sub)
		close(sub.send)
	}
	s.mu.Unlock()

	for _, sub := range stalled {
		s.logger.Warn().Str("remote", sub.conn.RemoteAddr().String()).Msg("dropping stalled subscriber")
	}
}

// Subscribers returns the current subscriber count.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Stream runs the simulation and broadcasts every tick, paced so reports
// are at least interval apart. An interval of zero streams as fast as the
// engine runs. Pacing waits on the injected clock.
func (s *Server) Stream(ctx context.Context, cfg simulator.Config, interval time.Duration) (*simulator.Result, error) {
	var ticker *quartz.Ticker
	if interval > 0 {
		ticker = s.clock.NewTicker(interval)
		defer ticker.Stop()
	}
	inner := cfg.OnTick
	cfg.OnTick = func(report dynamics.TickReport) {
		s.Broadcast(report)
		if inner != nil {
			inner(report)
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
			}
		}
	}
	return simulator.New(cfg).Run(ctx)
}
