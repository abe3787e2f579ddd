package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lox/evodyn/internal/dynamics"
	"github.com/lox/evodyn/internal/simulator"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := New(zerolog.Nop(), quartz.NewReal())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count never reached %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	s, url := testServer(t)
	conn := dial(t, url)
	waitForSubscribers(t, s, 1)

	report := dynamics.TickReport{Tick: 7, TicksPerSecond: 10}
	report.Populations[0] = dynamics.PopulationReport{
		Size:            4,
		Frequencies:     []float64{0.25, 0.75},
		ExpectedPayoffs: []float64{0, 0.5},
	}
	s.Broadcast(report)

	var got dynamics.TickReport
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, uint64(7), got.Tick)
	require.Equal(t, []float64{0.25, 0.75}, got.Populations[0].Frequencies)
}

func TestLateJoinerGetsLatestReport(t *testing.T) {
	s, url := testServer(t)
	s.Broadcast(dynamics.TickReport{Tick: 42})

	conn := dial(t, url)
	var got dynamics.TickReport
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, uint64(42), got.Tick)
}

func TestClosedSubscriberIsDropped(t *testing.T) {
	s, url := testServer(t)
	conn := dial(t, url)
	waitForSubscribers(t, s, 1)

	conn.Close()
	waitForSubscribers(t, s, 0)
}

func TestStreamBroadcastsEveryTick(t *testing.T) {
	s, url := testServer(t)
	conn := dial(t, url)
	waitForSubscribers(t, s, 1)

	payoffs := [][]float64{{0, 0}, {1, -1}}
	cfg := simulator.Config{
		Engine: dynamics.Config{
			Protocol: dynamics.Protocol{
				Candidates:   dynamics.Direct,
				Decision:     dynamics.Best,
				TieBreak:     dynamics.StickMin,
				Matching:     dynamics.Complete,
				TestSetSize:  2,
				Scheduling:   dynamics.Probabilistic,
				RevisionProb: 0.5,
			},
			Populations: [2]dynamics.PopulationSetup{
				{Payoffs: payoffs, InitialCounts: []int{3, 3}},
				{Payoffs: payoffs, InitialCounts: []int{3, 3}},
			},
			Seed: 5,
		},
		Ticks: 4,
	}

	result, err := s.Stream(context.Background(), cfg, 0)
	require.NoError(t, err)
	require.Equal(t, 4, result.Ticks)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for want := uint64(1); want <= 4; want++ {
		var got dynamics.TickReport
		require.NoError(t, conn.ReadJSON(&got))
		require.Equal(t, want, got.Tick)
	}
}
