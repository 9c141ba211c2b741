package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbeisheim/chess-backend/internal/analysis"
	"github.com/benbeisheim/chess-backend/internal/ws"
)

func testConfig() ManagerConfig {
	return ManagerConfig{
		Session: SessionConfig{
			TickInterval: 5 * time.Millisecond,
			MoveTimeout:  time.Second,
		},
		MatchmakingInterval: 5 * time.Millisecond,
	}
}

func newTestManager(t *testing.T, cfg ManagerConfig, engine analysis.Suggester) *GameManager {
	t.Helper()
	gm := NewGameManager(cfg, engine, nil)
	t.Cleanup(gm.Close)
	return gm
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// scriptedEngine answers with a fixed list of moves.
type scriptedEngine struct {
	mu    sync.Mutex
	moves []string
	calls int
}

func (e *scriptedEngine) SuggestMove(ctx context.Context, req analysis.Request) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if len(e.moves) == 0 {
		return "", analysis.ErrNoMove
	}
	m := e.moves[0]
	e.moves = e.moves[1:]
	return m, nil
}

func (e *scriptedEngine) Close() error { return nil }

func (e *scriptedEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeConn struct {
	mu     sync.Mutex
	msgs   []ws.Message
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	c.msgs = append(c.msgs, v.(ws.Message))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// States decodes every gameState message received so far.
func (c *fakeConn) States(t *testing.T) []View {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var views []View
	for _, m := range c.msgs {
		if m.Type != ws.MessageTypeGameState {
			continue
		}
		var v View
		if err := json.Unmarshal(m.Payload, &v); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		views = append(views, v)
	}
	return views
}

func (c *fakeConn) Count(kind ws.MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == kind {
			n++
		}
	}
	return n
}
