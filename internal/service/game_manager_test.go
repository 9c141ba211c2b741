package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benbeisheim/chess-backend/internal/fen"
	"github.com/benbeisheim/chess-backend/internal/model"
)

func TestCreateGameValidation(t *testing.T) {
	gm := newTestManager(t, testConfig(), &scriptedEngine{})
	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"unknown mode", CreateRequest{Mode: "blitz"}, ErrInvalidOptions},
		{"unknown color", CreateRequest{Color: "green"}, ErrInvalidOptions},
		{"difficulty too high", CreateRequest{Mode: model.ModeAI, Difficulty: 11}, ErrInvalidOptions},
		{"difficulty negative", CreateRequest{Mode: model.ModeAI, Difficulty: -1}, ErrInvalidOptions},
		{"bad fen", CreateRequest{FEN: "not a fen"}, fen.ErrInvalidFEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := gm.CreateGame("alice", tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if n := gm.GameCount(); n != 0 {
		t.Errorf("%d games created by rejected requests", n)
	}
}

func TestCreateGameDefaults(t *testing.T) {
	gm := newTestManager(t, testConfig(), &scriptedEngine{})
	s, color, err := gm.CreateGame("alice", CreateRequest{Mode: model.ModeAI})
	if err != nil {
		t.Fatal(err)
	}
	view := s.State()
	if color != model.White || view.Mode != model.ModeAI {
		t.Errorf("color = %s, mode = %s", color, view.Mode)
	}
	if view.Difficulty != 5 {
		t.Errorf("difficulty = %d, want default 5", view.Difficulty)
	}
	if view.Seats.White != model.Human || view.Seats.Black != model.Engine {
		t.Errorf("seats = %+v", view.Seats)
	}

	got, err := gm.GetGame(s.ID)
	if err != nil || got != s {
		t.Errorf("GetGame = %v, %v", got, err)
	}
	if _, err := gm.GetGame("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGame(missing) err = %v", err)
	}
}

func TestMatchmakingPairsOldestFirst(t *testing.T) {
	gm := newTestManager(t, testConfig(), nil)
	alice, bob := make(chan string, 1), make(chan string, 1)
	gm.RegisterMatchmakingChannel("alice", alice)
	gm.RegisterMatchmakingChannel("bob", bob)

	if err := gm.JoinMatchmaking("alice"); err != nil {
		t.Fatal(err)
	}
	if err := gm.JoinMatchmaking("alice"); !errors.Is(err, model.ErrAlreadyQueued) {
		t.Errorf("double join err = %v", err)
	}
	if err := gm.JoinMatchmaking("bob"); err != nil {
		t.Fatal(err)
	}

	a, b := receiveMatch(t, alice), receiveMatch(t, bob)
	if a.GameID == "" || a.GameID != b.GameID {
		t.Fatalf("game ids %q and %q", a.GameID, b.GameID)
	}
	if a.Color != model.White || b.Color != model.Black {
		t.Errorf("colors = %s/%s, want white/black", a.Color, b.Color)
	}
	if _, ok := <-alice; ok {
		t.Error("channel left open after the match")
	}

	s, err := gm.GetGame(a.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if !s.State().Started {
		t.Error("matched game waiting for players")
	}
	if _, err := s.MoveToken("bob", "e7e5"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("black first err = %v", err)
	}
	if _, err := s.MoveToken("alice", "e2e4"); err != nil {
		t.Errorf("white first: %v", err)
	}
}

func TestMatchmakingLeave(t *testing.T) {
	gm := newTestManager(t, testConfig(), nil)
	ch := make(chan string, 1)
	gm.RegisterMatchmakingChannel("alice", ch)
	if err := gm.JoinMatchmaking("alice"); err != nil {
		t.Fatal(err)
	}
	gm.UnregisterMatchmakingChannel("alice", ch)
	if gm.LeaveMatchmaking("alice") {
		t.Error("player still queued after unregistering")
	}
	if err := gm.JoinMatchmaking("bob"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if n := gm.GameCount(); n != 0 {
		t.Errorf("%d games created for a lone player", n)
	}
}

func TestRegisterMatchmakingChannelReplaces(t *testing.T) {
	gm := newTestManager(t, testConfig(), nil)
	first, second := make(chan string, 1), make(chan string, 1)
	gm.RegisterMatchmakingChannel("alice", first)
	gm.RegisterMatchmakingChannel("alice", second)
	if _, ok := <-first; ok {
		t.Error("replaced channel still open")
	}

	// Unregistering the stale channel leaves the current one alone.
	gm.UnregisterMatchmakingChannel("alice", first)
	if err := gm.JoinMatchmaking("alice"); err != nil {
		t.Fatal(err)
	}
	if err := gm.JoinMatchmaking("bob"); err != nil {
		t.Fatal(err)
	}
	if ev := receiveMatch(t, second); ev.Color != model.White {
		t.Errorf("color = %s", ev.Color)
	}
}

func receiveMatch(t *testing.T, ch chan string) model.MatchFoundEvent {
	t.Helper()
	select {
	case raw, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without an event")
		}
		var ev model.MatchFoundEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no match event")
	}
	return model.MatchFoundEvent{}
}

func TestReapFinishedGames(t *testing.T) {
	cfg := testConfig()
	cfg.FinishedTTL = time.Hour
	gm := newTestManager(t, cfg, nil)

	running, _, err := gm.CreateGame("alice", CreateRequest{})
	if err != nil {
		t.Fatal(err)
	}
	watched, _, err := gm.CreateGame("bob", CreateRequest{})
	if err != nil {
		t.Fatal(err)
	}
	abandoned, _, err := gm.CreateGame("carol", CreateRequest{})
	if err != nil {
		t.Fatal(err)
	}
	conn := &fakeConn{}
	watched.Connect("bob", conn)
	if _, err := watched.Resign("bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := abandoned.Resign("carol"); err != nil {
		t.Fatal(err)
	}

	if n := gm.reapFinished(time.Now()); n != 0 {
		t.Errorf("reaped %d games before the ttl", n)
	}
	if n := gm.reapFinished(time.Now().Add(2 * time.Hour)); n != 1 {
		t.Fatalf("reaped %d games, want 1", n)
	}
	if _, err := gm.GetGame(abandoned.ID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("abandoned game still present: %v", err)
	}
	for _, s := range []*Session{running, watched} {
		if _, err := gm.GetGame(s.ID); err != nil {
			t.Errorf("game %s removed: %v", s.ID, err)
		}
	}

	watched.Disconnect("bob", conn)
	if n := gm.reapFinished(time.Now().Add(2 * time.Hour)); n != 1 || gm.GameCount() != 1 {
		t.Errorf("reaped %d, %d games left", n, gm.GameCount())
	}
}

func TestFinishedGamesReapedOnTicker(t *testing.T) {
	cfg := testConfig()
	cfg.FinishedTTL = time.Nanosecond
	gm := newTestManager(t, cfg, nil)
	s, _, err := gm.CreateGame("alice", CreateRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resign("alice"); err != nil {
		t.Fatal(err)
	}
	eventually(t, "finished game to be removed", func() bool { return gm.GameCount() == 0 })
}
