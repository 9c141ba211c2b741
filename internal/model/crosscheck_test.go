package model_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"

	"github.com/benbeisheim/chess-backend/internal/fen"
	"github.com/benbeisheim/chess-backend/internal/model"
)

// Positions without en passant targets, where the move sets of a full
// rules implementation and this engine with a guarded castling path agree.
var referencePositions = []struct {
	name string
	fen  string
}{
	{"start", fen.StartingFEN},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"},
	{"white in check", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"},
	{"italian", "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 0 1"},
	{"black to move", "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 1"},
	{"promotion", "8/P7/8/8/8/8/7p/k6K w - - 0 1"},
	{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"},
}

func ourMoves(t *testing.T, s string) []string {
	t.Helper()
	pos, err := fen.Decode(s)
	if err != nil {
		t.Fatalf("Decode(%q): %v", s, err)
	}
	rules := model.Rules{GuardCastlingPath: true}
	moves := []string{}
	for _, m := range rules.AllLegalMoves(pos, pos.Turn) {
		moves = append(moves, m.String())
	}
	sort.Strings(moves)
	return moves
}

func referenceMoves(t *testing.T, s string) []string {
	t.Helper()
	opt, err := chess.FEN(s)
	if err != nil {
		t.Fatalf("chess.FEN(%q): %v", s, err)
	}
	game := chess.NewGame(opt)
	seen := map[string]bool{}
	moves := []string{}
	for _, m := range game.ValidMoves() {
		// Collapse the four promotion choices into one square pair.
		token := m.String()[:4]
		if !seen[token] {
			seen[token] = true
			moves = append(moves, token)
		}
	}
	sort.Strings(moves)
	return moves
}

func TestLegalMovesMatchReference(t *testing.T) {
	for _, tc := range referencePositions {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(referenceMoves(t, tc.fen), ourMoves(t, tc.fen)); diff != "" {
				t.Errorf("legal moves mismatch (-reference +ours):\n%s", diff)
			}
		})
	}
}

func TestStatusMatchesReference(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want chess.Method
	}{
		{"fools mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 0 1", chess.Checkmate},
		{"back rank", "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1", chess.NoMethod},
		{"back rank mated", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", chess.Checkmate},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", chess.Stalemate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opt, err := chess.FEN(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			if got := chess.NewGame(opt).Position().Status(); got != tc.want {
				t.Fatalf("reference status = %v, want %v", got, tc.want)
			}

			pos, err := fen.Decode(tc.fen)
			if err != nil {
				t.Fatal(err)
			}
			status := model.Rules{}.Evaluate(pos)
			switch tc.want {
			case chess.Checkmate:
				if !status.IsOver || status.Result.Outcome != model.OutcomeCheckmate || status.Result.Winner != pos.Turn.Opponent() {
					t.Errorf("status = %+v, want checkmate", status)
				}
			case chess.Stalemate:
				if !status.IsOver || status.Result.Outcome != model.OutcomeStalemate {
					t.Errorf("status = %+v, want stalemate", status)
				}
			default:
				if status.IsOver {
					t.Errorf("status = %+v, want game on", status)
				}
			}
		})
	}
}
