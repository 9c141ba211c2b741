package model

import (
	"sort"
	"testing"
)

// setup builds a position from a square -> FEN letter map. Castling flags
// start as all moved unless the caller resets them.
func setup(t *testing.T, turn Color, pieces map[string]string) *Position {
	t.Helper()
	p := EmptyPosition()
	p.Turn = turn
	moved := CastleFlags{KingMoved: true, KingsideRookMoved: true, QueensideRookMoved: true}
	p.Castle = Sides[CastleFlags]{White: moved, Black: moved}
	for sq, letter := range pieces {
		kind, ok := PieceTypeFromLetter(letter[0])
		if !ok {
			t.Fatalf("bad piece letter %q", letter)
		}
		color := Black
		if letter[0] >= 'A' && letter[0] <= 'Z' {
			color = White
		}
		p.Place(MustSquare(sq), &Piece{Type: kind, Color: color})
	}
	return p
}

func squares(names ...string) []Square {
	out := make([]Square, 0, len(names))
	for _, n := range names {
		out = append(out, MustSquare(n))
	}
	return out
}

func names(sqs []Square) []string {
	out := make([]string, 0, len(sqs))
	for _, s := range sqs {
		out = append(out, s.String())
	}
	sort.Strings(out)
	return out
}

func contains(sqs []Square, want Square) bool {
	for _, s := range sqs {
		if s == want {
			return true
		}
	}
	return false
}

func play(t *testing.T, g *Game, tokens ...string) {
	t.Helper()
	for _, tok := range tokens {
		from, to, err := ParseMoveToken(tok)
		if err != nil {
			t.Fatalf("ParseMoveToken(%q): %v", tok, err)
		}
		if _, err := g.Submit(Human, from, to); err != nil {
			t.Fatalf("Submit(%s): %v", tok, err)
		}
	}
}
