package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in   string
		want Square
		err  bool
	}{
		{in: "a8", want: Square{X: 0, Y: 0}},
		{in: "h1", want: Square{X: 7, Y: 7}},
		{in: "e4", want: Square{X: 4, Y: 4}},
		{in: "i1", err: true},
		{in: "a9", err: true},
		{in: "a0", err: true},
		{in: "E4", err: true},
		{in: "e", err: true},
	}
	for _, tc := range tests {
		got, err := ParseSquare(tc.in)
		if tc.err {
			if !errors.Is(err, ErrInvalidSquare) {
				t.Errorf("ParseSquare(%q) err = %v, want ErrInvalidSquare", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseSquare(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if got.String() != tc.in {
			t.Errorf("String() = %q, want %q", got.String(), tc.in)
		}
	}
}

func TestParseMoveToken(t *testing.T) {
	from, to, err := ParseMoveToken("e2e4")
	if err != nil || from != MustSquare("e2") || to != MustSquare("e4") {
		t.Errorf("e2e4 = %v %v %v", from, to, err)
	}
	for _, tok := range []string{"a7a8q", "a7a8n", "a7a8x", "a7a8?"} {
		from, to, err := ParseMoveToken(tok)
		if err != nil || from != MustSquare("a7") || to != MustSquare("a8") {
			t.Errorf("ParseMoveToken(%q) = %v %v %v", tok, from, to, err)
		}
	}
	for _, bad := range []string{"", "e2e", "e2e4qq", "e9e4", "e2-4"} {
		if _, _, err := ParseMoveToken(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseMoveToken(%q) err = %v, want ErrInvalidToken", bad, err)
		}
	}
	if got := MoveToken(MustSquare("g1"), MustSquare("f3")); got != "g1f3" {
		t.Errorf("MoveToken = %q", got)
	}
}

func TestSquareJSON(t *testing.T) {
	b, err := json.Marshal(Move{From: MustSquare("b1"), To: MustSquare("c3")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"from":"b1","to":"c3"}` {
		t.Errorf("json = %s", b)
	}

	var m Move
	if err := json.Unmarshal([]byte(`{"from":"h7","to":"h8"}`), &m); err != nil {
		t.Fatal(err)
	}
	if m.String() != "h7h8" {
		t.Errorf("decoded = %s", m)
	}
	if err := json.Unmarshal([]byte(`{"from":"z1","to":"h8"}`), &m); !errors.Is(err, ErrInvalidSquare) {
		t.Errorf("bad square err = %v", err)
	}
}

func TestColor(t *testing.T) {
	if White.Opponent() != Black || Black.Opponent() != White {
		t.Errorf("Opponent broken")
	}
	if Color("red").Valid() {
		t.Errorf("red should not be a valid color")
	}
}
