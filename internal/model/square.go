package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidToken  = errors.New("invalid move token")
)

// Square is a board coordinate. X is the file (0 = a), Y is the row
// counted from the top (0 = rank 8).
type Square struct {
	X int
	Y int
}

func (s Square) InBounds() bool {
	return s.X >= 0 && s.X < 8 && s.Y >= 0 && s.Y < 8
}

func (s Square) add(d Square) Square {
	return Square{X: s.X + d.X, Y: s.Y + d.Y}
}

// Rank returns the chess rank, 1 through 8.
func (s Square) Rank() int {
	return 8 - s.Y
}

func (s Square) String() string {
	if !s.InBounds() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.X, s.Rank())
}

func (s Square) MarshalText() ([]byte, error) {
	if !s.InBounds() {
		return nil, fmt.Errorf("%w: %d,%d", ErrInvalidSquare, s.X, s.Y)
	}
	return []byte(s.String()), nil
}

func (s *Square) UnmarshalText(b []byte) error {
	sq, err := ParseSquare(string(b))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square{X: int(s[0] - 'a'), Y: 8 - int(s[1]-'0')}, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

// ParseMoveToken decodes a square-pair token like "e2e4". Any fifth
// character is ignored; pawns always become queens.
func ParseMoveToken(token string) (from, to Square, err error) {
	if len(token) != 4 && len(token) != 5 {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	if from, err = ParseSquare(token[0:2]); err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	if to, err = ParseSquare(token[2:4]); err != nil {
		return Square{}, Square{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return from, to, nil
}

// MoveToken is the inverse of ParseMoveToken, without a promotion suffix.
func MoveToken(from, to Square) string {
	return from.String() + to.String()
}
