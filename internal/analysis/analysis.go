// Package analysis asks move-suggesting engines for a reply to a position.
// Positions go in as FEN and moves come back as square-pair tokens such as
// "e7e5" or "a2a1q".
package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrNoMove            = errors.New("engine returned no move")
	ErrEngineUnavailable = errors.New("engine unavailable")
)

const (
	MinDifficulty     = 1
	MaxDifficulty     = 10
	DefaultDifficulty = 5
)

// Request is one position to answer.
type Request struct {
	FEN        string
	Difficulty int
}

// Suggester picks a move for the side to move in req.FEN.
type Suggester interface {
	SuggestMove(ctx context.Context, req Request) (string, error)
	Close() error
}

// ClampDifficulty maps any value into MinDifficulty..MaxDifficulty, with
// zero meaning DefaultDifficulty.
func ClampDifficulty(d int) int {
	switch {
	case d == 0:
		return DefaultDifficulty
	case d < MinDifficulty:
		return MinDifficulty
	case d > MaxDifficulty:
		return MaxDifficulty
	}
	return d
}

// Fallback asks Primary first and Secondary when Primary fails.
type Fallback struct {
	Primary   Suggester
	Secondary Suggester
	Logger    *zap.Logger
}

func (f *Fallback) SuggestMove(ctx context.Context, req Request) (string, error) {
	move, err := f.Primary.SuggestMove(ctx, req)
	if err == nil {
		return move, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if f.Logger != nil {
		f.Logger.Warn("primary engine failed, using fallback", zap.Error(err), zap.String("fen", req.FEN))
	}
	move, ferr := f.Secondary.SuggestMove(ctx, req)
	if ferr != nil {
		return "", fmt.Errorf("%w: %v; fallback: %v", ErrEngineUnavailable, err, ferr)
	}
	return move, nil
}

func (f *Fallback) Close() error {
	return errors.Join(f.Primary.Close(), f.Secondary.Close())
}
