package analysis

import (
	"context"
	"math/rand"
	"sync"

	"github.com/dylhunn/dragontoothmg"
)

var pieceValue = map[dragontoothmg.Piece]int{
	dragontoothmg.Pawn:   1,
	dragontoothmg.Knight: 3,
	dragontoothmg.Bishop: 3,
	dragontoothmg.Rook:   5,
	dragontoothmg.Queen:  9,
	dragontoothmg.King:   100,
}

// Greedy looks one ply ahead: promotions first, then the most valuable
// capture, then checks. Below MaxDifficulty it sometimes plays a random
// legal move instead, more often the lower the difficulty.
type Greedy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGreedy seeds the random choice with seed.
func NewGreedy(seed int64) *Greedy {
	return &Greedy{rng: rand.New(rand.NewSource(seed))}
}

func (g *Greedy) SuggestMove(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	board := dragontoothmg.ParseFen(req.FEN)
	moves := board.GenerateLegalMoves()
	if len(moves) == 0 {
		return "", ErrNoMove
	}

	difficulty := ClampDifficulty(req.Difficulty)
	g.mu.Lock()
	random := g.rng.Intn(MaxDifficulty) >= difficulty
	pick := g.rng.Intn(len(moves))
	g.mu.Unlock()
	if random {
		return moves[pick].String(), nil
	}

	best, bestScore := moves[0], -1
	for _, m := range moves {
		if s := score(&board, m); s > bestScore {
			best, bestScore = m, s
		}
	}
	return best.String(), nil
}

func score(b *dragontoothmg.Board, m dragontoothmg.Move) int {
	s := 0
	if p := m.Promote(); p != 0 {
		s += 1000 + pieceValue[p]
	}
	if dragontoothmg.IsCapture(m, b) {
		s += 100 + 10*victimValue(b, m.To())
	}
	unapply := b.Apply(m)
	if b.OurKingInCheck() {
		s += 50
	}
	unapply()
	return s
}

func victimValue(b *dragontoothmg.Board, sq uint8) int {
	them := &b.Black
	if !b.Wtomove {
		them = &b.White
	}
	bit := uint64(1) << sq
	switch {
	case them.Queens&bit != 0:
		return pieceValue[dragontoothmg.Queen]
	case them.Rooks&bit != 0:
		return pieceValue[dragontoothmg.Rook]
	case them.Bishops&bit != 0:
		return pieceValue[dragontoothmg.Bishop]
	case them.Knights&bit != 0:
		return pieceValue[dragontoothmg.Knight]
	}
	return pieceValue[dragontoothmg.Pawn]
}

func (g *Greedy) Close() error {
	return nil
}
