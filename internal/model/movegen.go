package model

var (
	rookDirs    = []Square{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}
	bishopDirs  = []Square{{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
	knightJumps = []Square{{X: 2, Y: 1}, {X: 2, Y: -1}, {X: -2, Y: 1}, {X: -2, Y: -1}, {X: 1, Y: 2}, {X: 1, Y: -2}, {X: -1, Y: 2}, {X: -1, Y: -2}}
	kingSteps   = []Square{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
)

// Rules holds the switches that change move generation.
type Rules struct {
	// GuardCastlingPath refuses castling when the square the king crosses
	// is attacked. Off by default: without it only the king's landing
	// square is covered, through the ordinary legality filter.
	GuardCastlingPath bool `json:"guardCastlingPath"`
}

// PseudoMoves returns the destinations the piece on sq can reach by
// movement shape alone, including castling for an unmoved king. It does
// not mutate p.
func (r Rules) PseudoMoves(p *Position, sq Square) []Square {
	piece := p.At(sq)
	if piece == nil {
		return nil
	}
	if piece.Type == King {
		return append(p.basicKingMoves(sq, piece.Color), r.castleMoves(p, sq, piece.Color)...)
	}
	return p.pieceMoves(sq, piece)
}

// pieceMoves covers every piece type with the king limited to single steps.
func (p *Position) pieceMoves(sq Square, piece *Piece) []Square {
	switch piece.Type {
	case Pawn:
		return p.pawnMoves(sq, piece.Color)
	case Knight:
		return p.stepMoves(sq, piece.Color, knightJumps)
	case Bishop:
		return p.slideMoves(sq, piece.Color, bishopDirs)
	case Rook:
		return p.slideMoves(sq, piece.Color, rookDirs)
	case Queen:
		return append(p.slideMoves(sq, piece.Color, rookDirs), p.slideMoves(sq, piece.Color, bishopDirs)...)
	case King:
		return p.basicKingMoves(sq, piece.Color)
	}
	return nil
}

func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func (p *Position) pawnMoves(sq Square, c Color) []Square {
	moves := []Square{}
	dir := pawnDirection(c)

	one := Square{X: sq.X, Y: sq.Y + dir}
	if one.InBounds() && p.At(one) == nil {
		moves = append(moves, one)
		two := Square{X: sq.X, Y: sq.Y + 2*dir}
		if sq.Y == pawnStartRow(c) && p.At(two) == nil {
			moves = append(moves, two)
		}
	}
	for _, dx := range []int{-1, 1} {
		target := Square{X: sq.X + dx, Y: sq.Y + dir}
		if victim := p.At(target); victim != nil && victim.Color != c {
			moves = append(moves, target)
		}
	}
	return moves
}

func (p *Position) slideMoves(sq Square, c Color, dirs []Square) []Square {
	moves := []Square{}
	for _, dir := range dirs {
		for target := sq.add(dir); target.InBounds(); target = target.add(dir) {
			occupant := p.At(target)
			if occupant == nil {
				moves = append(moves, target)
				continue
			}
			if occupant.Color != c {
				moves = append(moves, target)
			}
			break
		}
	}
	return moves
}

func (p *Position) stepMoves(sq Square, c Color, offsets []Square) []Square {
	moves := []Square{}
	for _, off := range offsets {
		target := sq.add(off)
		if !target.InBounds() {
			continue
		}
		if occupant := p.At(target); occupant == nil || occupant.Color != c {
			moves = append(moves, target)
		}
	}
	return moves
}

// basicKingMoves never includes castling. Attack detection relies on it
// so that castling eligibility, which asks whether the king is in check,
// cannot recurse back into itself.
func (p *Position) basicKingMoves(sq Square, c Color) []Square {
	return p.stepMoves(sq, c, kingSteps)
}

// castleMoves only looks at the moved flags and the squares between king
// and rook. Whether the rook is still there is not verified.
func (r Rules) castleMoves(p *Position, sq Square, c Color) []Square {
	flags := p.Castle.Get(c)
	row := homeRow(c)
	if flags.KingMoved || sq != (Square{X: 4, Y: row}) || p.IsKingInCheck(c) {
		return nil
	}

	moves := []Square{}
	if !flags.KingsideRookMoved && p.emptyRun(row, 5, 6) {
		if !r.GuardCastlingPath || !p.IsSquareAttacked(Square{X: 5, Y: row}, c.Opponent()) {
			moves = append(moves, Square{X: 6, Y: row})
		}
	}
	if !flags.QueensideRookMoved && p.emptyRun(row, 1, 3) {
		if !r.GuardCastlingPath || !p.IsSquareAttacked(Square{X: 3, Y: row}, c.Opponent()) {
			moves = append(moves, Square{X: 2, Y: row})
		}
	}
	return moves
}

func (p *Position) emptyRun(row, fromX, toX int) bool {
	for x := fromX; x <= toX; x++ {
		if p.Board[row][x] != nil {
			return false
		}
	}
	return true
}
