package model

// IsSquareAttacked reports whether any piece of color by could move to sq.
// It scans outward from sq rather than generating every enemy move. For a
// square holding a piece of by's opponent the answer is the same as asking
// whether sq is among by's pseudo moves with the king limited to single
// steps. For an empty square, pawns count by their capture diagonals.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	if p.rayHits(sq, by, rookDirs, Rook) || p.rayHits(sq, by, bishopDirs, Bishop) {
		return true
	}
	if p.stepHits(sq, by, knightJumps, Knight) || p.stepHits(sq, by, kingSteps, King) {
		return true
	}
	row := sq.Y - pawnDirection(by)
	for _, dx := range []int{-1, 1} {
		if piece := p.At(Square{X: sq.X + dx, Y: row}); piece != nil && piece.Color == by && piece.Type == Pawn {
			return true
		}
	}
	return false
}

// rayHits walks each direction until the first occupied square and checks
// whether that piece is a by-colored slider of kind or a queen.
func (p *Position) rayHits(sq Square, by Color, dirs []Square, kind PieceType) bool {
	for _, dir := range dirs {
		for target := sq.add(dir); target.InBounds(); target = target.add(dir) {
			piece := p.At(target)
			if piece == nil {
				continue
			}
			if piece.Color == by && (piece.Type == kind || piece.Type == Queen) {
				return true
			}
			break
		}
	}
	return false
}

func (p *Position) stepHits(sq Square, by Color, offsets []Square, kind PieceType) bool {
	for _, off := range offsets {
		if piece := p.At(sq.add(off)); piece != nil && piece.Color == by && piece.Type == kind {
			return true
		}
	}
	return false
}

func (p *Position) IsKingInCheck(c Color) bool {
	return p.IsSquareAttacked(p.Kings.Get(c), c.Opponent())
}

// WouldExposeOwnKing plays from->to on the board, asks whether c's king is
// attacked, and puts everything back. The revert runs in a defer so the
// board and king cache are restored on every exit path.
func (p *Position) WouldExposeOwnKing(from, to Square, c Color) bool {
	moving := p.At(from)
	captured := p.At(to)
	king := p.Kings.Get(c)
	defer func() {
		p.set(from, moving)
		p.set(to, captured)
		p.Kings.Set(c, king)
	}()

	p.set(to, moving)
	p.set(from, nil)
	if moving != nil && moving.Type == King {
		p.Kings.Set(c, to)
	}
	return p.IsKingInCheck(c)
}

// LegalMoves is PseudoMoves minus every destination that leaves the
// mover's king attacked.
func (r Rules) LegalMoves(p *Position, sq Square) []Square {
	piece := p.At(sq)
	if piece == nil {
		return nil
	}
	legal := []Square{}
	for _, to := range r.PseudoMoves(p, sq) {
		if !p.WouldExposeOwnKing(sq, to, piece.Color) {
			legal = append(legal, to)
		}
	}
	return legal
}

// IsLegal reports whether from->to is among LegalMoves(from).
func (r Rules) IsLegal(p *Position, from, to Square) bool {
	for _, m := range r.LegalMoves(p, from) {
		if m == to {
			return true
		}
	}
	return false
}

// AllLegalMoves lists every legal move for c, scanning the board from a8.
func (r Rules) AllLegalMoves(p *Position, c Color) []Move {
	moves := []Move{}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sq := Square{X: x, Y: y}
			if piece := p.At(sq); piece != nil && piece.Color == c {
				for _, to := range r.LegalMoves(p, sq) {
					moves = append(moves, Move{From: sq, To: to})
				}
			}
		}
	}
	return moves
}

// HasLegalMoves stops at the first legal move found.
func (r Rules) HasLegalMoves(p *Position, c Color) bool {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sq := Square{X: x, Y: y}
			if piece := p.At(sq); piece != nil && piece.Color == c && len(r.LegalMoves(p, sq)) > 0 {
				return true
			}
		}
	}
	return false
}
