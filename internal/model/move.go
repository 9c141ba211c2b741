package model

import (
	"encoding/json"
	"fmt"
)

// Move is a from/to pair.
type Move struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

func (m Move) String() string {
	return MoveToken(m.From, m.To)
}

type CastleRookMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

// Ply describes one applied move.
type Ply struct {
	Piece          Piece           `json:"piece"`
	From           Square          `json:"from"`
	To             Square          `json:"to"`
	CapturedPiece  *Piece          `json:"capturedPiece"`
	CastleRookMove *CastleRookMove `json:"castleRookMove"`
	Promotion      bool            `json:"promotion"`
	Notation       string          `json:"notation"`
}

// Event is the presentation cue for the last state change.
type Event string

const (
	EventNone      Event = ""
	EventMove      Event = "move"
	EventCapture   Event = "capture"
	EventCheck     Event = "check"
	EventCheckmate Event = "checkmate"
	EventStalemate Event = "stalemate"
	EventTimeout   Event = "timeout"
	EventResign    Event = "resign"
)

type Outcome string

const (
	OutcomeCheckmate   Outcome = "checkmate"
	OutcomeStalemate   Outcome = "stalemate"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeResignation Outcome = "resignation"
)

// Result is set once the game is over. Winner is empty for a draw.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Winner  Color   `json:"winner,omitempty"`
}

func (r Result) IsDraw() bool {
	return r.Winner == ""
}

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeCheckmate:
		return fmt.Sprintf("Checkmate! %s wins", r.Winner.Title())
	case OutcomeTimeout:
		return fmt.Sprintf("%s wins on time", r.Winner.Title())
	case OutcomeResignation:
		return fmt.Sprintf("%s resigns. %s wins", r.Winner.Opponent().Title(), r.Winner.Title())
	default:
		return "Stalemate - draw"
	}
}

// MarshalJSON adds the human readable message next to the fields.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		Message string `json:"message"`
	}{plain(r), r.String()})
}

// Apply performs from->to on the board without checking legality: capture,
// castling rook hop, king cache, castle flags, promotion, move log, turn.
// It does not evaluate status; see Evaluate.
func (p *Position) Apply(from, to Square) (Ply, error) {
	piece := p.At(from)
	if piece == nil {
		return Ply{}, fmt.Errorf("%w: %s", ErrNoPiece, from)
	}
	if !to.InBounds() {
		return Ply{}, fmt.Errorf("%w: %d,%d", ErrInvalidSquare, to.X, to.Y)
	}

	ply := Ply{Piece: *piece, From: from, To: to}
	if captured := p.At(to); captured != nil {
		p.Captured.Set(captured.Color, append(p.Captured.Get(captured.Color), *captured))
		c := *captured
		ply.CapturedPiece = &c
	}
	p.set(to, piece)
	p.set(from, nil)

	castling := piece.Type == King && abs(to.X-from.X) == 2
	if castling {
		rook := CastleRookMove{From: Square{X: 7, Y: from.Y}, To: Square{X: to.X - 1, Y: from.Y}}
		if to.X < from.X {
			rook = CastleRookMove{From: Square{X: 0, Y: from.Y}, To: Square{X: to.X + 1, Y: from.Y}}
		}
		p.set(rook.To, p.At(rook.From))
		p.set(rook.From, nil)
		ply.CastleRookMove = &rook
	}

	flags := p.Castle.Ptr(piece.Color)
	switch piece.Type {
	case King:
		p.Kings.Set(piece.Color, to)
		flags.KingMoved = true
		if castling {
			if to.X > from.X {
				flags.KingsideRookMoved = true
			} else {
				flags.QueensideRookMoved = true
			}
		}
	case Rook:
		if from.X == 0 {
			flags.QueensideRookMoved = true
		} else if from.X == 7 {
			flags.KingsideRookMoved = true
		}
	case Pawn:
		if to.Y == homeRow(piece.Color.Opponent()) {
			p.set(to, &Piece{Type: Queen, Color: piece.Color})
			ply.Promotion = true
		}
	}

	ply.Notation = notation(ply, castling)
	p.MoveLog = append(p.MoveLog, ply.Notation)
	p.Turn = p.Turn.Opponent()
	return ply, nil
}

func notation(ply Ply, castling bool) string {
	if castling {
		if ply.To.X > ply.From.X {
			return "0-0 (King-side)"
		}
		return "0-0-0 (Queen-side)"
	}
	s := fmt.Sprintf("%s %s → %s", ply.Piece.Symbol(), ply.From, ply.To)
	if ply.Promotion {
		s += "=" + Piece{Type: Queen, Color: ply.Piece.Color}.Symbol()
	}
	return s
}

// Evaluate recomputes Status for the side to move: check flag, then
// checkmate or stalemate when that side has no legal move.
func (r Rules) Evaluate(p *Position) Status {
	side := p.Turn
	p.Status.InCheck.Set(side, p.IsKingInCheck(side))
	p.Status.InCheck.Set(side.Opponent(), p.IsKingInCheck(side.Opponent()))
	if !r.HasLegalMoves(p, side) {
		p.Status.IsOver = true
		if p.Status.InCheck.Get(side) {
			p.Status.Result = &Result{Outcome: OutcomeCheckmate, Winner: side.Opponent()}
		} else {
			p.Status.Result = &Result{Outcome: OutcomeStalemate}
		}
	}
	return p.Status
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
