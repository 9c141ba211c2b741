// Package fen converts positions to and from Forsyth-Edwards Notation.
//
// The rules engine keeps no en passant square and no move counters, so
// Encode always writes "-" and "0 1" for those fields and Decode reads them
// only to validate their shape.
package fen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/benbeisheim/chess-backend/internal/model"
)

// Standard starting position FEN.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN            = errors.New("invalid FEN string")
	ErrInvalidPiecePlacement = errors.New("invalid piece placement")
	ErrInvalidSideToMove     = errors.New("invalid side to move")
	ErrInvalidCastling       = errors.New("invalid castling rights")
	ErrInvalidEnPassant      = errors.New("invalid en passant square")
	ErrInvalidCounter        = errors.New("invalid move counter")
	ErrKingCount             = errors.New("each side needs exactly one king")
)

// Encode writes board, side to move and castling rights. Castling letters
// come straight from the moved flags.
func Encode(pos *model.Position) string {
	return encode(pos, false)
}

// EncodeStrict is Encode, except a castling letter is only written when the
// king and that rook still stand on their home squares. Engines given this
// string never see a right the board cannot back.
func EncodeStrict(pos *model.Position) string {
	return encode(pos, true)
}

func encode(pos *model.Position, strict bool) string {
	var sb strings.Builder

	for y := 0; y < 8; y++ {
		empty := 0
		for x := 0; x < 8; x++ {
			piece := pos.Board[y][x]
			if piece == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte('0' + byte(empty))
				empty = 0
			}
			sb.WriteByte(piece.Letter())
		}
		if empty > 0 {
			sb.WriteByte('0' + byte(empty))
		}
		if y < 7 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if pos.Turn == model.White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(castling(pos, strict))

	sb.WriteString(" - 0 1")
	return sb.String()
}

func castling(pos *model.Position, strict bool) string {
	var sb strings.Builder
	for _, c := range []model.Color{model.White, model.Black} {
		flags := pos.Castle.Get(c)
		if flags.KingMoved {
			continue
		}
		row := 0
		if c == model.White {
			row = 7
		}
		if strict && !has(pos, 4, row, model.King, c) {
			continue
		}
		king, queen := byte('K'), byte('Q')
		if c == model.Black {
			king, queen = 'k', 'q'
		}
		if !flags.KingsideRookMoved && (!strict || has(pos, 7, row, model.Rook, c)) {
			sb.WriteByte(king)
		}
		if !flags.QueensideRookMoved && (!strict || has(pos, 0, row, model.Rook, c)) {
			sb.WriteByte(queen)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func has(pos *model.Position, x, y int, t model.PieceType, c model.Color) bool {
	piece := pos.Board[y][x]
	return piece != nil && piece.Type == t && piece.Color == c
}

// Decode parses a FEN string into a fresh Position with status not yet
// evaluated. A side without castling letters is treated as having moved
// its king.
func Decode(s string) (*model.Position, error) {
	fields := strings.Fields(s)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}

	pos := model.EmptyPosition()
	if err := parsePiecePlacement(fields[0], pos); err != nil {
		return nil, err
	}

	switch fields[1] {
	case "w":
		pos.Turn = model.White
	case "b":
		pos.Turn = model.Black
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSideToMove, fields[1])
	}

	if err := parseCastling(fields[2], pos); err != nil {
		return nil, err
	}

	if fields[3] != "-" {
		if _, err := model.ParseSquare(fields[3]); err != nil {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidEnPassant, fields[3])
		}
	}

	for i, least := range []int{0, 1} {
		if len(fields) <= 4+i {
			break
		}
		if n, err := strconv.Atoi(fields[4+i]); err != nil || n < least {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidCounter, fields[4+i])
		}
	}

	return pos, nil
}

func parsePiecePlacement(s string, pos *model.Position) error {
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidPiecePlacement, len(ranks))
	}

	kings := map[model.Color]int{}
	for y, rank := range ranks {
		x := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			if c >= '1' && c <= '8' {
				x += int(c - '0')
				continue
			}
			kind, ok := model.PieceTypeFromLetter(c)
			if !ok {
				return fmt.Errorf("%w: unknown piece %q", ErrInvalidPiecePlacement, string(c))
			}
			if x >= 8 {
				return fmt.Errorf("%w: too many pieces on rank %d", ErrInvalidPiecePlacement, 8-y)
			}
			color := model.Black
			if c >= 'A' && c <= 'Z' {
				color = model.White
			}
			pos.Place(model.Square{X: x, Y: y}, &model.Piece{Type: kind, Color: color})
			if kind == model.King {
				kings[color]++
			}
			x++
		}
		if x != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidPiecePlacement, 8-y, x)
		}
	}

	if kings[model.White] != 1 || kings[model.Black] != 1 {
		return fmt.Errorf("%w: white %d, black %d", ErrKingCount, kings[model.White], kings[model.Black])
	}
	return nil
}

func parseCastling(s string, pos *model.Position) error {
	all := model.CastleFlags{KingMoved: true, KingsideRookMoved: true, QueensideRookMoved: true}
	pos.Castle = model.Sides[model.CastleFlags]{White: all, Black: all}
	if s == "-" {
		return nil
	}

	for i := 0; i < len(s); i++ {
		var flags *model.CastleFlags
		switch s[i] {
		case 'K', 'Q':
			flags = pos.Castle.Ptr(model.White)
		case 'k', 'q':
			flags = pos.Castle.Ptr(model.Black)
		default:
			return fmt.Errorf("%w: unknown castling flag %q", ErrInvalidCastling, string(s[i]))
		}
		flags.KingMoved = false
		if s[i] == 'K' || s[i] == 'k' {
			flags.KingsideRookMoved = false
		} else {
			flags.QueensideRookMoved = false
		}
	}
	return nil
}
