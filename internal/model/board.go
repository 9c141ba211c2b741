package model

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Letter returns the FEN letter for the piece type in lower case.
func (p PieceType) Letter() byte {
	switch p {
	case King:
		return 'k'
	case Queen:
		return 'q'
	case Rook:
		return 'r'
	case Bishop:
		return 'b'
	case Knight:
		return 'n'
	case Pawn:
		return 'p'
	}
	return '?'
}

// PieceTypeFromLetter is the inverse of Letter. Case is ignored.
func PieceTypeFromLetter(c byte) (PieceType, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	switch c {
	case 'k':
		return King, true
	case 'q':
		return Queen, true
	case 'r':
		return Rook, true
	case 'b':
		return Bishop, true
	case 'n':
		return Knight, true
	case 'p':
		return Pawn, true
	}
	return "", false
}

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool {
	return c == White || c == Black
}

// Title returns the capitalised color name used in result messages.
func (c Color) Title() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// Sides holds one value per color.
type Sides[T any] struct {
	White T `json:"white"`
	Black T `json:"black"`
}

func (s *Sides[T]) Get(c Color) T {
	if c == White {
		return s.White
	}
	return s.Black
}

func (s *Sides[T]) Set(c Color, v T) {
	if c == White {
		s.White = v
	} else {
		s.Black = v
	}
}

// Ptr returns a pointer to the value stored for c.
func (s *Sides[T]) Ptr(c Color) *T {
	if c == White {
		return &s.White
	}
	return &s.Black
}

// Piece is immutable once placed on the board. Promotion replaces the
// pointer in the cell instead of rewriting the piece.
type Piece struct {
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

var symbols = map[Color]map[PieceType]string{
	White: {King: "♔", Queen: "♕", Rook: "♖", Bishop: "♗", Knight: "♘", Pawn: "♙"},
	Black: {King: "♚", Queen: "♛", Rook: "♜", Bishop: "♝", Knight: "♞", Pawn: "♟"},
}

// Symbol returns the unicode glyph for the piece.
func (p Piece) Symbol() string {
	return symbols[p.Color][p.Type]
}

// Letter returns the FEN letter: upper case for white, lower case for black.
func (p Piece) Letter() byte {
	l := p.Type.Letter()
	if p.Color == White {
		return l - ('a' - 'A')
	}
	return l
}

// CastleFlags records which castling pieces have left their home squares.
// Flags only ever go from false to true.
type CastleFlags struct {
	KingMoved          bool `json:"kingMoved"`
	QueensideRookMoved bool `json:"queensideRookMoved"`
	KingsideRookMoved  bool `json:"kingsideRookMoved"`
}

// Status is derived from the board after every applied move.
type Status struct {
	InCheck Sides[bool] `json:"inCheck"`
	IsOver  bool        `json:"isOver"`
	Result  *Result     `json:"result"`
}

// Position is the board plus everything the rules need besides it.
// Board[y][x] with y = 0 on rank 8, matching Square.
type Position struct {
	Board    [8][8]*Piece       `json:"board"`
	Turn     Color              `json:"turn"`
	Kings    Sides[Square]      `json:"kings"`
	Castle   Sides[CastleFlags] `json:"castle"`
	Captured Sides[[]Piece]     `json:"capturedPieces"`
	MoveLog  []string           `json:"moveLog"`
	Status   Status             `json:"status"`
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewPosition returns the standard initial setup with white to move.
func NewPosition() *Position {
	p := EmptyPosition()
	for x := 0; x < 8; x++ {
		p.Board[0][x] = &Piece{Type: backRank[x], Color: Black}
		p.Board[1][x] = &Piece{Type: Pawn, Color: Black}
		p.Board[6][x] = &Piece{Type: Pawn, Color: White}
		p.Board[7][x] = &Piece{Type: backRank[x], Color: White}
	}
	p.Kings = Sides[Square]{White: Square{X: 4, Y: 7}, Black: Square{X: 4, Y: 0}}
	return p
}

// EmptyPosition returns a board with no pieces. Callers that place pieces
// by hand must keep Kings in sync with the board.
func EmptyPosition() *Position {
	return &Position{
		Turn:     White,
		Captured: Sides[[]Piece]{White: []Piece{}, Black: []Piece{}},
		MoveLog:  []string{},
	}
}

// At returns the piece on sq, or nil when the square is empty or off board.
func (p *Position) At(sq Square) *Piece {
	if !sq.InBounds() {
		return nil
	}
	return p.Board[sq.Y][sq.X]
}

func (p *Position) set(sq Square, piece *Piece) {
	p.Board[sq.Y][sq.X] = piece
}

// Place puts piece on sq and keeps the king cache current.
func (p *Position) Place(sq Square, piece *Piece) {
	p.set(sq, piece)
	if piece != nil && piece.Type == King {
		p.Kings.Set(piece.Color, sq)
	}
}

// Clone returns a deep copy. Pieces are shared since they are never
// mutated in place.
func (p *Position) Clone() *Position {
	c := *p
	c.Captured = Sides[[]Piece]{
		White: append([]Piece{}, p.Captured.White...),
		Black: append([]Piece{}, p.Captured.Black...),
	}
	c.MoveLog = append([]string{}, p.MoveLog...)
	if p.Status.Result != nil {
		r := *p.Status.Result
		c.Status.Result = &r
	}
	return &c
}

func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}
