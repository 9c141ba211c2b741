package model

import (
	"errors"
	"fmt"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrNotStarted  = errors.New("game has not started")
	ErrNotAccepted = errors.New("move not accepted from this source")
	ErrIllegalMove = errors.New("illegal move")
	ErrNoPiece     = errors.New("no movable piece on square")
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeOnline Mode = "online"
	ModeAI     Mode = "ai"
)

func (m Mode) Valid() bool {
	return m == ModeLocal || m == ModeOnline || m == ModeAI
}

// Controller says who is allowed to move a side. It doubles as the source
// tag of an incoming move.
type Controller string

const (
	Human  Controller = "human"
	Remote Controller = "remote"
	Engine Controller = "engine"
)

// SeatsFor derives who controls each side. In online and ai modes human is
// the locally controlled color and the other side belongs to the peer or
// the engine.
func SeatsFor(mode Mode, human Color) Sides[Controller] {
	seats := Sides[Controller]{White: Human, Black: Human}
	switch mode {
	case ModeOnline:
		seats.Set(human.Opponent(), Remote)
	case ModeAI:
		seats.Set(human.Opponent(), Engine)
	}
	return seats
}

type Options struct {
	Mode           Mode  `json:"mode"`
	HumanColor     Color `json:"humanColor"`
	InitialSeconds int   `json:"initialSeconds"`
	Rules          Rules `json:"rules"`

	// Seats overrides the seats derived from Mode and HumanColor.
	Seats *Sides[Controller] `json:"seats,omitempty"`
}

// Game drives one Position through the select/apply state machine. It is
// not safe for concurrent use; the owner serialises every call.
type Game struct {
	opts     Options
	rules    Rules
	pos      *Position
	seats    Sides[Controller]
	clock    *Clock
	preRoll  bool
	selected *Square
	legal    []Square
	history  []Ply
	event    Event
}

// NewGame starts from the standard setup.
func NewGame(opts Options) *Game {
	return NewGameFrom(opts, NewPosition())
}

// NewGameFrom starts from pos, which the game takes ownership of. The
// clock of the side to move starts immediately; call BeginPreRoll to hold
// it back.
func NewGameFrom(opts Options, pos *Position) *Game {
	if !opts.Mode.Valid() {
		opts.Mode = ModeLocal
	}
	if !opts.HumanColor.Valid() {
		opts.HumanColor = White
	}
	seats := SeatsFor(opts.Mode, opts.HumanColor)
	if opts.Seats != nil {
		seats = *opts.Seats
	}
	g := &Game{
		opts:  opts,
		rules: opts.Rules,
		pos:   pos,
		seats: seats,
		clock: NewClock(opts.InitialSeconds),
	}
	g.rules.Evaluate(pos)
	if !pos.Status.IsOver {
		g.clock.Start(pos.Turn)
	}
	return g
}

// Position exposes the live position for reading. Callers must not
// mutate it.
func (g *Game) Position() *Position {
	return g.pos
}

func (g *Game) Turn() Color {
	return g.pos.Turn
}

func (g *Game) IsOver() bool {
	return g.pos.Status.IsOver
}

func (g *Game) Result() *Result {
	return g.pos.Status.Result
}

func (g *Game) Seat(c Color) Controller {
	return g.seats.Get(c)
}

// Accepts reports whether a move from source would be taken right now.
func (g *Game) Accepts(source Controller) bool {
	return !g.IsOver() && !g.preRoll && g.seats.Get(g.pos.Turn) == source
}

func (g *Game) Started() bool {
	return !g.preRoll
}

// BeginPreRoll holds the game before its first move: no clock runs and no
// move or click is accepted until Start.
func (g *Game) BeginPreRoll() {
	if g.IsOver() {
		return
	}
	g.preRoll = true
	g.clock.Stop()
	g.clearSelection()
}

// Start ends the pre-roll and starts the clock of the side to move.
func (g *Game) Start() {
	if !g.preRoll {
		return
	}
	g.preRoll = false
	if !g.IsOver() {
		g.clock.Start(g.pos.Turn)
	}
}

func (g *Game) LegalMoves(sq Square) []Square {
	return g.rules.LegalMoves(g.pos, sq)
}

func (g *Game) Selected() (Square, bool) {
	if g.selected == nil {
		return Square{}, false
	}
	return *g.selected, true
}

func (g *Game) precheck(source Controller) error {
	if g.IsOver() {
		return ErrGameOver
	}
	if g.preRoll {
		return ErrNotStarted
	}
	if g.seats.Get(g.pos.Turn) != source {
		return fmt.Errorf("%w: %s does not control %s", ErrNotAccepted, source, g.pos.Turn)
	}
	return nil
}

// Select picks the friendly piece on sq and computes its destinations.
func (g *Game) Select(sq Square) error {
	if err := g.precheck(Human); err != nil {
		return err
	}
	piece := g.pos.At(sq)
	if piece == nil || piece.Color != g.pos.Turn {
		return fmt.Errorf("%w: %s", ErrNoPiece, sq)
	}
	g.selected = &sq
	g.legal = g.LegalMoves(sq)
	return nil
}

func (g *Game) clearSelection() {
	g.selected = nil
	g.legal = nil
}

// Click runs one step of the selection state machine. With nothing
// selected a friendly piece becomes selected and anything else is
// ignored. With a selection, a legal destination applies the move, a
// different friendly piece takes over the selection, and any other square
// (the selected one included) clears it. The returned ply is nil unless a
// move was applied.
func (g *Game) Click(sq Square) (*Ply, error) {
	if err := g.precheck(Human); err != nil {
		return nil, err
	}
	if g.selected != nil {
		for _, dest := range g.legal {
			if dest == sq {
				return g.ApplyMove(*g.selected, sq)
			}
		}
		if *g.selected == sq {
			g.clearSelection()
			return nil, nil
		}
	}
	if piece := g.pos.At(sq); piece != nil && piece.Color == g.pos.Turn {
		return nil, g.Select(sq)
	}
	g.clearSelection()
	return nil, nil
}

// Submit is the entry point for a complete move from a given source.
// Human moves are checked against the legal move set. Remote and engine
// moves are trusted and go straight to ApplyMove.
func (g *Game) Submit(source Controller, from, to Square) (*Ply, error) {
	if err := g.precheck(source); err != nil {
		return nil, err
	}
	if source == Human {
		piece := g.pos.At(from)
		if piece == nil || piece.Color != g.pos.Turn {
			return nil, fmt.Errorf("%w: %s", ErrNoPiece, from)
		}
		if !g.rules.IsLegal(g.pos, from, to) {
			return nil, fmt.Errorf("%w: %s", ErrIllegalMove, MoveToken(from, to))
		}
	}
	return g.ApplyMove(from, to)
}

// SubmitToken decodes a square-pair token and submits it.
func (g *Game) SubmitToken(source Controller, token string) (*Ply, error) {
	from, to, err := ParseMoveToken(token)
	if err != nil {
		return nil, err
	}
	return g.Submit(source, from, to)
}

// ApplyMove plays from->to without re-validating it. Callers pass a move
// taken from LegalMoves or delivered by a trusted source. After the board
// update the turn has flipped, status is recomputed and the clock has
// moved to the other side unless the game just ended.
func (g *Game) ApplyMove(from, to Square) (*Ply, error) {
	if g.IsOver() {
		return nil, ErrGameOver
	}
	ply, err := g.pos.Apply(from, to)
	if err != nil {
		return nil, err
	}
	g.history = append(g.history, ply)
	g.clearSelection()

	status := g.rules.Evaluate(g.pos)
	switch {
	case status.IsOver && status.Result.Outcome == OutcomeCheckmate:
		g.event = EventCheckmate
	case status.IsOver:
		g.event = EventStalemate
	case status.InCheck.Get(g.pos.Turn):
		g.event = EventCheck
	case ply.CapturedPiece != nil:
		g.event = EventCapture
	default:
		g.event = EventMove
	}

	if status.IsOver {
		g.clock.Stop()
	} else {
		g.clock.Switch(g.pos.Turn)
	}
	return &ply, nil
}

// Tick advances the clock by one second. A side reaching zero ends the
// game on time without looking at the board. It returns true on timeout.
func (g *Game) Tick() bool {
	if g.IsOver() || g.preRoll {
		return false
	}
	flagged, side := g.clock.Tick()
	if !flagged {
		return false
	}
	g.finish(Result{Outcome: OutcomeTimeout, Winner: side.Opponent()}, EventTimeout)
	return true
}

// Resign ends the game with side's opponent as winner. It is accepted
// during the pre-roll and regardless of whose turn it is.
func (g *Game) Resign(side Color) error {
	if g.IsOver() {
		return ErrGameOver
	}
	if !side.Valid() {
		return fmt.Errorf("%w: %q", ErrNotAccepted, side)
	}
	g.finish(Result{Outcome: OutcomeResignation, Winner: side.Opponent()}, EventResign)
	return nil
}

func (g *Game) finish(r Result, e Event) {
	g.clock.Stop()
	g.preRoll = false
	g.pos.Status.IsOver = true
	g.pos.Status.Result = &r
	g.event = e
	g.clearSelection()
}

// State is a detached snapshot for renderers and transports.
type State struct {
	Board          [8][8]*Piece       `json:"board"`
	Turn           Color              `json:"turn"`
	Mode           Mode               `json:"mode"`
	Seats          Sides[Controller]  `json:"seats"`
	Status         Status             `json:"status"`
	Castle         Sides[CastleFlags] `json:"castle"`
	CapturedPieces Sides[[]Piece]     `json:"capturedPieces"`
	MoveLog        []string           `json:"moveLog"`
	MoveHistory    []Ply              `json:"moveHistory"`
	LastMove       *Ply               `json:"lastMove"`
	Event          Event              `json:"event"`
	SelectedSquare *Square            `json:"selectedSquare"`
	LegalMoves     []Square           `json:"legalMoves"`
	Clock          Clock              `json:"clock"`
	Started        bool               `json:"started"`
}

func (g *Game) Snapshot() State {
	snap := g.pos.Clone()
	s := State{
		Board:          snap.Board,
		Turn:           snap.Turn,
		Mode:           g.opts.Mode,
		Seats:          g.seats,
		Status:         snap.Status,
		Castle:         snap.Castle,
		CapturedPieces: snap.Captured,
		MoveLog:        snap.MoveLog,
		MoveHistory:    append([]Ply{}, g.history...),
		Event:          g.event,
		LegalMoves:     append([]Square{}, g.legal...),
		Clock:          *g.clock,
		Started:        !g.preRoll,
	}
	if len(g.history) > 0 {
		last := g.history[len(g.history)-1]
		s.LastMove = &last
	}
	if g.selected != nil {
		sel := *g.selected
		s.SelectedSquare = &sel
	}
	return s
}
