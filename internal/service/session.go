package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benbeisheim/chess-backend/internal/analysis"
	"github.com/benbeisheim/chess-backend/internal/fen"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/ws"
)

// SessionConfig holds the timing knobs shared by every session.
type SessionConfig struct {
	InitialSeconds int
	Rules          model.Rules
	PreRoll        time.Duration // countdown before an ai game starts
	TickInterval   time.Duration // one clock second
	ReplyDelay     time.Duration // pause before asking the engine
	MoveTimeout    time.Duration // engine search limit
}

// View is the state pushed to clients.
type View struct {
	GameID string `json:"gameId"`
	model.State
	FEN        string            `json:"fen"`
	Difficulty int               `json:"difficulty,omitempty"`
	Joined     model.Sides[bool] `json:"joined"`
	Seq        uint64            `json:"seq"`
}

// Session owns one game and everything that acts on it over time: the
// clock ticker, the pre-roll countdown and pending engine replies. Every
// mutation happens under mu. Background work carries the generation it was
// started for and gives up once a new game has replaced that generation.
type Session struct {
	ID         string
	mode       model.Mode
	difficulty int
	startFEN   string
	cfg        SessionConfig
	engine     analysis.Suggester
	logger     *zap.Logger
	conns      *connections

	mu      sync.Mutex
	game    *model.Game
	opts    model.Options
	players model.Sides[string]
	gen     uint64
	seq     uint64
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool

	finishedAt time.Time // zero while the game is running
}

type sessionParams struct {
	id         string
	opts       model.Options
	players    model.Sides[string]
	startFEN   string
	difficulty int
}

func newSession(p sessionParams, cfg SessionConfig, engine analysis.Suggester, logger *zap.Logger) (*Session, error) {
	logger = logger.With(zap.String("game", p.id))
	s := &Session{
		ID:         p.id,
		mode:       p.opts.Mode,
		difficulty: p.difficulty,
		startFEN:   p.startFEN,
		cfg:        cfg,
		engine:     engine,
		logger:     logger,
		conns:      newConnections(logger),
		opts:       p.opts,
		players:    p.players,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resetLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// resetLocked cancels all background work of the current game and starts
// a fresh one from the session's starting position.
func (s *Session) resetLocked() error {
	pos := model.NewPosition()
	if s.startFEN != "" {
		var err error
		if pos, err = fen.Decode(s.startFEN); err != nil {
			return err
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.game = model.NewGameFrom(s.opts, pos)
	s.finishedAt = time.Time{}
	if s.game.IsOver() {
		s.finishedAt = time.Now()
	}

	switch {
	case s.game.IsOver():
	case s.mode == model.ModeOnline && !s.seatsFilledLocked():
		// Held until the second player joins.
		s.game.BeginPreRoll()
	case s.mode == model.ModeAI && s.cfg.PreRoll > 0:
		s.game.BeginPreRoll()
		go s.preRoll(s.ctx, s.gen, s.cfg.PreRoll)
	}
	if s.cfg.InitialSeconds > 0 && !s.game.IsOver() {
		go s.runClock(s.ctx, s.gen)
	}
	s.scheduleEngineLocked()
	s.seq++

	s.logger.Info("game started",
		zap.String("mode", string(s.mode)),
		zap.Uint64("generation", s.gen),
		zap.Bool("preRoll", !s.game.Started()),
	)
	return nil
}

func (s *Session) seatsFilledLocked() bool {
	return s.players.White != "" && s.players.Black != ""
}

func (s *Session) preRoll(ctx context.Context, gen uint64, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.game.Start()
	s.scheduleEngineLocked()
	view := s.changedLocked()
	s.mu.Unlock()
	s.publish(view)
}

func (s *Session) runClock(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(gen)
		}
	}
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.game.IsOver() || !s.game.Started() {
		s.mu.Unlock()
		return
	}
	if s.game.Tick() {
		s.logger.Info("flag fell", zap.String("winner", string(s.game.Result().Winner)))
	}
	view := s.changedLocked()
	s.mu.Unlock()
	s.publish(view)
}

// scheduleEngineLocked asks the engine for a reply when it holds the move.
func (s *Session) scheduleEngineLocked() {
	if s.engine == nil || !s.game.Accepts(model.Engine) {
		return
	}
	req := analysis.Request{
		FEN:        fen.EncodeStrict(s.game.Position()),
		Difficulty: s.difficulty,
	}
	go s.engineReply(s.ctx, s.gen, req)
}

func (s *Session) engineReply(ctx context.Context, gen uint64, req analysis.Request) {
	delay := time.NewTimer(s.cfg.ReplyDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.cfg.MoveTimeout)
	defer cancel()
	move, err := s.engine.SuggestMove(searchCtx, req)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("engine gave no move", zap.Error(err), zap.String("fen", req.FEN))
		}
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if _, err := s.game.SubmitToken(model.Engine, move); err != nil {
		s.mu.Unlock()
		s.logger.Error("engine move rejected", zap.Error(err), zap.String("move", move))
		return
	}
	s.scheduleEngineLocked()
	view := s.changedLocked()
	s.mu.Unlock()
	s.publish(view)
}

// changedLocked records a state change and returns the view to publish.
// A finished game stops its background work.
func (s *Session) changedLocked() View {
	if s.game.IsOver() {
		s.cancel()
		if s.finishedAt.IsZero() {
			s.finishedAt = time.Now()
		}
	}
	s.seq++
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	return View{
		GameID:     s.ID,
		State:      s.game.Snapshot(),
		FEN:        fen.Encode(s.game.Position()),
		Difficulty: s.difficulty,
		Joined:     model.Sides[bool]{White: s.players.White != "", Black: s.players.Black != ""},
		Seq:        s.seq,
	}
}

func (s *Session) publish(view View) {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, view)
	if err != nil {
		s.logger.Error("encode state", zap.Error(err))
		return
	}
	s.conns.broadcast(view.Seq, msg)
}

// authorizeLocked checks that playerID controls the side to move.
func (s *Session) authorizeLocked(playerID string) error {
	if s.closed {
		return ErrGameNotFound
	}
	if s.game.IsOver() {
		return model.ErrGameOver
	}
	if playerID == "" || (s.players.White != playerID && s.players.Black != playerID) {
		return ErrNotPlayer
	}
	if turn := s.game.Turn(); s.players.Get(turn) != playerID {
		return fmt.Errorf("%w: %s to move", ErrNotYourTurn, turn)
	}
	return nil
}

// act runs fn as playerID's turn and publishes the result.
func (s *Session) act(playerID string, fn func() error) (View, error) {
	s.mu.Lock()
	if err := s.authorizeLocked(playerID); err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	s.scheduleEngineLocked()
	view := s.changedLocked()
	s.mu.Unlock()

	s.publish(view)
	return view, nil
}

// Click feeds one board click into the selection state machine.
func (s *Session) Click(playerID string, sq model.Square) (View, error) {
	return s.act(playerID, func() error {
		_, err := s.game.Click(sq)
		return err
	})
}

// Move plays from->to for playerID after a legality check.
func (s *Session) Move(playerID string, from, to model.Square) (View, error) {
	return s.act(playerID, func() error {
		ply, err := s.game.Submit(model.Human, from, to)
		if err == nil {
			s.logger.Debug("move", zap.String("player", playerID), zap.String("notation", ply.Notation))
		}
		return err
	})
}

// MoveToken is Move for a square-pair token such as "e2e4".
func (s *Session) MoveToken(playerID, token string) (View, error) {
	from, to, err := model.ParseMoveToken(token)
	if err != nil {
		return View{}, err
	}
	return s.Move(playerID, from, to)
}

// Resign ends the game for playerID's color. In a local game the side to
// move resigns.
func (s *Session) Resign(playerID string) (View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrGameNotFound
	}
	color, ok := s.colorLocked(playerID)
	if !ok {
		s.mu.Unlock()
		return View{}, ErrNotPlayer
	}
	if err := s.game.Resign(color); err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	view := s.changedLocked()
	s.mu.Unlock()

	s.publish(view)
	return view, nil
}

// colorLocked returns the color playerID plays. A player holding both
// seats plays the side to move.
func (s *Session) colorLocked(playerID string) (model.Color, bool) {
	if playerID == "" {
		return "", false
	}
	white, black := s.players.White == playerID, s.players.Black == playerID
	switch {
	case white && black:
		return s.game.Turn(), true
	case white:
		return model.White, true
	case black:
		return model.Black, true
	}
	return "", false
}

// NewGame throws the current game away and starts over with the same
// mode, seats and clock. Pending timers and engine requests are cancelled.
func (s *Session) NewGame(playerID string) (View, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrGameNotFound
	}
	if _, ok := s.colorLocked(playerID); !ok {
		s.mu.Unlock()
		return View{}, ErrNotPlayer
	}
	if err := s.resetLocked(); err != nil {
		s.mu.Unlock()
		return View{}, err
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)
	return view, nil
}

// Join seats playerID in an online game and returns their color. Joining
// twice returns the same color. The game starts once both seats are taken.
func (s *Session) Join(playerID string) (model.Color, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrGameNotFound
	}
	if color, ok := s.colorLocked(playerID); ok {
		s.mu.Unlock()
		return color, nil
	}
	if s.mode != model.ModeOnline {
		s.mu.Unlock()
		return "", ErrGameFull
	}

	var color model.Color
	switch {
	case s.players.White == "":
		color = model.White
	case s.players.Black == "":
		color = model.Black
	default:
		s.mu.Unlock()
		return "", ErrGameFull
	}
	s.players.Set(color, playerID)
	if s.seatsFilledLocked() && !s.game.IsOver() {
		s.game.Start()
	}
	view := s.changedLocked()
	s.mu.Unlock()

	s.logger.Info("player joined", zap.String("player", playerID), zap.String("color", string(color)))
	s.publish(view)
	return color, nil
}

// State returns the current view without changing anything.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// FEN returns the current position.
func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fen.Encode(s.game.Position())
}

// LegalMoves lists the destinations of the piece on sq.
func (s *Session) LegalMoves(sq model.Square) []model.Square {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.LegalMoves(sq)
}

// Connect registers conn for playerID and sends it the current state.
func (s *Session) Connect(playerID string, conn Conn) {
	s.conns.add(playerID, conn)

	s.mu.Lock()
	view := s.viewLocked()
	s.mu.Unlock()

	msg, err := ws.NewMessage(ws.MessageTypeGameState, view)
	if err != nil {
		s.logger.Error("encode state", zap.Error(err))
		return
	}
	s.conns.deliver(playerID, view.Seq, msg)
}

func (s *Session) Disconnect(playerID string, conn Conn) {
	s.conns.remove(playerID, conn)
}

// SendError reports a failed request to one player's socket.
func (s *Session) SendError(playerID string, err error) {
	s.conns.send(playerID, ws.ErrorMessage(err))
}

// expired reports whether the game ended at least ttl before now and
// nobody is connected to it any more.
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	ended := s.finishedAt
	s.mu.Unlock()
	if ended.IsZero() || now.Sub(ended) < ttl {
		return false
	}
	return s.conns.count() == 0
}

// Close stops all background work and drops every connection.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.conns.closeAll()
}
