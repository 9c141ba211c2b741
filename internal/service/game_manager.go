package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benbeisheim/chess-backend/internal/analysis"
	"github.com/benbeisheim/chess-backend/internal/fen"
	"github.com/benbeisheim/chess-backend/internal/model"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameFull       = errors.New("game is full")
	ErrNotPlayer      = errors.New("player not in game")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidOptions = errors.New("invalid game options")
)

type ManagerConfig struct {
	Session             SessionConfig
	DefaultDifficulty   int
	MatchmakingInterval time.Duration // also paces the sweep of finished games
	FinishedTTL         time.Duration
}

// CreateRequest describes a game a player wants to host.
type CreateRequest struct {
	Mode       model.Mode  `json:"mode"`
	Color      model.Color `json:"color"`
	Difficulty int         `json:"difficulty"`
	FEN        string      `json:"fen"`
}

// GameManager keeps every live session and pairs players waiting for an
// online opponent.
type GameManager struct {
	games            map[string]*Session
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex

	cfg    ManagerConfig
	engine analysis.Suggester
	logger *zap.Logger
	stop   context.CancelFunc
	done   chan struct{}
}

func NewGameManager(cfg ManagerConfig, engine analysis.Suggester, logger *zap.Logger) *GameManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MatchmakingInterval <= 0 {
		cfg.MatchmakingInterval = time.Second
	}
	if cfg.FinishedTTL <= 0 {
		cfg.FinishedTTL = 5 * time.Minute
	}
	if cfg.Session.TickInterval <= 0 {
		cfg.Session.TickInterval = time.Second
	}
	if cfg.Session.MoveTimeout <= 0 {
		cfg.Session.MoveTimeout = 5 * time.Second
	}
	if cfg.DefaultDifficulty == 0 {
		cfg.DefaultDifficulty = analysis.DefaultDifficulty
	}
	ctx, stop := context.WithCancel(context.Background())
	gm := &GameManager{
		games:            make(map[string]*Session),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		cfg:              cfg,
		engine:           engine,
		logger:           logger,
		stop:             stop,
		done:             make(chan struct{}),
	}

	go gm.processMatchmaking(ctx)

	return gm
}

// Close stops matchmaking and every session.
func (gm *GameManager) Close() {
	gm.stop()
	<-gm.done

	gm.mu.Lock()
	defer gm.mu.Unlock()
	for id, s := range gm.games {
		s.Close()
		delete(gm.games, id)
	}
	for id, ch := range gm.matchingChannels {
		close(ch)
		delete(gm.matchingChannels, id)
	}
}

// CreateGame hosts a new game for playerID and returns it with the color
// the host plays. A local game seats the host on both sides.
func (gm *GameManager) CreateGame(playerID string, req CreateRequest) (*Session, model.Color, error) {
	if req.Mode == "" {
		req.Mode = model.ModeLocal
	}
	if !req.Mode.Valid() {
		return nil, "", fmt.Errorf("%w: mode %q", ErrInvalidOptions, req.Mode)
	}
	if req.Color == "" {
		req.Color = model.White
	}
	if !req.Color.Valid() {
		return nil, "", fmt.Errorf("%w: color %q", ErrInvalidOptions, req.Color)
	}
	if req.Difficulty == 0 {
		req.Difficulty = gm.cfg.DefaultDifficulty
	}
	if req.Difficulty < analysis.MinDifficulty || req.Difficulty > analysis.MaxDifficulty {
		return nil, "", fmt.Errorf("%w: difficulty %d", ErrInvalidOptions, req.Difficulty)
	}
	if req.FEN != "" {
		if _, err := fen.Decode(req.FEN); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
	}
	if req.Mode == model.ModeAI && gm.engine == nil {
		return nil, "", analysis.ErrEngineUnavailable
	}

	opts := model.Options{
		Mode:           req.Mode,
		HumanColor:     req.Color,
		InitialSeconds: gm.cfg.Session.InitialSeconds,
		Rules:          gm.cfg.Session.Rules,
	}
	var players model.Sides[string]
	switch req.Mode {
	case model.ModeLocal:
		players = model.Sides[string]{White: playerID, Black: playerID}
	case model.ModeOnline:
		// Both seats are human here; the session checks who owns which.
		opts.Seats = &model.Sides[model.Controller]{White: model.Human, Black: model.Human}
		players.Set(req.Color, playerID)
	case model.ModeAI:
		players.Set(req.Color, playerID)
	}

	s, err := gm.addSession(sessionParams{
		opts:       opts,
		players:    players,
		startFEN:   req.FEN,
		difficulty: req.Difficulty,
	})
	if err != nil {
		return nil, "", err
	}
	gm.logger.Info("game created",
		zap.String("game", s.ID),
		zap.String("player", playerID),
		zap.String("mode", string(req.Mode)),
		zap.String("color", string(req.Color)),
	)
	return s, req.Color, nil
}

func (gm *GameManager) addSession(p sessionParams) (*Session, error) {
	p.id = uuid.New().String()
	s, err := newSession(p, gm.cfg.Session, gm.engine, gm.logger)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	gm.games[p.id] = s
	gm.mu.Unlock()
	return s, nil
}

func (gm *GameManager) GetGame(gameID string) (*Session, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	s, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return s, nil
}

// RemoveGame closes and forgets a session.
func (gm *GameManager) RemoveGame(gameID string) error {
	gm.mu.Lock()
	s, exists := gm.games[gameID]
	delete(gm.games, gameID)
	gm.mu.Unlock()

	if !exists {
		return ErrGameNotFound
	}
	s.Close()
	return nil
}

// reapFinished drops games that ended at least FinishedTTL before now and
// have no socket attached. It returns how many were removed.
func (gm *GameManager) reapFinished(now time.Time) int {
	var expired []*Session
	gm.mu.Lock()
	for id, s := range gm.games {
		if s.expired(now, gm.cfg.FinishedTTL) {
			delete(gm.games, id)
			expired = append(expired, s)
		}
	}
	gm.mu.Unlock()

	for _, s := range expired {
		s.Close()
		gm.logger.Debug("finished game removed", zap.String("game", s.ID))
	}
	return len(expired)
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return err
	}
	gm.logger.Debug("player queued", zap.String("player", playerID), zap.Int("queued", gm.queue.Size()))
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

// RegisterMatchmakingChannel subscribes ch to playerID's match event. An
// earlier channel for the same player is closed.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets ch and takes the player out of the
// queue. The channel is not closed; nothing sends on it afterwards.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, exists := gm.matchingChannels[playerID]; exists && current == ch {
		delete(gm.matchingChannels, playerID)
		gm.queue.RemovePlayer(playerID)
	}
}

func (gm *GameManager) processMatchmaking(ctx context.Context) {
	defer close(gm.done)
	ticker := time.NewTicker(gm.cfg.MatchmakingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gm.matchPlayers()
			gm.reapFinished(now)
		}
	}
}

// matchPlayers pairs everyone currently waiting, oldest first. The player
// who waited longer gets white.
func (gm *GameManager) matchPlayers() {
	for {
		white, black, ok := gm.queue.NextPair()
		if !ok {
			return
		}

		s, err := gm.addSession(sessionParams{
			opts: model.Options{
				Mode:           model.ModeOnline,
				HumanColor:     model.White,
				InitialSeconds: gm.cfg.Session.InitialSeconds,
				Rules:          gm.cfg.Session.Rules,
				Seats:          &model.Sides[model.Controller]{White: model.Human, Black: model.Human},
			},
			players:    model.Sides[string]{White: white.ID, Black: black.ID},
			difficulty: gm.cfg.DefaultDifficulty,
		})
		if err != nil {
			gm.logger.Error("create matched game", zap.Error(err))
			continue
		}
		gm.logger.Info("match found", zap.String("game", s.ID), zap.String("white", white.ID), zap.String("black", black.ID))

		gm.mu.Lock()
		gm.notifyMatchLocked(white.ID, model.MatchFoundEvent{GameID: s.ID, Color: model.White})
		gm.notifyMatchLocked(black.ID, model.MatchFoundEvent{GameID: s.ID, Color: model.Black})
		gm.mu.Unlock()
	}
}

// notifyMatchLocked hands the event to the player's channel and retires
// the channel.
func (gm *GameManager) notifyMatchLocked(playerID string, event model.MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		gm.logger.Warn("matched player has no listener", zap.String("player", playerID), zap.String("game", event.GameID))
		return
	}
	select {
	case ch <- encodeEvent(event):
	default:
		gm.logger.Warn("match listener busy", zap.String("player", playerID))
	}
	delete(gm.matchingChannels, playerID)
	close(ch)
}

func encodeEvent(event model.MatchFoundEvent) string {
	b, _ := json.Marshal(event)
	return string(b)
}
