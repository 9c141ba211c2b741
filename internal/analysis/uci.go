package analysis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"go.uber.org/zap"
)

// UCIConfig describes how to start and tune an external UCI engine.
type UCIConfig struct {
	Path    string
	Threads int // 0 = physical cores
	HashMB  int
}

// UCIEngine drives one external engine process. Requests are serialised:
// the process answers one search at a time.
type UCIEngine struct {
	mu     sync.Mutex
	eng    *uci.Engine
	logger *zap.Logger
}

// SkillLevel maps difficulty 1..10 onto the engine's 0..20 skill scale.
func SkillLevel(difficulty int) int {
	return int(float64(ClampDifficulty(difficulty)-1) * 2.22)
}

// MoveTime is the search time granted at a difficulty.
func MoveTime(difficulty int) time.Duration {
	return time.Duration(ClampDifficulty(difficulty)) * 200 * time.Millisecond
}

// NewUCIEngine starts the engine binary and runs the UCI handshake.
func NewUCIEngine(cfg UCIConfig, logger *zap.Logger) (*UCIEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	eng, err := uci.New(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrEngineUnavailable, cfg.Path, err)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = cpuid.CPU.PhysicalCores
	}
	if threads <= 0 {
		threads = 1
	}
	cmds := []uci.Cmd{
		uci.CmdUCI,
		uci.CmdIsReady,
		uci.CmdSetOption{Name: "Threads", Value: strconv.Itoa(threads)},
	}
	if cfg.HashMB > 0 {
		cmds = append(cmds, uci.CmdSetOption{Name: "Hash", Value: strconv.Itoa(cfg.HashMB)})
	}
	cmds = append(cmds, uci.CmdUCINewGame)
	if err := eng.Run(cmds...); err != nil {
		eng.Close()
		return nil, fmt.Errorf("%w: handshake: %v", ErrEngineUnavailable, err)
	}

	logger.Info("uci engine ready",
		zap.String("path", cfg.Path),
		zap.String("name", eng.ID()["name"]),
		zap.Int("threads", threads),
	)
	return &UCIEngine{eng: eng, logger: logger}, nil
}

// SuggestMove sets the skill level for req.Difficulty and searches for
// MoveTime. If ctx ends first the search still runs to completion in the
// background and its answer is dropped.
func (e *UCIEngine) SuggestMove(ctx context.Context, req Request) (string, error) {
	opt, err := chess.FEN(req.FEN)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoMove, err)
	}
	pos := chess.NewGame(opt).Position()
	difficulty := ClampDifficulty(req.Difficulty)

	type answer struct {
		move string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		err := e.eng.Run(
			uci.CmdSetOption{Name: "Skill Level", Value: strconv.Itoa(SkillLevel(difficulty))},
			uci.CmdPosition{Position: pos},
			uci.CmdGo{MoveTime: MoveTime(difficulty)},
		)
		if err != nil {
			done <- answer{err: err}
			return
		}
		best := e.eng.SearchResults().BestMove
		if best == nil {
			done <- answer{err: ErrNoMove}
			return
		}
		done <- answer{move: best.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		if a.err != nil {
			e.logger.Warn("uci search failed", zap.Error(a.err), zap.String("fen", req.FEN))
			return "", a.err
		}
		e.logger.Debug("uci move", zap.String("fen", req.FEN), zap.String("move", a.move), zap.Int("difficulty", difficulty))
		return a.move, nil
	}
}

func (e *UCIEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eng.Close()
}
