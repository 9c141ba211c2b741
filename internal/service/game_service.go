package service

import (
	"github.com/benbeisheim/chess-backend/internal/model"
)

// GameService is what the controllers talk to. It resolves game ids and
// forwards to the session.
type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

// CreateGame hosts a game and returns its id and the host's color.
func (gs *GameService) CreateGame(playerID string, req CreateRequest) (string, model.Color, error) {
	s, color, err := gs.gameManager.CreateGame(playerID, req)
	if err != nil {
		return "", "", err
	}
	return s.ID, color, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return s.Join(playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (View, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return View{}, err
	}
	return s.State(), nil
}

func (gs *GameService) GetFEN(gameID string) (string, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return s.FEN(), nil
}

func (gs *GameService) LegalMoves(gameID string, square string) ([]model.Square, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	sq, err := model.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	return s.LegalMoves(sq), nil
}

func (gs *GameService) Click(gameID string, playerID string, square string) (View, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return View{}, err
	}
	sq, err := model.ParseSquare(square)
	if err != nil {
		return View{}, err
	}
	return s.Click(playerID, sq)
}

// HandleMove plays a square-pair token such as "e2e4" for playerID.
func (gs *GameService) HandleMove(gameID string, playerID string, token string) (View, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return View{}, err
	}
	return s.MoveToken(playerID, token)
}

func (gs *GameService) NewGame(gameID string, playerID string) (View, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return View{}, err
	}
	return s.NewGame(playerID)
}

func (gs *GameService) Resign(gameID string, playerID string) (View, error) {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return View{}, err
	}
	return s.Resign(playerID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn Conn) error {
	s, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	s.Connect(playerID, conn)
	return nil
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn Conn) {
	if s, err := gs.gameManager.GetGame(gameID); err == nil {
		s.Disconnect(playerID, conn)
	}
}

// SendError reports err to playerID's socket on gameID.
func (gs *GameService) SendError(gameID string, playerID string, err error) {
	if s, gerr := gs.gameManager.GetGame(gameID); gerr == nil {
		s.SendError(playerID, err)
	}
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
