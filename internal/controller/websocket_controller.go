package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
)

var ErrUnknownMessage = errors.New("unknown message type")

type WebSocketController struct {
	gameService *service.GameService
	logger      *zap.Logger
}

func NewWebSocketController(gameService *service.GameService, logger *zap.Logger) *WebSocketController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketController{
		gameService: gameService,
		logger:      logger,
	}
}

// HandleConnection serves one player's socket on a game. The ids were
// stored in locals by the upgrade middleware.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	playerID, _ := c.Locals("wsPlayerID").(string)
	logger := wsc.logger.With(zap.String("game", gameID), zap.String("player", playerID))

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		logger.Warn("register connection", zap.Error(err))
		c.WriteJSON(ws.ErrorMessage(err))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)
	logger.Debug("connection opened")

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug("connection closed", zap.Error(err))
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			wsc.gameService.SendError(gameID, playerID, fmt.Errorf("parse message: %w", err))
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			logger.Debug("message rejected", zap.String("type", string(msg.Type)), zap.Error(err))
			wsc.gameService.SendError(gameID, playerID, err)
		}
	}
}

// handleMessage runs one client request. Successful changes reach the
// client through the game's broadcast.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	var err error
	switch msg.Type {
	case ws.MessageTypeMove:
		var move ws.MovePayload
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		_, err = wsc.gameService.HandleMove(gameID, playerID, move.Token())

	case ws.MessageTypeClick:
		var click ws.ClickPayload
		if err := json.Unmarshal(msg.Payload, &click); err != nil {
			return err
		}
		_, err = wsc.gameService.Click(gameID, playerID, click.Square)

	case ws.MessageTypeNewGame:
		_, err = wsc.gameService.NewGame(gameID, playerID)

	case ws.MessageTypeResign:
		_, err = wsc.gameService.Resign(gameID, playerID)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type)
	}
	return err
}

// HandleMatchmaking queues the player and waits on the socket until a
// match is found or the client goes away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("wsPlayerID").(string)
	logger := wsc.logger.With(zap.String("player", playerID))

	ch := make(chan string, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, ch)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil {
		logger.Debug("join matchmaking", zap.Error(err))
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// Replaced by a newer matchmaking socket.
			return
		}
		msg := ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}
		if err := c.WriteJSON(msg); err != nil {
			logger.Warn("send match", zap.Error(err))
		}
	case <-gone:
		logger.Debug("left matchmaking")
	}
}
