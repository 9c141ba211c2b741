package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chess-backend/internal/analysis"
	"github.com/benbeisheim/chess-backend/internal/model"
	"github.com/benbeisheim/chess-backend/internal/service"
	"github.com/benbeisheim/chess-backend/internal/ws"
)

type GameController struct {
	gameService *service.GameService
	logger      *zap.Logger
}

func NewGameController(gameService *service.GameService, logger *zap.Logger) *GameController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameController{gameService: gameService, logger: logger}
}

// Register mounts the game routes on router.
func (gc *GameController) Register(router fiber.Router) {
	router.Post("/matchmaking/join", gc.JoinMatchmaking)
	router.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	router.Post("/create", gc.CreateGame)
	router.Post("/join/:gameId", gc.JoinGame)
	router.Get("/:gameId", gc.GetGameState)
	router.Get("/:gameId/fen", gc.GetFEN)
	router.Get("/:gameId/moves/:square", gc.LegalMoves)
	router.Post("/:gameId/click", gc.Click)
	router.Post("/:gameId/move", gc.Move)
	router.Post("/:gameId/new", gc.NewGame)
	router.Post("/:gameId/resign", gc.Resign)
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)

	var req service.CreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return gc.fail(c, fiber.StatusBadRequest, err)
		}
	}

	gameID, color, err := gc.gameService.CreateGame(playerID, req)
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
		"color":   color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) GetFEN(c *fiber.Ctx) error {
	s, err := gc.gameService.GetFEN(c.Params("gameId"))
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(fiber.Map{"fen": s})
}

func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), c.Params("square"))
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	if moves == nil {
		moves = []model.Square{}
	}
	return c.JSON(fiber.Map{"moves": moves})
}

func (gc *GameController) Click(c *fiber.Ctx) error {
	var body ws.ClickPayload
	if err := c.BodyParser(&body); err != nil {
		return gc.fail(c, fiber.StatusBadRequest, err)
	}
	view, err := gc.gameService.Click(c.Params("gameId"), c.Locals("playerID").(string), body.Square)
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(view)
}

func (gc *GameController) Move(c *fiber.Ctx) error {
	var body ws.MovePayload
	if err := c.BodyParser(&body); err != nil {
		return gc.fail(c, fiber.StatusBadRequest, err)
	}
	view, err := gc.gameService.HandleMove(c.Params("gameId"), c.Locals("playerID").(string), body.Token())
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(view)
}

func (gc *GameController) NewGame(c *fiber.Ctx) error {
	view, err := gc.gameService.NewGame(c.Params("gameId"), c.Locals("playerID").(string))
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(view)
}

func (gc *GameController) Resign(c *fiber.Ctx) error {
	view, err := gc.gameService.Resign(c.Params("gameId"), c.Locals("playerID").(string))
	if err != nil {
		return gc.fail(c, errorStatus(err), err)
	}
	return c.JSON(view)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)

	if err := gc.gameService.JoinMatchmaking(playerID); err != nil {
		return gc.fail(c, errorStatus(err), err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(c.Locals("playerID").(string)) {
		return gc.fail(c, fiber.StatusNotFound, errors.New("player not in queue"))
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

func (gc *GameController) fail(c *fiber.Ctx, status int, err error) error {
	if status >= fiber.StatusInternalServerError {
		gc.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// errorStatus maps service and rules errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotPlayer):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrGameFull),
		errors.Is(err, model.ErrNotAccepted),
		errors.Is(err, model.ErrNotStarted),
		errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrIllegalMove),
		errors.Is(err, model.ErrNoPiece):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidOptions),
		errors.Is(err, model.ErrInvalidSquare),
		errors.Is(err, model.ErrInvalidToken):
		return fiber.StatusBadRequest
	case errors.Is(err, analysis.ErrEngineUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
