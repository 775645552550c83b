package handlers

import (
	"net/http"
	"strconv"

	"github.com/eruedin/swad-core-sub002/internal/models"
	"github.com/eruedin/swad-core-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	gameService  *services.GameService
	matchService *services.MatchService
}

func NewGameHandler(gameService *services.GameService, matchService *services.MatchService) *GameHandler {
	return &GameHandler{gameService: gameService, matchService: matchService}
}

type CreateGameRequest struct {
	Title     string                  `json:"title" binding:"required,min=1,max=255"`
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	Stem    string                `json:"stem" binding:"required"`
	Options []CreateOptionRequest `json:"options" binding:"dive"`
}

type CreateOptionRequest struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// CreateGame godoc
// @Summary      Create a question set
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGameRequest true "Game data"
// @Success      201 {object} models.Game
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	creatorID := c.GetUint("user_id")

	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	questions := make([]models.GameQuestion, len(req.Questions))
	for i, q := range req.Questions {
		options := make([]models.QuestionOption, len(q.Options))
		for j, o := range q.Options {
			options[j] = models.QuestionOption{
				Text:      o.Text,
				IsCorrect: o.IsCorrect,
				OrderNum:  j + 1,
			}
		}
		questions[i] = models.GameQuestion{
			Stem:     q.Stem,
			OrderNum: i + 1,
			Options:  options,
		}
	}

	game, err := h.gameService.CreateGame(creatorID, req.Title, questions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

// ListGames godoc
// @Summary      List the caller's question sets
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Game
// @Router       /api/v1/games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	creatorID := c.GetUint("user_id")

	games, err := h.gameService.ListGames(creatorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// GetGame godoc
// @Summary      Get a question set with its questions and options
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} models.Game
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
		return
	}

	game, err := h.gameService.GetGame(uint(gameID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// ListGameMatches godoc
// @Summary      List matches played on a question set
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {array} services.MatchSummary
// @Router       /api/v1/games/{id}/matches [get]
func (h *GameHandler) ListGameMatches(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid game id"})
		return
	}

	matches, err := h.matchService.ListByGame(uint(gameID))
	if err != nil {
		respondError(c, err)
		return
	}

	unfinished, err := h.matchService.CountUnfinished(uint(gameID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches":    matches,
		"unfinished": unfinished,
	})
}
