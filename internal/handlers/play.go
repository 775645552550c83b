package handlers

import (
	"net/http"

	"github.com/eruedin/swad-core-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type PlayHandler struct {
	matchService  *services.MatchService
	playerService *services.PlayerService
	answerService *services.AnswerService
}

func NewPlayHandler(matchService *services.MatchService, playerService *services.PlayerService, answerService *services.AnswerService) *PlayHandler {
	return &PlayHandler{
		matchService:  matchService,
		playerService: playerService,
		answerService: answerService,
	}
}

type PlayAnswerRequest struct {
	QuestionIndex uint `json:"question_index" binding:"required"`
	OptionIndex   *int `json:"option_index" binding:"required"`
}

type PlayRemoveAnswerRequest struct {
	QuestionIndex uint `json:"question_index" binding:"required"`
}

func (h *PlayHandler) Join(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	if err := h.playerService.Join(matchID, userID); err != nil {
		respondError(c, err)
		return
	}

	view, err := h.matchService.GetStatus(matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *PlayHandler) Answer(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	var req PlayAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	joined, err := h.playerService.IsPlayer(matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !joined {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "join the match first"})
		return
	}

	if err := h.answerService.Submit(matchID, userID, req.QuestionIndex, *req.OptionIndex); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "answer accepted"})
}

func (h *PlayHandler) RemoveAnswer(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	var req PlayRemoveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.answerService.RemoveSelection(matchID, userID, req.QuestionIndex); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "answer removed"})
}

func (h *PlayHandler) GetState(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	view, err := h.matchService.RefreshStudent(matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
