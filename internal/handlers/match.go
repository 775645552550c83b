package handlers

import (
	"net/http"
	"strconv"

	"github.com/eruedin/swad-core-sub002/internal/models"
	"github.com/eruedin/swad-core-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchService *services.MatchService
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type CreateMatchRequest struct {
	GameID  uint   `json:"game_id" binding:"required" example:"1"`
	Title   string `json:"title" binding:"max=255"`
	GroupID *uint  `json:"group_id"`
}

type CountdownRequest struct {
	Seconds int64 `json:"seconds" binding:"required" example:"60"`
}

type ColumnsRequest struct {
	NumCols int `json:"num_cols" binding:"required,min=1,max=4" example:"2"`
}

// CreateMatch godoc
// @Summary      Create a match
// @Description  Start a new live match for a question set
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateMatchRequest true "Match data"
// @Success      201 {object} services.StatusView
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	match, err := h.matchService.Create(req.GameID, userID, req.Title, req.GroupID)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.matchService.GetStatus(match.ID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// ListMatches godoc
// @Summary      List the caller's matches
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.MatchSummary
// @Router       /api/v1/matches [get]
func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID := c.GetUint("user_id")

	matches, err := h.matchService.ListByCreator(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

// GetMatch godoc
// @Summary      Get match status
// @Description  Resume view of a match; answer data depends on viewer role
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} services.StatusView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/matches/{id} [get]
func (h *MatchHandler) GetMatch(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	view, err := h.matchService.GetStatus(matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Forward godoc
// @Summary      Advance the match one step
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} services.StatusView
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/matches/{id}/forward [post]
func (h *MatchHandler) Forward(c *gin.Context) {
	h.transition(c, h.matchService.Advance)
}

// Back godoc
// @Summary      Rewind the match one step
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} services.StatusView
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/matches/{id}/back [post]
func (h *MatchHandler) Back(c *gin.Context) {
	h.transition(c, h.matchService.Rewind)
}

// PlayPause godoc
// @Summary      Toggle the running flag
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} services.StatusView
// @Router       /api/v1/matches/{id}/play-pause [post]
func (h *MatchHandler) PlayPause(c *gin.Context) {
	h.transition(c, h.matchService.PlayPause)
}

// StartCountdown godoc
// @Summary      Arm the countdown
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Param        request body CountdownRequest true "Countdown seconds"
// @Success      200 {object} services.StatusView
// @Router       /api/v1/matches/{id}/countdown [post]
func (h *MatchHandler) StartCountdown(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	var req CountdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.matchService.StartCountdown(matchID, userID, req.Seconds); err != nil {
		respondError(c, err)
		return
	}
	h.respondStatus(c, matchID, userID)
}

// SetColumns godoc
// @Summary      Set answer display columns
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Param        request body ColumnsRequest true "Columns"
// @Success      200 {object} services.StatusView
// @Router       /api/v1/matches/{id}/columns [put]
func (h *MatchHandler) SetColumns(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	var req ColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := h.matchService.SetColumns(matchID, userID, req.NumCols); err != nil {
		respondError(c, err)
		return
	}
	h.respondStatus(c, matchID, userID)
}

// ToggleQuestionResults godoc
// @Summary      Toggle aggregate result visibility while playing
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} services.StatusView
// @Router       /api/v1/matches/{id}/toggle-question-results [post]
func (h *MatchHandler) ToggleQuestionResults(c *gin.Context) {
	h.transition(c, h.matchService.ToggleQuestionResults)
}

// ToggleUserResults godoc
// @Summary      Toggle per-student result review after finishing
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} services.StatusView
// @Router       /api/v1/matches/{id}/toggle-user-results [post]
func (h *MatchHandler) ToggleUserResults(c *gin.Context) {
	h.transition(c, h.matchService.ToggleUserResults)
}

// Refresh godoc
// @Summary      Presenter poll
// @Description  Prunes stale players and reports countdown expiry
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} map[string]interface{}
// @Router       /api/v1/matches/{id}/refresh [get]
func (h *MatchHandler) Refresh(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	view, expired, err := h.matchService.RefreshTeacher(matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":            view,
		"countdown_expired": expired,
	})
}

// GetTally godoc
// @Summary      Aggregate answer counts for one question
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Param        question_index query int true "Question index (1-based)"
// @Success      200 {object} services.TallyView
// @Router       /api/v1/matches/{id}/tally [get]
func (h *MatchHandler) GetTally(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	questionIndex, err := strconv.ParseUint(c.Query("question_index"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question_index"})
		return
	}

	tally, err := h.matchService.GetTally(matchID, userID, uint(questionIndex))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

// RemoveMatch godoc
// @Summary      Remove a match
// @Description  Soft-deletes the match and its answers and player records
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/matches/{id} [delete]
func (h *MatchHandler) RemoveMatch(c *gin.Context) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	if err := h.matchService.Remove(matchID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "match removed"})
}

func (h *MatchHandler) transition(c *gin.Context, op func(uint, uint) (*models.Match, error)) {
	userID := c.GetUint("user_id")
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}

	if _, err := op(matchID, userID); err != nil {
		respondError(c, err)
		return
	}
	h.respondStatus(c, matchID, userID)
}

func (h *MatchHandler) respondStatus(c *gin.Context, matchID, userID uint) {
	view, err := h.matchService.GetStatus(matchID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func matchIDParam(c *gin.Context) (uint, bool) {
	matchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid match id"})
		return 0, false
	}
	return uint(matchID), true
}
