package handlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"raffle/internal/models"
	"raffle/internal/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service *services.RaffleService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.RaffleService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/enter", h.Enter)
	router.GET("/raffle", h.GetRaffle)
	router.GET("/players/:index", h.GetPlayer)
	router.GET("/upkeep", h.CheckUpkeep)
	router.POST("/upkeep", h.PerformUpkeep)
}

type enterRequest struct {
	Player string `json:"player" binding:"required"`
	Amount string `json:"amount" binding:"required"` // wei, decimal string
}

// Enter handles a participation request.
func (h *HTTPHandler) Enter(c *gin.Context) {
	var req enterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !common.IsHexAddress(req.Player) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player address"})
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	err := h.service.Enter(common.HexToAddress(req.Player), amount)
	switch {
	case errors.Is(err, models.ErrInsufficientFee):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrRaffleNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		logger.Errorf("enter failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "entry failed"})
	default:
		c.JSON(http.StatusCreated, gin.H{"player": req.Player})
	}
}

// GetRaffle handles the read-only raffle summary.
func (h *HTTPHandler) GetRaffle(c *gin.Context) {
	resp := gin.H{
		"state":       h.service.State().String(),
		"entranceFee": h.service.EntranceFee().String(),
		"balance":     h.service.Balance().String(),
		"playerCount": h.service.PlayerCount(),
		"lastReset":   h.service.LastResetTime(),
	}
	if winner, ok := h.service.RecentWinner(); ok {
		resp["recentWinner"] = winner.Hex()
	}
	c.JSON(http.StatusOK, resp)
}

// GetPlayer returns the entry at the given index.
func (h *HTTPHandler) GetPlayer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	player, err := h.service.Player(index)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": index, "player": player.Hex()})
}

// CheckUpkeep reports whether a round should be triggered.
func (h *HTTPHandler) CheckUpkeep(c *gin.Context) {
	needed, _ := h.service.CheckUpkeep()
	c.JSON(http.StatusOK, gin.H{"upkeepNeeded": needed})
}

// PerformUpkeep triggers a round if eligible.
func (h *HTTPHandler) PerformUpkeep(c *gin.Context) {
	requestID, err := h.service.PerformUpkeep()
	var notNeeded *models.UpkeepNotNeededError
	switch {
	case errors.As(err, &notNeeded):
		c.JSON(http.StatusConflict, gin.H{
			"error":       notNeeded.Error(),
			"balance":     notNeeded.Balance.String(),
			"playerCount": notNeeded.PlayerCount,
			"state":       notNeeded.State.String(),
		})
	case err != nil:
		logger.Errorf("upkeep failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "randomness request failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"requestId": requestID})
	}
}
