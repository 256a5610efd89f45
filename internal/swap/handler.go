package swap

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/pool"
)

// Handler handles HTTP requests for swap operations.
type Handler struct {
	service Service
}

// NewHandler creates a new swap handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Execute handles POST /swap requests.
func (h *Handler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	resp, err := h.service.Execute(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estimate handles POST /swap/estimate requests.
func (h *Handler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	resp, err := h.service.Estimate(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecentTrades handles GET /swap/trades/:itemID requests.
func (h *Handler) RecentTrades(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	trades, err := h.service.RecentTrades(c.Param("itemID"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// TraderHistory handles GET /swap/history/:address requests.
func (h *Handler) TraderHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	trades, err := h.service.TradesByTrader(c.Param("address"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

// RegisterRoutes registers swap routes on the given router group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/swap")
	{
		group.POST("", h.Execute)
		group.POST("/estimate", h.Estimate)
		group.GET("/trades/:itemID", h.RecentTrades)
		group.GET("/history/:address", h.TraderHistory)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, pool.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrMalformedAmount),
		errors.Is(err, amm.ErrZeroAmount),
		errors.Is(err, amm.ErrInsufficientInput):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrPoolNotInitialized),
		errors.Is(err, amm.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
