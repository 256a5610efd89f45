package liquidity

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/pool"
)

// Handler handles HTTP requests for liquidity operations.
type Handler struct {
	service Service
}

// NewHandler creates a new liquidity handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Add handles POST /liquidity/add requests.
func (h *Handler) Add(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	resp, err := h.service.Add(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Remove handles POST /liquidity/remove requests.
func (h *Handler) Remove(c *gin.Context) {
	var req RemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	resp, err := h.service.Remove(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Positions handles GET /liquidity/positions/:address requests.
func (h *Handler) Positions(c *gin.Context) {
	positions, err := h.service.Positions(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, positions)
}

// Quote handles GET /liquidity/quote/:itemID requests. The token_amount
// query parameter sets the deposit size.
func (h *Handler) Quote(c *gin.Context) {
	tokenAmount, ok := new(big.Int).SetString(c.Query("token_amount"), 10)
	if !ok || tokenAmount.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_amount must be a decimal integer"})
		return
	}

	required, err := h.service.RequiredNative(c.Param("itemID"), tokenAmount)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item_id":       c.Param("itemID"),
		"token_amount":  tokenAmount.String(),
		"native_amount": required.String(),
	})
}

// RegisterRoutes registers liquidity routes on the given router group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/liquidity")
	{
		group.POST("/add", h.Add)
		group.POST("/remove", h.Remove)
		group.GET("/positions/:address", h.Positions)
		group.GET("/quote/:itemID", h.Quote)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, pool.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoPosition):
		return http.StatusNotFound
	case errors.Is(err, ErrMalformedAmount),
		errors.Is(err, amm.ErrZeroAmount):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrInsufficientShares),
		errors.Is(err, amm.ErrOrphanedReserves),
		errors.Is(err, amm.ErrPoolNotInitialized),
		errors.Is(err, amm.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
