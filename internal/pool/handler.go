package pool

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/launchblock/amm-api/internal/amm"
)

// Handler serves pool queries and the privileged pool-management routes.
type Handler struct {
	service Service
}

// NewHandler creates a pool handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreatePoolRequest is the payload for listing-time pool creation.
type CreatePoolRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	TotalSupply string `json:"total_supply" binding:"required"`
}

// SetFeeRateRequest is the payload for a fee-rate change.
type SetFeeRateRequest struct {
	FeeRateBps uint32 `json:"fee_rate_bps"`
}

// CreatePool handles POST /pools.
func (h *Handler) CreatePool(c *gin.Context) {
	var req CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	totalSupply, ok := new(big.Int).SetString(req.TotalSupply, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total_supply must be a decimal integer"})
		return
	}

	info, err := h.service.CreatePool(c.Request.Context(), req.ItemID, totalSupply)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, info)
}

// GetPool handles GET /pools/:itemID.
func (h *Handler) GetPool(c *gin.Context) {
	info, err := h.service.GetPoolInfo(c.Request.Context(), c.Param("itemID"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// ListPools handles GET /pools. With sort=volume the pools are ordered by
// 24h volume.
func (h *Handler) ListPools(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		infos []*Info
		err   error
	)
	if c.Query("sort") == "volume" {
		infos, err = h.service.TopPools(limit)
	} else {
		infos, err = h.service.ListPools(limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

// SetFeeRate handles PATCH /pools/:itemID/fee. Admin only.
func (h *Handler) SetFeeRate(c *gin.Context) {
	var req SetFeeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	itemID := c.Param("itemID")
	if err := h.service.SetFeeRate(c.Request.Context(), itemID, req.FeeRateBps); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "fee_rate_bps": req.FeeRateBps})
}

// RegisterRoutes mounts pool routes; adminGuard protects the mutating ones.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, adminGuard gin.HandlerFunc) {
	pools := router.Group("/pools")
	{
		pools.GET("", h.ListPools)
		pools.GET("/:itemID", h.GetPool)
		pools.POST("", adminGuard, h.CreatePool)
		pools.PATCH("/:itemID/fee", adminGuard, h.SetFeeRate)
	}
}

// statusForError maps service and engine errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, amm.ErrZeroAmount),
		errors.Is(err, amm.ErrInsufficientInput),
		errors.Is(err, amm.ErrInvalidFeeRate):
		return http.StatusBadRequest
	case errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrInsufficientShares),
		errors.Is(err, amm.ErrOrphanedReserves),
		errors.Is(err, amm.ErrPoolNotInitialized):
		return http.StatusUnprocessableEntity
	case errors.Is(err, amm.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
