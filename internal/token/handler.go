package token

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the token registry.
type Handler struct {
	service Service
}

// NewHandler creates a new token handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /tokens requests.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	tok, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tok)
}

// Get handles GET /tokens/:itemID requests.
func (h *Handler) Get(c *gin.Context) {
	tok, err := h.service.Get(c.Param("itemID"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tok)
}

// List handles GET /tokens requests. Filters: creator, status.
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		tokens []*Token
		err    error
	)
	switch {
	case c.Query("creator") != "":
		tokens, err = h.service.ListByCreator(c.Query("creator"), limit, offset)
	case c.Query("status") != "":
		tokens, err = h.service.ListByStatus(Status(c.Query("status")), limit, offset)
	default:
		tokens, err = h.service.List(limit, offset)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// ListToken handles POST /tokens/:itemID/list requests. Admin only.
func (h *Handler) ListToken(c *gin.Context) {
	tok, err := h.service.ListToken(c.Request.Context(), c.Param("itemID"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tok)
}

// RegisterRoutes mounts token routes; adminGuard protects the listing step.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, adminGuard gin.HandlerFunc) {
	tokens := router.Group("/tokens")
	{
		tokens.GET("", h.List)
		tokens.GET("/:itemID", h.Get)
		tokens.POST("", h.Register)
		tokens.POST("/:itemID/list", adminGuard, h.ListToken)
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrAlreadyListed):
		return http.StatusConflict
	case errors.Is(err, ErrMalformedSupply):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
