package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/launchblock/amm-api/internal/amm"
	"github.com/launchblock/amm-api/internal/pool"
)

// MockService is a mock implementation of Service for handler tests.
type MockService struct {
	mock.Mock
}

func (m *MockService) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExecuteResponse), args.Error(1)
}

func (m *MockService) Estimate(ctx context.Context, req *EstimateRequest) (*EstimateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EstimateResponse), args.Error(1)
}

func (m *MockService) RecentTrades(itemID string, limit int) ([]*Trade, error) {
	args := m.Called(itemID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Trade), args.Error(1)
}

func (m *MockService) TradesByTrader(trader string, limit int) ([]*Trade, error) {
	args := m.Called(trader, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Trade), args.Error(1)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerExecute(t *testing.T) {
	svc := new(MockService)
	svc.On("Execute", mock.Anything, mock.AnythingOfType("*swap.ExecuteRequest")).
		Return(&ExecuteResponse{ItemID: "item-1", AmountOut: "997", Fee: "3"}, nil)

	w := postJSON(t, setupRouter(svc), "/api/v1/swap", ExecuteRequest{
		ItemID: "item-1", Trader: "alice", Direction: DirectionBuy, AmountIn: "1000",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "997", resp.AmountOut)
}

func TestHandlerExecuteMissingFields(t *testing.T) {
	svc := new(MockService)

	w := postJSON(t, setupRouter(svc), "/api/v1/swap", gin.H{"item_id": "item-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestHandlerExecuteErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", pool.ErrNotFound, http.StatusNotFound},
		{"slippage", amm.ErrSlippageExceeded, http.StatusUnprocessableEntity},
		{"zero amount", amm.ErrZeroAmount, http.StatusBadRequest},
		{"overflow", amm.ErrArithmeticOverflow, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Execute", mock.Anything, mock.Anything).Return(nil, tc.err)

			w := postJSON(t, setupRouter(svc), "/api/v1/swap", ExecuteRequest{
				ItemID: "item-1", Trader: "alice", Direction: DirectionBuy, AmountIn: "1000",
			})
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestHandlerEstimate(t *testing.T) {
	svc := new(MockService)
	svc.On("Estimate", mock.Anything, mock.AnythingOfType("*swap.EstimateRequest")).
		Return(&EstimateResponse{ItemID: "item-1", AmountOut: "997"}, nil)

	w := postJSON(t, setupRouter(svc), "/api/v1/swap/estimate", EstimateRequest{
		ItemID: "item-1", Direction: DirectionBuy, AmountIn: "1000",
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerRecentTrades(t *testing.T) {
	svc := new(MockService)
	svc.On("RecentTrades", "item-1", 20).Return([]*Trade{{ItemID: "item-1"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/swap/trades/item-1", nil)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerTraderHistory(t *testing.T) {
	svc := new(MockService)
	svc.On("TradesByTrader", "alice", 5).Return([]*Trade{{Trader: "alice"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/swap/history/alice?limit=5", nil)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
