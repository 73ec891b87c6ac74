package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"match-core/internal/book"
	"match-core/internal/engine"
	"match-core/internal/lifecycle"
	"match-core/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createOrderRequest struct {
	Symbol      string  `json:"symbol" binding:"required,min=1"`
	Side        string  `json:"side" binding:"required,oneof=BUY SELL"`
	Type        string  `json:"type" binding:"required,min=1"`
	Price       float64 `json:"price"`
	StopPrice   float64 `json:"stop_price"`
	TrailAmount float64 `json:"trail_amount"`
	Qty         float64 `json:"qty" binding:"gt=0"`
	VisibleQty  float64 `json:"visible_qty"`
}

type listOrdersQuery struct {
	Symbol string `form:"symbol"`
	Limit  int    `form:"limit"`
}

type listTradesQuery struct {
	Symbol string `form:"symbol"`
	Limit  int    `form:"limit"`
}

func (q *listOrdersQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
}

func (q *listTradesQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

// rejectionStatus maps engine sentinel errors to an HTTP status and a
// machine-readable rejection code.
func rejectionStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, engine.ErrWouldTakeLiquidity):
		return http.StatusConflict, "WOULD_TAKE_LIQUIDITY"
	case errors.Is(err, engine.ErrInsufficientDepth):
		return http.StatusConflict, "INSUFFICIENT_DEPTH"
	case errors.Is(err, engine.ErrUnknownSymbol):
		return http.StatusNotFound, "UNKNOWN_SYMBOL"
	case errors.Is(err, lifecycle.ErrOrderNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, lifecycle.ErrAlreadyTerminal):
		return http.StatusConflict, "ALREADY_TERMINAL"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// submitOrder accepts a new order and runs it through the matching engine.
// The response carries the synchronous ack; fills stream over the bus.
func (s *Server) submitOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	o := &book.Order{
		ID:          uuid.NewString(),
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Side:        book.Side(req.Side),
		Type:        book.OrderType(strings.ToUpper(req.Type)),
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		TrailAmount: req.TrailAmount,
		Qty:         req.Qty,
		VisibleQty:  req.VisibleQty,
		CreatedAt:   time.Now(),
	}

	if s.Journal != nil {
		if err := s.Journal.Record(*o); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
	}

	ack, err := s.Engine.Submit(c.Request.Context(), o)

	if s.Journal != nil {
		// The order reached a resolution either way; a crash from here on
		// must not replay it.
		if jerr := s.Journal.Done(*o); jerr != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", jerr.Error())
			return
		}
	}

	if err != nil {
		status, code := rejectionStatus(err)
		c.JSON(status, gin.H{
			"code":     code,
			"error":    err.Error(),
			"order_id": o.ID,
		})
		return
	}

	c.JSON(http.StatusCreated, ack)
}

// cancelOrder removes a working or pending order.
func (s *Server) cancelOrder(c *gin.Context) {
	id := c.Param("id")
	if err := s.Engine.Cancel(c.Request.Context(), id); err != nil {
		status, code := rejectionStatus(err)
		respondError(c, status, code, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": id,
		"status":   book.StatusCanceled,
	})
}

// getOrder returns the live engine view of an order, falling back to the
// audit store for orders from previous runs.
func (s *Server) getOrder(c *gin.Context) {
	id := c.Param("id")

	if o, err := s.Engine.Status(id); err == nil {
		c.JSON(http.StatusOK, gin.H{
			"order_id":   o.ID,
			"symbol":     o.Symbol,
			"side":       o.Side,
			"type":       o.Type,
			"price":      o.Price,
			"stop_price": o.StopPrice,
			"qty":        o.Qty,
			"filled_qty": o.FilledQty,
			"avg_price":  o.AvgFillPrice(),
			"status":     o.Status,
			"created_at": o.CreatedAt,
		})
		return
	}

	stored, err := s.DB.GetOrder(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "order not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, stored)
}

// getOrders lists recent orders from the audit store.
func (s *Server) getOrders(c *gin.Context) {
	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	q.normalize()

	orders, err := s.DB.ListRecentOrders(c.Request.Context(), strings.ToUpper(q.Symbol), q.Limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getBook returns an aggregated depth snapshot for a symbol.
func (s *Server) getBook(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	pair := s.Engine.Pair(symbol)
	if pair == nil {
		respondError(c, http.StatusNotFound, "UNKNOWN_SYMBOL", "unknown symbol")
		return
	}

	depth := s.DefaultDepth
	if raw := c.Query("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "INVALID_DEPTH", "depth must be a positive integer")
			return
		}
		depth = n
	}

	bids, asks := pair.Snapshot(depth)
	c.JSON(http.StatusOK, gin.H{
		"symbol":     symbol,
		"bids":       bids,
		"asks":       asks,
		"last_price": pair.LastPrice(),
	})
}

// getQuote returns the cached top of book and last price.
func (s *Server) getQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if s.Quotes == nil {
		respondError(c, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "quote cache not available")
		return
	}
	quote, age, ok := s.Quotes.GetWithAge(symbol)
	if !ok {
		respondError(c, http.StatusNotFound, "NO_QUOTE", "no quote for symbol")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":     symbol,
		"last_price": quote.LastPrice,
		"best_bid":   quote.BestBid,
		"best_ask":   quote.BestAsk,
		"age_ms":     age.Milliseconds(),
	})
}

// getTrades lists recent fills from the audit store.
func (s *Server) getTrades(c *gin.Context) {
	var q listTradesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	q.normalize()

	trades, err := s.DB.ListTrades(c.Request.Context(), strings.ToUpper(q.Symbol), q.Limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// getPairs lists the configured trading pairs.
func (s *Server) getPairs(c *gin.Context) {
	pairs, err := s.DB.ListPairs(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

// getSystemStatus exposes runtime configuration for clients.
func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbols":       s.Meta.Symbols,
		"use_mock_feed": s.Meta.UseMockFeed,
		"version":       s.Meta.Version,
		"server_time":   time.Now().UTC(),
	})
}

// getMetrics returns engine performance metrics.
func (s *Server) getMetrics(c *gin.Context) {
	if s.Metrics == nil {
		respondError(c, http.StatusServiceUnavailable, "METRICS_UNAVAILABLE", "metrics not available")
		return
	}
	c.JSON(http.StatusOK, s.Metrics.Snapshot())
}

// getJournalMetrics returns write-ahead log statistics.
func (s *Server) getJournalMetrics(c *gin.Context) {
	if s.Journal == nil {
		respondError(c, http.StatusServiceUnavailable, "JOURNAL_UNAVAILABLE", "order journal not enabled")
		return
	}
	m := s.Journal.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"written":   m.Written,
		"recovered": m.Recovered,
		"completed": m.Completed,
		"failed":    m.Failed,
	})
}
