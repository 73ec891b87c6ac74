package api

import (
	"net/http"
	"time"

	"match-core/internal/engine"
	"match-core/internal/events"
	"match-core/internal/monitor"
	"match-core/pkg/cache"
	"match-core/pkg/db"

	"github.com/gin-gonic/gin"
)

// Server wires HTTP endpoints around the matching engine.
type Server struct {
	Router       *gin.Engine
	Bus          *events.Bus
	DB           *db.Database
	Engine       *engine.Router
	Journal      *engine.Journal
	Quotes       *cache.QuoteCache
	Metrics      *monitor.Metrics
	JWTSecret    string
	DefaultDepth int
	Meta         SystemMeta
}

// SystemMeta describes runtime status exposed to clients.
type SystemMeta struct {
	Symbols     []string
	UseMockFeed bool
	Version     string
}

func NewServer(bus *events.Bus, database *db.Database, eng *engine.Router, journal *engine.Journal, quotes *cache.QuoteCache, metrics *monitor.Metrics, meta SystemMeta, jwtSecret string, defaultDepth int) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())                      // Panic recovery (first)
	r.Use(RequestIDMiddleware())               // Request ID tracking
	r.Use(RequestLogger(metrics))              // Request logging (after ID is set)
	r.Use(RateLimitMiddleware())               // Rate limiting
	r.Use(TimeoutMiddleware(30 * time.Second)) // Request timeout (30s)
	r.Use(CORSMiddleware())                    // CORS (last before routes)

	s := &Server{
		Router:       r,
		Bus:          bus,
		DB:           database,
		Engine:       eng,
		Journal:      journal,
		Quotes:       quotes,
		Metrics:      metrics,
		JWTSecret:    jwtSecret,
		DefaultDepth: defaultDepth,
		Meta:         meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/system/status", s.getSystemStatus)
		api.GET("/metrics", s.getMetrics)
		api.GET("/journal/metrics", s.getJournalMetrics)

		// Market data (no auth required)
		api.GET("/pairs", s.getPairs)
		api.GET("/book/:symbol", s.getBook)
		api.GET("/quote/:symbol", s.getQuote)
		api.GET("/trades", s.getTrades)

		// Auth endpoints (no auth required)
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.POST("/login", s.loginUser)
		}

		// Protected API
		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.POST("/orders", s.submitOrder)
			protected.DELETE("/orders/:id", s.cancelOrder)
			protected.GET("/orders/:id", s.getOrder)
			protected.GET("/orders", s.getOrders)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
