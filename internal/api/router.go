// Package api exposes the finance service over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"personal-finance-backend/internal/finance"
	"personal-finance-backend/internal/logging"
)

// Options configures the router.
type Options struct {
	// Development adds internal error details to 500 responses.
	Development bool
	CORSOrigins []string
	Logger      *slog.Logger
}

// Handler serves the finance API.
type Handler struct {
	svc *finance.Service
	dev bool
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(svc *finance.Service, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &Handler{svc: svc, dev: opts.Development}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(opts.Logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.NoRoute(notFound)
	r.GET("/health", h.health)

	api := r.Group("/api", RequireUser())

	api.GET("/categories", h.listCategories)

	tx := api.Group("/transactions")
	tx.POST("", h.createTransaction)
	tx.GET("", h.listTransactions)
	tx.GET("/summary", h.transactionSummary)
	tx.GET("/trend", h.transactionTrend)
	tx.GET("/:id", h.getTransaction)
	tx.PATCH("/:id", h.updateTransaction)
	tx.DELETE("/:id", h.deleteTransaction)

	budgets := api.Group("/budgets")
	budgets.POST("", h.createBudget)
	budgets.GET("", h.listBudgets)
	budgets.GET("/current", h.currentBudget)
	budgets.GET("/:id", h.getBudget)
	budgets.PATCH("/:id", h.updateBudget)
	budgets.DELETE("/:id", h.deleteBudget)

	goals := api.Group("/goals")
	goals.POST("", h.createGoal)
	goals.GET("", h.listGoals)
	goals.GET("/stats", h.goalStats)
	goals.GET("/active", h.activeGoals)
	goals.PATCH("/:id/add", h.addToGoal)
	goals.GET("/:id", h.getGoal)
	goals.PATCH("/:id", h.updateGoal)
	goals.DELETE("/:id", h.deleteGoal)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", UserHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// health reports whether the store is reachable.
func (h *Handler) health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
