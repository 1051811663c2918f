package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wavefm/station-backend/internal/auth"
	"github.com/wavefm/station-backend/internal/booking"
	bookingHttp "github.com/wavefm/station-backend/internal/booking/http"
	"github.com/wavefm/station-backend/internal/pkg/response"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction   bool
	ProdOrigins    string // comma-separated
	BookingService booking.Service
	JWTManager     *auth.JWTManager
	// HealthCheck reports whether backing stores are reachable. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(corsConfig(cfg)))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// staffMiddleware: Further checks that the actor may manage the schedule.
	staffMiddleware := auth.RequireRole(auth.RoleAdmin, auth.RoleStaff)

	r.GET("/healthz", healthHandler(cfg.HealthCheck))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, staffMiddleware)
	}

	return r
}

func corsConfig(cfg Config) cors.Config {
	config := cors.DefaultConfig()
	if cfg.IsProduction {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		config.AllowOrigins = []string{
			"http://localhost:3000", // Web player
			"http://localhost:8081", // Swagger
		}
	}
	if len(config.AllowOrigins) == 0 {
		// cors.New panics on an empty origin list.
		config.AllowOrigins = []string{"http://localhost"}
	}
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return config
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				response.Abort(c, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
