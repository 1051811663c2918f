package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wavefm/station-backend/internal/api"
	"github.com/wavefm/station-backend/internal/auth"
	"github.com/wavefm/station-backend/internal/booking"
	"github.com/wavefm/station-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration

	// Redis enables the DJ directory cache when non-nil.
	Redis      redis.Cmdable
	DJCacheTTL time.Duration

	// Notifier receives booking events. Optional.
	Notifier booking.Notifier
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// DJ Directory
	var directory user.Directory = user.NewPgxDirectory(cfg.DBPool)
	if cfg.Redis != nil {
		directory = user.NewCachedDirectory(directory, cfg.Redis, cfg.DJCacheTTL)
	}

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, directory, cfg.Notifier)

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		BookingService: bookingService,
		JWTManager:     jwtManager,
		HealthCheck:    cfg.DBPool.Ping,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
