package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"eventlocator/internal/auth"
	"eventlocator/internal/config"
	"eventlocator/internal/http/handlers"
	"eventlocator/internal/http/middlewares"
	"eventlocator/internal/observability"
	"eventlocator/internal/queue/redisclient"
	"eventlocator/internal/repo/postgres"
)

type RouterDeps struct {
	Cfg   config.Config
	Pool  *pgxpool.Pool
	Redis *redisclient.Client
	Prom  *observability.Prom

	// /metrics endpoint; nil disables it
	MetricsHandler http.Handler

	JWT       *auth.Manager
	Scheduler handlers.ReminderScheduler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware order matters: recovery first, then identity and
	// telemetry, then request shaping
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(otelgin.Middleware("eventlocator-api"))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.Locale())

	// probes + metrics

	var dbPing, redisPing handlers.Pinger

	if deps.Pool != nil {
		dbPing = deps.Pool.Ping
	}
	if deps.Redis != nil {
		redisPing = deps.Redis.Ping
	}

	health := handlers.NewHealthHandler(dbPing, redisPing)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(deps.Pool, deps.Prom)
	eventsRepo := postgres.NewEventsRepo(deps.Pool, deps.Prom)
	categoriesRepo := postgres.NewCategoriesRepo(deps.Pool, deps.Prom)

	authHandler := handlers.NewAuthHandler(usersRepo, deps.JWT)
	eventsHandler := handlers.NewEventsHandler(eventsRepo, categoriesRepo, deps.Scheduler)
	searchHandler := handlers.NewSearchHandler(eventsRepo, usersRepo)
	categoriesHandler := handlers.NewCategoriesHandler(categoriesRepo)

	authMw := middlewares.NewAuthMiddleware(deps.JWT)

	// credential endpoints get a tighter budget than the rest
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	apiLimiter := middlewares.NewRateLimiter(120, time.Minute)

	api := r.Group("/api")
	api.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
		authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

		authGroup.GET("/profile", authMw.RequireAuth(), authHandler.GetProfile)
		authGroup.PUT("/profile", authMw.RequireAuth(), authHandler.UpdateProfile)
		authGroup.PUT("/change-password", authMw.RequireAuth(), authHandler.ChangePassword)
	}

	events := api.Group("/events")
	{
		// static paths before the :id param so gin never shadows them
		events.GET("/search", eventsHandler.SearchNearby)
		events.GET("/filter", eventsHandler.FilterByCategory)

		events.GET("", eventsHandler.ListEvents)
		events.GET("/:id", eventsHandler.GetEventById)

		events.POST("", authMw.RequireAuth(), eventsHandler.CreateEvent)
		events.PUT("/:id", authMw.RequireAuth(), eventsHandler.UpdateEvent)
		events.DELETE("/:id", authMw.RequireAuth(), eventsHandler.DeleteEvent)
	}

	api.GET("/categories", categoriesHandler.ListCategories)

	search := api.Group("/search")
	{
		search.GET("/location", searchHandler.ByLocation)
		search.GET("/preferences", authMw.RequireAuth(), searchHandler.ByPreferences)
	}

	return r
}
