package server

import (
	"time"

	"github.com/wasuken/maptabi-new/internal/auth"
	"github.com/wasuken/maptabi-new/internal/comment"
	"github.com/wasuken/maptabi-new/internal/config"
	"github.com/wasuken/maptabi-new/internal/diary"
	"github.com/wasuken/maptabi-new/internal/location"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	cacheTTL := time.Duration(s.Cfg.NearbyCacheSec) * time.Second

	auth.RegisterRoutes(s.App.Group("/users"), auth.NewService(s.Cfg.JWTSecret, s.DB), jwtMiddleware)
	diary.RegisterRoutes(s.App.Group("/diaries"), diary.NewService(s.DB), jwtMiddleware)
	location.RegisterRoutes(s.App.Group("/locations"), location.NewService(s.DB, s.Redis, cacheTTL), jwtMiddleware)
	comment.RegisterRoutes(s.App, comment.NewService(s.DB), jwtMiddleware)
}

// errorHandler renders every fiber error as the {"message": ...} JSON
// shape clients expect; anything unrecognized stays a bare 500.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
