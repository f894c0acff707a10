package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/delivery/http/handler"
	"github.com/route-impact/internal/delivery/http/middleware"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

const (
	// uploadBodyLimit - лимит тела запроса для загрузки файлов поездок
	uploadBodyLimit = 32 * 1024 * 1024
	ssePath         = "/bulk/run"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	signalHandler  *handler.SignalHandler
	routeHandler   *handler.RouteHandler
	savingsHandler *handler.SavingsHandler
	bulkHandler    *handler.BulkHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	signalHandler *handler.SignalHandler,
	routeHandler *handler.RouteHandler,
	savingsHandler *handler.SavingsHandler,
	bulkHandler *handler.BulkHandler,
) *Server {
	// WriteTimeout не задан: пакетный прогон отдаёт SSE дольше любого таймаута
	app := fiber.New(fiber.Config{
		AppName:      "Route Impact Engine",
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    uploadBodyLimit,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		signalHandler:  signalHandler,
		routeHandler:   routeHandler,
		savingsHandler: savingsHandler,
		bulkHandler:    bulkHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App возвращает fiber.App (используется в тестах через app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		// сжатие буферизует поток событий
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), ssePath)
		},
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// Signal catalog
	api.Get("/signals/stats", s.signalHandler.GetStats)
	api.Get("/signals.geojson", s.signalHandler.GetGeoJSON)

	// Single route
	api.Post("/route/analyze", s.routeHandler.Analyze)
	api.Post("/savings/estimate", s.savingsHandler.Estimate)

	// Bulk
	bulk := api.Group("/bulk")
	bulk.Post("/parse", s.bulkHandler.Parse)
	bulk.Post("/preview", s.bulkHandler.Preview)
	bulk.Post("/checkout", s.bulkHandler.Checkout)
	bulk.Post("/run", s.bulkHandler.Run)
	bulk.Delete("/:id", s.bulkHandler.Cancel)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			logger.Warn("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", e.Code),
				zap.Error(err),
			)
			return utils.SendError(c, errors.New("HTTP_ERROR", e.Message, e.Code))
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
