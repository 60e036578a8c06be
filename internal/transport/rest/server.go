// Package rest содержит HTTP API корзины поверх echo.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cart/internal/domain"
	cartservice "github.com/vladislavdragonenkov/cart/internal/service/cart"
)

// Server — HTTP сервер API корзины.
type Server struct {
	echo     *echo.Echo
	service  *cartservice.Service
	sessions *SessionManager
	idemRepo domain.IdempotencyRepository
	idemTTL  time.Duration
	logger   *log.Entry
	addr     string
}

// ServerOption настраивает Server.
type ServerOption func(*Server)

// WithIdempotency включает обработку заголовка Idempotency-Key на мутирующих
// запросах.
func WithIdempotency(repo domain.IdempotencyRepository, ttl time.Duration) ServerOption {
	return func(s *Server) {
		s.idemRepo = repo
		if ttl > 0 {
			s.idemTTL = ttl
		}
	}
}

// WithServerLogger задаёт logger сервера.
func WithServerLogger(logger *log.Entry) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer собирает echo-сервер с маршрутами корзины.
func NewServer(addr string, service *cartservice.Service, sessionManager *SessionManager, options ...ServerOption) *Server {
	s := &Server{
		service:  service,
		sessions: sessionManager,
		idemTTL:  24 * time.Hour,
		logger:   log.WithField("component", "rest-server"),
		addr:     addr,
	}
	for _, option := range options {
		option(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	s.echo = e
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api/cart", s.sessions.Middleware())

	mutating := []echo.MiddlewareFunc{s.idempotencyMiddleware()}

	api.POST("/items", s.addItem, mutating...)
	api.PATCH("/items/:productId", s.updateItem, mutating...)
	api.DELETE("/items/:productId", s.removeItem, mutating...)
	api.DELETE("", s.clearCart, mutating...)
	api.POST("/verify", s.verifyCart, mutating...)

	api.GET("", s.getCart)
	api.GET("/count", s.getCount)
	api.GET("/totals", s.getTotals)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)

			s.logger.WithFields(log.Fields{
				"method":      c.Request().Method,
				"path":        c.Request().URL.Path,
				"status":      c.Response().Status,
				"duration_ms": time.Since(started).Milliseconds(),
			}).Debug("http request")
			return err
		}
	}
}

// Handler возвращает http.Handler сервера (используется в тестах).
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start запускает HTTP сервер и блокируется до его остановки.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("starting HTTP server")
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
