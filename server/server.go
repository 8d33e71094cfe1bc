package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/habitgrid/internal/db"
	"github.com/existflow/habitgrid/internal/logger"
)

// Server is the habits REST server
type Server struct {
	db   *db.DB
	echo *echo.Echo
}

// NewWithDB creates a server for an already opened database
func NewWithDB(store *db.DB) *Server {
	s := &Server{db: store}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	api := e.Group("/api")

	api.GET("/users/:userId/habits", s.handleListHabits)
	api.POST("/users/:userId/habits", s.handleCreateHabit)
	api.PUT("/users/:userId/habits", s.handleUpdateHabits)

	api.PUT("/habits/:habitId", s.handleUpdateHabit)
	api.DELETE("/habits/:habitId", s.handleDeleteHabit)

	api.POST("/habitEntries", s.handleCreateEntry)
	api.DELETE("/habitEntries/:entryId", s.handleDeleteEntry)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	logger.Info("Server listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		logger.Error("Health check failed", logger.F("error", err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": s.db.Dialect().String(),
	})
}
