package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ytakahashi/todo-app/internal/services"
)

// MaxBodySize caps request bodies. Bulk calls carry one id per todo, so it is
// sized well above any realistic list.
const MaxBodySize = "4M"

// NewServer wires the todo routes onto a fresh echo instance. Routes are
// served both at the root and under /api.
func NewServer(store services.Store, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("Handled", "method", v.Method, "uri", v.URI, "status", v.Status, "duration", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxBodySize))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	todoHandler := NewTodoHandler(store, logger)
	todoHandler.Register(e)
	todoHandler.Register(e.Group("/api"))

	return e
}
