package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything whose reachability can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db, timeout: 2 * time.Second}
}

func (ctrl *HealthController) Register(e *echo.Echo) {
	e.GET("/health", ctrl.HealthCheck)
	e.GET("/api/hello", ctrl.Hello)
}

// HealthCheck reports the service status and database connectivity.
func (ctrl *HealthController) HealthCheck(c echo.Context) error {
	health := echo.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	checks := echo.Map{}
	health["checks"] = checks

	ctx, cancel := context.WithTimeout(c.Request().Context(), ctrl.timeout)
	defer cancel()

	status := http.StatusOK
	if err := ctrl.db.Ping(ctx); err != nil {
		checks["database"] = echo.Map{"status": "error", "message": err.Error()}
		health["status"] = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = echo.Map{"status": "ok", "message": "database is reachable"}
	}
	return c.JSON(status, health)
}

func (ctrl *HealthController) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Crime Analysis backend is alive"})
}
