package controllers

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/ratelimit"
	"github.com/crime-analysis/backend/internal/services"
)

// Deps is everything the HTTP surface needs, built once in cmd/server.
type Deps struct {
	Resolver       auth.IdentityResolver
	Users          services.UserService
	Crimes         services.CrimeService
	Weights        services.CrimeWeightService
	Neighbourhoods services.NeighbourhoodService
	Reports        services.ReportService
	Limiter        *ratelimit.LoginLimiter
	DB             Pinger
	Log            *zap.Logger
}

// RegisterRoutes mounts every controller on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	guard := NewGuard(d.Resolver, d.Log)
	api := e.Group("/api")

	NewHealthController(d.DB).Register(e)
	NewAuthController(d.Resolver, d.Users, d.Limiter, guard, d.Log).Register(e.Group("/auth"), api)
	NewCrimeController(d.Crimes, guard, d.Log).Register(api)
	NewNeighbourhoodController(d.Neighbourhoods, d.Weights, d.Log).Register(api)
	NewReportController(d.Reports, guard, d.Log).Register(api)
}
