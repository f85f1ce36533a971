package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"regexp"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/config"
	"github.com/crime-analysis/backend/internal/controllers"
	"github.com/crime-analysis/backend/internal/database"
	"github.com/crime-analysis/backend/internal/logger"
	"github.com/crime-analysis/backend/internal/ratelimit"
	"github.com/crime-analysis/backend/internal/services"
)

const serviceName = "crime-analysis-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	store, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, store.DB); err != nil {
			return err
		}
		zl.Info("migrations applied")
	}

	users := services.NewUserService(store.DB, zl)
	weights := services.NewCrimeWeightService(store.DB, zl)
	reports, err := services.NewReportService(store.DB, weights, cfg.ReportWeightStrategy, zl)
	if err != nil {
		return err
	}

	var resolver auth.IdentityResolver
	switch cfg.AuthMode {
	case config.AuthModeJWKS:
		resolver = auth.NewExternalJWKS(users, auth.ExternalJWKSConfig{
			JWKSURL:    cfg.JWKSURL,
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
			RoleClaim:  cfg.JWTRoleClaim,
			EmailClaim: cfg.JWTEmailClaim,
		}, zl)
	default:
		resolver = auth.NewLocalPassword(users, cfg.SecretKey, cfg.TokenTTL)
	}
	zl.Info("identity resolver selected", zap.String("auth_mode", cfg.AuthMode))

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zl.Warn("redis unreachable, login throttling fails open", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
	}

	e := newEcho(cfg, zl)
	controllers.RegisterRoutes(e, controllers.Deps{
		Resolver:       resolver,
		Users:          users,
		Crimes:         services.NewCrimeService(store.DB, zl),
		Weights:        weights,
		Neighbourhoods: services.NewNeighbourhoodService(store.DB, zl),
		Reports:        reports,
		Limiter:        ratelimit.NewLoginLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow, zl),
		DB:             store,
		Log:            zl,
	})

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port))
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.Config, zl *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				zl.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zl.Info("request", fields...)
			return nil
		},
	}))

	var pattern *regexp.Regexp
	if cfg.CORSOriginPattern != "" {
		if re, err := regexp.Compile(cfg.CORSOriginPattern); err != nil {
			zl.Warn("ignoring invalid CORS origin pattern", zap.String("pattern", cfg.CORSOriginPattern), zap.Error(err))
		} else {
			pattern = re
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			if slices.Contains(cfg.CORSOrigins, origin) {
				return true, nil
			}
			return pattern != nil && pattern.MatchString(origin), nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	return e
}
