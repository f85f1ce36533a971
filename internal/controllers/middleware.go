package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/policy"
)

const userContextKey = "auth.user"

// Guard authenticates bearer tokens and enforces the role policy.
type Guard struct {
	resolver auth.IdentityResolver
	log      *zap.Logger
}

func NewGuard(resolver auth.IdentityResolver, log *zap.Logger) *Guard {
	return &Guard{resolver: resolver, log: log}
}

// Authenticate resolves the bearer token and stores the user on the context.
// Missing or malformed credentials answer 401 before any role check runs.
func (g *Guard) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return c.JSON(http.StatusUnauthorized, errorBody("not authenticated"))
		}

		user, err := g.resolver.Resolve(c.Request().Context(), token)
		if err != nil {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
			return writeError(c, g.log, err)
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

// Require rejects users whose role may not perform op. It must run after
// Authenticate.
func (g *Guard) Require(op policy.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return c.JSON(http.StatusUnauthorized, errorBody("not authenticated"))
			}
			if err := policy.Check(user.Role, op); err != nil {
				g.log.Info("operation denied",
					zap.Uint("user_id", user.ID),
					zap.String("role", string(user.Role)),
					zap.String("operation", string(op)),
				)
				return writeError(c, g.log, err)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c echo.Context) *auth.AuthenticatedUser {
	user, _ := c.Get(userContextKey).(*auth.AuthenticatedUser)
	return user
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
