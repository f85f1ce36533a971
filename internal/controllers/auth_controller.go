package controllers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/policy"
	"github.com/crime-analysis/backend/internal/ratelimit"
	"github.com/crime-analysis/backend/internal/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthController serves login, the current user and the user listing.
type AuthController struct {
	resolver auth.IdentityResolver
	users    services.UserService
	limiter  *ratelimit.LoginLimiter
	guard    *Guard
	log      *zap.Logger
}

func NewAuthController(resolver auth.IdentityResolver, users services.UserService, limiter *ratelimit.LoginLimiter, guard *Guard, log *zap.Logger) *AuthController {
	return &AuthController{resolver: resolver, users: users, limiter: limiter, guard: guard, log: log}
}

// Register mounts /auth routes on authGroup and the user routes on api.
func (ctrl *AuthController) Register(authGroup, api *echo.Group) {
	authGroup.POST("/login", ctrl.Login)
	authGroup.GET("/me", ctrl.Me, ctrl.guard.Authenticate)

	api.GET("/me", ctrl.Me, ctrl.guard.Authenticate)
	api.GET("/users", ctrl.ListUsers, ctrl.guard.Authenticate, ctrl.guard.Require(policy.OpListUsers))
}

// Login exchanges email and password for a token. Only resolvers that keep
// their own passwords support it.
func (ctrl *AuthController) Login(c echo.Context) error {
	authenticator, ok := ctrl.resolver.(auth.PasswordAuthenticator)
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody("password login is not enabled"))
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	if d := ctrl.limiter.Allow(c.Request().Context(), c.RealIP(), req.Email); !d.Allowed {
		ctrl.log.Warn("login rate limited", zap.String("ip", c.RealIP()), zap.Int("attempts", d.Count))
		c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
		return c.JSON(http.StatusTooManyRequests, errorBody("too many login attempts"))
	}

	token, user, err := authenticator.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":   token,
		"user":    user,
		"message": "Login successful",
	})
}

func (ctrl *AuthController) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, CurrentUser(c))
}

func (ctrl *AuthController) ListUsers(c echo.Context) error {
	users, err := ctrl.users.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, ctrl.log, err)
	}
	out := make([]auth.AuthenticatedUser, 0, len(users))
	for _, u := range users {
		out = append(out, auth.AuthenticatedUser{ID: u.ID, Email: u.Email, Role: u.Role})
	}
	return c.JSON(http.StatusOK, out)
}
