package controllers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crime-analysis/backend/internal/auth"
	"github.com/crime-analysis/backend/internal/config"
	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/ratelimit"
	"github.com/crime-analysis/backend/internal/services"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var errPingRefused = errors.New("dial tcp: connection refused")

type testServer struct {
	e      *echo.Echo
	db     *gorm.DB
	local  *auth.LocalPassword
	users  services.UserService
	tokens map[models.Role]string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Neighbourhood{},
		&models.CrimeWeight{},
		&models.CrimeCategory{},
		&models.CrimeFormData{},
	))
	return db
}

// newTestServer wires the real services over SQLite with local tokens and
// issues one token per role.
func newTestServer(t *testing.T, limiter *ratelimit.LoginLimiter, pinger Pinger) *testServer {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()

	users := services.NewUserService(db, log)
	weights := services.NewCrimeWeightService(db, log)
	reports, err := services.NewReportService(db, weights, config.WeightStrategyDominant, log)
	require.NoError(t, err)
	local := auth.NewLocalPassword(users, "test-secret", time.Hour)
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter(nil, 0, 0, log)
	}

	e := echo.New()
	RegisterRoutes(e, Deps{
		Resolver:       local,
		Users:          users,
		Crimes:         services.NewCrimeService(db, log),
		Weights:        weights,
		Neighbourhoods: services.NewNeighbourhoodService(db, log),
		Reports:        reports,
		Limiter:        limiter,
		DB:             pinger,
		Log:            log,
	})

	ts := &testServer{e: e, db: db, local: local, users: users, tokens: map[models.Role]string{}}
	for _, role := range models.Roles {
		u := models.User{Email: string(role) + "@city.gov", Role: role}
		require.NoError(t, db.Create(&u).Error)
		token, err := local.Issue(u.ID)
		require.NoError(t, err)
		ts.tokens[role] = token
	}

	require.NoError(t, db.Create(&[]models.CrimeWeight{
		{MainCategory: "Theft", Weight: 3},
		{MainCategory: "Assault", Weight: 7},
	}).Error)
	require.NoError(t, db.Create(&[]models.CrimeCategory{
		{MainCategory: "Theft", Subcategory: "Pickpocketing"},
		{MainCategory: "Theft", Subcategory: "Burglary"},
	}).Error)
	require.NoError(t, db.Create(&[]models.Neighbourhood{
		{Name: "Central", Population: 64.3, IncomeLevel: "High", UniversityEducationPercent: 41, UnemploymentPercent: 4, UnmarriedOver30Percent: 22},
		{Name: "Harbour", Population: 12.5, IncomeLevel: "Low", UniversityEducationPercent: 9, UnemploymentPercent: 11, UnmarriedOver30Percent: 30},
	}).Error)
	return ts
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) as(role models.Role, method, path, body string) *httptest.ResponseRecorder {
	return ts.do(method, path, ts.tokens[role], body)
}

const theftForm = `{
	"main_category": "Theft",
	"subcategories": ["Pickpocketing", "Burglary"],
	"neighbourhood_name": "Central",
	"date": "2024-02-29",
	"offender_income_level": "Low",
	"climate": "Sunny",
	"time_of_year": "Winter"
}`
