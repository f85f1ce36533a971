package services

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crime-analysis/backend/internal/models"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("could not open test DB: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("could not get sql.DB: %v", err)
	}
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Neighbourhood{},
		&models.CrimeWeight{},
		&models.CrimeCategory{},
		&models.CrimeFormData{},
	); err != nil {
		t.Fatalf("model migration failed: %v", err)
	}
	return db
}

func seedWeights(t *testing.T, db *gorm.DB, weights map[string]int) {
	t.Helper()
	for category, weight := range weights {
		if err := db.Create(&models.CrimeWeight{MainCategory: category, Weight: weight}).Error; err != nil {
			t.Fatalf("seed weight %s: %v", category, err)
		}
	}
}

func seedNeighbourhood(t *testing.T, db *gorm.DB, name string, population, unemployment float64) {
	t.Helper()
	n := models.Neighbourhood{
		Name:                       name,
		Population:                 population,
		IncomeLevel:                "Medium",
		UniversityEducationPercent: 30,
		UnemploymentPercent:        unemployment,
		UnmarriedOver30Percent:     20,
	}
	if err := db.Create(&n).Error; err != nil {
		t.Fatalf("seed neighbourhood %s: %v", name, err)
	}
}

// seedIncident inserts a record directly, bypassing validation, with the
// given stamped weight.
func seedIncident(t *testing.T, db *gorm.DB, neighbourhood, category string, weight int) {
	t.Helper()
	rec := models.CrimeFormData{
		MainCategory:        category,
		CrimeWeight:         weight,
		Subcategories:       "",
		NeighbourhoodName:   neighbourhood,
		Date:                datatypes.Date(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		OffenderIncomeLevel: "low",
		Climate:             "hot",
		TimeOfYear:          "summer",
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed incident: %v", err)
	}
}

func nopLogger() *zap.Logger { return zap.NewNop() }
