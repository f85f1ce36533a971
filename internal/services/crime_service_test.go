package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crime-analysis/backend/internal/models"
)

func validRequest(category, date string) *models.CrimeFormRequest {
	return &models.CrimeFormRequest{
		MainCategory:        category,
		Subcategories:       []string{"Pickpocketing", "Bag snatching"},
		NeighbourhoodName:   "Central",
		Date:                date,
		OffenderIncomeLevel: "low",
		Climate:             "moderate",
		TimeOfYear:          "spring",
	}
}

func countRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CrimeFormData{}).Count(&n).Error)
	return n
}

func TestCreateCrimeForm_StampsWeightAndJoinsSubcategories(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())

	rec, err := svc.CreateCrimeForm(context.Background(), validRequest("Theft", "2024-05-10"))
	require.NoError(t, err)

	assert.NotZero(t, rec.ID)
	assert.Equal(t, 3, rec.CrimeWeight)
	assert.Equal(t, "Pickpocketing, Bag snatching", rec.Subcategories)
	assert.Equal(t, []string{"Pickpocketing", "Bag snatching"}, rec.SubcategoryList())
	assert.Equal(t, "2024-05-10", rec.DateString())

	// later weight changes do not touch stamped records
	require.NoError(t, db.Model(&models.CrimeWeight{}).Where("main_category = ?", "Theft").Update("weight", 9).Error)
	got, err := svc.GetCrimeForm(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CrimeWeight)
}

func TestCreateCrimeForm_ThenListPutsItFirst(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3, "Assault": 8})
	svc := NewCrimeService(db, nopLogger())
	ctx := context.Background()

	_, err := svc.CreateCrimeForm(ctx, validRequest("Theft", "2024-01-01"))
	require.NoError(t, err)
	newest, err := svc.CreateCrimeForm(ctx, validRequest("Assault", "2024-01-02"))
	require.NoError(t, err)

	list, err := svc.ListCrimeForms(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newest.ID, list[0].ID)
	assert.Greater(t, list[0].ID, list[1].ID)
}

func TestCreateCrimeForm_UnknownCategory(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())

	_, err := svc.CreateCrimeForm(context.Background(), validRequest("Arson", "2024-05-10"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, countRecords(t, db))
}

func TestCreateCrimeForm_Dates(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())
	ctx := context.Background()

	for _, bad := range []string{"2024-13-40", "2023-02-29", "10/05/2024", ""} {
		_, err := svc.CreateCrimeForm(ctx, validRequest("Theft", bad))
		assert.ErrorIsf(t, err, ErrValidation, "date %q", bad)
	}
	assert.Zero(t, countRecords(t, db))

	leap, err := svc.CreateCrimeForm(ctx, validRequest("Theft", "2024-02-29"))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", leap.DateString())

	withTime, err := svc.CreateCrimeForm(ctx, validRequest("Theft", "2024-03-01T22:15:00"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", withTime.DateString())
}

func TestCreateCrimeForm_RequiredFields(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())
	ctx := context.Background()

	blank := map[string]func(r *models.CrimeFormRequest){
		"neighbourhood_name":    func(r *models.CrimeFormRequest) { r.NeighbourhoodName = "" },
		"climate":               func(r *models.CrimeFormRequest) { r.Climate = "  " },
		"time_of_year":          func(r *models.CrimeFormRequest) { r.TimeOfYear = "" },
		"offender_income_level": func(r *models.CrimeFormRequest) { r.OffenderIncomeLevel = "" },
		"main_category":         func(r *models.CrimeFormRequest) { r.MainCategory = "" },
	}
	for field, clear := range blank {
		req := validRequest("Theft", "2024-05-10")
		clear(req)
		_, err := svc.CreateCrimeForm(ctx, req)
		assert.ErrorIs(t, err, ErrValidation, field)
		assert.ErrorContains(t, err, field)
	}
	assert.Zero(t, countRecords(t, db))

	req := validRequest("Theft", "2024-05-10")
	req.Subcategories = nil
	_, err := svc.CreateCrimeForm(ctx, req)
	assert.NoError(t, err, "subcategories are optional")
}

func TestUpdateCrimeForm_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3, "Assault": 8})
	svc := NewCrimeService(db, nopLogger())
	ctx := context.Background()

	rec, err := svc.CreateCrimeForm(ctx, validRequest("Theft", "2024-01-01"))
	require.NoError(t, err)

	update := &models.CrimeFormRequest{
		MainCategory:        "Assault",
		Subcategories:       []string{"Aggravated"},
		NeighbourhoodName:   "Harbour",
		Date:                "2024-06-30",
		OffenderIncomeLevel: "high",
		Climate:             "cold",
		TimeOfYear:          "winter",
	}
	_, err = svc.UpdateCrimeForm(ctx, rec.ID, update)
	require.NoError(t, err)

	got, err := svc.GetCrimeForm(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Assault", got.MainCategory)
	assert.Equal(t, 8, got.CrimeWeight)
	assert.Equal(t, []string{"Aggravated"}, got.SubcategoryList())
	assert.Equal(t, "Harbour", got.NeighbourhoodName)
	assert.Equal(t, "2024-06-30", got.DateString())
	assert.Equal(t, "high", got.OffenderIncomeLevel)
	assert.Equal(t, "cold", got.Climate)
	assert.Equal(t, "winter", got.TimeOfYear)
}

func TestUpdateCrimeForm_NotFound(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())

	_, err := svc.UpdateCrimeForm(context.Background(), 404, validRequest("Theft", "2024-01-01"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCrimeForm_InvalidLeavesRecordUntouched(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())
	ctx := context.Background()

	rec, err := svc.CreateCrimeForm(ctx, validRequest("Theft", "2024-01-01"))
	require.NoError(t, err)

	bad := validRequest("Theft", "2024-13-40")
	bad.NeighbourhoodName = "Elsewhere"
	_, err = svc.UpdateCrimeForm(ctx, rec.ID, bad)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.GetCrimeForm(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Central", got.NeighbourhoodName)
	assert.Equal(t, "2024-01-01", got.DateString())
}

func TestDeleteCrimeForm(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3})
	svc := NewCrimeService(db, nopLogger())
	ctx := context.Background()

	rec, err := svc.CreateCrimeForm(ctx, validRequest("Theft", "2024-01-01"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCrimeForm(ctx, rec.ID))

	list, err := svc.ListCrimeForms(ctx)
	require.NoError(t, err)
	for _, r := range list {
		assert.NotEqual(t, rec.ID, r.ID)
	}
	assert.ErrorIs(t, svc.DeleteCrimeForm(ctx, rec.ID), ErrNotFound)

	_, err = svc.GetCrimeForm(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCrimeMeta(t *testing.T) {
	db := setupTestDB(t)
	seedWeights(t, db, map[string]int{"Theft": 3, "Assault": 8})
	require.NoError(t, db.Create(&[]models.CrimeCategory{
		{MainCategory: "Theft", Subcategory: "Pickpocketing"},
		{MainCategory: "Theft", Subcategory: "Burglary"},
	}).Error)
	svc := NewCrimeService(db, nopLogger())

	meta, err := svc.CrimeMeta(context.Background())
	require.NoError(t, err)

	require.Len(t, meta, 2)
	assert.Equal(t, models.CrimeMeta{MainCategory: "Assault", Weight: 8, Subcategories: []string{}}, meta[0])
	assert.Equal(t, []string{"Pickpocketing", "Burglary"}, meta[1].Subcategories)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29T23:59:59+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", models.CrimeFormData{Date: d}.DateString())

	_, err = ParseDate("yesterday")
	assert.ErrorIs(t, err, ErrValidation)
}

func mockStore(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestCreateCrimeForm_StoreUnavailable(t *testing.T) {
	db, mock := mockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
	svc := NewCrimeService(db, nopLogger())

	_, err := svc.CreateCrimeForm(context.Background(), validRequest("Theft", "2024-01-01"))

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCrimeForms_StoreUnavailable(t *testing.T) {
	db, mock := mockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "crime_form_data"`).WillReturnError(errors.New("connection reset"))
	svc := NewCrimeService(db, nopLogger())

	_, err := svc.ListCrimeForms(context.Background())

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
