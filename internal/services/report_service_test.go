package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crime-analysis/backend/internal/config"
	"github.com/crime-analysis/backend/internal/models"
)

func seedReportData(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedWeights(t, db, map[string]int{"Theft": 3, "Assault": 8})
	seedNeighbourhood(t, db, "Harbour", 12.5, 11)
	seedNeighbourhood(t, db, "Central", 64.326, 4.5)
	seedNeighbourhood(t, db, "Quiet Hills", 8, 3)
	seedIncident(t, db, "Central", "Theft", 3)
	seedIncident(t, db, "Central", "Theft", 3)
	seedIncident(t, db, "Central", "Assault", 8)
	seedIncident(t, db, "Harbour", "Assault", 8)
}

func newReportService(t *testing.T, db *gorm.DB, strategy string) ReportService {
	t.Helper()
	svc, err := NewReportService(db, NewCrimeWeightService(db, nopLogger()), strategy, nopLogger())
	require.NoError(t, err)
	return svc
}

func TestNewReportService_RejectsUnknownStrategy(t *testing.T) {
	db := setupTestDB(t)
	_, err := NewReportService(db, NewCrimeWeightService(db, nopLogger()), "median", nopLogger())
	assert.Error(t, err)
}

func TestCrimeReport(t *testing.T) {
	db := setupTestDB(t)
	seedReportData(t, db)
	svc := newReportService(t, db, config.WeightStrategyDominant)

	rows, err := svc.CrimeReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Central", rows[0].NeighbourhoodName)
	assert.Equal(t, "Theft", *rows[0].MainCrimeCategory)
	assert.InDelta(t, 64.326, rows[0].Population, 1e-9)
	assert.Equal(t, "Assault", *rows[1].MainCrimeCategory)
	assert.Equal(t, "Quiet Hills", rows[2].NeighbourhoodName)
	assert.Nil(t, rows[2].MainCrimeCategory)
}

func TestGeneralReport_DominantStrategy(t *testing.T) {
	db := setupTestDB(t)
	seedReportData(t, db)
	svc := newReportService(t, db, config.WeightStrategyDominant)

	rows, err := svc.GeneralReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 3.0, rows[0].AvgCrimeWeight)
	assert.Equal(t, 8.0, rows[1].AvgCrimeWeight)
	assert.Nil(t, rows[2].MainCrimeCategory)
	assert.Equal(t, 0.0, rows[2].AvgCrimeWeight)
}

func TestGeneralReport_MeanStrategy(t *testing.T) {
	db := setupTestDB(t)
	seedReportData(t, db)
	svc := newReportService(t, db, config.WeightStrategyMean)

	rows, err := svc.GeneralReport(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 14.0/3.0, rows[0].AvgCrimeWeight, 1e-9)
	assert.Equal(t, "Theft", *rows[0].MainCrimeCategory)
	assert.Equal(t, 8.0, rows[1].AvgCrimeWeight)
	assert.Equal(t, 0.0, rows[2].AvgCrimeWeight)
}

func TestQualityReport(t *testing.T) {
	db := setupTestDB(t)
	seedReportData(t, db)
	seedIncident(t, db, "Atlantis", "Theft", 3)
	seedIncident(t, db, "Harbour", "Theft", 1)
	svc := newReportService(t, db, config.WeightStrategyDominant)

	q, err := svc.QualityReport(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 6, q.TotalIncidents)
	assert.EqualValues(t, 3, q.TotalNeighbourhoods)
	assert.EqualValues(t, 2, q.NeighbourhoodsWithIncidents)
	assert.InDelta(t, 2.0/3.0, q.Coverage, 1e-9)
	assert.EqualValues(t, 1, q.OrphanIncidents)
	assert.EqualValues(t, 1, q.StaleWeightIncidents)
	assert.Len(t, q.Warnings, 2)
}

func TestExport(t *testing.T) {
	db := setupTestDB(t)
	seedReportData(t, db)
	svc := newReportService(t, db, config.WeightStrategyDominant)
	ctx := context.Background()

	pdf, err := svc.Export(ctx, "general", "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "general_report.pdf", pdf.Filename)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))

	xlsx, err := svc.Export(ctx, "crime", "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "crime_report.xlsx", xlsx.Filename)
	assert.NotEmpty(t, xlsx.Data)

	_, err = svc.Export(ctx, "weekly", "pdf")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Export(ctx, "crime", "docx")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNeighbourhoodService(t *testing.T) {
	db := setupTestDB(t)
	seedNeighbourhood(t, db, "Harbour", 12.5, 11)
	seedNeighbourhood(t, db, "Central", 64.5, 4.5)
	lat, lng := -22.9, -47.06
	require.NoError(t, db.Model(&models.Neighbourhood{}).Where("name = ?", "Central").
		Updates(map[string]any{"latitude": lat, "longitude": lng}).Error)
	svc := NewNeighbourhoodService(db, nopLogger())
	ctx := context.Background()

	list, err := svc.ListNeighbourhoods(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Central", list[0].Name)

	coords, err := svc.ListWithCoords(ctx)
	require.NoError(t, err)
	require.NotNil(t, coords[0].Latitude)
	assert.InDelta(t, lat, *coords[0].Latitude, 1e-9)
	assert.Nil(t, coords[1].Longitude)

	summary, err := svc.DashboardSummary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.TotalNeighbourhoods)
	assert.InDelta(t, 77.0, summary.TotalPopulation, 1e-9)
}

func TestDashboardSummary_Empty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNeighbourhoodService(db, nopLogger())

	summary, err := svc.DashboardSummary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalNeighbourhoods)
	assert.Zero(t, summary.TotalPopulation)
}
