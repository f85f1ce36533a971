package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crime-analysis/backend/internal/config"
	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/report"
)

// ReportService builds the per-neighbourhood reports and their exports.
type ReportService interface {
	// CrimeReport returns one row per neighbourhood with its demographics and
	// dominant crime category.
	CrimeReport(ctx context.Context) ([]models.CrimeReportRow, error)
	// GeneralReport returns one row per neighbourhood with an aggregate
	// crime weight chosen by the configured strategy.
	GeneralReport(ctx context.Context) ([]models.GeneralReportRow, error)
	QualityReport(ctx context.Context) (*models.QualityReport, error)
	// Export compiles and renders a report; format defaults to PDF.
	Export(ctx context.Context, reportType, format string) (*report.File, error)
}

type reportService struct {
	db       *gorm.DB
	weights  CrimeWeightService
	strategy string
	log      *zap.Logger
}

// NewReportService wires a report service. strategy is
// config.WeightStrategyDominant or config.WeightStrategyMean.
func NewReportService(db *gorm.DB, weights CrimeWeightService, strategy string, log *zap.Logger) (ReportService, error) {
	switch strategy {
	case config.WeightStrategyDominant, config.WeightStrategyMean:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownStrategy, strategy)
	}
	return &reportService{db: db, weights: weights, strategy: strategy, log: log}, nil
}

func (s *reportService) neighbourhoods(ctx context.Context) ([]models.Neighbourhood, map[string]NeighbourhoodStats, error) {
	var neighbourhoods []models.Neighbourhood
	if err := s.db.WithContext(ctx).Order("name").Find(&neighbourhoods).Error; err != nil {
		s.log.Error("load neighbourhoods failed", zap.Error(err))
		return nil, nil, storeErr("load neighbourhoods", err)
	}
	stats, err := s.weights.NeighbourhoodStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return neighbourhoods, stats, nil
}

func (s *reportService) CrimeReport(ctx context.Context) ([]models.CrimeReportRow, error) {
	neighbourhoods, stats, err := s.neighbourhoods(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.CrimeReportRow, 0, len(neighbourhoods))
	for _, n := range neighbourhoods {
		st, ok := stats[n.Name]
		category, _ := dominantOrZero(st, ok)
		rows = append(rows, models.CrimeReportRow{
			NeighbourhoodName:          n.Name,
			Population:                 n.Population,
			UniversityEducationPercent: n.UniversityEducationPercent,
			UnmarriedOver30Percent:     n.UnmarriedOver30Percent,
			IncomeLevel:                n.IncomeLevel,
			UnemploymentPercent:        n.UnemploymentPercent,
			MainCrimeCategory:          category,
		})
	}
	return rows, nil
}

func (s *reportService) GeneralReport(ctx context.Context) ([]models.GeneralReportRow, error) {
	neighbourhoods, stats, err := s.neighbourhoods(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.GeneralReportRow, 0, len(neighbourhoods))
	for _, n := range neighbourhoods {
		st, ok := stats[n.Name]
		category, weight := dominantOrZero(st, ok)
		avg := float64(weight)
		if s.strategy == config.WeightStrategyMean {
			avg = st.MeanWeight()
		}
		rows = append(rows, models.GeneralReportRow{
			NeighbourhoodName:   n.Name,
			Population:          n.Population,
			IncomeLevel:         n.IncomeLevel,
			UnemploymentPercent: n.UnemploymentPercent,
			MainCrimeCategory:   category,
			AvgCrimeWeight:      avg,
		})
	}
	return rows, nil
}

func (s *reportService) QualityReport(ctx context.Context) (*models.QualityReport, error) {
	q := &models.QualityReport{Warnings: []string{}}
	db := s.db.WithContext(ctx)

	counts := []struct {
		name  string
		dest  *int64
		query string
	}{
		{"total incidents", &q.TotalIncidents, `SELECT COUNT(*) FROM crime_form_data`},
		{"total neighbourhoods", &q.TotalNeighbourhoods, `SELECT COUNT(*) FROM neighbourhood`},
		{"covered neighbourhoods", &q.NeighbourhoodsWithIncidents, `
			SELECT COUNT(DISTINCT n.name)
			FROM neighbourhood n
			JOIN crime_form_data c ON c.neighbourhood_name = n.name`},
		{"orphan incidents", &q.OrphanIncidents, `
			SELECT COUNT(*)
			FROM crime_form_data c
			LEFT JOIN neighbourhood n ON n.name = c.neighbourhood_name
			WHERE n.id IS NULL`},
		{"stale weights", &q.StaleWeightIncidents, `
			SELECT COUNT(*)
			FROM crime_form_data c
			LEFT JOIN crime_weights cw ON cw.main_category = c.main_category
			WHERE cw.weight IS NULL OR cw.weight <> c.crime_weight`},
	}
	for _, c := range counts {
		if err := db.Raw(c.query).Scan(c.dest).Error; err != nil {
			s.log.Error("quality metric failed", zap.String("metric", c.name), zap.Error(err))
			return nil, storeErr(c.name, err)
		}
	}

	if q.TotalNeighbourhoods > 0 {
		q.Coverage = float64(q.NeighbourhoodsWithIncidents) / float64(q.TotalNeighbourhoods)
	}
	if q.OrphanIncidents > 0 {
		q.Warnings = append(q.Warnings, fmt.Sprintf("%d incidents reference an unknown neighbourhood", q.OrphanIncidents))
	}
	if q.StaleWeightIncidents > 0 {
		q.Warnings = append(q.Warnings, fmt.Sprintf("%d incidents carry a weight that differs from the current category weight", q.StaleWeightIncidents))
	}
	if q.TotalNeighbourhoods > 0 && q.NeighbourhoodsWithIncidents == 0 {
		q.Warnings = append(q.Warnings, "no neighbourhood has incident data")
	}

	s.log.Info("data quality computed",
		zap.Int64("total_incidents", q.TotalIncidents),
		zap.Float64("coverage", q.Coverage),
		zap.Int64("orphan_incidents", q.OrphanIncidents),
		zap.Int64("stale_weight_incidents", q.StaleWeightIncidents),
	)
	return q, nil
}

func (s *reportService) Export(ctx context.Context, reportType, format string) (*report.File, error) {
	t, err := report.ParseType(reportType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	renderer, err := report.NewRenderer(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var rows any
	if t == report.TypeCrime {
		rows, err = s.CrimeReport(ctx)
	} else {
		rows, err = s.GeneralReport(ctx)
	}
	if err != nil {
		return nil, err
	}

	payload, err := report.Compile(t, rows)
	if err != nil {
		return nil, err
	}
	file, err := report.Render(renderer, payload)
	if err != nil {
		s.log.Error("render report failed", zap.String("type", string(t)), zap.Error(err))
		return nil, err
	}
	return file, nil
}
