package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crime-analysis/backend/internal/models"
)

// NeighbourhoodService reads the neighbourhood reference data.
type NeighbourhoodService interface {
	// ListNeighbourhoods returns every neighbourhood ordered by name.
	ListNeighbourhoods(ctx context.Context) ([]models.Neighbourhood, error)
	// ListWithCoords is the map view of ListNeighbourhoods.
	ListWithCoords(ctx context.Context) ([]models.NeighbourhoodCoords, error)
	DashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
}

type neighbourhoodService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewNeighbourhoodService(db *gorm.DB, log *zap.Logger) NeighbourhoodService {
	return &neighbourhoodService{db: db, log: log}
}

func (s *neighbourhoodService) ListNeighbourhoods(ctx context.Context) ([]models.Neighbourhood, error) {
	neighbourhoods := []models.Neighbourhood{}
	if err := s.db.WithContext(ctx).Order("name").Find(&neighbourhoods).Error; err != nil {
		s.log.Error("list neighbourhoods failed", zap.Error(err))
		return nil, storeErr("list neighbourhoods", err)
	}
	return neighbourhoods, nil
}

func (s *neighbourhoodService) ListWithCoords(ctx context.Context) ([]models.NeighbourhoodCoords, error) {
	neighbourhoods, err := s.ListNeighbourhoods(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.NeighbourhoodCoords, 0, len(neighbourhoods))
	for _, n := range neighbourhoods {
		out = append(out, models.NeighbourhoodCoords{
			ID:         n.ID,
			Name:       n.Name,
			Latitude:   n.Latitude,
			Longitude:  n.Longitude,
			Population: n.Population,
		})
	}
	return out, nil
}

func (s *neighbourhoodService) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	err := s.db.WithContext(ctx).
		Model(&models.Neighbourhood{}).
		Select("COUNT(*) AS total_neighbourhoods, COALESCE(SUM(population), 0) AS total_population").
		Scan(&summary).Error
	if err != nil {
		s.log.Error("dashboard summary failed", zap.Error(err))
		return nil, storeErr("dashboard summary", err)
	}
	return &summary, nil
}
