package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/crime-analysis/backend/internal/models"
)

// NeighbourhoodStats is the incident summary of one neighbourhood.
type NeighbourhoodStats struct {
	Dominant       models.DominantCategory
	TotalIncidents int
	// WeightSum adds up the weights stamped on each incident.
	WeightSum int
}

// MeanWeight is the average stamped weight, 0 without incidents.
func (s NeighbourhoodStats) MeanWeight() float64 {
	if s.TotalIncidents == 0 {
		return 0
	}
	return float64(s.WeightSum) / float64(s.TotalIncidents)
}

// CrimeWeightService derives each neighbourhood's dominant crime category.
type CrimeWeightService interface {
	// DominantCategory returns the most frequent category of a neighbourhood
	// (ties go to the lexicographically smaller name) with its current weight.
	// A neighbourhood without incidents yields {nil, 5, 0}.
	DominantCategory(ctx context.Context, neighbourhood string) (*models.DominantCategory, error)
	// NeighbourhoodStats computes the same for every neighbourhood with incidents.
	NeighbourhoodStats(ctx context.Context) (map[string]NeighbourhoodStats, error)
}

type crimeWeightService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCrimeWeightService(db *gorm.DB, log *zap.Logger) CrimeWeightService {
	return &crimeWeightService{db: db, log: log}
}

type categoryGroup struct {
	NeighbourhoodName string
	MainCategory      string
	IncidentCount     int
	WeightSum         int
	CurrentWeight     *int
}

const categoryGroupsSQL = `
SELECT c.neighbourhood_name,
       c.main_category,
       COUNT(*) AS incident_count,
       SUM(c.crime_weight) AS weight_sum,
       cw.weight AS current_weight
FROM crime_form_data c
LEFT JOIN crime_weights cw ON cw.main_category = c.main_category`

const categoryGroupsGroupBy = `
GROUP BY c.neighbourhood_name, c.main_category, cw.weight`

func (s *crimeWeightService) DominantCategory(ctx context.Context, neighbourhood string) (*models.DominantCategory, error) {
	var groups []categoryGroup
	err := s.db.WithContext(ctx).
		Raw(categoryGroupsSQL+"\nWHERE c.neighbourhood_name = ?"+categoryGroupsGroupBy, neighbourhood).
		Scan(&groups).Error
	if err != nil {
		s.log.Error("dominant category query failed", zap.String("neighbourhood", neighbourhood), zap.Error(err))
		return nil, storeErr("dominant category", err)
	}

	stats := rankGroups(neighbourhood, groups)
	return &stats.Dominant, nil
}

func (s *crimeWeightService) NeighbourhoodStats(ctx context.Context) (map[string]NeighbourhoodStats, error) {
	var groups []categoryGroup
	err := s.db.WithContext(ctx).Raw(categoryGroupsSQL + categoryGroupsGroupBy).Scan(&groups).Error
	if err != nil {
		s.log.Error("neighbourhood stats query failed", zap.Error(err))
		return nil, storeErr("neighbourhood stats", err)
	}

	byName := make(map[string][]categoryGroup)
	for _, g := range groups {
		byName[g.NeighbourhoodName] = append(byName[g.NeighbourhoodName], g)
	}
	out := make(map[string]NeighbourhoodStats, len(byName))
	for name, gs := range byName {
		out[name] = rankGroups(name, gs)
	}
	return out, nil
}

// rankGroups picks the dominant category: highest count, then smallest name
// in byte order. Both the single and the bulk path go through here so they
// can never disagree.
func rankGroups(neighbourhood string, groups []categoryGroup) NeighbourhoodStats {
	stats := NeighbourhoodStats{
		Dominant: models.DominantCategory{
			NeighbourhoodName: neighbourhood,
			CrimeWeight:       models.NeutralCrimeWeight,
		},
	}
	if len(groups) == 0 {
		return stats
	}

	best := groups[0]
	for _, g := range groups {
		stats.TotalIncidents += g.IncidentCount
		stats.WeightSum += g.WeightSum
		if g.IncidentCount > best.IncidentCount ||
			(g.IncidentCount == best.IncidentCount && g.MainCategory < best.MainCategory) {
			best = g
		}
	}

	category := best.MainCategory
	stats.Dominant.MainCategory = &category
	stats.Dominant.CrimeCount = best.IncidentCount
	stats.Dominant.CrimeWeight = 0
	if best.CurrentWeight != nil {
		stats.Dominant.CrimeWeight = *best.CurrentWeight
	}
	return stats
}

// dominantOrZero is the report view of stats: no incidents means no
// category and a zero weight rather than the neutral sentinel.
func dominantOrZero(stats NeighbourhoodStats, ok bool) (*string, int) {
	if !ok || stats.Dominant.MainCategory == nil {
		return nil, 0
	}
	return stats.Dominant.MainCategory, stats.Dominant.CrimeWeight
}
