package models

// NeutralCrimeWeight is reported for a neighbourhood without incidents.
const NeutralCrimeWeight = 5

// DominantCategory is the most common crime category of a neighbourhood.
type DominantCategory struct {
	NeighbourhoodName string  `json:"neighbourhood_name"`
	MainCategory      *string `json:"main_category"`
	CrimeWeight       int     `json:"crime_weight"`
	CrimeCount        int     `json:"crime_count"`
}

// CrimeReportRow is one neighbourhood of the crime report.
type CrimeReportRow struct {
	NeighbourhoodName          string  `json:"neighbourhood_name"`
	Population                 float64 `json:"population"`
	UniversityEducationPercent float64 `json:"university_education_percent"`
	UnmarriedOver30Percent     float64 `json:"unmarried_over_30_percent"`
	IncomeLevel                string  `json:"income_level"`
	UnemploymentPercent        float64 `json:"unemployment_percent"`
	MainCrimeCategory          *string `json:"main_crime_category"`
}

// GeneralReportRow is one neighbourhood of the general analysis report.
type GeneralReportRow struct {
	NeighbourhoodName   string  `json:"neighbourhood_name"`
	Population          float64 `json:"population"`
	IncomeLevel         string  `json:"income_level"`
	UnemploymentPercent float64 `json:"unemployment_percent"`
	MainCrimeCategory   *string `json:"main_crime_category"`
	AvgCrimeWeight      float64 `json:"avg_crime_weight"`
}

// QualityReport summarises the health of the incident data.
type QualityReport struct {
	TotalIncidents              int64    `json:"total_incidents"`
	TotalNeighbourhoods         int64    `json:"total_neighbourhoods"`
	NeighbourhoodsWithIncidents int64    `json:"neighbourhoods_with_incidents"`
	Coverage                    float64  `json:"coverage"`
	OrphanIncidents             int64    `json:"orphan_incidents"`
	StaleWeightIncidents        int64    `json:"stale_weight_incidents"`
	Warnings                    []string `json:"warnings"`
}
