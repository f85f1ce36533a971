package models

// Neighbourhood is the demographic snapshot of one neighbourhood.
// Population is expressed in thousands of residents.
type Neighbourhood struct {
	ID                         uint     `json:"id" gorm:"primaryKey;column:id"`
	Name                       string   `json:"name" gorm:"column:name;uniqueIndex;not null"`
	Population                 float64  `json:"population" gorm:"column:population;type:numeric(10,3);not null"`
	IncomeLevel                string   `json:"income_level" gorm:"column:income_level;not null"`
	UniversityEducationPercent float64  `json:"university_education_percent" gorm:"column:university_education_percent;type:numeric(5,2);not null"`
	UnemploymentPercent        float64  `json:"unemployment_percent" gorm:"column:unemployment_percent;type:numeric(5,2);not null"`
	UnmarriedOver30Percent     float64  `json:"unmarried_over_30_percent" gorm:"column:unmarried_over_30_percent;type:numeric(5,2);not null"`
	Latitude                   *float64 `json:"latitude,omitempty" gorm:"column:latitude;type:numeric(10,7)"`
	Longitude                  *float64 `json:"longitude,omitempty" gorm:"column:longitude;type:numeric(10,7)"`
}

func (Neighbourhood) TableName() string {
	return "neighbourhood"
}

// NeighbourhoodCoords is the map view of a neighbourhood.
type NeighbourhoodCoords struct {
	ID         uint     `json:"id"`
	Name       string   `json:"name"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Population float64  `json:"population"`
}

type DashboardSummary struct {
	TotalNeighbourhoods int64   `json:"total_neighbourhoods"`
	TotalPopulation     float64 `json:"total_population"`
}
