package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// SubcategorySeparator joins subcategory labels in crime_form_data.subcategories.
const SubcategorySeparator = ", "

// DateLayout is the calendar-date wire format.
const DateLayout = "2006-01-02"

// CrimeFormData is one crime incident record.
// CrimeWeight is the category weight at write time and is never recomputed.
type CrimeFormData struct {
	ID                  uint           `json:"id" gorm:"primaryKey;column:id"`
	MainCategory        string         `json:"main_category" gorm:"column:main_category;not null"`
	CrimeWeight         int            `json:"crime_weight" gorm:"column:crime_weight;not null"`
	Subcategories       string         `json:"subcategories" gorm:"column:subcategories;not null"`
	NeighbourhoodName   string         `json:"neighbourhood_name" gorm:"column:neighbourhood_name;not null;index"`
	Date                datatypes.Date `json:"date" gorm:"column:date;type:date;not null"`
	OffenderIncomeLevel string         `json:"offender_income_level" gorm:"column:offender_income_level;not null"`
	Climate             string         `json:"climate" gorm:"column:climate;not null"`
	TimeOfYear          string         `json:"time_of_year" gorm:"column:time_of_year;not null"`
}

func (CrimeFormData) TableName() string {
	return "crime_form_data"
}

// SubcategoryList splits the stored subcategories back into labels.
func (c CrimeFormData) SubcategoryList() []string {
	if c.Subcategories == "" {
		return []string{}
	}
	return strings.Split(c.Subcategories, SubcategorySeparator)
}

// DateString renders Date as YYYY-MM-DD.
func (c CrimeFormData) DateString() string {
	return time.Time(c.Date).Format(DateLayout)
}

func (c CrimeFormData) MarshalJSON() ([]byte, error) {
	type alias CrimeFormData
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(c), Date: c.DateString()})
}

// CrimeFormRequest is the create/update body for an incident.
type CrimeFormRequest struct {
	MainCategory        string   `json:"main_category"`
	Subcategories       []string `json:"subcategories"`
	NeighbourhoodName   string   `json:"neighbourhood_name"`
	Date                string   `json:"date"`
	OffenderIncomeLevel string   `json:"offender_income_level"`
	Climate             string   `json:"climate"`
	TimeOfYear          string   `json:"time_of_year"`
}
