package models

// CrimeWeight maps a main category to its severity weight (1-10).
type CrimeWeight struct {
	ID           uint   `json:"id" gorm:"primaryKey;column:id"`
	MainCategory string `json:"main_category" gorm:"column:main_category;uniqueIndex;not null"`
	Weight       int    `json:"weight" gorm:"column:weight;not null"`
}

func (CrimeWeight) TableName() string {
	return "crime_weights"
}

// CrimeCategory is one selectable subcategory of a main category.
type CrimeCategory struct {
	ID           uint   `json:"id" gorm:"primaryKey;column:id"`
	MainCategory string `json:"main_category" gorm:"column:main_category;not null;index"`
	Subcategory  string `json:"subcategory" gorm:"column:subcategory;not null"`
}

func (CrimeCategory) TableName() string {
	return "crime_categories"
}

// CrimeMeta is a main category with its weight and subcategory choices.
type CrimeMeta struct {
	MainCategory  string   `json:"main_category"`
	Weight        int      `json:"weight"`
	Subcategories []string `json:"subcategories"`
}
