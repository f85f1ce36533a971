package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/crime-analysis/backend/internal/models"
)

// CrimeService is the crime incident record store.
type CrimeService interface {
	// CreateCrimeForm validates the category and date, stamps the current
	// category weight and inserts the record.
	CreateCrimeForm(ctx context.Context, req *models.CrimeFormRequest) (*models.CrimeFormData, error)
	// UpdateCrimeForm replaces every mutable field of an existing record.
	UpdateCrimeForm(ctx context.Context, id uint, req *models.CrimeFormRequest) (*models.CrimeFormData, error)
	DeleteCrimeForm(ctx context.Context, id uint) error
	GetCrimeForm(ctx context.Context, id uint) (*models.CrimeFormData, error)
	// ListCrimeForms returns every record, newest first.
	ListCrimeForms(ctx context.Context) ([]models.CrimeFormData, error)
	// CrimeMeta lists the main categories with weights and subcategory choices.
	CrimeMeta(ctx context.Context) ([]models.CrimeMeta, error)
}

type crimeService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCrimeService(db *gorm.DB, log *zap.Logger) CrimeService {
	return &crimeService{db: db, log: log}
}

// dateLayouts are tried in order; anything with a time part keeps only the date.
var dateLayouts = []string{
	models.DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// ParseDate parses an ISO-8601 calendar date.
func ParseDate(s string) (datatypes.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
		}
	}
	return datatypes.Date{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
}

func (s *crimeService) CreateCrimeForm(ctx context.Context, req *models.CrimeFormRequest) (*models.CrimeFormData, error) {
	var record models.CrimeFormData
	err := s.inTx(ctx, "create crime form", func(tx *gorm.DB) error {
		if err := applyRequest(tx, &record, req); err != nil {
			return err
		}
		return storeErr("insert crime form", tx.Create(&record).Error)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *crimeService) UpdateCrimeForm(ctx context.Context, id uint, req *models.CrimeFormRequest) (*models.CrimeFormData, error) {
	var record models.CrimeFormData
	err := s.inTx(ctx, "update crime form", func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: crime form %d", ErrNotFound, id)
			}
			return storeErr("load crime form", err)
		}
		if err := applyRequest(tx, &record, req); err != nil {
			return err
		}
		return storeErr("save crime form", tx.Save(&record).Error)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *crimeService) DeleteCrimeForm(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.CrimeFormData{}, id)
	if res.Error != nil {
		return s.fail("delete crime form", storeErr("delete crime form", res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: crime form %d", ErrNotFound, id)
	}
	return nil
}

func (s *crimeService) GetCrimeForm(ctx context.Context, id uint) (*models.CrimeFormData, error) {
	var record models.CrimeFormData
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: crime form %d", ErrNotFound, id)
		}
		return nil, s.fail("get crime form", storeErr("get crime form", err))
	}
	return &record, nil
}

func (s *crimeService) ListCrimeForms(ctx context.Context) ([]models.CrimeFormData, error) {
	records := []models.CrimeFormData{}
	if err := s.db.WithContext(ctx).Order("id DESC").Find(&records).Error; err != nil {
		return nil, s.fail("list crime forms", storeErr("list crime forms", err))
	}
	return records, nil
}

func (s *crimeService) CrimeMeta(ctx context.Context) ([]models.CrimeMeta, error) {
	var weights []models.CrimeWeight
	if err := s.db.WithContext(ctx).Order("main_category").Find(&weights).Error; err != nil {
		return nil, s.fail("load crime weights", storeErr("load crime weights", err))
	}
	var categories []models.CrimeCategory
	if err := s.db.WithContext(ctx).Order("main_category, id").Find(&categories).Error; err != nil {
		return nil, s.fail("load crime categories", storeErr("load crime categories", err))
	}

	subs := make(map[string][]string, len(weights))
	for _, c := range categories {
		subs[c.MainCategory] = append(subs[c.MainCategory], c.Subcategory)
	}

	meta := make([]models.CrimeMeta, 0, len(weights))
	for _, w := range weights {
		list := subs[w.MainCategory]
		if list == nil {
			list = []string{}
		}
		meta = append(meta, models.CrimeMeta{
			MainCategory:  w.MainCategory,
			Weight:        w.Weight,
			Subcategories: list,
		})
	}
	return meta, nil
}

// applyRequest validates req against the weight table and copies it onto
// record. Nothing is written.
func applyRequest(tx *gorm.DB, record *models.CrimeFormData, req *models.CrimeFormRequest) error {
	if err := requireFields(req); err != nil {
		return err
	}
	var weight models.CrimeWeight
	if err := tx.Where("main_category = ?", req.MainCategory).First(&weight).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invalid main category %q: no weight defined", ErrValidation, req.MainCategory)
		}
		return storeErr("lookup crime weight", err)
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return err
	}

	record.MainCategory = req.MainCategory
	record.CrimeWeight = weight.Weight
	record.Subcategories = strings.Join(req.Subcategories, models.SubcategorySeparator)
	record.NeighbourhoodName = req.NeighbourhoodName
	record.Date = date
	record.OffenderIncomeLevel = req.OffenderIncomeLevel
	record.Climate = req.Climate
	record.TimeOfYear = req.TimeOfYear
	return nil
}

// requireFields rejects requests with blank mandatory fields. Subcategories
// may be empty.
func requireFields(req *models.CrimeFormRequest) error {
	fields := []struct{ name, value string }{
		{"main_category", req.MainCategory},
		{"neighbourhood_name", req.NeighbourhoodName},
		{"date", req.Date},
		{"offender_income_level", req.OffenderIncomeLevel},
		{"climate", req.Climate},
		{"time_of_year", req.TimeOfYear},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// inTx runs fn in one transaction, rolling back on error or panic.
func (s *crimeService) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return s.fail(op, storeErr("begin", tx.Error))
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return s.fail(op, err)
	}
	if err := tx.Commit().Error; err != nil {
		return s.fail(op, storeErr("commit", err))
	}
	return nil
}

// fail logs store failures; validation and not-found errors pass through quietly.
func (s *crimeService) fail(op string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		s.log.Error("crime store failure", zap.String("op", op), zap.Error(err))
	}
	return err
}
