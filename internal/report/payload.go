// Package report turns aggregated neighbourhood rows into a renderable
// document and renders it as PDF or XLSX.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/crime-analysis/backend/internal/models"
)

type Type string

const (
	TypeCrime   Type = "crime"
	TypeGeneral Type = "general"
)

var (
	ErrUnknownType   = errors.New("invalid report type")
	ErrUnknownFormat = errors.New("invalid export format")
	ErrRowsMismatch  = errors.New("rows do not match report type")
)

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeCrime, TypeGeneral:
		return Type(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Title is the heading printed on the report.
func (t Type) Title() string {
	if t == TypeCrime {
		return "Crime Report"
	}
	return "General Analysis Report"
}

// Column is a table column; Format applies to numeric values.
type Column struct {
	Header string
	Format string
}

type Point struct {
	Label string
	Value float64
}

type Series struct {
	Title  string
	YLabel string
	Points []Point
}

// Payload is everything a renderer needs.
type Payload struct {
	ID          string
	Type        Type
	Title       string
	GeneratedAt time.Time
	Columns     []Column
	// Rows hold string, float64 or nil values, one per column.
	Rows [][]any
	// Categories is the dominant-category distribution across neighbourhoods.
	Categories []Point
	Bar        Series
	Line       Series
}

// Cell formats one table value for display.
func (p *Payload) Cell(row, col int) string {
	v := p.Rows[row][col]
	switch x := v.(type) {
	case nil:
		return "N/A"
	case float64:
		format := p.Columns[col].Format
		if format == "" {
			format = "%.2f"
		}
		return fmt.Sprintf(format, x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Compile assembles rows of the given report type into a Payload. rows must
// be []models.CrimeReportRow for TypeCrime and []models.GeneralReportRow for
// TypeGeneral.
func Compile(t Type, rows any) (*Payload, error) {
	p := &Payload{
		ID:          uuid.NewString(),
		Type:        t,
		Title:       t.Title(),
		GeneratedAt: time.Now().UTC(),
	}

	switch t {
	case TypeCrime:
		crimeRows, ok := rows.([]models.CrimeReportRow)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRowsMismatch, t)
		}
		compileCrime(p, crimeRows)
	case TypeGeneral:
		generalRows, ok := rows.([]models.GeneralReportRow)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRowsMismatch, t)
		}
		compileGeneral(p, generalRows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return p, nil
}

func compileCrime(p *Payload, rows []models.CrimeReportRow) {
	p.Columns = []Column{
		{Header: "Neighbourhood"},
		{Header: "Population", Format: "%.2f"},
		{Header: "Income"},
		{Header: "Unemp %", Format: "%.1f"},
		{Header: "Crime Cat"},
		{Header: "Univ Edu %", Format: "%.1f"},
		{Header: "Unmarried 30+ %", Format: "%.1f"},
	}
	p.Bar = Series{Title: "Population per Neighbourhood", YLabel: "Population (thousands)"}
	p.Line = Series{Title: "Unemployment vs Neighbourhood", YLabel: "Unemployment %"}

	categories := make([]*string, 0, len(rows))
	for _, r := range rows {
		p.Rows = append(p.Rows, []any{
			r.NeighbourhoodName,
			r.Population,
			r.IncomeLevel,
			r.UnemploymentPercent,
			stringOrNil(r.MainCrimeCategory),
			r.UniversityEducationPercent,
			r.UnmarriedOver30Percent,
		})
		p.Bar.Points = append(p.Bar.Points, Point{Label: r.NeighbourhoodName, Value: r.Population})
		p.Line.Points = append(p.Line.Points, Point{Label: r.NeighbourhoodName, Value: r.UnemploymentPercent})
		categories = append(categories, r.MainCrimeCategory)
	}
	p.Categories = distribution(categories)
}

func compileGeneral(p *Payload, rows []models.GeneralReportRow) {
	p.Columns = []Column{
		{Header: "Neighbourhood"},
		{Header: "Population", Format: "%.2f"},
		{Header: "Income"},
		{Header: "Unemp %", Format: "%.1f"},
		{Header: "Crime Cat"},
		{Header: "Avg Weight", Format: "%.2f"},
	}
	p.Bar = Series{Title: "Avg Crime Weight per Neighbourhood", YLabel: "Avg Crime Weight"}
	p.Line = Series{Title: "Avg Crime Weight Trend", YLabel: "Avg Crime Weight"}

	categories := make([]*string, 0, len(rows))
	for _, r := range rows {
		p.Rows = append(p.Rows, []any{
			r.NeighbourhoodName,
			r.Population,
			r.IncomeLevel,
			r.UnemploymentPercent,
			stringOrNil(r.MainCrimeCategory),
			r.AvgCrimeWeight,
		})
		p.Bar.Points = append(p.Bar.Points, Point{Label: r.NeighbourhoodName, Value: r.AvgCrimeWeight})
		p.Line.Points = append(p.Line.Points, Point{Label: r.NeighbourhoodName, Value: r.AvgCrimeWeight})
		categories = append(categories, r.MainCrimeCategory)
	}
	p.Categories = distribution(categories)
}

// distribution counts neighbourhoods per dominant category, most frequent first.
func distribution(categories []*string) []Point {
	counts := map[string]float64{}
	for _, c := range categories {
		name := "None"
		if c != nil {
			name = *c
		}
		counts[name]++
	}
	points := make([]Point, 0, len(counts))
	for name, n := range counts {
		points = append(points, Point{Label: name, Value: n})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Label < points[j].Label
	})
	return points
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
