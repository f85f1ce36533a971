package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var palette = []rgb{
	{79, 70, 229},
	{245, 158, 11},
	{249, 115, 115},
	{34, 197, 94},
	{14, 165, 233},
	{168, 85, 247},
}

const (
	pageMargin  = 15.0
	chartHeight = 110.0
	labelWidth  = 28.0
)

// PDFRenderer draws the title, three charts and the data table on A4.
type PDFRenderer struct{}

func (PDFRenderer) ContentType() string { return "application/pdf" }
func (PDFRenderer) Extension() string   { return FormatPDF }

func (PDFRenderer) Render(p *Payload) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(p.Title, true)
	pdf.SetCreator("crime-analysis", true)
	pdf.SetCreationDate(p.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Report %s - page %d", p.ID, pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(p.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+p.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading(pdf, tr, "Crime Categories Distribution")
	drawDistribution(pdf, tr, p.Categories)

	pdf.AddPage()
	heading(pdf, tr, p.Bar.Title)
	drawBarChart(pdf, tr, p.Bar)

	pdf.AddPage()
	heading(pdf, tr, p.Line.Title)
	drawLineChart(pdf, tr, p.Line)

	pdf.AddPage()
	heading(pdf, tr, "Report Table")
	drawTable(pdf, tr, p)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 9, tr(text), "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func contentWidth(pdf *fpdf.Fpdf) float64 {
	w, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return w - left - right
}

func drawDistribution(pdf *fpdf.Fpdf, tr func(string) string, categories []Point) {
	if len(categories) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, "No data", "", 1, "L", false, 0, "")
		return
	}

	var total float64
	for _, c := range categories {
		total += c.Value
	}

	left, _, _, _ := pdf.GetMargins()
	barMax := contentWidth(pdf) - 50 - 30
	pdf.SetFont("Helvetica", "", 9)
	for i, c := range categories {
		y := pdf.GetY()
		col := palette[i%len(palette)]
		share := c.Value / total

		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(left, y)
		pdf.CellFormat(50, 7, fit(pdf, tr(c.Label), 48), "", 0, "L", false, 0, "")
		pdf.SetFillColor(col.r, col.g, col.b)
		pdf.Rect(left+50, y+1, math.Max(share*barMax, 0.5), 5, "F")
		pdf.SetXY(left+50+barMax+2, y)
		pdf.CellFormat(28, 7, fmt.Sprintf("%.0f (%.1f%%)", c.Value, share*100), "", 1, "L", false, 0, "")
	}
}

// axes draws the frame and y ticks and returns the plot origin and scale.
func axes(pdf *fpdf.Fpdf, s Series) (x0, y0, w, h, maxV float64) {
	left, _, _, _ := pdf.GetMargins()
	x0 = left + 14
	y0 = pdf.GetY() + chartHeight
	w = contentWidth(pdf) - 14
	h = chartHeight - 4

	for _, pt := range s.Points {
		maxV = math.Max(maxV, pt.Value)
	}
	if maxV <= 0 {
		maxV = 1
	}

	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.3)
	pdf.Line(x0, y0, x0+w, y0)
	pdf.Line(x0, y0, x0, y0-h)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetDrawColor(220, 220, 220)
	pdf.SetLineWidth(0.1)
	for i := 1; i <= 5; i++ {
		v := maxV * float64(i) / 5
		y := y0 - h*float64(i)/5
		pdf.Line(x0, y, x0+w, y)
		pdf.Text(left, y+1, fmt.Sprintf("%.1f", v))
	}

	pdf.TransformBegin()
	pdf.TransformRotate(90, left-2, y0-h/2)
	pdf.Text(left-2-pdf.GetStringWidth(s.YLabel)/2, y0-h/2, s.YLabel)
	pdf.TransformEnd()
	return x0, y0, w, h, maxV
}

// xLabels writes vertical labels under each slot.
func xLabels(pdf *fpdf.Fpdf, tr func(string) string, points []Point, x0, y0, slot float64) {
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
	for i, pt := range points {
		label := fit(pdf, tr(pt.Label), labelWidth)
		x := x0 + slot*(float64(i)+0.5) + 1
		y := y0 + 2 + pdf.GetStringWidth(label)
		pdf.TransformBegin()
		pdf.TransformRotate(90, x, y)
		pdf.Text(x, y, label)
		pdf.TransformEnd()
	}
	pdf.SetY(y0 + labelWidth + 6)
}

func drawBarChart(pdf *fpdf.Fpdf, tr func(string) string, s Series) {
	if len(s.Points) == 0 {
		return
	}
	x0, y0, w, h, maxV := axes(pdf, s)
	slot := w / float64(len(s.Points))
	for i, pt := range s.Points {
		col := palette[i%len(palette)]
		bh := pt.Value / maxV * h
		pdf.SetFillColor(col.r, col.g, col.b)
		pdf.Rect(x0+slot*float64(i)+slot*0.15, y0-bh, slot*0.7, bh, "F")
	}
	xLabels(pdf, tr, s.Points, x0, y0, slot)
}

func drawLineChart(pdf *fpdf.Fpdf, tr func(string) string, s Series) {
	if len(s.Points) == 0 {
		return
	}
	x0, y0, w, h, maxV := axes(pdf, s)
	slot := w / float64(len(s.Points))

	pdf.SetDrawColor(239, 68, 68)
	pdf.SetFillColor(239, 68, 68)
	pdf.SetLineWidth(0.6)
	var px, py float64
	for i, pt := range s.Points {
		x := x0 + slot*(float64(i)+0.5)
		y := y0 - pt.Value/maxV*h
		if i > 0 {
			pdf.Line(px, py, x, y)
		}
		pdf.Circle(x, y, 0.9, "F")
		px, py = x, y
	}
	xLabels(pdf, tr, s.Points, x0, y0, slot)
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, p *Payload) {
	colW := contentWidth(pdf) / float64(len(p.Columns))
	_, pageH := pdf.GetPageSize()

	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(245, 245, 245)
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.2)
		for _, c := range p.Columns {
			pdf.CellFormat(colW, 8, c.Header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	header()
	pdf.SetFont("Helvetica", "", 8)
	for i := range p.Rows {
		if pdf.GetY()+6 > pageH-pageMargin-5 {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 8)
		}
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
		for j := range p.Columns {
			pdf.CellFormat(colW, 6, fit(pdf, tr(p.Cell(i, j)), colW-1), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit trims s so it is at most width wide in the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"..") > width {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}
