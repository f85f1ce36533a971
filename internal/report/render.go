package report

import "fmt"

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Renderer turns a Payload into an opaque document.
type Renderer interface {
	Render(p *Payload) ([]byte, error)
	ContentType() string
	Extension() string
}

// File is a rendered report ready to be streamed.
type File struct {
	Data        []byte
	ContentType string
	Filename    string
}

// NewRenderer picks a renderer by format; an empty format means PDF.
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "", FormatPDF:
		return PDFRenderer{}, nil
	case FormatXLSX:
		return XLSXRenderer{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Render renders p with r and names the file after the report type.
func Render(r Renderer, p *Payload) (*File, error) {
	data, err := r.Render(p)
	if err != nil {
		return nil, err
	}
	return &File{
		Data:        data,
		ContentType: r.ContentType(),
		Filename:    fmt.Sprintf("%s_report.%s", p.Type, r.Extension()),
	}, nil
}
