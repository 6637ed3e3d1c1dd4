// Package export renders tabular reports to CSV or PDF.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Format is an output format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf" in any case.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Dataset is tabular report content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Document is a rendered report.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Renderer renders datasets in every supported format.
type Renderer struct {
	csv *CSVExporter
	pdf *PDFExporter
	now func() time.Time
}

// NewRenderer builds a renderer.
func NewRenderer() *Renderer {
	return &Renderer{csv: NewCSVExporter(), pdf: NewPDFExporter(), now: time.Now}
}

// Render produces a document named after base and the current date.
func (r *Renderer) Render(format Format, base string, data Dataset) (Document, error) {
	var (
		body []byte
		err  error
	)
	switch format {
	case FormatCSV:
		body, err = r.csv.Render(data)
	case FormatPDF:
		body, err = r.pdf.Render(data)
	default:
		return Document{}, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return Document{}, err
	}
	return Document{
		Filename:    fmt.Sprintf("%s_%s.%s", base, r.now().Format("20060102"), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
