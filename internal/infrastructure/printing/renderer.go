// Package printing turns billing documents into PDFs: an html/template layer builds the
// page and a headless Chrome (chromedp) prints it.
package printing

import (
	"context"
	"time"
)

// Paper sizes in inches, the unit Chrome's print API uses
const (
	A4WidthIn      = 8.27
	A4HeightIn     = 11.69
	LetterWidthIn  = 8.5
	LetterHeightIn = 11.0
)

// Margins in inches
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins returns 15mm on every side
func DefaultMargins() Margins {
	m := mmToInches(15)
	return Margins{Top: m, Right: m, Bottom: m, Left: m}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML          string
	Title         string
	PaperWidthIn  float64
	PaperHeightIn float64
	Margins       Margins
	Landscape     bool
	// FooterHTML is printed on every page; Chrome substitutes pageNumber/totalPages spans
	FooterHTML string
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer renders HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during document rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeInvalidPaper  = "INVALID_PAPER_SIZE"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}
