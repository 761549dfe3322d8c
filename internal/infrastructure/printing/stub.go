package printing

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
)

// StubPDFRenderer produces a one-page placeholder PDF naming the document title.
// It needs no browser, so development setups and tests can exercise the whole receipt path.
type StubPDFRenderer struct{}

var _ PDFRenderer = StubPDFRenderer{}

// NewStubPDFRenderer creates a StubPDFRenderer
func NewStubPDFRenderer() StubPDFRenderer {
	return StubPDFRenderer{}
}

// Render returns a minimal PDF document
func (StubPDFRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	}
	started := time.Now()
	data := placeholderPDF(req.Title)
	return &RenderResult{PDFData: data, PageCount: 1, RenderDuration: time.Since(started)}, nil
}

// Close is a no-op
func (StubPDFRenderer) Close() error { return nil }

func placeholderPDF(title string) []byte {
	text := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(title)
	content := fmt.Sprintf("BT /F1 14 Tf 72 760 Td (%s) Tj ET", text)

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
