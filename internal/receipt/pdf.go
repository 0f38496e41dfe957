package receipt

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/doryinkbali/kasir/internal/types"
)

// ContentType of every rendered receipt.
const ContentType = "application/pdf"

// Document is a rendered receipt ready to be offered for download.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

// RenderError is returned when a receipt cannot be produced.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("receipt rendering failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer turns a ledger row into a receipt document.
type Renderer interface {
	Render(row types.Row) (*Document, error)
}

// PDFRenderer renders the A5 receipt layout with fpdf.
type PDFRenderer struct {
	Studio     Studio
	FilePrefix string
}

// NewPDFRenderer returns a renderer for studio. An empty prefix becomes "Struk".
func NewPDFRenderer(studio Studio, filePrefix string) *PDFRenderer {
	if filePrefix == "" {
		filePrefix = "Struk"
	}
	return &PDFRenderer{Studio: studio, FilePrefix: filePrefix}
}

// Render draws the layout for row on a single page.
func (r *PDFRenderer) Render(row types.Row) (*Document, error) {
	layout := BuildLayout(r.Studio, row)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: layout.Width, Ht: layout.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(r.Studio.Name+" receipt", true)
	pdf.SetCreator("kasir", false)
	pdf.SetLineWidth(1)
	pdf.AddPage()

	// Core fonts are cp1252; names with accents are translated, anything
	// outside the code page prints as a dot.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, e := range layout.Elements {
		switch e.Kind {
		case KindRule:
			pdf.Line(e.X, e.Y, e.X2, e.Y)
		case KindText:
			pdf.SetFont(e.Font.Family, e.Font.Style, e.Font.Size)
			text := tr(e.Text)
			pdf.Text(alignedX(pdf.GetStringWidth(text), e), e.Y, text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}

	return &Document{
		FileName:    FileName(r.FilePrefix, row.CustomerName, row.Date),
		ContentType: ContentType,
		Data:        buf.Bytes(),
	}, nil
}

func alignedX(width float64, e Element) float64 {
	switch e.Align {
	case AlignCenter:
		return e.X - width/2
	case AlignRight:
		return e.X - width
	default:
		return e.X
	}
}

// =============================================================================
// FILE NAMING
// =============================================================================

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}\- ]+`)

// FileName builds "<prefix>_<name>_<date>.pdf". The name keeps only letters,
// digits, hyphens and spaces, and spaces become underscores. Slashes in the
// date become hyphens.
//
//	FileName("Struk", "Jo@hn Doe!!", "05/03/2024") == "Struk_John_Doe_05-03-2024.pdf"
func FileName(prefix, name, date string) string {
	safe := strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, ""))
	safe = strings.ReplaceAll(safe, " ", "_")
	if safe == "" {
		safe = "Client"
	}
	return fmt.Sprintf("%s_%s_%s.pdf", prefix, safe, strings.ReplaceAll(date, "/", "-"))
}
