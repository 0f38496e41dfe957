// =============================================================================
// Kasir - Receipt Layout
// =============================================================================
//
// The receipt is described as a flat list of positioned elements before any
// PDF is produced. The renderer walks the list once; tests can assert on the
// list without decoding a PDF.
//
// PAGE: A5 portrait, 419.53 x 595.28 pt. Y grows downwards from the top edge
// and text is placed on its baseline.
//
//   2.0 cm   DORY INK BALI                        (Helvetica-Bold 22, centered)
//   2.3 cm   ------------------------------------ (1 cm side margins)
//   3.2 cm   Jl. Poppies Lane II, Kuta, Bali      (Helvetica 10, centered)
//   3.7 cm   Whats app : 0811-3982-040
//   4.2 cm   ------------------------------------
//   5.5 cm   Date                      05/03/2024 (Helvetica 12)
//   +1.2 cm  Client Name                 John Doe
//   ...      Tattoo Type, Payment, Tattoo Price
//   +5 rows  ------------------------------------
//   +6 rows  Thank you for trusting us ...        (Helvetica-Oblique 9, centered)
//   +6.7     Instagram: @doryinkbali
//   +7.4     Facebook : Dory Ink Bali
//
// =============================================================================

package receipt

import (
	"github.com/doryinkbali/kasir/internal/config"
	"github.com/doryinkbali/kasir/internal/types"
)

// Page and unit dimensions in points.
const (
	PageWidth  = 419.53
	PageHeight = 595.28
	Centimetre = 72 / 2.54
)

const (
	titleY       = 2.0 * Centimetre
	topRuleY     = 2.3 * Centimetre
	addressY     = 3.2 * Centimetre
	contactY     = 3.7 * Centimetre
	headerRuleY  = 4.2 * Centimetre
	rowsStartY   = 5.5 * Centimetre
	lineHeight   = 1.2 * Centimetre
	ruleMargin   = 1.0 * Centimetre
	columnMargin = 2.0 * Centimetre
)

// Kind distinguishes text from horizontal rules.
type Kind int

const (
	KindText Kind = iota
	KindRule
)

// Align positions text relative to X.
type Align int

const (
	AlignLeft   Align = iota // X is the left edge
	AlignCenter              // X is the centre
	AlignRight               // X is the right edge
)

// Font names one of the standard PDF fonts. Style is "", "B" or "I".
type Font struct {
	Family string
	Style  string
	Size   float64
}

var (
	titleFont  = Font{Family: "Helvetica", Style: "B", Size: 22}
	headerFont = Font{Family: "Helvetica", Size: 10}
	bodyFont   = Font{Family: "Helvetica", Size: 12}
	footerFont = Font{Family: "Helvetica", Style: "I", Size: 9}
)

// Element is one thing drawn on the page. Rules run from X to X2 at Y.
type Element struct {
	Kind  Kind
	Text  string
	Font  Font
	Align Align
	X     float64
	X2    float64
	Y     float64
}

// Layout is the full receipt page.
type Layout struct {
	Width    float64
	Height   float64
	Elements []Element
}

// Studio is the fixed metadata printed on every receipt.
type Studio struct {
	Name      string
	Address   string
	Contact   string
	ThankYou  string
	Instagram string
	Facebook  string
}

// StudioFromConfig copies the receipt fields of the studio configuration.
func StudioFromConfig(cfg config.StudioConfig) Studio {
	return Studio{
		Name:      cfg.Name,
		Address:   cfg.Address,
		Contact:   cfg.Contact,
		ThankYou:  cfg.ThankYou,
		Instagram: cfg.Instagram,
		Facebook:  cfg.Facebook,
	}
}

// BuildLayout places the studio header, the five transaction rows and the
// footer. The artist's cut is not printed.
func BuildLayout(studio Studio, row types.Row) Layout {
	center := PageWidth / 2

	l := Layout{Width: PageWidth, Height: PageHeight}

	l.text(studio.Name, titleFont, AlignCenter, center, titleY)
	l.rule(topRuleY)
	l.text(studio.Address, headerFont, AlignCenter, center, addressY)
	l.text(studio.Contact, headerFont, AlignCenter, center, contactY)
	l.rule(headerRuleY)

	fields := []struct{ label, value string }{
		{"Date", row.Date},
		{"Client Name", row.CustomerName},
		{"Tattoo Type", row.ServiceType},
		{"Payment", row.PaymentMethod},
		{"Tattoo Price", row.Price},
	}
	for i, f := range fields {
		y := rowsStartY + float64(i)*lineHeight
		l.text(f.label, bodyFont, AlignLeft, columnMargin, y)
		l.text(f.value, bodyFont, AlignRight, PageWidth-columnMargin, y)
	}

	l.rule(rowsStartY + 5*lineHeight)

	l.text(studio.ThankYou, footerFont, AlignCenter, center, rowsStartY+6*lineHeight)
	l.text(studio.Instagram, footerFont, AlignCenter, center, rowsStartY+6.7*lineHeight)
	l.text(studio.Facebook, footerFont, AlignCenter, center, rowsStartY+7.4*lineHeight)

	return l
}

func (l *Layout) text(s string, font Font, align Align, x, y float64) {
	l.Elements = append(l.Elements, Element{
		Kind:  KindText,
		Text:  s,
		Font:  font,
		Align: align,
		X:     x,
		Y:     y,
	})
}

func (l *Layout) rule(y float64) {
	l.Elements = append(l.Elements, Element{
		Kind: KindRule,
		X:    ruleMargin,
		X2:   PageWidth - ruleMargin,
		Y:    y,
	})
}

// Texts returns the text of every text element in drawing order.
func (l Layout) Texts() []string {
	var out []string
	for _, e := range l.Elements {
		if e.Kind == KindText {
			out = append(out, e.Text)
		}
	}
	return out
}
