// Package docx builds WordprocessingML documents for proposal output.
// Sections are modelled as Fragments, composed in memory, and written
// once as a single OPC package, so styles, numbering, and header and
// footer definitions are shared instead of merged after the fact.
package docx

// Default typography. Sizes are in half-points, the unit
// WordprocessingML uses, so 22 is 11pt body text.
const (
	fontName = "Calibri"

	bodySize            = 22
	sectionHeadingSize  = 28
	responseHeadingSize = 32
	titleStyleSize      = 32
	headerSize          = 16
	footerSize          = 16
	coverTitleSize      = 48
	coverDateSize       = 28

	sectionHeadingColor = "020C73"
	footerLinkColor     = "000099"
	coverTitleColor     = "FFFFFF"
	coverDateColor      = "FFD700"
)

// titleStyleID is the one shared section-title style. It is defined a
// single time in the styles part and referenced by every fragment, so
// all section titles render identically.
const titleStyleID = "FalconSectionTitle"

// Geometry in twentieths of a point. A4 portrait, one-inch margins.
const (
	pageWidth      = 11906
	pageHeight     = 16838
	pageMargin     = 1440
	printableWidth = pageWidth - 2*pageMargin

	bulletIndent  = 720 // 0.5"
	bulletHanging = 720
	deepIndent    = 360 // extra 0.25" for deepened summary bullets

	headerColNarrow = 1728 // 1.2"
	headerColWide   = 5904 // 4.1"
)

// emuPerTwip converts page geometry to the EMU unit drawings use.
const emuPerTwip = 635

// Branding is the metadata stamped on every page of every fragment.
type Branding struct {
	Client      string
	Project     string
	CompanyLogo []byte
	ClientLogo  []byte
}

// Fragment is one proposal section: a titled run of blocks under the
// shared branding. Regeneration replaces the fragment wholesale.
type Fragment struct {
	Name     string
	Branding Branding
	Blocks   []Block
}

// Block is one body element of a fragment.
type Block interface{ isBlock() }

// Align values for paragraphs.
const (
	AlignLeft   = ""
	AlignCenter = "center"
	AlignRight  = "right"
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is a styled run sequence.
type Paragraph struct {
	Runs            []Run
	StyleID         string
	Align           string
	Size            int    // half-points; 0 means body size
	Bold            bool
	Underline       bool
	Color           string
	Highlight       string
	Indent          int    // twips
	Hanging         int    // twips
	Shading         string // hex fill behind the paragraph
	Bullet          bool
	PageBreakBefore bool
}

func (Paragraph) isBlock() {}

// Image is a block-level picture. Zero width means "printable width",
// preserving aspect ratio from the intrinsic pixel size.
type Image struct {
	PNG       []byte
	PixelW    int
	PixelH    int
	WidthTwip int
}

func (Image) isBlock() {}

// Table is a plain bordered grid. ColWidths are twips; a zero-length
// slice divides the printable width evenly.
type Table struct {
	Rows      [][]string
	ColWidths []int
	Borders   bool
}

func (Table) isBlock() {}

// PageBreak forces the following block onto a new page.
type PageBreak struct{}

func (PageBreak) isBlock() {}

// Text returns the concatenated text of the paragraph, used by tests
// and by section-presence checks.
func (p Paragraph) Text() string {
	var s string
	for _, r := range p.Runs {
		s += r.Text
	}
	return s
}

// SectionTitle builds the shared-style title paragraph every visual
// section opens with.
func SectionTitle(text string) Paragraph {
	return Paragraph{
		Runs:    []Run{{Text: text, Bold: true}},
		StyleID: titleStyleID,
	}
}

// SectionHeading is the smaller underlined heading used inside letter
// and summary bodies.
func SectionHeading(text string) Paragraph {
	return Paragraph{
		Runs:      []Run{{Text: text, Bold: true}},
		Size:      sectionHeadingSize,
		Bold:      true,
		Underline: true,
		Color:     sectionHeadingColor,
	}
}

// CoverTitle is the large white title on the shaded cover page.
func CoverTitle(text string) Paragraph {
	return Paragraph{
		Runs:    []Run{{Text: text, Bold: true}},
		Align:   AlignCenter,
		Size:    coverTitleSize,
		Bold:    true,
		Color:   coverTitleColor,
		Shading: "1F3864",
	}
}

// CoverDate is the gold date line beneath the cover title.
func CoverDate(text string) Paragraph {
	return Paragraph{
		Runs:    []Run{{Text: text, Bold: true}},
		Align:   AlignCenter,
		Size:    coverDateSize,
		Bold:    true,
		Color:   coverDateColor,
		Shading: "1F3864",
	}
}

// BulletExtraIndent is the additional indent applied when a section
// asks for deepened bullets.
const BulletExtraIndent = deepIndent

// ResponseHeading is the centred, highlighted heading that opens the
// RFQ response section.
func ResponseHeading(text string) Paragraph {
	return Paragraph{
		Runs:      []Run{{Text: text, Bold: true}},
		Align:     AlignCenter,
		Size:      responseHeadingSize,
		Bold:      true,
		Highlight: "lightGray",
	}
}
