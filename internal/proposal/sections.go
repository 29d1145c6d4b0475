// Package proposal builds the document fragments that make up a final
// proposal and defines their fixed assembly order.
package proposal

import (
	"fmt"
	"time"

	"propgen/internal/docx"
	"propgen/internal/render"
)

// Section identifies one proposal section. The numeric order is the
// assembly order; it is fixed by section semantics, never by the user.
type Section int

const (
	SectionCover Section = iota
	SectionCoverLetter
	SectionRFQResponse
	SectionExecutiveSummary
	SectionCompanyProfile
	SectionConcept
	sectionCount
)

// Order lists every section in assembly order.
func Order() []Section {
	out := make([]Section, sectionCount)
	for i := range out {
		out[i] = Section(i)
	}
	return out
}

func (s Section) String() string {
	switch s {
	case SectionCover:
		return "cover"
	case SectionCoverLetter:
		return "cover letter"
	case SectionRFQResponse:
		return "RFQ response"
	case SectionExecutiveSummary:
		return "executive summary"
	case SectionCompanyProfile:
		return "company profile"
	case SectionConcept:
		return "concept description"
	default:
		return fmt.Sprintf("section(%d)", int(s))
	}
}

// Meta is the cross-section metadata: who the proposal is for and the
// marks stamped on every page.
type Meta struct {
	Client      string
	ContactName string
	Project     string
	OfferRef    string
	Date        time.Time
	ClientLogo  []byte
	CompanyLogo []byte
}

func (m Meta) branding() docx.Branding {
	return docx.Branding{
		Client:      m.Client,
		Project:     m.Project,
		CompanyLogo: m.CompanyLogo,
		ClientLogo:  m.ClientLogo,
	}
}

// requirementImageWidth is the RFQ diagram width on the page, 6".
const requirementImageWidth = 8640

// Cover builds the title page: the client's mark cropped and flattened
// onto white, then the shaded title and date block.
func Cover(meta Meta) *docx.Fragment {
	blocks := []docx.Block{}
	if logo, err := render.Normalize(meta.ClientLogo); err == nil {
		blocks = append(blocks, docx.Image{
			PNG:       logo.PNG,
			PixelW:    logo.Width,
			PixelH:    logo.Height,
			WidthTwip: 4320, // 3"
		})
	}
	for i := 0; i < 6; i++ {
		blocks = append(blocks, docx.Paragraph{})
	}
	title := fmt.Sprintf("Proposal for the %s", meta.Project)
	blocks = append(blocks,
		docx.CoverTitle(title),
		docx.CoverDate(meta.Date.Format("January 2, 2006")),
	)
	return &docx.Fragment{Name: SectionCover.String(), Branding: meta.branding(), Blocks: blocks}
}

// CoverLetter wraps the chosen letter draft.
func CoverLetter(meta Meta, text string) *docx.Fragment {
	blocks := []docx.Block{docx.SectionTitle("Cover Letter")}
	blocks = append(blocks, docx.BodyParagraphs(text, 0)...)
	return &docx.Fragment{Name: SectionCoverLetter.String(), Branding: meta.branding(), Blocks: blocks}
}

// RFQResponse builds the response page: centred highlighted heading,
// the requirement diagram, a reference line, and the contact box.
func RFQResponse(meta Meta, diagram *render.Artifact) *docx.Fragment {
	blocks := []docx.Block{
		docx.ResponseHeading(fmt.Sprintf("FALCON's Response to %s RFQ", meta.Client)),
	}
	if diagram != nil {
		blocks = append(blocks, docx.Image{
			PNG:       diagram.PNG,
			PixelW:    diagram.Width,
			PixelH:    diagram.Height,
			WidthTwip: requirementImageWidth,
		})
	}
	blocks = append(blocks,
		docx.SectionHeading("Reference"),
		docx.Paragraph{Runs: []docx.Run{{Text: fmt.Sprintf("Offer Ref: %s, dated %s", meta.OfferRef, meta.Date.Format("January 2, 2006")), Bold: true}}},
		docx.Table{
			Rows: [][]string{
				{"**Kind Attention**", meta.ContactName},
				{"**Client**", meta.Client},
				{"**Project**", meta.Project},
			},
			Borders: true,
		},
	)
	return &docx.Fragment{Name: SectionRFQResponse.String(), Branding: meta.branding(), Blocks: blocks}
}

// ExecutiveSummary wraps the chosen summary draft with its bullets
// deepened one level.
func ExecutiveSummary(meta Meta, text string) *docx.Fragment {
	blocks := []docx.Block{docx.SectionTitle("Executive Summary")}
	blocks = append(blocks, docx.BodyParagraphs(text, docx.BulletExtraIndent)...)
	return &docx.Fragment{Name: SectionExecutiveSummary.String(), Branding: meta.branding(), Blocks: blocks}
}

// Concept builds the diagram page. When no artifact survived the
// render chain the raw diagram source is shown instead, so the section
// still carries the flow.
func Concept(meta Meta, artifact *render.Artifact, source string) *docx.Fragment {
	blocks := []docx.Block{docx.SectionTitle("Concept Description")}
	if artifact != nil {
		blocks = append(blocks, docx.Image{
			PNG:    artifact.PNG,
			PixelW: artifact.Width,
			PixelH: artifact.Height,
		})
	} else if source != "" {
		blocks = append(blocks, docx.BodyParagraphs(source, 0)...)
	}
	return &docx.Fragment{Name: SectionConcept.String(), Branding: meta.branding(), Blocks: blocks}
}
