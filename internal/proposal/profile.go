package proposal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"propgen/internal/docx"
)

// Profile is the company-profile content, maintained as a YAML asset
// so the proposals team can edit it without a rebuild.
type Profile struct {
	Title    string        `yaml:"title"`
	Sections []ProfilePart `yaml:"sections"`
}

// ProfilePart is one block of the profile: an optional heading, prose
// paragraphs, and bullet lines. NewPage starts the part on a fresh
// page.
type ProfilePart struct {
	Heading    string   `yaml:"heading"`
	Paragraphs []string `yaml:"paragraphs"`
	Bullets    []string `yaml:"bullets"`
	NewPage    bool     `yaml:"new_page"`
}

// LoadProfile reads the profile asset.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read company profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse company profile: %w", err)
	}
	if p.Title == "" {
		p.Title = "Company Profile"
	}
	return &p, nil
}

// CompanyProfile renders the profile asset as a fragment.
func CompanyProfile(meta Meta, p *Profile) *docx.Fragment {
	blocks := []docx.Block{docx.SectionTitle(p.Title)}
	for _, part := range p.Sections {
		if part.NewPage {
			blocks = append(blocks, docx.PageBreak{})
		}
		if part.Heading != "" {
			blocks = append(blocks, docx.SectionHeading(part.Heading))
		}
		for _, para := range part.Paragraphs {
			blocks = append(blocks, docx.BodyParagraphs(para, 0)...)
		}
		for _, item := range part.Bullets {
			blocks = append(blocks, docx.BodyParagraphs("• "+item, 0)...)
		}
	}
	return &docx.Fragment{Name: SectionCompanyProfile.String(), Branding: meta.branding(), Blocks: blocks}
}
