package proposal

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propgen/internal/docx"
	"propgen/internal/render"
)

func logoPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := 20; y < 100; y++ {
		for x := 20; x < 180; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 10, B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleMeta(t *testing.T) Meta {
	return Meta{
		Client:      "Acme Logistics",
		ContactName: "Mr. Sharma",
		Project:     "Parcel Sortation Hub",
		OfferRef:    "FA/2025/0117",
		Date:        time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		ClientLogo:  logoPNG(t),
		CompanyLogo: logoPNG(t),
	}
}

func paragraphs(f *docx.Fragment) []docx.Paragraph {
	var out []docx.Paragraph
	for _, b := range f.Blocks {
		if p, ok := b.(docx.Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

func hasText(f *docx.Fragment, want string) bool {
	for _, p := range paragraphs(f) {
		if p.Text() == want {
			return true
		}
	}
	return false
}

func TestOrderIsFixed(t *testing.T) {
	want := []Section{
		SectionCover,
		SectionCoverLetter,
		SectionRFQResponse,
		SectionExecutiveSummary,
		SectionCompanyProfile,
		SectionConcept,
	}
	assert.Equal(t, want, Order())
}

func TestCoverHasCroppedLogoAndShadedTitle(t *testing.T) {
	f := Cover(sampleMeta(t))

	var imgs []docx.Image
	for _, b := range f.Blocks {
		if img, ok := b.(docx.Image); ok {
			imgs = append(imgs, img)
		}
	}
	require.Len(t, imgs, 1)
	// The white border is cropped away before embedding.
	assert.Equal(t, 160, imgs[0].PixelW)
	assert.Equal(t, 80, imgs[0].PixelH)

	assert.True(t, hasText(f, "Proposal for the Parcel Sortation Hub"))
	assert.True(t, hasText(f, "June 3, 2025"))
}

func TestCoverSurvivesUnusableLogo(t *testing.T) {
	meta := sampleMeta(t)
	meta.ClientLogo = []byte("not a png")
	f := Cover(meta)

	for _, b := range f.Blocks {
		_, isImage := b.(docx.Image)
		assert.False(t, isImage)
	}
	assert.True(t, hasText(f, "Proposal for the Parcel Sortation Hub"))
}

func TestCoverLetterParsesDraft(t *testing.T) {
	text := "Kind Attention: Mr. Sharma\nWe are pleased to submit our **techno-commercial** proposal."
	f := CoverLetter(sampleMeta(t), text)

	ps := paragraphs(f)
	require.GreaterOrEqual(t, len(ps), 3)
	assert.Equal(t, "Cover Letter", ps[0].Text())
	assert.True(t, ps[1].Bold, "salutation line renders bold")
}

func TestRFQResponseCarriesDiagramAndContactBox(t *testing.T) {
	art := &render.Artifact{PNG: []byte("diagram"), Width: 800, Height: 600}
	f := RFQResponse(sampleMeta(t), art)

	var haveImage, haveTable bool
	for _, b := range f.Blocks {
		switch b.(type) {
		case docx.Image:
			haveImage = true
		case docx.Table:
			haveTable = true
		}
	}
	assert.True(t, haveImage)
	assert.True(t, haveTable)
	assert.True(t, hasText(f, "FALCON's Response to Acme Logistics RFQ"))
}

func TestRFQResponseWithoutDiagram(t *testing.T) {
	f := RFQResponse(sampleMeta(t), nil)
	for _, b := range f.Blocks {
		_, isImage := b.(docx.Image)
		assert.False(t, isImage)
	}
}

func TestExecutiveSummaryDeepensBullets(t *testing.T) {
	f := ExecutiveSummary(sampleMeta(t), "Opening.\n• Cross-belt sorter\n• Print and apply")

	var bullets []docx.Paragraph
	for _, p := range paragraphs(f) {
		if p.Bullet {
			bullets = append(bullets, p)
		}
	}
	require.Len(t, bullets, 2)
	plain := docx.BodyParagraphs("• x", 0)[0].(docx.Paragraph)
	for _, b := range bullets {
		assert.Greater(t, b.Indent, plain.Indent)
	}
}

func TestConceptFallsBackToSourceText(t *testing.T) {
	withArt := Concept(sampleMeta(t), &render.Artifact{PNG: []byte("p"), Width: 10, Height: 10}, "flowchart TD")
	var haveImage bool
	for _, b := range withArt.Blocks {
		if _, ok := b.(docx.Image); ok {
			haveImage = true
		}
	}
	assert.True(t, haveImage)

	withoutArt := Concept(sampleMeta(t), nil, "flowchart TD\nA[Start] --> B[Done]")
	assert.False(t, hasText(withoutArt, ""), "source lines render as paragraphs")
	found := false
	for _, p := range paragraphs(withoutArt) {
		if p.Text() == "flowchart TD" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadProfileAndBuildFragment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Company Profile
sections:
  - heading: Who We Are
    paragraphs:
      - FALCON Autotech designs and builds intralogistics automation.
    bullets:
      - Cross-belt sortation
      - Dimensioning and weighing
  - heading: Global Footprint
    new_page: true
    paragraphs:
      - Installations across four continents.
`), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Company Profile", p.Title)
	require.Len(t, p.Sections, 2)

	f := CompanyProfile(sampleMeta(t), p)
	var breaks int
	for _, b := range f.Blocks {
		if _, ok := b.(docx.PageBreak); ok {
			breaks++
		}
	}
	assert.Equal(t, 1, breaks)
	assert.True(t, hasText(f, "Who We Are"))

	var bulletCount int
	for _, para := range paragraphs(f) {
		if para.Bullet {
			bulletCount++
		}
	}
	assert.Equal(t, 2, bulletCount)
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
