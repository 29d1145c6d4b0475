package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Run
	}{
		{
			"plain text",
			"no emphasis here",
			[]Run{{Text: "no emphasis here"}},
		},
		{
			"single bold span",
			"a **bold** word",
			[]Run{{Text: "a "}, {Text: "bold", Bold: true}, {Text: " word"}},
		},
		{
			"bold at start and end",
			"**Offer Ref** FA/2025/0117 is **final**",
			[]Run{{Text: "Offer Ref", Bold: true}, {Text: " FA/2025/0117 is "}, {Text: "final", Bold: true}},
		},
		{
			"unpaired delimiter left alone",
			"a ** stray marker",
			[]Run{{Text: "a ** stray marker"}},
		},
		{
			"empty line",
			"",
			[]Run{{Text: ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInline(tt.in))
		})
	}
}

func TestBodyParagraphsBullets(t *testing.T) {
	text := "Intro paragraph.\n\n• First item with **bold** part\n- Second item\nClosing line."
	blocks := BodyParagraphs(text, 0)
	require.Len(t, blocks, 4)

	first := blocks[1].(Paragraph)
	assert.True(t, first.Bullet)
	assert.Equal(t, bulletIndent, first.Indent)
	assert.Equal(t, "First item with bold part", first.Text())

	second := blocks[2].(Paragraph)
	assert.True(t, second.Bullet)
	assert.Equal(t, "Second item", second.Text())

	assert.False(t, blocks[0].(Paragraph).Bullet)
	assert.False(t, blocks[3].(Paragraph).Bullet)
}

func TestBodyParagraphsDeepenedIndent(t *testing.T) {
	blocks := BodyParagraphs("• deep item", BulletExtraIndent)
	p := blocks[0].(Paragraph)
	assert.Equal(t, bulletIndent+BulletExtraIndent, p.Indent)
}

func TestBodyParagraphsBoldPrefixes(t *testing.T) {
	text := "Kind Attention: Mr. Sharma\nSubject: Parcel Hub Proposal\nAn ordinary line."
	blocks := BodyParagraphs(text, 0)
	require.Len(t, blocks, 3)

	assert.True(t, blocks[0].(Paragraph).Bold)
	assert.True(t, blocks[1].(Paragraph).Bold)
	assert.False(t, blocks[2].(Paragraph).Bold)
}

func TestBodyParagraphsBoldLineIsNotABullet(t *testing.T) {
	blocks := BodyParagraphs("**Entirely bold line**", 0)
	p := blocks[0].(Paragraph)
	assert.False(t, p.Bullet)
	assert.Equal(t, "Entirely bold line", p.Text())
}

// readPart extracts one file from a zipped package.
func readPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s not found in package", name)
	return ""
}

func sampleBranding() Branding {
	return Branding{
		Client:      "Acme Logistics",
		Project:     "Parcel Sortation Hub",
		CompanyLogo: []byte("png-company"),
		ClientLogo:  []byte("png-client"),
	}
}

func TestFragmentBytesPackageLayout(t *testing.T) {
	f := &Fragment{
		Name:     "cover letter",
		Branding: sampleBranding(),
		Blocks: []Block{
			SectionTitle("Cover Letter"),
			Paragraph{Runs: ParseInline("Dear **Mr. Sharma**,")},
		},
	}
	pkg, err := f.Bytes()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, zf := range zr.File {
		names[zf.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/styles.xml",
		"word/numbering.xml",
		"word/header1.xml",
		"word/footer1.xml",
		"word/_rels/document.xml.rels",
		"word/_rels/header1.xml.rels",
		"word/media/header_client.png",
		"word/media/header_company.png",
	} {
		assert.True(t, names[want], "missing part %s", want)
	}
}

func TestDocumentUsesSharedTitleStyleOnce(t *testing.T) {
	f := &Fragment{
		Branding: sampleBranding(),
		Blocks: []Block{
			SectionTitle("Executive Summary"),
			SectionTitle("Concept Description"),
		},
	}
	pkg, err := f.Bytes()
	require.NoError(t, err)

	styles := readPart(t, pkg, "word/styles.xml")
	assert.Equal(t, 1, strings.Count(styles, `w:styleId="`+titleStyleID+`"`),
		"title style must be defined exactly once")

	doc := readPart(t, pkg, "word/document.xml")
	assert.Equal(t, 2, strings.Count(doc, `<w:pStyle w:val="`+titleStyleID+`"/>`))
}

func TestDocumentPageGeometryIsA4(t *testing.T) {
	f := &Fragment{Branding: sampleBranding(), Blocks: []Block{SectionTitle("T")}}
	pkg, err := f.Bytes()
	require.NoError(t, err)

	doc := readPart(t, pkg, "word/document.xml")
	assert.Contains(t, doc, `<w:pgSz w:w="11906" w:h="16838"/>`)
	assert.Contains(t, doc, `<w:headerReference w:type="default" r:id="rId3"/>`)
	assert.Contains(t, doc, `<w:footerReference w:type="default" r:id="rId4"/>`)
}

func TestHeaderCarriesBrandingBanner(t *testing.T) {
	f := &Fragment{Branding: sampleBranding(), Blocks: []Block{SectionTitle("T")}}
	pkg, err := f.Bytes()
	require.NoError(t, err)

	header := readPart(t, pkg, "word/header1.xml")
	assert.Contains(t, header, "FALCON&#39;s Proposal to Acme Logistics for the Parcel Sortation Hub")
	assert.Contains(t, header, `r:embed="rId1"`)
	assert.Contains(t, header, `r:embed="rId2"`)
}

func TestImageBlockScalesToPrintableWidth(t *testing.T) {
	f := &Fragment{
		Branding: sampleBranding(),
		Blocks: []Block{
			Image{PNG: []byte("diagram-png"), PixelW: 800, PixelH: 400},
		},
	}
	pkg, err := f.Bytes()
	require.NoError(t, err)

	doc := readPart(t, pkg, "word/document.xml")
	wantW := int64(printableWidth) * emuPerTwip
	wantH := wantW / 2
	assert.Contains(t, doc, `cx="`+strconv.FormatInt(wantW, 10)+`"`)
	assert.Contains(t, doc, `cy="`+strconv.FormatInt(wantH, 10)+`"`)

	rels := readPart(t, pkg, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Target="media/image1.png"`)
}

func TestComposeRequiresBase(t *testing.T) {
	_, err := Compose(nil)
	assert.ErrorIs(t, err, ErrNoBaseDocument)

	_, err = Compose([]*Fragment{nil, {Branding: sampleBranding()}})
	assert.ErrorIs(t, err, ErrNoBaseDocument)
}

func TestComposeSingleFragmentHasNoPageBreak(t *testing.T) {
	f := &Fragment{Branding: sampleBranding(), Blocks: []Block{SectionTitle("Only")}}
	pkg, err := Compose([]*Fragment{f})
	require.NoError(t, err)

	doc := readPart(t, pkg, "word/document.xml")
	assert.NotContains(t, doc, `<w:br w:type="page"/>`)
}

func TestComposeInsertsBreaksAndSkipsNil(t *testing.T) {
	base := &Fragment{Branding: sampleBranding(), Blocks: []Block{SectionTitle("Cover")}}
	letter := &Fragment{Blocks: []Block{SectionTitle("Cover Letter")}}
	summary := &Fragment{Blocks: []Block{SectionTitle("Executive Summary")}}

	pkg, err := Compose([]*Fragment{base, letter, nil, summary})
	require.NoError(t, err)

	doc := readPart(t, pkg, "word/document.xml")
	assert.Equal(t, 2, strings.Count(doc, `<w:br w:type="page"/>`),
		"one break per appended fragment, none for the skipped slot")
	assert.Contains(t, doc, "Cover Letter")
	assert.Contains(t, doc, "Executive Summary")

	// Branding comes from the base fragment.
	header := readPart(t, pkg, "word/header1.xml")
	assert.Contains(t, header, "Acme Logistics")
}

func TestTableRendersGrid(t *testing.T) {
	f := &Fragment{
		Branding: sampleBranding(),
		Blocks: []Block{
			Table{
				Rows:    [][]string{{"Contact", "Phone"}, {"Mr. Sharma", "+91 11 0000 0000"}},
				Borders: true,
			},
		},
	}
	pkg, err := f.Bytes()
	require.NoError(t, err)

	doc := readPart(t, pkg, "word/document.xml")
	assert.Contains(t, doc, "<w:tbl>")
	assert.Contains(t, doc, "<w:tblBorders>")
	assert.Contains(t, doc, "Mr. Sharma")
	assert.Equal(t, 2, strings.Count(doc, "<w:tr>"))
}
