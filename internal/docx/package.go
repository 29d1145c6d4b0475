package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// MIMEType is the content type of the produced artifact.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const wmlNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr>
<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:sz w:val="22"/><w:szCs w:val="22"/>
</w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="` + titleStyleID + `">
<w:name w:val="` + titleStyleID + `"/><w:basedOn w:val="Normal"/>
<w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:b/><w:u w:val="single"/>
<w:sz w:val="32"/><w:szCs w:val="32"/></w:rPr>
</w:style>
</w:styles>`

const numberingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:abstractNum w:abstractNumId="0">
<w:lvl w:ilvl="0"><w:numFmt w:val="bullet"/><w:lvlText w:val="&#8226;"/>
<w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr>
<w:rPr><w:rFonts w:ascii="Symbol" w:hAnsi="Symbol"/></w:rPr></w:lvl>
</w:abstractNum>
<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
</w:numbering>`

type mediaPart struct {
	name  string
	relID string
	data  []byte
}

// Bytes serialises the fragment as a standalone document. Every
// fragment is independently valid; composition shares the same writer.
func (f *Fragment) Bytes() ([]byte, error) {
	return writePackage(f.Branding, f.Blocks)
}

func writePackage(brand Branding, blocks []Block) ([]byte, error) {
	var docMedia []mediaPart
	nextImage := 1
	// Fixed relationships occupy rId1..rId4; media parts follow.
	nextRel := 5
	relFor := func(png []byte) (string, int, error) {
		if len(png) == 0 {
			return "", 0, fmt.Errorf("image block has no data")
		}
		m := mediaPart{
			name:  fmt.Sprintf("media/image%d.png", nextImage),
			relID: fmt.Sprintf("rId%d", nextRel),
			data:  png,
		}
		docMedia = append(docMedia, m)
		nextImage++
		nextRel++
		return m.relID, nextImage - 1, nil
	}

	var body strings.Builder
	for _, block := range blocks {
		switch b := block.(type) {
		case Paragraph:
			writeParagraph(&body, b)
		case Image:
			relID, id, err := relFor(b.PNG)
			if err != nil {
				return nil, err
			}
			writeImage(&body, b, relID, id)
		case Table:
			writeTable(&body, b)
		case PageBreak:
			body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		default:
			return nil, fmt.Errorf("unsupported block type %T", block)
		}
	}

	header, headerMedia := headerXML(brand)

	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString("\n<w:document " + wmlNamespaces + "><w:body>")
	doc.WriteString(body.String())
	doc.WriteString(`<w:sectPr>`)
	doc.WriteString(`<w:headerReference w:type="default" r:id="rId3"/>`)
	doc.WriteString(`<w:footerReference w:type="default" r:id="rId4"/>`)
	fmt.Fprintf(&doc, `<w:pgSz w:w="%d" w:h="%d"/>`, pageWidth, pageHeight)
	fmt.Fprintf(&doc, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708"/>`,
		pageMargin, pageMargin, pageMargin, pageMargin)
	doc.WriteString(`</w:sectPr></w:body></w:document>`)

	return writeZip(doc.String(), header, docMedia, headerMedia)
}

// headerXML builds the three-column page header: client mark, the
// proposal banner line, and the company mark.
func headerXML(brand Branding) (string, []mediaPart) {
	var media []mediaPart
	cell := func(logo []byte, name string) string {
		if len(logo) == 0 {
			return ""
		}
		relID := fmt.Sprintf("rId%d", len(media)+1)
		media = append(media, mediaPart{name: "media/" + name, relID: relID, data: logo})
		var b strings.Builder
		writeImage(&b, Image{PNG: logo, WidthTwip: headerColNarrow - 144}, relID, len(media))
		return b.String()
	}
	clientCell := cell(brand.ClientLogo, "header_client.png")
	companyCell := cell(brand.CompanyLogo, "header_company.png")

	banner := fmt.Sprintf("FALCON's Proposal to %s for the %s", brand.Client, brand.Project)
	var mid strings.Builder
	writeParagraph(&mid, Paragraph{
		Runs:  []Run{{Text: banner}},
		Align: AlignCenter,
		Size:  headerSize,
	})

	empty := `<w:p/>`
	if clientCell == "" {
		clientCell = empty
	}
	if companyCell == "" {
		companyCell = empty
	}

	var h strings.Builder
	h.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	h.WriteString("\n<w:hdr " + wmlNamespaces + ">")
	h.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid>`)
	fmt.Fprintf(&h, `<w:gridCol w:w="%d"/><w:gridCol w:w="%d"/><w:gridCol w:w="%d"/>`,
		headerColNarrow, headerColWide, headerColNarrow)
	h.WriteString(`</w:tblGrid><w:tr>`)
	for i, content := range []string{clientCell, mid.String(), companyCell} {
		w := headerColNarrow
		if i == 1 {
			w = headerColWide
		}
		fmt.Fprintf(&h, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/><w:vAlign w:val="center"/></w:tcPr>%s</w:tc>`, w, content)
	}
	h.WriteString(`</w:tr></w:tbl></w:hdr>`)
	return h.String(), media
}

// footerXML is fixed-text branding; the site reference is coloured the
// way hyperlinks render.
func footerXML() string {
	var p strings.Builder
	p.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	p.WriteString("\n<w:ftr " + wmlNamespaces + ">")
	writeParagraph(&p, Paragraph{
		Runs: []Run{
			{Text: "© FALCON AUTOTECH 2025 Confidential: Not for Distribution. "},
		},
		Align: AlignCenter,
		Size:  footerSize,
	})
	writeParagraph(&p, Paragraph{
		Runs:  []Run{{Text: "www.falconautotech.com"}},
		Align: AlignCenter,
		Size:  footerSize,
		Color: footerLinkColor,
	})
	p.WriteString(`</w:ftr>`)
	return p.String()
}

func writeZip(document, header string, docMedia, headerMedia []mediaPart) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	add := func(name, content string) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write([]byte(content))
		return err
	}

	var types strings.Builder
	types.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	types.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	types.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	types.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	types.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	types.WriteString(`<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>`)
	types.WriteString(`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`)
	types.WriteString(`<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>`)
	types.WriteString(`</Types>`)
	if err := add("[Content_Types].xml", types.String()); err != nil {
		return nil, err
	}

	rootRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`
	if err := add("_rels/.rels", rootRels); err != nil {
		return nil, err
	}

	var docRels strings.Builder
	docRels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	docRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	docRels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	docRels.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>`)
	docRels.WriteString(`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`)
	docRels.WriteString(`<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>`)
	for _, m := range docMedia {
		fmt.Fprintf(&docRels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`, m.relID, m.name)
	}
	docRels.WriteString(`</Relationships>`)
	if err := add("word/_rels/document.xml.rels", docRels.String()); err != nil {
		return nil, err
	}

	if len(headerMedia) > 0 {
		var hdrRels strings.Builder
		hdrRels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
		hdrRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
		for _, m := range headerMedia {
			fmt.Fprintf(&hdrRels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`, m.relID, m.name)
		}
		hdrRels.WriteString(`</Relationships>`)
		if err := add("word/_rels/header1.xml.rels", hdrRels.String()); err != nil {
			return nil, err
		}
	}

	parts := map[string]string{
		"word/document.xml":  document,
		"word/styles.xml":    stylesXML,
		"word/numbering.xml": numberingXML,
		"word/header1.xml":   header,
		"word/footer1.xml":   footerXML(),
	}
	for name, content := range parts {
		if err := add(name, content); err != nil {
			return nil, err
		}
	}
	for _, m := range append(docMedia, headerMedia...) {
		w, err := zw.Create("word/" + m.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
