package docx

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// esc escapes text for inclusion in an XML text node.
func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// writeParagraph serialises one paragraph, including list numbering
// references and explicit run properties.
func writeParagraph(b *strings.Builder, p Paragraph) {
	b.WriteString("<w:p>")
	b.WriteString("<w:pPr>")
	if p.StyleID != "" {
		fmt.Fprintf(b, `<w:pStyle w:val="%s"/>`, p.StyleID)
	}
	if p.PageBreakBefore {
		b.WriteString(`<w:pageBreakBefore/>`)
	}
	if p.Bullet {
		b.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr>`)
	}
	if p.Indent > 0 || p.Hanging > 0 {
		b.WriteString("<w:ind")
		if p.Indent > 0 {
			fmt.Fprintf(b, ` w:left="%d"`, p.Indent)
		}
		if p.Hanging > 0 {
			fmt.Fprintf(b, ` w:hanging="%d"`, p.Hanging)
		}
		b.WriteString("/>")
	}
	if p.Align != "" {
		fmt.Fprintf(b, `<w:jc w:val="%s"/>`, p.Align)
	}
	if p.Shading != "" {
		fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, p.Shading)
	}
	b.WriteString("</w:pPr>")
	for _, r := range p.Runs {
		writeRun(b, r, p)
	}
	b.WriteString("</w:p>")
}

// writeRun serialises one run, folding the paragraph-level defaults
// into the run properties.
func writeRun(b *strings.Builder, r Run, p Paragraph) {
	b.WriteString("<w:r><w:rPr>")
	fmt.Fprintf(b, `<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`, fontName, fontName)
	if r.Bold || p.Bold {
		b.WriteString("<w:b/>")
	}
	if p.Underline {
		b.WriteString(`<w:u w:val="single"/>`)
	}
	size := p.Size
	if size == 0 {
		size = bodySize
	}
	fmt.Fprintf(b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, size, size)
	if p.Color != "" {
		fmt.Fprintf(b, `<w:color w:val="%s"/>`, p.Color)
	}
	if p.Highlight != "" {
		fmt.Fprintf(b, `<w:highlight w:val="%s"/>`, p.Highlight)
	}
	b.WriteString("</w:rPr>")
	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, esc(r.Text))
	b.WriteString("</w:r>")
}

// writeImage serialises a block image as an inline drawing. relID must
// reference a media part in the enclosing part's relationships.
func writeImage(b *strings.Builder, img Image, relID string, drawingID int) {
	wTwip := img.WidthTwip
	if wTwip <= 0 || wTwip > printableWidth {
		wTwip = printableWidth
	}
	hTwip := wTwip
	if img.PixelW > 0 && img.PixelH > 0 {
		hTwip = wTwip * img.PixelH / img.PixelW
	}
	cx := int64(wTwip) * emuPerTwip
	cy := int64(hTwip) * emuPerTwip

	b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:drawing>`)
	fmt.Fprintf(b, `<wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:docPr id="%d" name="Picture %d"/>`+
		`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
		`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:nvPicPr><pic:cNvPr id="%d" name="Picture %d"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline>`,
		cx, cy, drawingID, drawingID, drawingID, drawingID, relID, cx, cy)
	b.WriteString(`</w:drawing></w:r></w:p>`)
}

// writeTable serialises a plain grid.
func writeTable(b *strings.Builder, t Table) {
	cols := 0
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}
	widths := t.ColWidths
	if len(widths) != cols {
		widths = make([]int, cols)
		for i := range widths {
			widths[i] = printableWidth / cols
		}
	}

	b.WriteString("<w:tbl><w:tblPr>")
	fmt.Fprintf(b, `<w:tblW w:w="%d" w:type="dxa"/>`, printableWidth)
	if t.Borders {
		b.WriteString(`<w:tblBorders>` +
			`<w:top w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:left w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:bottom w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:right w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:insideH w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:insideV w:val="single" w:sz="4" w:color="auto"/>` +
			`</w:tblBorders>`)
	}
	b.WriteString("</w:tblPr><w:tblGrid>")
	for _, w := range widths {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, w)
	}
	b.WriteString("</w:tblGrid>")
	for _, row := range t.Rows {
		b.WriteString("<w:tr>")
		for i := 0; i < cols; i++ {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/></w:tcPr>`, widths[i])
			writeParagraph(b, Paragraph{Runs: ParseInline(cell)})
			b.WriteString("</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
}
