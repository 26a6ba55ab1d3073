package docxio

import (
	"archive/zip"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/beevik/etree"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/style"
)

const (
	nsW        = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	stylesPath = "word/styles.xml"
)

// StylesXML renders word/styles.xml for every style in the registry. Each
// style carries its fully resolved attributes plus its base reference, so
// the document reads the same whether or not a consumer follows basedOn.
func StylesXML(reg *style.Registry, p profile.Profile) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:styles")
	root.CreateAttr("xmlns:w", nsW)

	body, err := reg.Resolve(p.Roles.Body)
	if err != nil {
		return nil, fmt.Errorf("styles.xml: %w", err)
	}
	rpr := root.CreateElement("w:docDefaults").CreateElement("w:rPrDefault").CreateElement("w:rPr")
	writeFonts(rpr, body.Attrs.FontFamily)
	rpr.CreateElement("w:sz").CreateAttr("w:val", halfPoints(body.Attrs.FontSize))
	if p.Language != "" {
		lang := rpr.CreateElement("w:lang")
		lang.CreateAttr("w:val", p.Language)
		lang.CreateAttr("w:eastAsia", p.Language)
	}

	outline := map[string]int{}
	for i, name := range p.Roles.Headings() {
		outline[name] = i
	}

	for _, name := range reg.Names() {
		def, _ := reg.Definition(name)
		eff, err := reg.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("styles.xml: %w", err)
		}

		el := root.CreateElement("w:style")
		el.CreateAttr("w:type", def.Kind.String())
		el.CreateAttr("w:styleId", name)
		if name == p.Roles.Body {
			el.CreateAttr("w:default", "1")
		}
		el.CreateElement("w:name").CreateAttr("w:val", name)
		if def.Base != "" {
			el.CreateElement("w:basedOn").CreateAttr("w:val", def.Base)
		}
		if def.Kind == style.KindParagraph {
			el.CreateElement("w:qFormat")
		}

		switch def.Kind {
		case style.KindParagraph:
			ppr := el.CreateElement("w:pPr")
			writeParagraph(ppr, eff.Attrs)
			if lvl, ok := outline[name]; ok {
				ppr.CreateElement("w:outlineLvl").CreateAttr("w:val", strconv.Itoa(lvl))
			}
			writeRun(el.CreateElement("w:rPr"), eff.Attrs)
		case style.KindCharacter:
			writeRun(el.CreateElement("w:rPr"), eff.Attrs)
		case style.KindTable:
			tblPr := el.CreateElement("w:tblPr")
			setAttrs(tblPr.CreateElement("w:tblInd"), "w:w", strconv.Itoa(mmToTwips(eff.Attrs.LeftIndent)), "w:type", "dxa")
			borders := tblPr.CreateElement("w:tblBorders")
			for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
				setAttrs(borders.CreateElement(side), "w:val", "single", "w:sz", "4", "w:space", "0", "w:color", "auto")
			}
		case style.KindNumbering:
			writeIndent(el.CreateElement("w:pPr"), eff.Attrs)
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func writeParagraph(ppr *etree.Element, a doctree.Attrs) {
	sp := ppr.CreateElement("w:spacing")
	sp.CreateAttr("w:before", strconv.Itoa(ptToTwips(a.SpaceBefore)))
	sp.CreateAttr("w:after", strconv.Itoa(ptToTwips(a.SpaceAfter)))
	if a.LineSpacing > 0 {
		sp.CreateAttr("w:line", strconv.Itoa(lineToUnits(a.LineSpacing)))
		sp.CreateAttr("w:lineRule", "auto")
	}
	writeIndent(ppr, a)
	if a.Alignment != "" {
		ppr.CreateElement("w:jc").CreateAttr("w:val", string(a.Alignment))
	}
}

func writeIndent(ppr *etree.Element, a doctree.Attrs) {
	ind := ppr.CreateElement("w:ind")
	ind.CreateAttr("w:left", strconv.Itoa(mmToTwips(a.LeftIndent)))
	ind.CreateAttr("w:right", strconv.Itoa(mmToTwips(a.RightIndent)))
	if a.FirstLineIndent < 0 {
		ind.CreateAttr("w:hanging", strconv.Itoa(mmToTwips(-a.FirstLineIndent)))
	} else {
		ind.CreateAttr("w:firstLine", strconv.Itoa(mmToTwips(a.FirstLineIndent)))
	}
}

func writeRun(rpr *etree.Element, a doctree.Attrs) {
	if a.FontFamily != "" {
		writeFonts(rpr, a.FontFamily)
	}
	if a.Bold {
		rpr.CreateElement("w:b")
	}
	if a.Italic {
		rpr.CreateElement("w:i")
	}
	if a.FontSize > 0 {
		rpr.CreateElement("w:sz").CreateAttr("w:val", halfPoints(a.FontSize))
		rpr.CreateElement("w:szCs").CreateAttr("w:val", halfPoints(a.FontSize))
	}
}

// setAttrs sets key/value pairs in order.
func setAttrs(el *etree.Element, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		el.CreateAttr(kv[i], kv[i+1])
	}
}

func writeFonts(rpr *etree.Element, family string) {
	setAttrs(rpr.CreateElement("w:rFonts"),
		"w:ascii", family,
		"w:hAnsi", family,
		"w:eastAsia", family,
		"w:cs", family,
	)
}

// StyleInfo is one style as found in a document's styles.xml.
type StyleInfo struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Kind      style.Kind `json:"kind" yaml:"kind"`
	Base      string     `json:"base,omitempty" yaml:"base,omitempty"`
	Alignment string     `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	Font      string     `json:"font,omitempty" yaml:"font,omitempty"`
	Size      float64    `json:"size,omitempty" yaml:"size,omitempty"`
	Bold      bool       `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic    bool       `json:"italic,omitempty" yaml:"italic,omitempty"`
	Before    float64    `json:"space_before,omitempty" yaml:"space_before,omitempty"`
	After     float64    `json:"space_after,omitempty" yaml:"space_after,omitempty"`
	Line      float64    `json:"line_spacing,omitempty" yaml:"line_spacing,omitempty"`
	FirstLine float64    `json:"first_line_indent,omitempty" yaml:"first_line_indent,omitempty"`
	Left      float64    `json:"left_indent,omitempty" yaml:"left_indent,omitempty"`
}

// StyleReport groups the styles of a document by kind.
type StyleReport struct {
	Paragraph []StyleInfo `json:"paragraph" yaml:"paragraph"`
	Character []StyleInfo `json:"character" yaml:"character"`
	Table     []StyleInfo `json:"table" yaml:"table"`
	Numbering []StyleInfo `json:"numbering" yaml:"numbering"`
}

// Len is the total number of styles in the report.
func (r StyleReport) Len() int {
	return len(r.Paragraph) + len(r.Character) + len(r.Table) + len(r.Numbering)
}

// InspectStyles reads word/styles.xml of the docx at path.
func InspectStyles(path string) (StyleReport, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return StyleReport{}, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
	}
	defer zr.Close()
	return inspectZip(&zr.Reader)
}

// InspectStylesReader is InspectStyles for an in-memory document.
func InspectStylesReader(r io.ReaderAt, size int64) (StyleReport, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return StyleReport{}, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	return inspectZip(zr)
}

func inspectZip(zr *zip.Reader) (StyleReport, error) {
	doc, err := readStyles(zr)
	if err != nil {
		return StyleReport{}, err
	}
	var rep StyleReport
	if doc == nil {
		return rep, nil
	}

	for _, el := range doc.FindElements("//w:style") {
		info := styleInfo(el)
		switch info.Kind {
		case style.KindCharacter:
			rep.Character = append(rep.Character, info)
		case style.KindTable:
			rep.Table = append(rep.Table, info)
		case style.KindNumbering:
			rep.Numbering = append(rep.Numbering, info)
		default:
			rep.Paragraph = append(rep.Paragraph, info)
		}
	}
	for _, group := range [][]StyleInfo{rep.Paragraph, rep.Character, rep.Table, rep.Numbering} {
		slices.SortFunc(group, func(a, b StyleInfo) int { return cmp.Compare(a.Name, b.Name) })
	}
	return rep, nil
}

// readStyles parses word/styles.xml. A document without one yields nil.
func readStyles(zr *zip.Reader) (*etree.Document, error) {
	for _, f := range zr.File {
		if f.Name != stylesPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrUnreadableSource, stylesPath, err)
		}
		defer rc.Close()

		doc := etree.NewDocument()
		if _, err := doc.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", ErrUnreadableSource, stylesPath, err)
		}
		return doc, nil
	}
	return nil, nil
}

func styleInfo(el *etree.Element) StyleInfo {
	kind, ok := style.ParseKind(el.SelectAttrValue("w:type", "paragraph"))
	if !ok {
		kind = style.KindParagraph
	}
	info := StyleInfo{
		ID:   el.SelectAttrValue("w:styleId", ""),
		Kind: kind,
		Name: childVal(el, "w:name"),
		Base: childVal(el, "w:basedOn"),
	}
	if info.Name == "" {
		info.Name = info.ID
	}

	if ppr := el.SelectElement("w:pPr"); ppr != nil {
		info.Alignment = childVal(ppr, "w:jc")
		if sp := ppr.SelectElement("w:spacing"); sp != nil {
			info.Before = twipsToPt(atoi(sp.SelectAttrValue("w:before", "")))
			info.After = twipsToPt(atoi(sp.SelectAttrValue("w:after", "")))
			if line := atoi(sp.SelectAttrValue("w:line", "")); line > 0 {
				info.Line = float64(line) / lineUnit
			}
		}
		if ind := ppr.SelectElement("w:ind"); ind != nil {
			info.Left = roundMM(twipsToMM(atoi(ind.SelectAttrValue("w:left", ""))))
			info.FirstLine = roundMM(twipsToMM(atoi(ind.SelectAttrValue("w:firstLine", ""))))
			if h := atoi(ind.SelectAttrValue("w:hanging", "")); h > 0 {
				info.FirstLine = -roundMM(twipsToMM(h))
			}
		}
	}
	if rpr := el.SelectElement("w:rPr"); rpr != nil {
		if fonts := rpr.SelectElement("w:rFonts"); fonts != nil {
			info.Font = fonts.SelectAttrValue("w:ascii", "")
		}
		info.Size = parseHalfPoints(childVal(rpr, "w:sz"))
		info.Bold = onOff(rpr.SelectElement("w:b"))
		info.Italic = onOff(rpr.SelectElement("w:i"))
	}
	return info
}

func childVal(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return c.SelectAttrValue("w:val", "")
	}
	return ""
}

// onOff reads a toggle property: present means on unless w:val says off.
func onOff(el *etree.Element) bool {
	if el == nil {
		return false
	}
	switch el.SelectAttrValue("w:val", "true") {
	case "0", "false", "off":
		return false
	}
	return true
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
