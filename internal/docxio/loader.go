package docxio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/style"
)

// Run is one text run with its direct formatting. Empty Font and zero Size
// mean the run inherits them from its style.
type Run struct {
	Text string
	Font string
	Size float64
}

// Paragraph is a body-level paragraph. Paragraphs inside tables are not
// listed.
type Paragraph struct {
	Style     string // style id, empty for the default style
	StyleName string // display name from styles.xml
	Text      string
	Runs      []Run
}

// HeadingLevel reports the outline level implied by the style, or 0.
func (p Paragraph) HeadingLevel() int {
	for _, s := range []string{p.StyleName, p.Style} {
		if lvl := headingLevel(s); lvl > 0 {
			return lvl
		}
	}
	return 0
}

// IsHeading reports whether the paragraph uses any Heading style.
func (p Paragraph) IsHeading() bool {
	return strings.HasPrefix(p.StyleName, "Heading") || strings.HasPrefix(p.Style, "Heading")
}

// Document is what the validator needs from a .docx.
type Document struct {
	Sections   []doctree.Margins
	Paragraphs []Paragraph
	Tables     int
}

// Open loads the .docx at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	return load(f, st.Size())
}

// Read loads a .docx from a stream.
func Read(r io.Reader) (*Document, error) {
	tmp, size, cleanup, err := spool(r, "thesisfmt-*.docx")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	defer cleanup()
	return load(tmp, size)
}

func load(ra io.ReaderAt, size int64) (*Document, error) {
	parsed, err := docx.Parse(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %w", ErrUnreadableSource, err)
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	names, def, err := styleNames(zr)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	for _, item := range parsed.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			p := Paragraph{StyleName: def}
			if it.Properties != nil && it.Properties.Style != nil {
				p.Style = it.Properties.Style.Val
				p.StyleName = p.Style
				if n, ok := names[p.Style]; ok {
					p.StyleName = n
				}
			}
			p.Runs = paragraphRuns(it)
			var text strings.Builder
			for _, r := range p.Runs {
				text.WriteString(r.Text)
			}
			p.Text = strings.TrimSpace(text.String())
			doc.Paragraphs = append(doc.Paragraphs, p)
		case *docx.Table:
			doc.Tables++
		case *docx.SectPr:
			doc.Sections = append(doc.Sections, sectionMargins(it))
		}
	}
	return doc, nil
}

func paragraphRuns(para *docx.Paragraph) []Run {
	var runs []Run
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var buf strings.Builder
		for _, rc := range run.Children {
			switch c := rc.(type) {
			case *docx.Text:
				buf.WriteString(c.Text)
			case *docx.Tab:
				buf.WriteByte('\t')
			case *docx.BarterRabbet:
				if c.Type != "page" {
					buf.WriteByte('\n')
				}
			}
		}
		r := Run{Text: buf.String()}
		if rp := run.RunProperties; rp != nil {
			if rp.Fonts != nil {
				r.Font = rp.Fonts.ASCII
			}
			if rp.Size != nil {
				r.Size = parseHalfPoints(rp.Size.Val)
			}
		}
		runs = append(runs, r)
	}
	return runs
}

func sectionMargins(s *docx.SectPr) doctree.Margins {
	var m doctree.Margins
	if s.PgSz != nil {
		m.PageWidth = roundMM(twipsToMM(s.PgSz.W))
		m.PageHeight = roundMM(twipsToMM(s.PgSz.H))
	}
	if s.PgMar != nil {
		m.Top = roundMM(twipsToMM(s.PgMar.Top))
		m.Right = roundMM(twipsToMM(s.PgMar.Right))
		m.Bottom = roundMM(twipsToMM(s.PgMar.Bottom))
		m.Left = roundMM(twipsToMM(s.PgMar.Left))
	}
	return m
}

// styleNames maps style ids to display names and finds the name of the
// default paragraph style.
func styleNames(zr *zip.Reader) (map[string]string, string, error) {
	names := make(map[string]string)
	def := "Normal"
	doc, err := readStyles(zr)
	if err != nil || doc == nil {
		return names, def, err
	}
	for _, el := range doc.FindElements("//w:style") {
		info := styleInfo(el)
		names[info.ID] = info.Name
		switch el.SelectAttrValue("w:default", "") {
		case "1", "true", "on":
			if info.Kind == style.KindParagraph {
				def = info.Name
			}
		}
	}
	return names, def, nil
}

// headingLevel accepts "Heading2", "heading 2" and similar.
func headingLevel(name string) int {
	s := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok {
		return 0
	}
	lvl, err := strconv.Atoi(rest)
	if err != nil || lvl < 1 || lvl > 9 {
		return 0
	}
	return lvl
}
