package docxio

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/style"
)

// Page header and footer distance, 12.5 mm.
const headerFooterTwips = 709

// Writer renders a normalized document as a .docx package.
type Writer struct {
	profile  profile.Profile
	registry *style.Registry
}

func NewWriter(p profile.Profile, reg *style.Registry) *Writer {
	return &Writer{profile: p, registry: reg}
}

// Write encodes doc to out. Node attributes are written as direct formatting
// and the registry is written as the package's styles part.
func (w *Writer) Write(out io.Writer, doc *doctree.Document) error {
	styles, err := StylesXML(w.registry, w.profile)
	if err != nil {
		return err
	}
	f := docx.New().UseTemplate("", docx.DefaultTemplateFilesList, templateFS{styles: styles})

	nodes := doc.Nodes
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		switch n.Kind {
		case doctree.KindTableRow:
			j := i + 1
			for j < len(nodes) && sameTable(n, nodes[j]) {
				j++
			}
			w.table(f, nodes[i:j])
			i = j - 1
		case doctree.KindPageBreak:
			f.AddParagraph().Style(n.Style).AddPageBreaks()
		default:
			writeNodeParagraph(f.AddParagraph(), n, n.PlainText(), false)
		}
	}

	m := doc.Margins
	f.Document.Body.Items = append(f.Document.Body.Items, &docx.SectPr{
		PgSz: &docx.PgSz{W: mmToTwips(m.PageWidth), H: mmToTwips(m.PageHeight)},
		PgMar: &docx.PgMar{
			Top:    mmToTwips(m.Top),
			Right:  mmToTwips(m.Right),
			Bottom: mmToTwips(m.Bottom),
			Left:   mmToTwips(m.Left),
			Header: headerFooterTwips,
			Footer: headerFooterTwips,
		},
	})

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// WriteFile writes doc to dst through a temp file in the same directory,
// so a failed build never leaves a truncated document behind.
func (w *Writer) WriteFile(dst string, doc *doctree.Document) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	tmp, err := os.CreateTemp(dir, ".thesisfmt-*.docx")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer os.Remove(tmp.Name())

	if err := w.Write(tmp, doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

func sameTable(a, b doctree.Node) bool {
	return b.Kind == doctree.KindTableRow && a.Table != nil && b.Table != nil && a.Table.Table == b.Table.Table
}

func (w *Writer) table(f *docx.Docx, rows []doctree.Node) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r.Cells))
	}
	if cols == 0 {
		return
	}
	t := f.AddTable(len(rows), cols, 0, nil)
	t.TableProperties.Style = &docx.WTableStyle{Val: w.profile.Roles.Table}
	for i, r := range rows {
		header := r.Table != nil && r.Table.Header
		for j, cell := range t.TableRows[i].TableCells {
			text := ""
			if j < len(r.Cells) {
				text = r.Cells[j]
			}
			writeNodeParagraph(cell.AddParagraph(), r, text, header)
		}
	}
}

func writeNodeParagraph(p *docx.Paragraph, n doctree.Node, text string, bold bool) {
	a := n.Attrs
	p.Style(n.Style)
	if a.Alignment != "" {
		p.Justification(string(a.Alignment))
	}
	p.Properties.Spacing = &docx.Spacing{Before: ptToTwips(a.SpaceBefore)}
	if a.LineSpacing > 0 {
		p.Properties.Spacing.Line = lineToUnits(a.LineSpacing)
		p.Properties.Spacing.LineRule = "auto"
	}
	ind := &docx.Ind{Left: mmToTwips(a.LeftIndent)}
	if a.FirstLineIndent < 0 {
		ind.Hanging = mmToTwips(-a.FirstLineIndent)
	} else {
		ind.FirstLine = mmToTwips(a.FirstLineIndent)
	}
	p.Properties.Ind = ind

	if text == "" {
		return
	}
	r := p.AddText(text)
	if a.FontFamily != "" {
		r.Font(a.FontFamily, a.FontFamily, a.FontFamily, "")
	}
	if a.FontSize > 0 {
		r.Size(halfPoints(a.FontSize))
	}
	if a.Bold || bold {
		r.Bold()
	}
	if a.Italic {
		r.Italic()
	}
}

// templateFS serves the package template with our styles part in place of
// the stock one.
type templateFS struct {
	styles []byte
}

func (t templateFS) Open(name string) (fs.File, error) {
	if name == stylesPath {
		return &memFile{Reader: bytes.NewReader(t.styles), name: name}, nil
	}
	return docx.TemplateXMLFS.Open("xml/default/" + name)
}

type memFile struct {
	*bytes.Reader
	name string
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f, nil }
func (f *memFile) Close() error               { return nil }
func (f *memFile) Name() string               { return path.Base(f.name) }
func (f *memFile) Mode() fs.FileMode          { return 0o444 }
func (f *memFile) ModTime() time.Time         { return time.Time{} }
func (f *memFile) IsDir() bool                { return false }
func (f *memFile) Sys() any                   { return nil }
