package markup

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// inlineMarks are the characters that can start inline markup. Text without
// any of them is returned as-is after whitespace collapsing.
const inlineMarks = "*_`[]<>&\\!~"

// flattener turns one line of inline markup into plain text by walking the
// goldmark inline tree. Markup is dropped; everything the reader would see,
// including anything that looks like an HTML tag, is kept literally.
type flattener struct {
	md goldmark.Markdown
}

func newFlattener() flattener {
	return flattener{md: goldmark.New(goldmark.WithExtensions(extension.Strikethrough))}
}

func (f flattener) text(s string) string {
	s = collapse(s)
	if s == "" || !strings.ContainsAny(s, inlineMarks) {
		return s
	}

	src := []byte(s)
	doc := f.md.Parser().Parse(text.NewReader(src))

	// Anything other than a single paragraph means the line was read as
	// block markup (a list, a quote, a rule); keep the literal text then.
	para := doc.FirstChild()
	if para == nil || para.NextSibling() != nil || para.Kind() != ast.KindParagraph {
		return s
	}
	var buf strings.Builder
	writeInline(&buf, para, src)
	return collapse(buf.String())
}

func writeInline(buf *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			seg := c.Segment.Value(src)
			if c.IsRaw() {
				buf.Write(seg)
			} else {
				buf.WriteString(html.UnescapeString(string(util.UnescapePunctuations(seg))))
			}
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.RawHTML:
			for i := 0; i < c.Segments.Len(); i++ {
				seg := c.Segments.At(i)
				buf.Write(seg.Value(src))
			}
		case *ast.AutoLink:
			buf.Write(c.Label(src))
		default:
			writeInline(buf, c, src)
		}
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
