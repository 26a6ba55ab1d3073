package doctree

import (
	"fmt"
	"strings"
)

// Kind identifies what a node in the stream represents.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindListItem
	KindCodeBlock
	KindTableRow
	KindPageBreak
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindListItem:
		return "list_item"
	case KindCodeBlock:
		return "code_block"
	case KindTableRow:
		return "table_row"
	case KindPageBreak:
		return "page_break"
	}
	return "unknown"
}

// MarshalText lets node kinds appear by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Alignment values match the w:jc vocabulary so they can be written as-is.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "both"
)

// ParseAlignment accepts the w:jc values plus the common spelled-out names.
func ParseAlignment(s string) (Alignment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return AlignLeft, true
	case "center", "centre":
		return AlignCenter, true
	case "right", "end":
		return AlignRight, true
	case "both", "justify", "justified":
		return AlignJustify, true
	}
	return "", false
}

func (a *Alignment) UnmarshalText(b []byte) error {
	parsed, ok := ParseAlignment(string(b))
	if !ok {
		return fmt.Errorf("unknown alignment %q", string(b))
	}
	*a = parsed
	return nil
}

// Attrs are the visual attributes of a node.
// Indents are in millimetres, font size and paragraph spacing in points.
type Attrs struct {
	FontFamily      string    `json:"font_family,omitempty"`
	FontSize        float64   `json:"font_size,omitempty"`
	Bold            bool      `json:"bold,omitempty"`
	Italic          bool      `json:"italic,omitempty"`
	Alignment       Alignment `json:"alignment,omitempty"`
	LineSpacing     float64   `json:"line_spacing,omitempty"`
	FirstLineIndent float64   `json:"first_line_indent,omitempty"`
	LeftIndent      float64   `json:"left_indent,omitempty"`
	RightIndent     float64   `json:"right_indent,omitempty"`
	SpaceBefore     float64   `json:"space_before,omitempty"`
	SpaceAfter      float64   `json:"space_after,omitempty"`
}

// TablePos locates a table row node: which table in the chapter and which row in it.
type TablePos struct {
	Table  int  `json:"table"`
	Row    int  `json:"row"`
	Header bool `json:"header,omitempty"`
}

// Node is one structured content unit of the document body.
type Node struct {
	Kind   Kind      `json:"kind"`
	Level  int       `json:"level,omitempty"`  // headings only
	Text   string    `json:"text,omitempty"`   // literal text
	Marker string    `json:"marker,omitempty"` // list items: bullet or ordinal
	Cells  []string  `json:"cells,omitempty"`  // table rows only
	Table  *TablePos `json:"table,omitempty"`
	Style  string    `json:"style,omitempty"`
	Attrs  Attrs     `json:"attrs"`
}

func Heading(level int, text, style string) Node {
	return Node{Kind: KindHeading, Level: level, Text: text, Style: style}
}

func Paragraph(text, style string) Node {
	return Node{Kind: KindParagraph, Text: text, Style: style}
}

func ListItem(marker, text, style string) Node {
	return Node{Kind: KindListItem, Marker: marker, Text: text, Style: style}
}

func CodeBlock(text, style string) Node {
	return Node{Kind: KindCodeBlock, Text: text, Style: style}
}

func TableRow(pos TablePos, cells []string, style string) Node {
	return Node{Kind: KindTableRow, Cells: cells, Table: &pos, Style: style}
}

// PageBreak is written as an empty paragraph holding a page break run, so it
// still carries a paragraph style.
func PageBreak(style string) Node {
	return Node{Kind: KindPageBreak, Style: style}
}

// Margins describes a page section. All lengths are millimetres.
type Margins struct {
	PageWidth  float64 `json:"page_width" yaml:"page_width"`
	PageHeight float64 `json:"page_height" yaml:"page_height"`
	Top        float64 `json:"top" yaml:"top"`
	Right      float64 `json:"right" yaml:"right"`
	Bottom     float64 `json:"bottom" yaml:"bottom"`
	Left       float64 `json:"left" yaml:"left"`
}

// Document is the assembled node stream plus its single section.
type Document struct {
	Margins Margins `json:"margins"`
	Nodes   []Node  `json:"nodes"`
}

// PlainText returns the text of the node as it would read in the document.
func (n Node) PlainText() string {
	switch n.Kind {
	case KindTableRow:
		return strings.Join(n.Cells, "\t")
	case KindListItem:
		if n.Marker == "" {
			return n.Text
		}
		return n.Marker + " " + n.Text
	}
	return n.Text
}
