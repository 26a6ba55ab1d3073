package style

import (
	"fmt"
	"strings"

	"github.com/dgallion1/thesisfmt/internal/doctree"
)

// Kind is the tagged variant over style kinds. Each kind only accepts the
// attributes that mean something for it.
type Kind int

const (
	KindParagraph Kind = iota
	KindCharacter
	KindTable
	KindNumbering
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindCharacter:
		return "character"
	case KindTable:
		return "table"
	case KindNumbering:
		return "numbering"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown style kind %q", string(b))
	}
	*k = parsed
	return nil
}

// ParseKind maps a kind name (as used in profiles and in w:type) to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "paragraph":
		return KindParagraph, true
	case "character":
		return KindCharacter, true
	case "table":
		return KindTable, true
	case "numbering":
		return KindNumbering, true
	}
	return 0, false
}

// Font holds optional font attributes. A nil field inherits from the base style.
type Font struct {
	Family *string  `yaml:"family,omitempty" json:"family,omitempty"`
	Size   *float64 `yaml:"size,omitempty" json:"size,omitempty"`
	Bold   *bool    `yaml:"bold,omitempty" json:"bold,omitempty"`
	Italic *bool    `yaml:"italic,omitempty" json:"italic,omitempty"`
}

// Paragraph holds optional paragraph attributes. Indents in mm, spacing in pt.
type Paragraph struct {
	Alignment       *doctree.Alignment `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	LineSpacing     *float64           `yaml:"line_spacing,omitempty" json:"line_spacing,omitempty"`
	FirstLineIndent *float64           `yaml:"first_line_indent,omitempty" json:"first_line_indent,omitempty"`
	LeftIndent      *float64           `yaml:"left_indent,omitempty" json:"left_indent,omitempty"`
	RightIndent     *float64           `yaml:"right_indent,omitempty" json:"right_indent,omitempty"`
	SpaceBefore     *float64           `yaml:"space_before,omitempty" json:"space_before,omitempty"`
	SpaceAfter      *float64           `yaml:"space_after,omitempty" json:"space_after,omitempty"`
}

func (p Paragraph) hasAlignmentOrSpacing() bool {
	return p.Alignment != nil || p.LineSpacing != nil || p.SpaceBefore != nil || p.SpaceAfter != nil
}

func (p Paragraph) isEmpty() bool {
	return !p.hasAlignmentOrSpacing() && p.FirstLineIndent == nil && p.LeftIndent == nil && p.RightIndent == nil
}

// Definition is one named style as registered.
type Definition struct {
	Name      string    `yaml:"name" json:"name"`
	Kind      Kind      `yaml:"kind,omitempty" json:"kind"`
	Base      string    `yaml:"base,omitempty" json:"base,omitempty"`
	Font      Font      `yaml:"font,omitempty" json:"font"`
	Paragraph Paragraph `yaml:"paragraph,omitempty" json:"paragraph"`
}

// checkKind enforces which attribute groups a kind may carry.
func (d Definition) checkKind() error {
	switch d.Kind {
	case KindParagraph:
		return nil
	case KindCharacter:
		if !d.Paragraph.isEmpty() {
			return fmt.Errorf("%w: character style %q sets paragraph attributes", ErrInvalidStyleKind, d.Name)
		}
	case KindTable:
		if d.Paragraph.hasAlignmentOrSpacing() {
			return fmt.Errorf("%w: table style %q sets alignment or spacing", ErrInvalidStyleKind, d.Name)
		}
	case KindNumbering:
		if d.Paragraph.hasAlignmentOrSpacing() {
			return fmt.Errorf("%w: numbering style %q sets alignment or spacing", ErrInvalidStyleKind, d.Name)
		}
		if d.Font != (Font{}) {
			return fmt.Errorf("%w: numbering style %q sets font attributes", ErrInvalidStyleKind, d.Name)
		}
	default:
		return fmt.Errorf("%w: style %q has unknown kind %d", ErrInvalidStyleKind, d.Name, int(d.Kind))
	}
	return nil
}

// Effective is a fully merged style: every attribute has a concrete value.
type Effective struct {
	Name  string
	Kind  Kind
	Attrs doctree.Attrs
}

// merge applies the set fields of d on top of attrs.
func merge(attrs doctree.Attrs, d Definition) doctree.Attrs {
	f, p := d.Font, d.Paragraph
	if f.Family != nil {
		attrs.FontFamily = *f.Family
	}
	if f.Size != nil {
		attrs.FontSize = *f.Size
	}
	if f.Bold != nil {
		attrs.Bold = *f.Bold
	}
	if f.Italic != nil {
		attrs.Italic = *f.Italic
	}
	if p.Alignment != nil {
		attrs.Alignment = *p.Alignment
	}
	if p.LineSpacing != nil {
		attrs.LineSpacing = *p.LineSpacing
	}
	if p.FirstLineIndent != nil {
		attrs.FirstLineIndent = *p.FirstLineIndent
	}
	if p.LeftIndent != nil {
		attrs.LeftIndent = *p.LeftIndent
	}
	if p.RightIndent != nil {
		attrs.RightIndent = *p.RightIndent
	}
	if p.SpaceBefore != nil {
		attrs.SpaceBefore = *p.SpaceBefore
	}
	if p.SpaceAfter != nil {
		attrs.SpaceAfter = *p.SpaceAfter
	}
	return attrs
}

// Ptr is a small helper for building definitions in code.
func Ptr[T any](v T) *T {
	return &v
}
