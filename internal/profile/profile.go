// Package profile holds the canonical formatting profile shared by every
// stage of the build and by the validator.
package profile

import (
	"slices"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/style"
)

// Chapter is one entry of the canonical chapter order.
type Chapter struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
}

// Roles names the registry style used for each kind of generated content.
type Roles struct {
	Body         string `yaml:"body" json:"body"`
	Chapter      string `yaml:"chapter" json:"chapter"`
	Section      string `yaml:"section" json:"section"`
	Subsection   string `yaml:"subsection" json:"subsection"`
	ListItem     string `yaml:"list_item" json:"list_item"`
	Code         string `yaml:"code" json:"code"`
	TableCaption string `yaml:"table_caption" json:"table_caption"`
	TableCell    string `yaml:"table_cell" json:"table_cell"`
	Bibliography string `yaml:"bibliography" json:"bibliography"`
	TitlePage    string `yaml:"title_page" json:"title_page"`
	TOC          string `yaml:"toc" json:"toc"`
	Table        string `yaml:"table" json:"table"`
}

func (r Roles) all() []string {
	return []string{
		r.Body, r.Chapter, r.Section, r.Subsection, r.ListItem, r.Code,
		r.TableCaption, r.TableCell, r.Bibliography, r.TitlePage, r.TOC, r.Table,
	}
}

// Headings returns the heading style for levels 1..3.
func (r Roles) Headings() []string {
	return []string{r.Chapter, r.Section, r.Subsection}
}

// Heading returns the heading style for a level, clamped to 1..3.
func (r Roles) Heading(level int) string {
	switch {
	case level <= 1:
		return r.Chapter
	case level == 2:
		return r.Section
	default:
		return r.Subsection
	}
}

// Markup controls how chapter sources are read and scanned.
type Markup struct {
	ContentFile     string   `yaml:"content_file" json:"content_file"`
	CodeMarker      string   `yaml:"code_marker" json:"code_marker"`
	CaptionPrefixes []string `yaml:"caption_prefixes" json:"caption_prefixes"`
	BulletMarker    string   `yaml:"bullet_marker" json:"bullet_marker"`
}

// FrontMatter is emitted before the first chapter when enabled.
type FrontMatter struct {
	TitleLines []string `yaml:"title_lines,omitempty" json:"title_lines,omitempty"`
	TOC        bool     `yaml:"toc" json:"toc"`
	TOCTitle   string   `yaml:"toc_title" json:"toc_title"`
	TOCNote    string   `yaml:"toc_note" json:"toc_note"`
}

// Trailing describes the fixed sections appended after the last chapter.
type Trailing struct {
	BibliographyTitle   string   `yaml:"bibliography_title" json:"bibliography_title"`
	BibliographyEntries []string `yaml:"bibliography_entries" json:"bibliography_entries"`
	AppendicesTitle     string   `yaml:"appendices_title" json:"appendices_title"`
}

// Checks holds the validator thresholds.
type Checks struct {
	MarginTolerance   float64 `yaml:"margin_tolerance" json:"margin_tolerance"`
	ExampleCap        int     `yaml:"example_cap" json:"example_cap"`
	StyleThreshold    int     `yaml:"style_threshold" json:"style_threshold"`
	ParagraphsPerPage int     `yaml:"paragraphs_per_page" json:"paragraphs_per_page"`
}

// Profile is the complete canonical formatting profile. It is built once,
// validated, and then passed by value to every component that needs it.
type Profile struct {
	Name        string             `yaml:"name" json:"name"`
	Language    string             `yaml:"language" json:"language"`
	Margins     doctree.Margins    `yaml:"margins" json:"margins"`
	ListIndent  float64            `yaml:"list_indent" json:"list_indent"`
	Styles      []style.Definition `yaml:"styles" json:"styles"`
	Roles       Roles              `yaml:"roles" json:"roles"`
	Chapters    []Chapter          `yaml:"chapters" json:"chapters"`
	Markup      Markup             `yaml:"markup" json:"markup"`
	FrontMatter FrontMatter        `yaml:"front_matter" json:"front_matter"`
	Trailing    Trailing           `yaml:"trailing" json:"trailing"`
	Checks      Checks             `yaml:"checks" json:"checks"`
}

// Position returns the index of key in the canonical chapter order.
func (p Profile) Position(key string) (int, bool) {
	i := slices.IndexFunc(p.Chapters, func(c Chapter) bool { return c.Key == key })
	return i, i >= 0
}

// Title translates a chapter key. Unknown keys pass through unchanged.
func (p Profile) Title(key string) string {
	if i, ok := p.Position(key); ok {
		return p.Chapters[i].Title
	}
	return key
}

// Registry builds the style registry for this profile and checks that every
// style resolves.
func (p Profile) Registry() (*style.Registry, error) {
	reg, err := style.Build(p.Styles)
	if err != nil {
		return nil, err
	}
	if err := reg.Check(); err != nil {
		return nil, err
	}
	return reg, nil
}
