package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/multierr"

	"github.com/dgallion1/thesisfmt/internal/style"
)

// MaxFileSize caps profile files; anything larger is not a profile.
const MaxFileSize = 1 << 20

var ErrInvalidProfile = errors.New("invalid profile")

// Load reads a YAML override file on top of Default. An empty path returns
// the default profile.
func Load(path string) (Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse applies YAML data on top of the default profile. Unknown keys are
// rejected. Lists replace the default list as a whole.
func Parse(data []byte) (Profile, error) {
	if len(data) > MaxFileSize {
		return Profile{}, fmt.Errorf("%w: %d bytes (max %d)", ErrInvalidProfile, len(data), MaxFileSize)
	}
	p := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return p, nil
	}
	if err := yaml.UnmarshalWithOptions(data, &p, yaml.Strict()); err != nil {
		return Profile{}, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Dump renders the profile as YAML.
func (p Profile) Dump() ([]byte, error) {
	out, err := yaml.MarshalWithOptions(p, yaml.Indent(2))
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return out, nil
}

// Validate reports every problem at once.
func (p Profile) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidProfile}, args...)...))
	}

	m := p.Margins
	if m.PageWidth <= 0 || m.PageHeight <= 0 {
		add("page size must be positive, got %gx%g mm", m.PageWidth, m.PageHeight)
	}
	if m.Left < 0 || m.Right < 0 || m.Top < 0 || m.Bottom < 0 {
		add("margins must not be negative")
	}
	if m.Left+m.Right >= m.PageWidth || m.Top+m.Bottom >= m.PageHeight {
		add("margins leave no room for text")
	}
	if p.ListIndent < 0 {
		add("list_indent must not be negative")
	}

	reg, err := p.Registry()
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w: styles: %w", ErrInvalidProfile, err))
	} else {
		for _, name := range p.Roles.all() {
			if name == "" {
				add("every role needs a style")
				continue
			}
			d, ok := reg.Definition(name)
			if !ok {
				add("role style %q is not defined", name)
				continue
			}
			want := style.KindParagraph
			if name == p.Roles.Table {
				want = style.KindTable
			}
			if d.Kind != want {
				add("role style %q must be a %s style, got %s", name, want, d.Kind)
			}
		}
		if body, err := reg.Resolve(p.Roles.Body); err == nil {
			if body.Attrs.FontFamily == "" || body.Attrs.FontSize <= 0 {
				add("body style %q needs a font family and size", p.Roles.Body)
			}
		}
	}

	if len(p.Chapters) == 0 {
		add("chapter order is empty")
	}
	seen := make(map[string]bool)
	for _, c := range p.Chapters {
		if c.Key == "" || c.Title == "" {
			add("chapter entries need key and title")
			continue
		}
		if seen[c.Key] {
			add("chapter %q listed twice", c.Key)
		}
		seen[c.Key] = true
	}

	if p.Markup.ContentFile == "" {
		add("markup.content_file is empty")
	}
	if p.Trailing.BibliographyTitle == "" || p.Trailing.AppendicesTitle == "" {
		add("trailing section titles must be set")
	}
	if p.FrontMatter.TOC && p.FrontMatter.TOCTitle == "" {
		add("front_matter.toc_title is empty")
	}

	c := p.Checks
	if c.MarginTolerance < 0 {
		add("checks.margin_tolerance must not be negative")
	}
	if c.ExampleCap < 1 || c.StyleThreshold < 1 || c.ParagraphsPerPage < 1 {
		add("checks.example_cap, style_threshold and paragraphs_per_page must be at least 1")
	}
	return errs
}
