package validate

import (
	"fmt"
	"strings"
)

// Category buckets a finding in the report.
type Category int

const (
	Structural Category = iota
	Technical
	Stylistic
)

func (c Category) String() string {
	switch c {
	case Structural:
		return "structural"
	case Technical:
		return "technical"
	case Stylistic:
		return "stylistic"
	}
	return "unknown"
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	switch string(b) {
	case "structural":
		*c = Structural
	case "technical":
		*c = Technical
	case "stylistic":
		*c = Stylistic
	default:
		return fmt.Errorf("unknown category %q", b)
	}
	return nil
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Location points at the part of the document a finding is about. Indexes
// are 1-based; zero means not applicable.
type Location struct {
	Chapter   string `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Section   int    `json:"section,omitempty" yaml:"section,omitempty"`
	Paragraph int    `json:"paragraph,omitempty" yaml:"paragraph,omitempty"`
}

func (l Location) String() string {
	var parts []string
	if l.Chapter != "" {
		parts = append(parts, "chapter "+l.Chapter)
	}
	if l.Section > 0 {
		parts = append(parts, fmt.Sprintf("section %d", l.Section))
	}
	if l.Paragraph > 0 {
		parts = append(parts, fmt.Sprintf("paragraph %d", l.Paragraph))
	}
	return strings.Join(parts, ", ")
}

// Finding is one deviation from the profile. Findings are never errors.
type Finding struct {
	Category Category  `json:"category" yaml:"category"`
	Severity Severity  `json:"severity" yaml:"severity"`
	Message  string    `json:"message" yaml:"message"`
	Location *Location `json:"location,omitempty" yaml:"location,omitempty"`
}

// Metric keys.
const (
	MetricParagraphs           = "paragraphs"
	MetricWords                = "words"
	MetricCharacters           = "characters"
	MetricPagesEstimate        = "pages_estimate"
	MetricPDFPages             = "pdf_pages"
	MetricTables               = "tables"
	MetricDistinctStyles       = "distinct_styles"
	MetricTypographyViolations = "typography_violations"
)

// Report is the result of one validation run.
type Report struct {
	Source     string         `json:"source,omitempty" yaml:"source,omitempty"`
	Structural []Finding      `json:"structural" yaml:"structural"`
	Technical  []Finding      `json:"technical" yaml:"technical"`
	Stylistic  []Finding      `json:"stylistic" yaml:"stylistic"`
	Metrics    map[string]int `json:"metrics" yaml:"metrics"`
}

func newReport(source string) *Report {
	return &Report{
		Source:     source,
		Structural: []Finding{},
		Technical:  []Finding{},
		Stylistic:  []Finding{},
		Metrics:    map[string]int{},
	}
}

func (r *Report) add(f Finding) {
	switch f.Category {
	case Structural:
		r.Structural = append(r.Structural, f)
	case Technical:
		r.Technical = append(r.Technical, f)
	default:
		r.Stylistic = append(r.Stylistic, f)
	}
}

// Findings returns every finding, structural first.
func (r Report) Findings() []Finding {
	out := make([]Finding, 0, len(r.Structural)+len(r.Technical)+len(r.Stylistic))
	out = append(out, r.Structural...)
	out = append(out, r.Technical...)
	return append(out, r.Stylistic...)
}

// Compliant reports whether no error-severity finding was recorded.
func (r Report) Compliant() bool {
	for _, f := range r.Findings() {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}
