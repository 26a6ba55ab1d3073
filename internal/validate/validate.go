// Package validate checks an assembled document against the formatting
// profile. Deviations are recorded as findings; only a document that cannot
// be read at all is an error.
package validate

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/thesisfmt/internal/chapters"
	"github.com/dgallion1/thesisfmt/internal/docxio"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/style"
)

// Validator runs the profile checks. It holds no per-run state.
type Validator struct {
	profile  profile.Profile
	bodyFont string
	bodySize float64
}

func New(p profile.Profile, reg *style.Registry) (*Validator, error) {
	body, err := reg.Resolve(p.Roles.Body)
	if err != nil {
		return nil, fmt.Errorf("validator body style: %w", err)
	}
	return &Validator{
		profile:  p,
		bodyFont: body.Attrs.FontFamily,
		bodySize: body.Attrs.FontSize,
	}, nil
}

// Options are the optional inputs of a file validation.
type Options struct {
	PDF    string // rendition whose page count is added to the metrics
	Source string // name shown in the report, defaults to the path
}

// ValidateFile loads the docx at path and validates it.
func (v *Validator) ValidateFile(path string, opts Options) (*Report, error) {
	doc, err := docxio.Open(path)
	if err != nil {
		return nil, err
	}
	source := opts.Source
	if source == "" {
		source = path
	}
	rep := v.Validate(source, doc)
	if opts.PDF != "" {
		pages, err := docxio.PDFPages(opts.PDF)
		if err != nil {
			return nil, err
		}
		rep.Metrics[MetricPDFPages] = pages
	}
	return rep, nil
}

// Validate runs every check against a loaded document.
func (v *Validator) Validate(source string, doc *docxio.Document) *Report {
	rep := newReport(source)
	v.checkChapters(rep, doc)
	v.checkMargins(rep, doc)
	v.checkTypography(rep, doc)
	v.checkStyles(rep, doc)
	v.metrics(rep, doc)
	return rep
}

type chapterHit struct {
	key   string
	title string
	pos   int // paragraph index, -1 when absent
}

func (v *Validator) checkChapters(rep *Report, doc *docxio.Document) {
	var headings []int
	for i, p := range doc.Paragraphs {
		if p.Text == "" {
			continue
		}
		if p.HeadingLevel() == 1 || (p.IsHeading() && startsWithDigit(p.Text)) {
			headings = append(headings, i)
		}
	}

	hits := make([]chapterHit, 0, len(v.profile.Chapters))
	for _, c := range v.profile.Chapters {
		hit := chapterHit{key: c.Key, title: c.Title, pos: -1}
		for _, i := range headings {
			if matchesChapter(doc.Paragraphs[i].Text, c) {
				hit.pos = i
				break
			}
		}
		hits = append(hits, hit)
	}

	last := -1
	var lastKey string
	for _, h := range hits {
		if h.pos < 0 {
			rep.add(Finding{
				Category: Structural,
				Severity: SeverityError,
				Message:  fmt.Sprintf("chapter %q (%s) is missing", chapterLabel(h.key), h.title),
				Location: &Location{Chapter: chapterLabel(h.key)},
			})
			continue
		}
		if h.pos < last {
			rep.add(Finding{
				Category: Structural,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("chapter %q (%s) appears before chapter %q", chapterLabel(h.key), h.title, chapterLabel(lastKey)),
				Location: &Location{Chapter: chapterLabel(h.key), Paragraph: h.pos + 1},
			})
			continue
		}
		last, lastKey = h.pos, h.key
	}
}

// chapterLabel is the chapter number of a canonical key, or the key itself.
func chapterLabel(key string) string {
	if id := chapters.ParseName(key).ID(); id != "" {
		return id
	}
	return key
}

func matchesChapter(text string, c profile.Chapter) bool {
	text = norm.NFC.String(strings.TrimSpace(text))
	if id := chapters.ParseName(c.Key).ID(); id != "" {
		if rest, ok := strings.CutPrefix(text, id+"."); ok {
			// "1.1 ..." is a subsection of chapter 1, not its title
			return rest == "" || rest[0] < '0' || rest[0] > '9'
		}
		return strings.HasPrefix(text, id+" ")
	}
	return text == norm.NFC.String(c.Title)
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '1' && s[0] <= '9'
}

func (v *Validator) checkMargins(rep *Report, doc *docxio.Document) {
	if len(doc.Sections) == 0 {
		rep.add(Finding{Category: Technical, Severity: SeverityError, Message: "document has no section properties"})
		return
	}
	want := v.profile.Margins
	tol := v.profile.Checks.MarginTolerance
	for i, s := range doc.Sections {
		sides := []struct {
			name      string
			got, want float64
		}{
			{"top", s.Top, want.Top},
			{"right", s.Right, want.Right},
			{"bottom", s.Bottom, want.Bottom},
			{"left", s.Left, want.Left},
		}
		for _, side := range sides {
			delta := side.got - side.want
			if math.Abs(delta) <= tol {
				continue
			}
			rep.add(Finding{
				Category: Technical,
				Severity: SeverityError,
				Message: fmt.Sprintf("%s margin is %.2f mm, expected %.2f mm (delta %+.2f mm)",
					side.name, side.got, side.want, delta),
				Location: &Location{Section: i + 1},
			})
		}
	}
}

// checkTypography compares direct run formatting of body paragraphs with
// the body style. Runs that inherit their font are compliant.
func (v *Validator) checkTypography(rep *Report, doc *docxio.Document) {
	limit := v.profile.Checks.ExampleCap
	total := 0
	for i, p := range doc.Paragraphs {
		if p.Text == "" || p.IsHeading() {
			continue
		}
		for _, r := range p.Runs {
			if strings.TrimSpace(r.Text) == "" {
				continue
			}
			var wrong []string
			if r.Font != "" && r.Font != v.bodyFont {
				wrong = append(wrong, fmt.Sprintf("font %q instead of %q", r.Font, v.bodyFont))
			}
			if r.Size > 0 && r.Size != v.bodySize {
				wrong = append(wrong, fmt.Sprintf("font size %g pt instead of %g pt", r.Size, v.bodySize))
			}
			if len(wrong) == 0 {
				continue
			}
			// one finding per run, however many attributes differ
			total++
			if total > limit {
				continue
			}
			rep.add(Finding{
				Category: Stylistic,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%s in %q", strings.Join(wrong, ", "), excerpt(r.Text)),
				Location: &Location{Paragraph: i + 1},
			})
		}
	}

	rep.Metrics[MetricTypographyViolations] = total
	if total > limit {
		rep.add(Finding{
			Category: Stylistic,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%d typography violations in total, %d more not listed", total, total-limit),
		})
	}
}

func excerpt(s string) string {
	const n = 30
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func (v *Validator) checkStyles(rep *Report, doc *docxio.Document) {
	seen := map[string]bool{}
	for _, p := range doc.Paragraphs {
		seen[p.StyleName] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)

	rep.Metrics[MetricDistinctStyles] = len(names)
	if len(names) > v.profile.Checks.StyleThreshold {
		rep.add(Finding{
			Category: Stylistic,
			Severity: SeverityInfo,
			Message: fmt.Sprintf("%d paragraph styles in use (threshold %d): %s",
				len(names), v.profile.Checks.StyleThreshold, strings.Join(names, ", ")),
		})
	}
}

func (v *Validator) metrics(rep *Report, doc *docxio.Document) {
	var paras, words, chars int
	for _, p := range doc.Paragraphs {
		if p.Text == "" {
			continue
		}
		paras++
		words += len(strings.Fields(p.Text))
		chars += utf8.RuneCountInString(p.Text)
	}
	rep.Metrics[MetricParagraphs] = paras
	rep.Metrics[MetricWords] = words
	rep.Metrics[MetricCharacters] = chars
	rep.Metrics[MetricPagesEstimate] = paras / v.profile.Checks.ParagraphsPerPage
	rep.Metrics[MetricTables] = doc.Tables
}
