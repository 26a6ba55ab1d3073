// Package markup converts the markup text of one chapter into the node
// stream used by the assembler.
package markup

import (
	"regexp"
	"strings"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/profile"
)

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)(?:[ \t]+#+)?[ \t]*$`)
	emptyHeading = regexp.MustCompile(`^#{1,6}[ \t]*$`)
	bulletLine   = regexp.MustCompile(`^[-*+][ \t]+(.+)$`)
	orderedLine  = regexp.MustCompile(`^(\d{1,9})[.)][ \t]+(.+)$`)
	ruleLine     = regexp.MustCompile(`^(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	separatorRow = regexp.MustCompile(`^:?-+:?$`)
)

type state int

const (
	stateNormal state = iota
	stateInCode
)

// Transformer maps markup text to nodes. It holds only the style names and
// markup settings of a profile, so one value can serve a whole build.
type Transformer struct {
	roles  profile.Roles
	markup profile.Markup
	inline flattener
}

func New(p profile.Profile) *Transformer {
	return &Transformer{
		roles:  p.Roles,
		markup: p.Markup,
		inline: newFlattener(),
	}
}

// Transform scans src line by line. The same input always yields the same
// node sequence.
func (t *Transformer) Transform(src string) []doctree.Node {
	s := &scanner{t: t}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	for _, line := range strings.Split(src, "\n") {
		s.line(line)
	}
	s.finish()
	return s.out
}

type scanner struct {
	t      *Transformer
	state  state
	out    []doctree.Node
	para   []string
	rows   [][]string
	header bool // the pending table had a separator row after its first row
	tables int
	fence  string
	code   []string
}

func (s *scanner) line(line string) {
	trimmed := strings.TrimSpace(line)

	if s.state == stateInCode {
		if closesFence(trimmed, s.fence) {
			s.flushCode()
			s.state = stateNormal
			return
		}
		s.code = append(s.code, line)
		return
	}

	if fence, ok := opensFence(trimmed); ok {
		s.flushText()
		s.state = stateInCode
		s.fence = fence
		return
	}

	switch {
	case trimmed == "":
		s.flushText()

	case emptyHeading.MatchString(trimmed):
		s.flushText()

	case headingLine.MatchString(trimmed):
		s.flushText()
		m := headingLine.FindStringSubmatch(trimmed)
		level := headingLevel(len(m[1]))
		s.emit(doctree.Heading(level, s.t.inline.text(m[2]), s.t.roles.Heading(level)))

	case strings.HasPrefix(trimmed, "|"):
		s.tableLine(trimmed)

	case ruleLine.MatchString(trimmed):
		s.flushText()

	case bulletLine.MatchString(trimmed):
		s.flushText()
		m := bulletLine.FindStringSubmatch(trimmed)
		s.emit(doctree.ListItem(s.t.markup.BulletMarker, s.t.inline.text(m[1]), s.t.roles.ListItem))

	case orderedLine.MatchString(trimmed):
		s.flushText()
		m := orderedLine.FindStringSubmatch(trimmed)
		s.emit(doctree.ListItem(m[1]+".", s.t.inline.text(m[2]), s.t.roles.ListItem))

	default:
		if len(s.rows) > 0 {
			s.flushTable()
		}
		s.para = append(s.para, trimmed)
	}
}

// headingLevel maps markup levels onto the two levels available inside a
// chapter; level 1 is reserved for the chapter title.
func headingLevel(marks int) int {
	if marks <= 2 {
		return 2
	}
	return 3
}

func (s *scanner) tableLine(trimmed string) {
	cells := splitRow(trimmed)
	if len(s.rows) == 0 {
		s.takeCaption()
	}
	if isSeparator(cells) {
		if len(s.rows) == 1 {
			s.header = true
		}
		return
	}
	s.rows = append(s.rows, cells)
}

// takeCaption turns the last pending paragraph line into a caption when it
// starts with a caption prefix, then flushes what is left of the paragraph.
func (s *scanner) takeCaption() {
	if len(s.para) == 0 {
		return
	}
	last := s.para[len(s.para)-1]
	if !s.isCaption(last) {
		s.flushPara()
		return
	}
	s.para = s.para[:len(s.para)-1]
	s.flushPara()
	s.emit(doctree.Paragraph(s.t.inline.text(last), s.t.roles.TableCaption))
}

func (s *scanner) isCaption(line string) bool {
	for _, prefix := range s.t.markup.CaptionPrefixes {
		if prefix != "" && strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func (s *scanner) emit(n doctree.Node) {
	s.out = append(s.out, n)
}

func (s *scanner) flushText() {
	s.flushPara()
	s.flushTable()
}

func (s *scanner) flushPara() {
	if len(s.para) == 0 {
		return
	}
	text := s.t.inline.text(strings.Join(s.para, " "))
	s.para = s.para[:0]
	if text != "" {
		s.emit(doctree.Paragraph(text, s.t.roles.Body))
	}
}

func (s *scanner) flushTable() {
	if len(s.rows) == 0 {
		return
	}
	for i, row := range s.rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = s.t.inline.text(c)
		}
		pos := doctree.TablePos{Table: s.tables, Row: i, Header: i == 0 && s.header}
		s.emit(doctree.TableRow(pos, cells, s.t.roles.TableCell))
	}
	s.tables++
	s.rows = nil
	s.header = false
}

func (s *scanner) flushCode() {
	text := s.t.markup.CodeMarker
	if len(s.code) > 0 {
		text += "\n" + strings.Join(s.code, "\n")
	}
	s.emit(doctree.CodeBlock(text, s.t.roles.Code))
	s.code = nil
	s.fence = ""
}

// finish flushes whatever is pending at the end of input. An unterminated
// code fence still yields its block.
func (s *scanner) finish() {
	if s.state == stateInCode {
		s.flushCode()
		s.state = stateNormal
	}
	s.flushText()
}

func opensFence(trimmed string) (string, bool) {
	for _, ch := range []string{"`", "~"} {
		if strings.HasPrefix(trimmed, strings.Repeat(ch, 3)) {
			n := len(trimmed) - len(strings.TrimLeft(trimmed, ch))
			return strings.Repeat(ch, n), true
		}
	}
	return "", false
}

func closesFence(trimmed, fence string) bool {
	if fence == "" || !strings.HasPrefix(trimmed, fence) {
		return false
	}
	return strings.Trim(trimmed, fence[:1]) == ""
}

// splitRow splits a pipe table row into raw cells. Escaped pipes stay in
// the cell text.
func splitRow(row string) []string {
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = strings.TrimSuffix(row, "|")
	}

	var (
		cells []string
		cur   strings.Builder
	)
	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			cur.WriteByte('|')
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(row[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func isSeparator(cells []string) bool {
	for _, c := range cells {
		if !separatorRow.MatchString(strings.ReplaceAll(c, " ", "")) {
			return false
		}
	}
	return len(cells) > 0
}
