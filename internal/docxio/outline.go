package docxio

import (
	"strings"
)

// Outline is the heading hierarchy of a loaded document together with its
// plain text and style usage.
type Outline struct {
	Title    string           `json:"title,omitempty" yaml:"title,omitempty"`
	Front    []string         `json:"front,omitempty" yaml:"front,omitempty"`
	Chapters []OutlineChapter `json:"chapters" yaml:"chapters"`
	Text     string           `json:"text" yaml:"text"`
	Stats    OutlineStats     `json:"stats" yaml:"stats"`
}

// OutlineChapter is a level 1 heading and what follows it up to the next one.
// Paragraphs holds body text before the chapter's first section.
type OutlineChapter struct {
	Title      string           `json:"title" yaml:"title"`
	Paragraphs []string         `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`
	Sections   []OutlineSection `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// OutlineSection is a level 2 heading. Deeper headings stay in Paragraphs.
type OutlineSection struct {
	Title      string   `json:"title" yaml:"title"`
	Paragraphs []string `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`
}

type OutlineStats struct {
	Paragraphs int            `json:"paragraphs" yaml:"paragraphs"`
	Tables     int            `json:"tables" yaml:"tables"`
	Styles     map[string]int `json:"styles" yaml:"styles"`
}

var titleStyles = map[string]bool{"Title": true, "TitlePage": true}

// Outline groups the non-empty body paragraphs under their headings. Text
// before the first level 1 heading goes to Front, except the first
// title-styled line which becomes Title. A level 2 heading with no open
// chapter opens an untitled one.
func (d *Document) Outline() Outline {
	out := Outline{
		Chapters: []OutlineChapter{},
		Stats:    OutlineStats{Paragraphs: len(d.Paragraphs), Tables: d.Tables, Styles: make(map[string]int)},
	}
	var (
		lines   []string
		chapter *OutlineChapter
		section *OutlineSection
	)
	for _, p := range d.Paragraphs {
		out.Stats.Styles[p.StyleName]++
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		lines = append(lines, p.Text)

		switch lvl := p.HeadingLevel(); {
		case lvl == 1:
			out.Chapters = append(out.Chapters, OutlineChapter{Title: p.Text})
			chapter, section = &out.Chapters[len(out.Chapters)-1], nil
		case lvl == 2:
			if chapter == nil {
				out.Chapters = append(out.Chapters, OutlineChapter{})
				chapter = &out.Chapters[len(out.Chapters)-1]
			}
			chapter.Sections = append(chapter.Sections, OutlineSection{Title: p.Text})
			section = &chapter.Sections[len(chapter.Sections)-1]
		case section != nil:
			section.Paragraphs = append(section.Paragraphs, p.Text)
		case chapter != nil:
			chapter.Paragraphs = append(chapter.Paragraphs, p.Text)
		case out.Title == "" && titleStyles[p.StyleName]:
			out.Title = p.Text
		default:
			out.Front = append(out.Front, p.Text)
		}
	}
	out.Text = strings.Join(lines, "\n")
	return out
}
