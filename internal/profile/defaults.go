package profile

import (
	"slices"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/style"
)

const (
	BodyFont     = "Times New Roman"
	BodySize     = 16.0
	FirstLine    = 12.5
	ListIndent   = 12.5
	LineSpacing  = 1.5
	ParagraphGap = 8.0
)

// Default returns the canonical profile: A4, margins 30/15/20/20 mm,
// Times New Roman 16 pt at 1.5 line spacing.
//
// Every non-heading style keeps the body font and size so that assembled
// output passes the typography check.
func Default() Profile {
	p := style.Ptr[float64]
	b := style.Ptr[bool]
	a := style.Ptr[doctree.Alignment]

	return Profile{
		Name:     "thesis-a4",
		Language: "ru-RU",
		Margins: doctree.Margins{
			PageWidth:  210,
			PageHeight: 297,
			Top:        20,
			Right:      15,
			Bottom:     20,
			Left:       30,
		},
		ListIndent: ListIndent,
		Styles: []style.Definition{
			{
				Name: "Normal",
				Font: style.Font{Family: style.Ptr(BodyFont), Size: p(BodySize), Bold: b(false), Italic: b(false)},
				Paragraph: style.Paragraph{
					Alignment:       a(doctree.AlignJustify),
					LineSpacing:     p(LineSpacing),
					FirstLineIndent: p(FirstLine),
					LeftIndent:      p(0),
					RightIndent:     p(0),
					SpaceBefore:     p(0),
					SpaceAfter:      p(ParagraphGap),
				},
			},
			{
				Name: "Heading1", Base: "Normal",
				Font:      style.Font{Size: p(20), Bold: b(true)},
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignCenter), FirstLineIndent: p(0), SpaceBefore: p(24), SpaceAfter: p(18)},
			},
			{
				Name: "Heading2", Base: "Normal",
				Font:      style.Font{Size: p(18), Bold: b(true)},
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignCenter), FirstLineIndent: p(0), SpaceBefore: p(18), SpaceAfter: p(12)},
			},
			{
				Name: "Heading3", Base: "Normal",
				Font:      style.Font{Size: p(16), Bold: b(true)},
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignLeft), FirstLineIndent: p(0), SpaceBefore: p(12), SpaceAfter: p(8)},
			},
			{
				Name: "ListBullet", Base: "Normal",
				Paragraph: style.Paragraph{FirstLineIndent: p(0), LeftIndent: p(ListIndent)},
			},
			{
				Name: "Code", Base: "Normal",
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignLeft), LineSpacing: p(1), FirstLineIndent: p(0)},
			},
			{
				Name: "TableCaption", Base: "Normal",
				Font:      style.Font{Italic: b(true)},
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignLeft), FirstLineIndent: p(0), SpaceBefore: p(6), SpaceAfter: p(6)},
			},
			{
				Name: "TableContent", Base: "Normal",
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignLeft), LineSpacing: p(1), FirstLineIndent: p(0), SpaceAfter: p(0)},
			},
			{
				Name: "Bibliography", Base: "Normal",
				Paragraph: style.Paragraph{FirstLineIndent: p(0)},
			},
			{
				Name: "TitlePage", Base: "Normal",
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignCenter), FirstLineIndent: p(0)},
			},
			{
				Name: "TOC1", Base: "Normal",
				Paragraph: style.Paragraph{Alignment: a(doctree.AlignLeft), FirstLineIndent: p(0)},
			},
			{Name: "Strong", Kind: style.KindCharacter, Font: style.Font{Bold: b(true)}},
			{Name: "TableGrid", Kind: style.KindTable, Paragraph: style.Paragraph{LeftIndent: p(0)}},
		},
		Roles: Roles{
			Body:         "Normal",
			Chapter:      "Heading1",
			Section:      "Heading2",
			Subsection:   "Heading3",
			ListItem:     "ListBullet",
			Code:         "Code",
			TableCaption: "TableCaption",
			TableCell:    "TableContent",
			Bibliography: "Bibliography",
			TitlePage:    "TitlePage",
			TOC:          "TOC1",
			Table:        "TableGrid",
		},
		Chapters: []Chapter{
			{Key: "1_introduction", Title: "1. Введение"},
			{Key: "2_theoretical_part", Title: "2. Теоретическая часть"},
			{Key: "3_practical_implementation", Title: "3. Практическая реализация"},
			{Key: "4_research_methodology", Title: "4. Методология исследования"},
			{Key: "5_research_results", Title: "5. Результаты исследования"},
			{Key: "6_practical_significance", Title: "6. Практическая значимость"},
			{Key: "7_development_prospects", Title: "7. Перспективы развития"},
			{Key: "8_appendices", Title: "8. Приложения"},
		},
		Markup: Markup{
			ContentFile:     "content.md",
			CodeMarker:      "[Листинг кода]",
			CaptionPrefixes: []string{"Table", "Таблица"},
			BulletMarker:    "•",
		},
		FrontMatter: FrontMatter{
			TOC:      true,
			TOCTitle: "ОГЛАВЛЕНИЕ",
			TOCNote:  "Здесь будет оглавление. Обновите его после открытия документа.",
		},
		Trailing: Trailing{
			BibliographyTitle: "СПИСОК ЛИТЕРАТУРЫ",
			BibliographyEntries: []string{
				"1. Иванов И.И. Название книги. - М.: Издательство, 2023. - 123 с.",
				"2. Петров П.П. Название статьи // Название журнала. - 2022. - №5. - С. 10-15.",
				"3. Сидоров С.С. Название диссертации: дис. ... канд. наук. - СПб., 2021. - 150 с.",
			},
			AppendicesTitle: "ПРИЛОЖЕНИЯ",
		},
		Checks: Checks{
			MarginTolerance:   1,
			ExampleCap:        5,
			StyleThreshold:    10,
			ParagraphsPerPage: 10,
		},
	}
}

// Clone returns a deep copy so callers can adjust a profile without touching
// the one shared by a running build.
func (p Profile) Clone() Profile {
	c := p
	c.Styles = slices.Clone(p.Styles)
	c.Chapters = slices.Clone(p.Chapters)
	c.Markup.CaptionPrefixes = slices.Clone(p.Markup.CaptionPrefixes)
	c.FrontMatter.TitleLines = slices.Clone(p.FrontMatter.TitleLines)
	c.Trailing.BibliographyEntries = slices.Clone(p.Trailing.BibliographyEntries)
	return c
}
