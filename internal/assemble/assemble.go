// Package assemble concatenates per-chapter node streams into the final
// document body.
package assemble

import (
	"fmt"

	"github.com/dgallion1/thesisfmt/internal/chapters"
	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/style"
)

// Chapter is one transformed chapter ready for assembly.
type Chapter struct {
	chapters.Descriptor
	Nodes []doctree.Node
}

// Assembler builds documents for one profile and style registry.
type Assembler struct {
	profile  profile.Profile
	registry *style.Registry
}

func New(p profile.Profile, reg *style.Registry) *Assembler {
	return &Assembler{profile: p, registry: reg}
}

// part is a run of nodes plus a label used to locate resolution failures.
type part struct {
	label string
	nodes []doctree.Node
}

// Assemble emits front matter, then for every chapter its title heading,
// its nodes and a page break, then the bibliography and appendices. Every
// node style must resolve; the first failure aborts with no document.
func (a *Assembler) Assemble(chs []Chapter) (*doctree.Document, error) {
	p := a.profile
	roles := p.Roles

	var parts []part
	parts = append(parts, a.frontMatter()...)
	for _, ch := range chs {
		nodes := make([]doctree.Node, 0, len(ch.Nodes)+2)
		nodes = append(nodes, doctree.Heading(1, ch.Title, roles.Chapter))
		nodes = append(nodes, ch.Nodes...)
		nodes = append(nodes, doctree.PageBreak(roles.Body))
		parts = append(parts, part{label: "chapter " + ch.Dir, nodes: nodes})
	}

	bib := []doctree.Node{doctree.Heading(1, p.Trailing.BibliographyTitle, roles.Chapter)}
	for _, entry := range p.Trailing.BibliographyEntries {
		bib = append(bib, doctree.Paragraph(entry, roles.Bibliography))
	}
	parts = append(parts,
		part{label: "bibliography", nodes: bib},
		part{label: "appendices", nodes: []doctree.Node{doctree.Heading(1, p.Trailing.AppendicesTitle, roles.Chapter)}},
	)

	doc := &doctree.Document{Margins: p.Margins}
	for _, pt := range parts {
		for i, n := range pt.nodes {
			if _, err := a.registry.Resolve(n.Style); err != nil {
				return nil, fmt.Errorf("assemble %s, node %d (%s): %w", pt.label, i, n.Kind, err)
			}
		}
		doc.Nodes = append(doc.Nodes, pt.nodes...)
	}
	return doc, nil
}

func (a *Assembler) frontMatter() []part {
	fm := a.profile.FrontMatter
	roles := a.profile.Roles

	var parts []part
	if len(fm.TitleLines) > 0 {
		var nodes []doctree.Node
		for _, line := range fm.TitleLines {
			nodes = append(nodes, doctree.Paragraph(line, roles.TitlePage))
		}
		nodes = append(nodes, doctree.PageBreak(roles.Body))
		parts = append(parts, part{label: "title page", nodes: nodes})
	}
	if fm.TOC {
		nodes := []doctree.Node{doctree.Heading(1, fm.TOCTitle, roles.Chapter)}
		if fm.TOCNote != "" {
			nodes = append(nodes, doctree.Paragraph(fm.TOCNote, roles.TOC))
		}
		nodes = append(nodes, doctree.PageBreak(roles.Body))
		parts = append(parts, part{label: "table of contents", nodes: nodes})
	}
	return parts
}
