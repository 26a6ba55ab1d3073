// Package normalize forces every node onto the attributes of its style.
package normalize

import (
	"fmt"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/style"
)

// Normalizer overwrites node attributes with resolved style values.
type Normalizer struct {
	registry   *style.Registry
	listIndent float64
}

func New(reg *style.Registry, listIndent float64) *Normalizer {
	return &Normalizer{registry: reg, listIndent: listIndent}
}

// Node returns n with every visual attribute replaced by eff, whatever n
// carried before. List items always get no first-line indent and the
// canonical list indent.
func Node(n doctree.Node, eff style.Effective, listIndent float64) doctree.Node {
	n.Attrs = eff.Attrs
	if n.Kind == doctree.KindListItem {
		n.Attrs.FirstLineIndent = 0
		n.Attrs.LeftIndent = listIndent
	}
	return n
}

// Document normalizes every node in place. Only attribute values change;
// the node sequence stays as it is.
func (z *Normalizer) Document(doc *doctree.Document) error {
	for i := range doc.Nodes {
		eff, err := z.registry.Resolve(doc.Nodes[i].Style)
		if err != nil {
			return fmt.Errorf("normalize node %d: %w", i, err)
		}
		doc.Nodes[i] = Node(doc.Nodes[i], eff, z.listIndent)
	}
	return nil
}
