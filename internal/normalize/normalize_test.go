package normalize

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dgallion1/thesisfmt/internal/doctree"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/style"
)

func registry(t *testing.T) *style.Registry {
	t.Helper()
	reg, err := profile.Default().Registry()
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	return reg
}

func TestNode_OverwritesExistingAttrs(t *testing.T) {
	reg := registry(t)
	eff, err := reg.Resolve("Normal")
	if err != nil {
		t.Fatal(err)
	}
	n := doctree.Paragraph("text", "Normal")
	n.Attrs = doctree.Attrs{FontFamily: "Comic Sans", FontSize: 9, Bold: true, LeftIndent: 40}

	got := Node(n, eff, profile.ListIndent)
	if got.Attrs != eff.Attrs {
		t.Errorf("expected %+v, got %+v", eff.Attrs, got.Attrs)
	}
	if got.Text != "text" || got.Style != "Normal" {
		t.Error("normalization changed node content")
	}
}

func TestNode_ListItemIndents(t *testing.T) {
	eff := style.Effective{Attrs: doctree.Attrs{FirstLineIndent: 12.5, LeftIndent: 3}}
	got := Node(doctree.ListItem("•", "x", "ListBullet"), eff, 12.5)
	if got.Attrs.FirstLineIndent != 0 {
		t.Errorf("expected first-line indent 0, got %v", got.Attrs.FirstLineIndent)
	}
	if got.Attrs.LeftIndent != 12.5 {
		t.Errorf("expected list indent 12.5, got %v", got.Attrs.LeftIndent)
	}

	para := Node(doctree.Paragraph("x", "Normal"), eff, 12.5)
	if para.Attrs.FirstLineIndent != 12.5 || para.Attrs.LeftIndent != 3 {
		t.Errorf("paragraph should keep style indents, got %+v", para.Attrs)
	}
}

func TestNode_Idempotent(t *testing.T) {
	reg := registry(t)
	nodes := []doctree.Node{
		doctree.Heading(1, "1. Введение", "Heading1"),
		doctree.Heading(2, "a", "Heading2"),
		doctree.Heading(3, "b", "Heading3"),
		doctree.Paragraph("p", "Normal"),
		doctree.ListItem("•", "l", "ListBullet"),
		doctree.CodeBlock("c", "Code"),
		doctree.TableRow(doctree.TablePos{}, []string{"x"}, "TableContent"),
		doctree.PageBreak("Normal"),
	}
	for _, n := range nodes {
		eff, err := reg.Resolve(n.Style)
		if err != nil {
			t.Fatal(err)
		}
		once := Node(n, eff, profile.ListIndent)
		twice := Node(once, eff, profile.ListIndent)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("%s: not idempotent\n%+v\n%+v", n.Kind, once, twice)
		}
	}
}

func TestNormalizer_Document(t *testing.T) {
	reg := registry(t)
	doc := &doctree.Document{Nodes: []doctree.Node{
		doctree.Heading(1, "1. Введение", "Heading1"),
		doctree.Paragraph("p", "Normal"),
	}}
	z := New(reg, profile.ListIndent)
	if err := z.Document(doc); err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc.Nodes[0].Attrs.FontSize != 20 || !doc.Nodes[0].Attrs.Bold {
		t.Errorf("unexpected heading attrs %+v", doc.Nodes[0].Attrs)
	}
	if doc.Nodes[1].Attrs.FontFamily != "Times New Roman" || doc.Nodes[1].Attrs.FontSize != 16 {
		t.Errorf("unexpected body attrs %+v", doc.Nodes[1].Attrs)
	}

	before := append([]doctree.Node(nil), doc.Nodes...)
	if err := z.Document(doc); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !reflect.DeepEqual(before, doc.Nodes) {
		t.Error("second pass changed the document")
	}
}

func TestNormalizer_UnknownStyle(t *testing.T) {
	doc := &doctree.Document{Nodes: []doctree.Node{doctree.Paragraph("p", "Ghost")}}
	err := New(registry(t), profile.ListIndent).Document(doc)
	if !errors.Is(err, style.ErrStyleNotFound) {
		t.Fatalf("expected ErrStyleNotFound, got %v", err)
	}
}
