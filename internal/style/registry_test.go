package style

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/thesisfmt/internal/doctree"
)

func TestRegistry_ResolveInheritsFromBase(t *testing.T) {
	r, err := Build([]Definition{
		{Name: "Normal", Font: Font{Family: Ptr("Times New Roman"), Size: Ptr(16.0)}},
		{Name: "Heading1", Base: "Normal", Font: Font{Size: Ptr(20.0), Bold: Ptr(true)}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	eff, err := r.Resolve("Heading1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if eff.Attrs.FontFamily != "Times New Roman" {
		t.Errorf("expected inherited family, got %q", eff.Attrs.FontFamily)
	}
	if eff.Attrs.FontSize != 20 {
		t.Errorf("expected size 20, got %v", eff.Attrs.FontSize)
	}
	if !eff.Attrs.Bold {
		t.Error("expected bold")
	}
}

func TestRegistry_MostDerivedWins(t *testing.T) {
	r, err := Build([]Definition{
		{Name: "A", Paragraph: Paragraph{Alignment: Ptr(doctree.AlignLeft), SpaceAfter: Ptr(6.0)}},
		{Name: "B", Base: "A", Paragraph: Paragraph{Alignment: Ptr(doctree.AlignCenter)}},
		{Name: "C", Base: "B", Paragraph: Paragraph{Alignment: Ptr(doctree.AlignRight)}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	eff, err := r.Resolve("C")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if eff.Attrs.Alignment != doctree.AlignRight {
		t.Errorf("expected right, got %q", eff.Attrs.Alignment)
	}
	if eff.Attrs.SpaceAfter != 6 {
		t.Errorf("expected space after from root, got %v", eff.Attrs.SpaceAfter)
	}
}

func TestRegistry_ExplicitFalseOverridesBase(t *testing.T) {
	r, err := Build([]Definition{
		{Name: "Strong", Font: Font{Bold: Ptr(true)}},
		{Name: "Plain", Base: "Strong", Font: Font{Bold: Ptr(false)}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	eff, err := r.Resolve("Plain")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if eff.Attrs.Bold {
		t.Error("expected explicit false to override inherited bold")
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("Missing")
	if !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("expected ErrStyleNotFound, got %v", err)
	}
}

func TestRegistry_ResolveMissingBase(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "Child", Base: "Ghost"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := r.Resolve("Child")
	if !errors.Is(err, ErrStyleNotFound) {
		t.Fatalf("expected ErrStyleNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Ghost") {
		t.Errorf("expected missing base name in error, got %v", err)
	}
}

func TestRegistry_CyclicBaseChain(t *testing.T) {
	r, err := Build([]Definition{
		{Name: "A", Base: "B"},
		{Name: "B", Base: "A"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = r.Resolve("A")
	if !errors.Is(err, ErrCyclicBaseChain) {
		t.Fatalf("expected ErrCyclicBaseChain, got %v", err)
	}
	if err := r.Check(); !errors.Is(err, ErrCyclicBaseChain) {
		t.Errorf("expected Check to report the cycle, got %v", err)
	}
}

func TestRegistry_SelfReference(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "Loop", Base: "Loop"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Resolve("Loop"); !errors.Is(err, ErrCyclicBaseChain) {
		t.Fatalf("expected ErrCyclicBaseChain, got %v", err)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "Normal"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register(Definition{Name: "Normal"})
	if !errors.Is(err, ErrDuplicateStyle) {
		t.Fatalf("expected ErrDuplicateStyle, got %v", err)
	}
}

func TestRegistry_EmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "  "}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestRegistry_KindRestrictions(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"paragraph with everything", Definition{Name: "P", Kind: KindParagraph, Font: Font{Bold: Ptr(true)}, Paragraph: Paragraph{LeftIndent: Ptr(5.0)}}, false},
		{"character with font", Definition{Name: "C", Kind: KindCharacter, Font: Font{Italic: Ptr(true)}}, false},
		{"character with indent", Definition{Name: "C", Kind: KindCharacter, Paragraph: Paragraph{LeftIndent: Ptr(5.0)}}, true},
		{"table with indent", Definition{Name: "T", Kind: KindTable, Paragraph: Paragraph{LeftIndent: Ptr(5.0)}}, false},
		{"table with alignment", Definition{Name: "T", Kind: KindTable, Paragraph: Paragraph{Alignment: Ptr(doctree.AlignCenter)}}, true},
		{"numbering with indent", Definition{Name: "N", Kind: KindNumbering, Paragraph: Paragraph{FirstLineIndent: Ptr(0.0)}}, false},
		{"numbering with font", Definition{Name: "N", Kind: KindNumbering, Font: Font{Size: Ptr(12.0)}}, true},
		{"unknown kind", Definition{Name: "X", Kind: Kind(42)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.def)
			if tt.wantErr && !errors.Is(err, ErrInvalidStyleKind) {
				t.Errorf("expected ErrInvalidStyleKind, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegistry_NamesInRegistrationOrder(t *testing.T) {
	r, err := Build([]Definition{{Name: "Z"}, {Name: "A"}, {Name: "M"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"Z", "A", "M"}
	if got := r.Names(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !r.Has("A") || r.Has("B") {
		t.Error("Has reported wrong membership")
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindParagraph, KindCharacter, KindTable, KindNumbering} {
		b, _ := k.MarshalText()
		var got Kind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != k {
			t.Errorf("expected %v, got %v", k, got)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
