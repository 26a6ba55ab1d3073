package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/thesisfmt/internal/docxio"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/validate"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{out: &out, errOut: &errOut}
	err := a.command().Run(context.Background(), append([]string{"thesisfmt"}, args...))
	return out.String(), err
}

// writeTree lays out every canonical chapter under a temporary directory.
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, c := range profile.Default().Chapters {
		dir := filepath.Join(root, c.Key)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "content.md"), []byte("## Обзор\n\nТекст главы.\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "9_drafts"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestBuild_ThenValidate(t *testing.T) {
	src := writeTree(t)
	out := filepath.Join(t.TempDir(), "thesis.docx")

	stdout, err := runApp(t, "build", "--out", out, src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(stdout, "wrote "+out+": 8 chapters") {
		t.Errorf("unexpected build output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "note: ") || !strings.Contains(stdout, "9_drafts") {
		t.Errorf("expected a note for the empty chapter:\n%s", stdout)
	}

	stdout, err = runApp(t, "validate", "--format", "json", out)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var rep validate.Report
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !rep.Compliant() || rep.Metrics[validate.MetricParagraphs] == 0 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestBuild_WithValidateFlag(t *testing.T) {
	src := writeTree(t)
	out := filepath.Join(t.TempDir(), "thesis.docx")

	stdout, err := runApp(t, "build", "--validate", "-o", out, src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(stdout, "COMPLIANT") {
		t.Errorf("expected text report after build:\n%s", stdout)
	}
}

func TestBuild_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"build"}},
		{"missing source", []string{"build", filepath.Join(t.TempDir(), "nope")}},
		{"not a directory", []string{"build", file}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidate_NotCompliant(t *testing.T) {
	src := t.TempDir()
	dir := filepath.Join(src, "1_introduction")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "content.md"), []byte("Текст."), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "partial.docx")
	if _, err := runApp(t, "build", "-o", out, src); err != nil {
		t.Fatalf("build: %v", err)
	}

	reportPath := filepath.Join(t.TempDir(), "report.yaml")
	_, err := runApp(t, "validate", "-f", "yaml", "-o", reportPath, out)
	if !errors.Is(err, errNotCompliant) {
		t.Fatalf("expected errNotCompliant, got %v", err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "structural:") || !strings.Contains(string(data), "is missing") {
		t.Errorf("unexpected report:\n%s", data)
	}
}

func TestValidate_BadFormat(t *testing.T) {
	if _, err := runApp(t, "validate", "-f", "xml", "x.docx"); err == nil {
		t.Error("expected unknown format to fail")
	}
}

func TestStyles(t *testing.T) {
	src := writeTree(t)
	out := filepath.Join(t.TempDir(), "thesis.docx")
	if _, err := runApp(t, "build", "-o", out, src); err != nil {
		t.Fatalf("build: %v", err)
	}

	stdout, err := runApp(t, "styles", out)
	if err != nil {
		t.Fatalf("styles: %v", err)
	}
	for _, want := range []string{"PARAGRAPH (", "CHARACTER (", "TABLE (", "Heading1", "base=Normal", `font="Times New Roman"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}

	stdout, err = runApp(t, "styles", "-f", "json", out)
	if err != nil {
		t.Fatalf("styles json: %v", err)
	}
	var rep struct {
		Paragraph []struct {
			Name string `json:"name"`
		} `json:"paragraph"`
	}
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rep.Paragraph) == 0 {
		t.Error("expected paragraph styles")
	}
}

func TestExtract(t *testing.T) {
	src := writeTree(t)
	out := filepath.Join(t.TempDir(), "thesis.docx")
	if _, err := runApp(t, "build", "-o", out, src); err != nil {
		t.Fatalf("build: %v", err)
	}

	stdout, err := runApp(t, "extract", "-f", "json", out)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var outline docxio.Outline
	if err := json.Unmarshal([]byte(stdout), &outline); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// canonical chapters plus bibliography and appendices
	if len(outline.Chapters) < len(profile.Default().Chapters) {
		t.Fatalf("expected an entry per chapter, got %+v", outline.Chapters)
	}
	i := slices.IndexFunc(outline.Chapters, func(c docxio.OutlineChapter) bool { return c.Title == "1. Введение" })
	if i < 0 {
		t.Fatalf("introduction missing from %+v", outline.Chapters)
	}
	if intro := outline.Chapters[i]; len(intro.Sections) != 1 || intro.Sections[0].Title != "Обзор" {
		t.Errorf("unexpected introduction %+v", intro)
	}

	stdout, err = runApp(t, "extract", "-f", "yaml", out)
	if err != nil {
		t.Fatalf("extract yaml: %v", err)
	}
	if !strings.Contains(stdout, "chapters:") || !strings.Contains(stdout, "title: 1. Введение") {
		t.Errorf("unexpected yaml:\n%s", stdout)
	}

	stdout, err = runApp(t, "extract", out)
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	if !strings.Contains(stdout, "1. Введение\nОбзор\nТекст главы.") {
		t.Errorf("unexpected text:\n%s", stdout)
	}
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no document", []string{"extract"}},
		{"missing document", []string{"extract", filepath.Join(t.TempDir(), "nope.docx")}},
		{"bad format", []string{"extract", "-f", "xml", "x.docx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProfile_Dump(t *testing.T) {
	override := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(override, []byte("name: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, err := runApp(t, "--profile", override, "profile")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(stdout, "name: custom") {
		t.Errorf("expected active profile:\n%s", stdout)
	}

	stdout, err = runApp(t, "--profile", override, "profile", "--default")
	if err != nil {
		t.Fatalf("profile --default: %v", err)
	}
	if !strings.Contains(stdout, "name: thesis-a4") {
		t.Errorf("expected default profile:\n%s", stdout)
	}

	dst := filepath.Join(t.TempDir(), "out.yaml")
	if _, err := runApp(t, "profile", dst); err != nil {
		t.Fatalf("profile to file: %v", err)
	}
	if data, err := os.ReadFile(dst); err != nil || !strings.Contains(string(data), "margins:") {
		t.Errorf("unexpected profile file %q: %v", data, err)
	}
}

func TestProfile_BadOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(override, []byte("no_such_key: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runApp(t, "--profile", override, "profile"); !errors.Is(err, profile.ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile, got %v", err)
	}
}
