package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dgallion1/thesisfmt/internal/config"
	"github.com/dgallion1/thesisfmt/internal/pipeline"
	"github.com/dgallion1/thesisfmt/internal/profile"
)

const testKey = "test-key"

func newTestServer(t *testing.T, maxUpload int64) (*Server, *pipeline.Builder) {
	t.Helper()
	return newLoggedServer(t, maxUpload, io.Discard)
}

func newLoggedServer(t *testing.T, maxUpload int64, logOut io.Writer) (*Server, *pipeline.Builder) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(logOut, nil))
	b, err := pipeline.NewBuilder(profile.Default(), log)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	cfg := config.Config{Port: "0", APIKey: testKey, MaxUploadBytes: maxUpload, RunTTL: time.Hour}
	return NewServer(b, pipeline.NewRunStore(cfg.RunTTL), log, cfg), b
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// builtThesis builds a compliant document and returns its bytes.
func builtThesis(t *testing.T, b *pipeline.Builder) []byte {
	t.Helper()
	tree := fstest.MapFS{}
	for _, c := range profile.Default().Chapters {
		tree[c.Key+"/content.md"] = &fstest.MapFile{Data: []byte("## Обзор\n\nТекст главы.\n")}
	}
	out := filepath.Join(t.TempDir(), "thesis.docx")
	if _, err := b.Build(context.Background(), tree, "thesis", out); err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func uploadRequest(t *testing.T, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(f[1]))
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/validate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth_NoAuth(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testKey},
		{"wrong key", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Name    string `json:"name"`
		Margins struct {
			Left float64 `json:"left"`
		} `json:"margins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "thesis-a4" || got.Margins.Left != 30 {
		t.Errorf("unexpected profile %+v", got)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/profile?format=yaml", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("expected yaml content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "name: thesis-a4") {
		t.Errorf("unexpected yaml body:\n%s", rec.Body.String())
	}
}

func TestPreview(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader("## Overview\nText here.")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Count int `json:"count"`
		Nodes []struct {
			Kind  string `json:"kind"`
			Text  string `json:"text"`
			Style string `json:"style"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 || got.Nodes[0].Kind != "heading" || got.Nodes[0].Text != "Overview" || got.Nodes[1].Style != "Normal" {
		t.Errorf("unexpected preview %+v", got)
	}
}

func TestPreview_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, 8)
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader("more than eight bytes")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestValidate_JSONAndRunLookup(t *testing.T) {
	s, b := newTestServer(t, 10<<20)
	doc := builtThesis(t, b)

	rec := do(t, s, uploadRequest(t, map[string]string{"format": "json"}, map[string][2]string{
		"file": {"Моя диссертация.docx", string(doc)},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap pipeline.RunSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != pipeline.StatusCompleted || snap.Report == nil {
		t.Fatalf("unexpected run %+v", snap)
	}
	if snap.Report.Source != "Моя диссертация.docx" {
		t.Errorf("expected original filename as source, got %q", snap.Report.Source)
	}
	if n := len(snap.Report.Findings()); n != 0 {
		t.Errorf("expected compliant document, got %+v", snap.Report.Findings())
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs/"+snap.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected stored run, got %d", rec.Code)
	}
}

func TestValidate_TextFormat(t *testing.T) {
	s, b := newTestServer(t, 10<<20)
	doc := builtThesis(t, b)

	rec := do(t, s, uploadRequest(t, nil, map[string][2]string{"file": {"thesis.docx", string(doc)}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "VALIDATION REPORT: thesis.docx") {
		t.Errorf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestValidate_Errors(t *testing.T) {
	s, _ := newTestServer(t, 64)
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string][2]string
		want   int
	}{
		{"missing file", nil, nil, http.StatusBadRequest},
		{"wrong extension", nil, map[string][2]string{"file": {"thesis.pdf", "x"}}, http.StatusBadRequest},
		{"bad format", map[string]string{"format": "xml"}, map[string][2]string{"file": {"t.docx", "x"}}, http.StatusBadRequest},
		{"unreadable docx", nil, map[string][2]string{"file": {"t.docx", "not a zip"}}, http.StatusUnprocessableEntity},
		{"too large", nil, map[string][2]string{"file": {"t.docx", strings.Repeat("x", 100)}}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, uploadRequest(t, tt.fields, tt.files))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestValidate_RequestTooLarge(t *testing.T) {
	s, _ := newTestServer(t, 64)
	// past the form limit of twice the upload size plus 1MB
	req := uploadRequest(t, nil, map[string][2]string{"file": {"t.docx", strings.Repeat("x", 2<<20)}})
	rec := do(t, s, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	code   int
}

func (b *brokenWriter) Header() http.Header       { return b.header }
func (b *brokenWriter) WriteHeader(code int)      { b.code = code }
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestValidate_RenderFailureLogged(t *testing.T) {
	var logs bytes.Buffer
	s, b := newLoggedServer(t, 10<<20, &logs)
	doc := builtThesis(t, b)

	req := uploadRequest(t, map[string]string{"format": "yaml"}, map[string][2]string{"file": {"thesis.docx", string(doc)}})
	req.Header.Set("Authorization", "Bearer "+testKey)
	s.ServeHTTP(&brokenWriter{header: http.Header{}}, req)

	if !strings.Contains(logs.String(), "render report failed") || !strings.Contains(logs.String(), "connection reset") {
		t.Errorf("expected render failure in logs:\n%s", logs.String())
	}
}

func TestExtract(t *testing.T) {
	s, b := newTestServer(t, 10<<20)
	doc := builtThesis(t, b)

	req := uploadRequest(t, nil, map[string][2]string{"file": {"thesis.docx", string(doc)}})
	req.URL.Path = "/api/extract"
	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Chapters []struct {
			Title    string `json:"title"`
			Sections []struct {
				Title      string   `json:"title"`
				Paragraphs []string `json:"paragraphs"`
			} `json:"sections"`
		} `json:"chapters"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	intro := -1
	for i, c := range got.Chapters {
		if c.Title == "1. Введение" {
			intro = i
		}
	}
	if intro < 0 {
		t.Fatalf("introduction missing from %+v", got.Chapters)
	}
	sec := got.Chapters[intro].Sections
	if len(sec) != 1 || sec[0].Title != "Обзор" || len(sec[0].Paragraphs) != 1 || sec[0].Paragraphs[0] != "Текст главы." {
		t.Errorf("unexpected sections %+v", sec)
	}
	if !strings.Contains(got.Text, "1. Введение") {
		t.Errorf("unexpected text %q", got.Text)
	}
}

func TestExtract_Errors(t *testing.T) {
	s, _ := newTestServer(t, 64)
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string][2]string
		want   int
	}{
		{"missing file", nil, nil, http.StatusBadRequest},
		{"bad format", map[string]string{"format": "xml"}, map[string][2]string{"file": {"t.docx", "x"}}, http.StatusBadRequest},
		{"unreadable docx", nil, map[string][2]string{"file": {"t.docx", "not a zip"}}, http.StatusUnprocessableEntity},
		{"too large", nil, map[string][2]string{"file": {"t.docx", strings.Repeat("x", 2<<20)}}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadRequest(t, tt.fields, tt.files)
			req.URL.Path = "/api/extract"
			rec := do(t, s, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRun_NotFound(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"thesis.docx", "thesis.docx"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\thesis.docx`, "thesis.docx"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
