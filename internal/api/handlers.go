package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-yaml"
	"github.com/gosimple/slug"

	"github.com/dgallion1/thesisfmt/internal/docxio"
	"github.com/dgallion1/thesisfmt/internal/validate"
)

var errTooLarge = errors.New("file exceeds max size")

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := s.builder.Profile()
	if r.URL.Query().Get("format") == "yaml" {
		out, err := p.Dump()
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// parseForm reads a multipart upload of at most files documents and reports
// whether the handler can go on. On failure the response has been written.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, files int64) bool {
	// plus 1MB for form overhead
	r.Body = http.MaxBytesReader(w, r.Body, files*s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	// docx plus optional pdf
	if !s.parseForm(w, r, 2) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	format, err := validate.ParseFormat(r.FormValue("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp("", "thesisfmt-upload-*")
	if err != nil {
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	docPath, name, err := s.saveUpload(r, "file", dir, ".docx")
	if err != nil {
		uploadError(w, "file", err)
		return
	}
	if docPath == "" {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	pdfPath, _, err := s.saveUpload(r, "pdf", dir, ".pdf")
	if err != nil {
		uploadError(w, "pdf", err)
		return
	}

	run, err := s.builder.Validate(r.Context(), docPath, validate.Options{PDF: pdfPath, Source: name})
	s.runs.Put(run)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, docxio.ErrUnreadableSource) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, map[string]any{"run_id": run.ID, "error": err.Error()})
		return
	}

	switch format {
	case validate.FormatJSON:
		writeJSON(w, http.StatusOK, run.Snapshot())
		return
	case validate.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	if err := run.Report().Render(w, format); err != nil {
		s.log.Error("render report failed", "run_id", run.ID, "format", format, "error", err)
	}
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r, 1) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	// JSON unless asked otherwise
	fv := r.FormValue("format")
	if fv == "" {
		fv = string(validate.FormatJSON)
	}
	format, err := validate.ParseFormat(fv)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	dir, err := os.MkdirTemp("", "thesisfmt-upload-*")
	if err != nil {
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	docPath, name, err := s.saveUpload(r, "file", dir, ".docx")
	if err != nil {
		uploadError(w, "file", err)
		return
	}
	if docPath == "" {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	doc, err := docxio.Open(docPath)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	outline := doc.Outline()
	s.log.Info("outline extracted", "file", name, "chapters", len(outline.Chapters), "paragraphs", outline.Stats.Paragraphs)

	switch format {
	case validate.FormatYAML:
		out, err := yaml.MarshalWithOptions(outline, yaml.Indent(2))
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(out)
	case validate.FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, outline.Text)
	default:
		writeJSON(w, http.StatusOK, outline)
	}
}

// saveUpload stores form file field in dir under a slugged name. A missing
// field yields an empty path.
func (s *Server) saveUpload(r *http.Request, field, dir, ext string) (string, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ext) {
		return "", "", fmt.Errorf("unsupported file type %q, want %s", filepath.Ext(name), ext)
	}
	base := slug.Make(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "upload"
	}
	path := filepath.Join(dir, base+ext)

	out, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer out.Close()
	n, err := io.Copy(out, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", "", err
	}
	if n > s.cfg.MaxUploadBytes {
		return "", "", fmt.Errorf("%w (%d bytes)", errTooLarge, s.cfg.MaxUploadBytes)
	}
	return path, name, nil
}

func uploadError(w http.ResponseWriter, field string, err error) {
	code := http.StatusBadRequest
	if errors.Is(err, errTooLarge) {
		code = http.StatusRequestEntityTooLarge
	}
	jsonError(w, field+": "+err.Error(), code)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run := s.runs.Get(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	nodes, err := s.builder.Preview(string(data))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(nodes),
		"nodes": nodes,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
