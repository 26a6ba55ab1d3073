package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/goccy/go-yaml"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/dgallion1/thesisfmt/internal/docxio"
	"github.com/dgallion1/thesisfmt/internal/profile"
	"github.com/dgallion1/thesisfmt/internal/validate"
)

func (a *app) build(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := cmd.Args().Get(0)
	if src == "" {
		return errors.New("no chapter directory has been specified")
	}
	if cmd.Args().Len() > 1 {
		a.log.Warn("Malformed command line, too many sources", "ignoring", cmd.Args().Slice()[1:])
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %w", docxio.ErrUnreadableSource, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", docxio.ErrUnreadableSource, src)
	}

	out := cmd.String("out")
	run, err := a.builder.Build(ctx, os.DirFS(src), src, out)
	if err != nil {
		return err
	}
	snap := run.Snapshot()
	fmt.Fprintf(a.out, "wrote %s: %d chapters, %d nodes, sha256 %s\n",
		snap.Output, snap.Progress.ChaptersDone, snap.Progress.Nodes, snap.ContentHash)
	for _, note := range snap.Progress.Notes {
		fmt.Fprintf(a.out, "note: %s\n", note)
	}

	if cmd.Bool("validate") {
		return a.report(ctx, out, validate.Options{}, validate.FormatText, a.out)
	}
	return nil
}

func (a *app) validate(ctx context.Context, cmd *cli.Command) (err error) {
	path := cmd.Args().Get(0)
	if path == "" {
		return errors.New("no document has been specified")
	}
	format, err := validate.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	w := a.out
	if dst := cmd.String("out"); dst != "" {
		f, er := os.Create(dst)
		if er != nil {
			return fmt.Errorf("unable to create report file '%s': %w", dst, er)
		}
		defer func() {
			if er := f.Close(); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to close report file '%s': %w", dst, er))
			}
		}()
		w = f
	}
	return a.report(ctx, path, validate.Options{PDF: cmd.String("pdf")}, format, w)
}

// report validates path and writes the report. A report with error findings
// is written in full and then returned as errNotCompliant.
func (a *app) report(ctx context.Context, path string, opts validate.Options, format validate.Format, w io.Writer) error {
	run, err := a.builder.Validate(ctx, path, opts)
	if err != nil {
		return err
	}
	rep := run.Report()
	if err := rep.Render(w, format); err != nil {
		return fmt.Errorf("unable to write report: %w", err)
	}
	if !rep.Compliant() {
		return errNotCompliant
	}
	return nil
}

var stylesTmpl = template.Must(template.New("styles").Funcs(sprig.TxtFuncMap()).Parse(
	`STYLES: {{ .Source }} ({{ .Total }})
{{- range .Groups }}

{{ .Kind | upper }} ({{ len .Styles }})
{{- range .Styles }}
  {{ printf "%-24s" .Name }}
{{- with .Base }} base={{ . }}{{ end }}
{{- with .Alignment }} jc={{ . }}{{ end }}
{{- with .Font }} font={{ quote . }}{{ end }}
{{- with .Size }} size={{ . }}pt{{ end }}
{{- if .Bold }} bold{{ end }}
{{- if .Italic }} italic{{ end }}
{{- with .Before }} before={{ . }}pt{{ end }}
{{- with .After }} after={{ . }}pt{{ end }}
{{- with .Line }} line={{ . }}{{ end }}
{{- with .FirstLine }} first={{ . }}mm{{ end }}
{{- with .Left }} left={{ . }}mm{{ end }}
{{- else }}
  (none)
{{- end }}
{{- end }}
`))

type styleGroup struct {
	Kind   string
	Styles []docxio.StyleInfo
}

func (a *app) styles(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return errors.New("no document has been specified")
	}
	format, err := validate.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	rep, err := docxio.InspectStyles(path)
	if err != nil {
		return err
	}

	switch format {
	case validate.FormatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case validate.FormatYAML:
		data, err := yaml.MarshalWithOptions(rep, yaml.Indent(2))
		if err != nil {
			return err
		}
		_, err = a.out.Write(data)
		return err
	}
	return stylesTmpl.Execute(a.out, map[string]any{
		"Source": path,
		"Total":  rep.Len(),
		"Groups": []styleGroup{
			{"paragraph", rep.Paragraph},
			{"character", rep.Character},
			{"table", rep.Table},
			{"numbering", rep.Numbering},
		},
	})
}

func (a *app) extract(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return errors.New("no document has been specified")
	}
	format, err := validate.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	doc, err := docxio.Open(path)
	if err != nil {
		return err
	}
	outline := doc.Outline()
	a.log.Debug("Extracted outline", "file", path, "chapters", len(outline.Chapters))

	switch format {
	case validate.FormatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(outline)
	case validate.FormatYAML:
		data, err := yaml.MarshalWithOptions(outline, yaml.Indent(2))
		if err != nil {
			return err
		}
		_, err = a.out.Write(data)
		return err
	}
	_, err = fmt.Fprintln(a.out, outline.Text)
	return err
}

func (a *app) dumpProfile(_ context.Context, cmd *cli.Command) (err error) {
	if cmd.Args().Len() > 1 {
		a.log.Warn("Malformed command line, too many destinations", "ignoring", cmd.Args().Slice()[1:])
	}

	p, state := a.profile, "active"
	if cmd.Bool("default") {
		p, state = profile.Default(), "default"
	}
	data, err := p.Dump()
	if err != nil {
		return fmt.Errorf("unable to dump profile: %w", err)
	}

	fname := cmd.Args().Get(0)
	out := a.out
	if fname != "" {
		f, er := os.Create(fname)
		if er != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, er)
		}
		defer func() {
			if er := f.Close(); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to close '%s': %w", fname, er))
			}
		}()
		out = f
	} else {
		fname = "STDOUT"
	}
	a.log.Debug("Outputting profile", "state", state, "file", fname)

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write profile: %w", err)
	}
	return nil
}
