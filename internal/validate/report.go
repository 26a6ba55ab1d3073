package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"
	sprig "github.com/go-task/slim-sprig/v3"
)

// Format selects a report rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
}

const textReport = `{{- define "bucket" -}}
{{ .title | upper }} ({{ len .findings }})
{{ range .findings }}  [{{ .Severity }}] {{ .Message }}{{ with .Location }} ({{ . }}){{ end }}
{{ else }}  none
{{ end }}
{{- end -}}
VALIDATION REPORT{{ with .Source }}: {{ . }}{{ end }}
{{ repeat 60 "=" }}
{{ template "bucket" (dict "title" "structural" "findings" .Structural) }}
{{ template "bucket" (dict "title" "technical" "findings" .Technical) }}
{{ template "bucket" (dict "title" "stylistic" "findings" .Stylistic) }}
METRICS
{{ range $k, $v := .Metrics }}  {{ printf "%-22s" $k }} {{ $v }}
{{ end }}
{{- repeat 60 "=" }}
{{ if .Compliant }}COMPLIANT{{ else }}NOT COMPLIANT{{ end }}
`

var reportTmpl = template.Must(template.New("report").Funcs(sprig.TxtFuncMap()).Parse(textReport))

// Render writes the report in the given format.
func (r *Report) Render(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		out, err := yaml.MarshalWithOptions(r, yaml.Indent(2))
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = w.Write(out)
		return err
	case FormatText, "":
		return reportTmpl.Execute(w, r)
	}
	return fmt.Errorf("unknown report format %q", f)
}
