package sieve

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultSummaryTemplate renders the one-paragraph outcome shown to users
// and returned to MCP clients.
const DefaultSummaryTemplate = `Filtered log exported: {{ .OutputPath }}
Matched {{ .Count }} {{ if eq .Count 1 }}pair{{ else }}pairs{{ end }} ` +
	`({{ .Mode }} mode, keyword {{ .URLKeyword | default "(any)" | quote }}, ` +
	`{{ .Stats.Entries }} entries scanned{{ if .Stats.Repaired }}, {{ .Stats.Repaired }} JSON repaired{{ end }})`

// ParseSummaryTemplate parses src with sprig functions. An empty src uses
// DefaultSummaryTemplate.
func ParseSummaryTemplate(src string) (*template.Template, error) {
	if src == "" {
		src = DefaultSummaryTemplate
	}
	t, err := template.New("summary").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse summary template: %w", err)
	}
	return t, nil
}

func renderSummary(t *template.Template, r *Report) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}
