// Package templates embeds the bundled report templates and the example
// configuration so they ship inside the binary.
//
// Usage:
//
//	data, _ := templates.FS.ReadFile("report/markdown.tmpl")
package templates

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

// FS holds report/*.tmpl (one built-in report per file, named after the
// file stem) and config/example.yaml.
//
//go:embed report/*.tmpl config/*.yaml
var FS embed.FS

// ReportNames returns the built-in report template names, sorted.
func ReportNames() []string {
	matches, _ := fs.Glob(FS, "report/*.tmpl")
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".tmpl"))
	}
	return names
}

// Report returns the source of the named built-in report template.
func Report(name string) (string, bool) {
	data, err := FS.ReadFile("report/" + name + ".tmpl")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ExampleConfig returns the annotated example configuration file.
func ExampleConfig() []byte {
	data, _ := FS.ReadFile("config/example.yaml")
	return data
}
