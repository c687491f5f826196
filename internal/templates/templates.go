// Package templates provides the embedded HTML pages for the web
// frontend. Templates are parsed once at startup; a parse failure is a
// programming error and panics.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed *.html
var fs embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"pct": func(f float64) float64 { return f * 100 },
}).ParseFS(fs, "*.html"))

// Render writes the named page with the given data.
func Render(w io.Writer, name string, data interface{}) error {
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render template %s: %w", name, err)
	}
	return nil
}
