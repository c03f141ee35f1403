// Package web holds the markup of the browser view.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// PageTemplate is the name of the user table page.
const PageTemplate = "usertable.html"

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
