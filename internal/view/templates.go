// Package view renders the server side HTML pages.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/odyssey-erp/hrdash/internal/chart"
	"github.com/odyssey-erp/hrdash/web"
)

var errNoEngine = errors.New("view: template engine not initialised")

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	buffers   sync.Pool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	User        string
	CurrentPath string
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatValue": chart.FormatValue,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	e := &Engine{templates: tpl}
	e.buffers.New = func() any { return new(bytes.Buffer) }
	return e, nil
}

// Render executes a named template with TemplateData. Output is buffered so a
// failing template never leaves a half written page behind.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil || e.templates == nil {
		return errNoEngine
	}
	buf := e.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer e.buffers.Put(buf)

	if err := e.templates.ExecuteTemplate(buf, name, data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
