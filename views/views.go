// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/danielhkuo/staff-directory/auth"
	"github.com/danielhkuo/staff-directory/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/widget.js
var WidgetJS []byte

// standalone pages carry their own <html> document instead of the admin layout.
var standalone = map[string]bool{
	"print": true,
	"embed": true,
}

// Page is the value every template executes against.
type Page struct {
	Title     string
	Session   *auth.Session
	CSRFToken string
	Flash     string
	Error     string
	Active    string
	Data      any
}

// IsAdmin is a template convenience for nav rendering.
func (p *Page) IsAdmin() bool {
	return p.Session.IsAdmin()
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every embedded page template.
func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}

		var t *template.Template
		if standalone[name] {
			t, err = template.New(path.Base(file)).Funcs(funcs).ParseFS(templateFS, file)
		} else {
			t, err = template.Must(base.Clone()).ParseFS(templateFS, file)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes a page into a buffer and writes it with the given status.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) {
	t, ok := r.pages[name]
	if !ok {
		slog.Error("unknown template", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if page.Session != nil && page.CSRFToken == "" {
		page.CSRFToken = page.Session.CSRFToken
	}

	entry := "layout"
	if standalone[name] {
		entry = "page"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, page); err != nil {
		slog.Error("failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("failed to write response", "name", name, "error", err)
	}
}

var funcs = template.FuncMap{
	"ago":      humanize.Time,
	"bytes":    humanize.Bytes,
	"comma":    func(n int) string { return humanize.Comma(int64(n)) },
	"date":     func(t time.Time) string { return formatTime(t, "Jan 2, 2006") },
	"datetime": func(t time.Time) string { return formatTime(t, "Jan 2, 2006 3:04 PM") },
	"orNA":     orNA,
	"location": Location,
	"join":     strings.Join,
	"contains": func(list []string, s string) bool { return slices.Contains(list, s) },
	"lower":    strings.ToLower,
	"plural":   func(n int, word string) string { return english.PluralWord(n, word, "") },
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(layout)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Location formats a department's building, room and extension for headers,
// e.g. "AB101 • Ext. 1234".
func Location(d models.Department) string {
	var parts []string
	if loc := d.Building + d.RoomNumber; loc != "" {
		parts = append(parts, loc)
	}
	if d.Extension != "" {
		parts = append(parts, "Ext. "+d.Extension)
	}
	return strings.Join(parts, " • ")
}
