package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates assets
var uiFiles embed.FS

// pages maps each screen to its parsed template set. Every set is the shared
// layout plus one content template.
var pages = func() map[string]*template.Template {
	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("৳%.2f", v) },
		"date": func(v string) string {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return "N/A"
			}
			return t.Format("Jan 2, 2006")
		},
		"initial": func(name string) string {
			for _, r := range name {
				return string(r)
			}
			return "U"
		},
	}

	names := []string{"dashboard", "config", "tasks", "users", "withdrawals", "loading", "error"}
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(
			uiFiles, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}()

// baseData carries the fields every screen template needs.
type baseData struct {
	Title  string
	Active string
	Flash  string
	Error  string
}

// newBaseData picks the transient banners up from the redirect query params.
func newBaseData(r *http.Request, title, active string) baseData {
	data := baseData{Title: title, Active: active}
	if r.URL.Query().Get("saved") == "1" {
		data.Flash = "Configurations updated successfully!"
	}
	if msg := r.URL.Query().Get("flash"); msg != "" {
		data.Flash = msg
	}
	if msg := r.URL.Query().Get("error"); msg != "" {
		data.Error = msg
	}
	return data
}

// render executes the named screen into a buffer first so a template failure
// yields a 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := pages[name]
	if !ok {
		s.log.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.log.Error("failed to render template", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
