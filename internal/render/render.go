// Package render renders the storefront's HTML pages.
//
// A page is a shell plus zero or more deferred sections. The shell is written
// and flushed immediately with skeleton placeholders; each deferred section
// is computed concurrently and streamed after the shell as a <template>
// element plus a small inline script that swaps it into its placeholder.
// Rendering therefore never blocks the first byte on a slow upstream fetch.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Section is a deferred page section. Slot names the placeholder element in
// the shell (data-slot attribute); Render computes the section's HTML.
type Section struct {
	Slot   string
	Render func(ctx context.Context) (template.HTML, error)
}

// Renderer holds the parsed templates.
type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// New parses the embedded templates.
func New(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	funcs := template.FuncMap{
		"price": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
	}
	tmpl, err := template.New("storefront").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Fragment renders a named template to HTML, for use inside a Section.
func (r *Renderer) Fragment(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering fragment %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Page renders a complete page with no deferred sections.
// The page is buffered so that a template error can still become an error
// page instead of a torn response.
func (r *Renderer) Page(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("page render failed", "template", name, "error", err)
		r.ErrorPage(w, http.StatusInternalServerError, "Something went wrong.", err.Error())
		return
	}
	if err := r.tmpl.ExecuteTemplate(&buf, "trailer", nil); err != nil {
		r.logger.Error("trailer render failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Stream writes the shell immediately and flushes it, then streams each
// deferred section as its computation completes, and finally the trailer.
// Section failures degrade to an inline notice in their slot; they never
// abort the page.
func (r *Renderer) Stream(ctx context.Context, w http.ResponseWriter, name string, data interface{}, sections ...Section) {
	var shell bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&shell, name, data); err != nil {
		r.logger.Error("shell render failed", "template", name, "error", err)
		r.ErrorPage(w, http.StatusInternalServerError, "Something went wrong.", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(shell.Bytes())
	flush(w)

	if len(sections) > 0 {
		type rendered struct {
			slot string
			html template.HTML
		}
		done := make(chan rendered)

		var wg sync.WaitGroup
		for _, s := range sections {
			wg.Add(1)
			go func(s Section) {
				defer wg.Done()
				html, err := r.renderSection(ctx, s)
				if err != nil {
					r.logger.Warn("deferred section failed", "slot", s.Slot, "error", err)
					html = template.HTML(`<p class="section-error">This section is currently unavailable.</p>`)
				}
				select {
				case done <- rendered{slot: s.Slot, html: html}:
				case <-ctx.Done():
				}
			}(s)
		}
		go func() {
			wg.Wait()
			close(done)
		}()

		// Sections are written in completion order; the swap script keys
		// them back to their slots.
		for out := range done {
			r.writeSwap(w, out.slot, out.html)
			flush(w)
		}
	}

	if err := r.tmpl.ExecuteTemplate(w, "trailer", nil); err != nil {
		r.logger.Error("trailer render failed", "error", err)
	}
	flush(w)
}

// renderSection guards a section computation against panics so that a broken
// section degrades instead of killing the connection mid-stream.
func (r *Renderer) renderSection(ctx context.Context, s Section) (html template.HTML, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("section %s panicked: %v", s.Slot, rec)
		}
	}()
	return s.Render(ctx)
}

// writeSwap emits a streamed section chunk: its content inside an inert
// <template> element plus the script swapping it into the shell placeholder.
func (r *Renderer) writeSwap(w http.ResponseWriter, slot string, html template.HTML) {
	fmt.Fprintf(w, "\n<template data-deferred=%q>%s</template>\n", slot, html)
	fmt.Fprintf(w, `<script>(function(){var t=document.querySelector('template[data-deferred=%q]'),s=document.querySelector('[data-slot=%q]');if(t&&s){s.replaceChildren(t.content.cloneNode(true));t.remove();}})();</script>`+"\n", slot, slot)
}

// ErrorPage renders the page-level fallback: a generic message, optionally
// the underlying error text, and retry/home actions.
func (r *Renderer) ErrorPage(w http.ResponseWriter, status int, message, detail string) {
	var buf bytes.Buffer
	data := map[string]string{"Title": "Error", "Message": message, "Detail": detail}
	if err := r.tmpl.ExecuteTemplate(&buf, "error", data); err != nil {
		// Last resort: plain text.
		http.Error(w, message, status)
		return
	}
	_ = r.tmpl.ExecuteTemplate(&buf, "trailer", nil)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// NotFoundPage renders the not-found presentation for a missing product or route.
func (r *Renderer) NotFoundPage(w http.ResponseWriter, what string) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "notfound", map[string]string{"Title": "Not found", "What": what}); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = r.tmpl.ExecuteTemplate(&buf, "trailer", nil)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(buf.Bytes())
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
