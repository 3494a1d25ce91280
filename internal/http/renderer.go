package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

// TemplateRenderer renders HTML pages. Rendering goes through a buffer so a
// template error never leaves a half-written page on the wire.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // filesystem containing templates (required)
	Logger     *slog.Logger // logger for template errors (optional)
}

// NewTemplateRenderer parses all templates from the provided filesystem.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The "content" func lets the layout dispatch to the page's content
	// template by name; it closes over t, which is assigned below.
	var t *template.Template
	funcs := template.FuncMap{
		"content": func(name string, data any) (template.HTML, error) {
			var buf bytes.Buffer
			if err := t.ExecuteTemplate(&buf, name, data); err != nil {
				return "", err
			}
			return template.HTML(buf.String()), nil //nolint:gosec // output of our own templates
		},
	}

	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS, "*.tmpl", "partials/*.tmpl")
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err))
		return nil, err
	}
	return &TemplateRenderer{t: t, logger: logger}, nil
}

// RenderPage renders the layout with the content template named by
// data.CurrentPage.
func (r *TemplateRenderer) RenderPage(w http.ResponseWriter, data *TemplateData) error {
	return r.render(w, http.StatusOK, "layout", data)
}

// RenderError renders the error page with the given HTTP status.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, code int, data *TemplateData) error {
	return r.render(w, code, "layout", data)
}

func (r *TemplateRenderer) render(w http.ResponseWriter, code int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Client disconnects can't be recovered from here.
		return err
	}
	return nil
}
