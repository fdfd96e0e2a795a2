package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	mdhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns a named template into HTML and plain-text bodies.
//
// For a template named "submission" it first looks for submission.md:
// optional YAML frontmatter plus a text/template body written in
// Markdown. The executed body is the plain-text part; the same body,
// with every value passed through the md function escaped, is converted
// to HTML by goldmark. Raw HTML in the source is dropped.
//
// Without a .md file it reads:
//   - submission.html: optional YAML frontmatter plus an html/template body
//   - submission.txt: optional text/template body for the plain-text part
//
// The HTML body is then wrapped in a layout from the layout directory.
type Renderer struct {
	fs       fs.FS
	funcs    map[string]any
	markdown goldmark.Markdown

	// Caches hold parsed templates, never rendered output. A nil entry in
	// mdCache records that no .md file exists.
	mdCache     map[string]*markdownTemplate
	htmlCache   map[string]*cachedTemplate
	textCache   map[string]*texttemplate.Template
	layoutCache map[string]*template.Template
	templateDir string
	layoutDir   string

	mu sync.RWMutex
}

// cachedTemplate holds parsed template data for reuse.
type cachedTemplate struct {
	metadata map[string]any
	tmpl     *template.Template
}

// markdownTemplate is one .md source parsed twice: text renders values
// as is, markdown escapes them for goldmark.
type markdownTemplate struct {
	metadata map[string]any
	text     *texttemplate.Template
	markdown *texttemplate.Template
}

// RendererConfig configures the renderer.
type RendererConfig struct {
	Funcs       map[string]any // Extra template functions, shared by HTML and text
	TemplateDir string         // Default: "."
	LayoutDir   string         // Default: "layouts"
	HardWraps   bool           // Render single line breaks in .md templates as <br>
}

// NewRenderer creates a new renderer with default config.
func NewRenderer(filesystem fs.FS) *Renderer {
	return NewRendererWithConfig(filesystem, RendererConfig{})
}

// NewRendererWithConfig creates a new renderer with custom config.
func NewRendererWithConfig(filesystem fs.FS, opts RendererConfig) *Renderer {
	if opts.TemplateDir == "" {
		opts.TemplateDir = "."
	}
	if opts.LayoutDir == "" {
		opts.LayoutDir = "layouts"
	}

	var rendererOpts []goldmark.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(mdhtml.WithHardWraps()))
	}

	return &Renderer{
		fs:          filesystem,
		funcs:       opts.Funcs,
		markdown:    goldmark.New(rendererOpts...),
		templateDir: opts.TemplateDir,
		layoutDir:   opts.LayoutDir,
		mdCache:     make(map[string]*markdownTemplate),
		htmlCache:   make(map[string]*cachedTemplate),
		textCache:   make(map[string]*texttemplate.Template),
		layoutCache: make(map[string]*template.Template),
	}
}

// RenderResult contains the rendered HTML, plain text, and extracted metadata.
type RenderResult struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

// Render executes the named template with data.
// An empty layout skips wrapping. For .html templates a missing .txt
// template yields an empty Text.
func (r *Renderer) Render(layout, name string, data any) (*RenderResult, error) {
	md, err := r.markdownTemplate(name)
	if err != nil {
		return nil, err
	}

	var result *RenderResult
	if md != nil {
		result, err = r.renderMarkdown(md, name, data)
	} else {
		result, err = r.renderHTML(name, data)
	}
	if err != nil {
		return nil, err
	}
	if layout == "" {
		return result, nil
	}

	layoutTmpl, err := r.layoutTemplate(layout)
	if err != nil {
		return nil, err
	}

	var final bytes.Buffer
	layoutData := map[string]any{
		"Content":  template.HTML(result.HTML), // escaped by html/template or goldmark
		"Metadata": result.Metadata,
		"Data":     data,
	}
	if err := layoutTmpl.Execute(&final, layoutData); err != nil {
		return nil, fmt.Errorf("%w: failed to execute layout %s: %v", ErrRenderFailed, layout, err)
	}
	result.HTML = final.String()

	return result, nil
}

func (r *Renderer) renderMarkdown(md *markdownTemplate, name string, data any) (*RenderResult, error) {
	var text, source, content bytes.Buffer
	if err := md.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("%w: failed to execute template %s: %v", ErrRenderFailed, name, err)
	}
	if err := md.markdown.Execute(&source, data); err != nil {
		return nil, fmt.Errorf("%w: failed to execute template %s: %v", ErrRenderFailed, name, err)
	}
	if err := r.markdown.Convert(source.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: failed to convert markdown %s: %v", ErrRenderFailed, name, err)
	}

	return &RenderResult{
		Metadata: md.metadata,
		HTML:     content.String(),
		Text:     text.String(),
	}, nil
}

func (r *Renderer) renderHTML(name string, data any) (*RenderResult, error) {
	cached, err := r.htmlTemplate(name)
	if err != nil {
		return nil, err
	}

	var content bytes.Buffer
	if err := cached.tmpl.Execute(&content, data); err != nil {
		return nil, fmt.Errorf("%w: failed to execute template %s: %v", ErrRenderFailed, name, err)
	}

	text, err := r.renderText(name, data)
	if err != nil {
		return nil, err
	}

	return &RenderResult{
		Metadata: cached.metadata,
		HTML:     content.String(),
		Text:     text,
	}, nil
}

func (r *Renderer) renderText(name string, data any) (string, error) {
	tmpl, err := r.textTemplate(name)
	if errors.Is(err, ErrTemplateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: failed to execute text template %s: %v", ErrRenderFailed, name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) markdownTemplate(name string) (*markdownTemplate, error) {
	return loadCached(r, r.mdCache, name, func() (*markdownTemplate, error) {
		file := name + ".md"
		content, err := fs.ReadFile(r.fs, path.Join(r.templateDir, file))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, file, err)
		}

		parsed, err := ParseTemplate(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, file, err)
		}

		parse := func(md func(any) string) (*texttemplate.Template, error) {
			funcs := maps.Clone(r.funcs)
			if funcs == nil {
				funcs = map[string]any{}
			}
			funcs["md"] = md
			return texttemplate.New(file).Funcs(funcs).Option("missingkey=zero").Parse(parsed.Body)
		}

		text, err := parse(func(v any) string { return fmt.Sprint(v) })
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrRenderFailed, file, err)
		}
		markdown, err := parse(func(v any) string { return EscapeMarkdown(fmt.Sprint(v)) })
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrRenderFailed, file, err)
		}
		return &markdownTemplate{metadata: parsed.Metadata, text: text, markdown: markdown}, nil
	})
}

// EscapeMarkdown backslash-escapes every ASCII punctuation character in s,
// so goldmark renders it as literal text.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && isASCIIPunct(byte(r)) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

func (r *Renderer) htmlTemplate(name string) (*cachedTemplate, error) {
	return loadCached(r, r.htmlCache, name, func() (*cachedTemplate, error) {
		file := name + ".html"
		content, err := fs.ReadFile(r.fs, path.Join(r.templateDir, file))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, file, err)
		}

		parsed, err := ParseTemplate(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, file, err)
		}

		tmpl, err := template.New(file).Funcs(r.funcs).Option("missingkey=zero").Parse(parsed.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrRenderFailed, file, err)
		}
		return &cachedTemplate{metadata: parsed.Metadata, tmpl: tmpl}, nil
	})
}

func (r *Renderer) textTemplate(name string) (*texttemplate.Template, error) {
	return loadCached(r, r.textCache, name, func() (*texttemplate.Template, error) {
		file := name + ".txt"
		content, err := fs.ReadFile(r.fs, path.Join(r.templateDir, file))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, file, err)
		}

		tmpl, err := texttemplate.New(file).Funcs(r.funcs).Option("missingkey=zero").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrRenderFailed, file, err)
		}
		return tmpl, nil
	})
}

func (r *Renderer) layoutTemplate(name string) (*template.Template, error) {
	return loadCached(r, r.layoutCache, name, func() (*template.Template, error) {
		content, err := fs.ReadFile(r.fs, path.Join(r.layoutDir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
		}

		tmpl, err := template.New(name).Funcs(r.funcs).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse layout %s: %v", ErrRenderFailed, name, err)
		}
		return tmpl, nil
	})
}

// loadCached returns cache[key] or parses, stores and returns it.
// Parse failures are not cached.
func loadCached[T any](r *Renderer, cache map[string]T, key string, parse func() (T, error)) (T, error) {
	r.mu.RLock()
	if v, ok := cache[key]; ok {
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if v, ok := cache[key]; ok {
		return v, nil
	}

	v, err := parse()
	if err != nil {
		var zero T
		return zero, err
	}
	cache[key] = v
	return v, nil
}
