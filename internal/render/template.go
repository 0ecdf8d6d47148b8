package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"
)

//go:embed all:theme
var builtinTheme embed.FS

// BuiltinTheme is the theme name that resolves to the embedded theme only.
const BuiltinTheme = "default"

var requiredTemplates = []string{
	"page.tmpl",
	"section.tmpl",
	"index.tmpl",
	"taxonomy_list.tmpl",
	"taxonomy_single.tmpl",
	"404.tmpl",
	"redirect.tmpl",
}

type TemplateRenderer struct {
	tpl    *template.Template
	hash   string
	static []fs.FS
}

// NewTemplateRenderer loads the embedded theme, then the templates of
// themeDir/themeName on top of it. A user template replaces the embedded one
// of the same name.
func NewTemplateRenderer(themeDir, themeName string) (*TemplateRenderer, error) {
	base, err := fs.Sub(builtinTheme, "theme")
	if err != nil {
		return nil, err
	}
	layers := []fs.FS{base}

	if themeName != "" {
		dir := filepath.Join(themeDir, themeName)
		info, err := os.Stat(dir)
		switch {
		case err == nil && info.IsDir():
			layers = append(layers, os.DirFS(dir))
		case err == nil, !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("theme %s: not a readable directory", dir)
		case themeName != BuiltinTheme:
			return nil, fmt.Errorf("theme %q not found in %s", themeName, themeDir)
		}
	}
	return newTemplateRenderer(layers...)
}

func newTemplateRenderer(layers ...fs.FS) (*TemplateRenderer, error) {
	r := &TemplateRenderer{tpl: template.New("").Funcs(templateFuncs())}
	h := sha256.New()
	for i, layer := range layers {
		var names []string
		for _, pattern := range []string{"templates/*.tmpl", "templates/*.html"} {
			m, err := fs.Glob(layer, pattern)
			if err != nil {
				return nil, err
			}
			names = append(names, m...)
		}
		sort.Strings(names)
		for _, name := range names {
			data, err := fs.ReadFile(layer, name)
			if err != nil {
				return nil, err
			}
			if _, err := r.tpl.New(path.Base(name)).Parse(string(data)); err != nil {
				return nil, fmt.Errorf("parse template %s: %w", name, err)
			}
			fmt.Fprintf(h, "%d:%s:", i, name)
			h.Write(data)
		}
		if info, err := fs.Stat(layer, "static"); err == nil && info.IsDir() {
			sub, err := fs.Sub(layer, "static")
			if err != nil {
				return nil, err
			}
			r.static = append(r.static, sub)
			if err := hashTree(h, sub); err != nil {
				return nil, err
			}
		}
	}
	r.hash = hex.EncodeToString(h.Sum(nil))
	return r, nil
}

func hashTree(h io.Writer, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		io.WriteString(h, p)
		_, err = h.Write(data)
		return err
	})
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t interface{}, layout string) string {
			switch v := t.(type) {
			case nil:
				return ""
			case string:
				return v
			case time.Time:
				if v.IsZero() {
					return ""
				}
				return v.Format(layout)
			case interface{ Format(string) string }:
				return v.Format(layout)
			default:
				return ""
			}
		},
		"nowYear": func() int {
			return time.Now().Year()
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
}

// Hash fingerprints every template and static file of the loaded theme.
func (r *TemplateRenderer) Hash() string { return r.hash }

// Static returns the static directories of every theme layer, lowest first.
func (r *TemplateRenderer) Static() []fs.FS { return r.static }

func (r *TemplateRenderer) Has(name string) bool { return r.tpl.Lookup(name) != nil }

func (r *TemplateRenderer) RenderPage(ctx context.Context, name string, doc PageDoc) ([]byte, error) {
	if name == "" {
		name = "page.tmpl"
	}
	return r.exec(name, doc)
}

func (r *TemplateRenderer) RenderSection(ctx context.Context, name string, doc SectionDoc) ([]byte, error) {
	if name == "" {
		name = "section.tmpl"
	}
	return r.exec(name, doc)
}

func (r *TemplateRenderer) RenderTaxonomyList(ctx context.Context, doc TaxonomyListDoc) ([]byte, error) {
	return r.exec(r.first(doc.Taxonomy.Slug+"_list.tmpl", "taxonomy_list.tmpl"), doc)
}

func (r *TemplateRenderer) RenderTaxonomyTerm(ctx context.Context, doc TermDoc) ([]byte, error) {
	return r.exec(r.first(doc.Taxonomy.Slug+"_single.tmpl", "taxonomy_single.tmpl"), doc)
}

func (r *TemplateRenderer) RenderNotFound(ctx context.Context, doc NotFoundDoc) ([]byte, error) {
	return r.exec("404.tmpl", doc)
}

func (r *TemplateRenderer) RenderRedirect(ctx context.Context, target string) ([]byte, error) {
	return r.exec("redirect.tmpl", RedirectDoc{Target: target})
}

func (r *TemplateRenderer) first(names ...string) string {
	for _, n := range names {
		if r.Has(n) {
			return n
		}
	}
	return names[len(names)-1]
}

func (r *TemplateRenderer) exec(name string, data interface{}) ([]byte, error) {
	t := r.tpl.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CheckTemplates reports every required template the renderer lacks.
func (r *TemplateRenderer) CheckTemplates() error {
	var errs []error
	for _, name := range requiredTemplates {
		if !r.Has(name) {
			errs = append(errs, fmt.Errorf("missing template: %s", name))
		}
	}
	return errors.Join(errs...)
}
