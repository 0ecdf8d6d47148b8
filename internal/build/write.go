package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"kiln/internal/app"
	fingerprint "kiln/internal/domain/build"
	"kiln/internal/domain/config"
	"kiln/internal/domain/site"
	"kiln/internal/index"
	"kiln/internal/library"
	"kiln/internal/pagination"
	"kiln/internal/render"
)

// writer puts files under outDir and skips those whose fingerprint matches
// the one recorded by the previous build.
type writer struct {
	outDir     string
	store      *index.Store
	themeHash  string
	configHash string

	mu      sync.Mutex
	hashes  map[string]string
	written int
	skipped int
}

func (w *writer) write(rel string, data []byte) error {
	fp := fingerprint.ForOutput(data, w.themeHash, w.configHash)
	full := filepath.Join(w.outDir, filepath.FromSlash(rel))

	prev, ok := w.store.OutputHash(rel)
	skip := ok && prev == fp.RenderHash && fileExists(full)
	if !skip {
		if err := writeFile(w.outDir, rel, data); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.hashes[rel] = fp.RenderHash
	if skip {
		w.skipped++
	} else {
		w.written++
	}
	return nil
}

// writeStatic copies the static files of every theme layer. A file in a
// later layer replaces the one of the same name below it.
func (w *writer) writeStatic(layers []fs.FS) error {
	owner := make(map[string]fs.FS)
	for _, layer := range layers {
		err := fs.WalkDir(layer, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			owner[p] = layer
			return nil
		})
		if err != nil {
			return err
		}
	}

	names := make([]string, 0, len(owner))
	for p := range owner {
		names = append(names, p)
	}
	sort.Strings(names)
	for _, p := range names {
		data, err := fs.ReadFile(owner[p], p)
		if err != nil {
			return err
		}
		if err := w.write(p, data); err != nil {
			return err
		}
	}
	return nil
}

// removeStale deletes the files a previous build wrote that this one did
// not produce.
func (w *writer) removeStale() (int, error) {
	stale, err := w.store.RecordOutputs(w.hashes)
	if err != nil {
		return 0, err
	}
	for _, rel := range stale {
		full := filepath.Join(w.outDir, filepath.FromSlash(rel))
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
		w.pruneDirs(filepath.Dir(full))
	}
	return len(stale), nil
}

// pruneDirs removes dir and its parents below outDir while they are empty.
func (w *writer) pruneDirs(dir string) {
	root := filepath.Clean(w.outDir)
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (b *Builder) writeRoutes(ctx context.Context, w *writer, docs *documents, plan app.Plan) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, route := range plan.Routes {
		route := route
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := docs.render(ctx, route)
			if err != nil {
				return fmt.Errorf("render %s: %w", route, err)
			}
			if err := w.write(route.OutPath, data); err != nil {
				return fmt.Errorf("write %s: %w", route.OutPath, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// documents renders the file behind each route.
type documents struct {
	cfg        config.Config
	lib        *library.Library
	taxonomies []library.Taxonomy
	views      *viewSet
	plan       app.Plan
	tpl        render.Renderer
}

func (d *documents) render(ctx context.Context, r site.Route) ([]byte, error) {
	switch r.Kind {
	case site.RoutePage:
		p, ok := d.lib.Pages[r.Key]
		if !ok {
			return nil, fmt.Errorf("unknown page %s", r.Key)
		}
		return d.tpl.RenderPage(ctx, p.Meta.Template, render.PageDoc{
			Site: d.views.site(p.Lang),
			Page: d.views.pages[r.Key],
		})

	case site.RouteSection:
		s, ok := d.lib.Sections[r.Key]
		if !ok {
			return nil, fmt.Errorf("unknown section %s", r.Key)
		}
		doc := render.SectionDoc{Site: d.views.site(s.Lang), Section: d.views.section(s)}
		if s.IsPaginated() {
			doc.Paginator = d.pagerContext(d.plan.Sections[r.Key], r.Page)
		}
		name := s.Meta.Template
		if name == "" && s.IsIndex() {
			name = "index.tmpl"
		}
		return d.tpl.RenderSection(ctx, name, doc)

	case site.RouteTaxonomyList:
		taxo, ok := d.taxonomy(r.Lang, r.Key)
		if !ok {
			return nil, fmt.Errorf("unknown taxonomy %s", r.Key)
		}
		doc := render.TaxonomyListDoc{Site: d.views.site(taxo.Lang), Taxonomy: taxonomyView(taxo)}
		for _, term := range taxo.Items {
			doc.Terms = append(doc.Terms, render.TermView{
				Name:      term.Name,
				Slug:      term.Slug,
				Permalink: term.Permalink,
				Count:     d.plan.Terms[app.TermKey(taxo.Lang, taxo.Slug, term.Slug)].TotalPages(),
			})
		}
		return d.tpl.RenderTaxonomyList(ctx, doc)

	case site.RouteTaxonomyTerm:
		taxo, ok := d.taxonomy(r.Lang, r.Key)
		if !ok {
			return nil, fmt.Errorf("unknown taxonomy %s", r.Key)
		}
		term, ok := taxo.Term(r.Term)
		if !ok {
			return nil, fmt.Errorf("unknown term %s", r.Term)
		}
		p := d.plan.Terms[app.TermKey(taxo.Lang, taxo.Slug, term.Slug)]
		doc := render.TermDoc{
			Site:     d.views.site(taxo.Lang),
			Taxonomy: taxonomyView(taxo),
			Term: render.TermView{
				Name: term.Name, Slug: term.Slug, Permalink: term.Permalink, Count: p.TotalPages(),
			},
		}
		for _, key := range p.Pages {
			doc.Pages = append(doc.Pages, d.views.pages[key])
		}
		if taxo.Kind.IsPaginated() {
			doc.Paginator = d.pagerContext(p, r.Page)
		}
		return d.tpl.RenderTaxonomyTerm(ctx, doc)

	case site.RouteAlias, site.RouteRedirect:
		return d.tpl.RenderRedirect(ctx, r.Target)

	case site.RouteNotFound:
		return d.tpl.RenderNotFound(ctx, render.NotFoundDoc{Site: d.views.site(d.cfg.Site.DefaultLanguage)})

	case site.RouteAsset:
		return os.ReadFile(filepath.FromSlash(r.Key))
	}
	return nil, fmt.Errorf("unhandled route kind %s", r.Kind)
}

func (d *documents) pagerContext(p *pagination.Paginator, n int) *pagination.Context[render.PageView] {
	c := pagination.BuildContext(p, p.Pagers[n-1], d.views.pages)
	return &c
}

func (d *documents) taxonomy(lang, slug string) (library.Taxonomy, bool) {
	for _, t := range d.taxonomies {
		if t.Lang == lang && t.Slug == slug {
			return t, true
		}
	}
	return library.Taxonomy{}, false
}

func taxonomyView(t library.Taxonomy) render.TaxonomyView {
	return render.TaxonomyView{Name: t.Kind.Name, Slug: t.Slug, Lang: t.Lang, Permalink: t.Permalink}
}

func writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
