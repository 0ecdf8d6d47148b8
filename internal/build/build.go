package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kiln/internal/app"
	"kiln/internal/domain/config"
	domainerr "kiln/internal/domain/errors"
	"kiln/internal/index"
	"kiln/internal/ingest"
	"kiln/internal/library"
	"kiln/internal/logfields"
	"kiln/internal/metrics"
	"kiln/internal/render"
)

type Builder struct {
	Cfg       config.Config
	IndexPath string
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	// LiveReload makes every page subscribe to the dev server's reload events.
	LiveReload bool
}

type Result struct {
	BuildID  string
	Pages    int
	Sections int
	Written  int
	Skipped  int
	Removed  int
	Warnings []ingest.Warning
}

// loaded is a library after the read-only stages of a build.
type loaded struct {
	lib        *library.Library
	taxonomies []library.Taxonomy
	warns      []ingest.Warning
	collisions []domainerr.Collision
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Run builds the site into the public directory. Outputs whose fingerprint
// matches the previous build are left untouched.
func (b *Builder) Run(ctx context.Context) (res *Result, err error) {
	started := time.Now()
	defer func() { b.Metrics.BuildFinished(time.Since(started), err) }()

	buildID := uuid.NewString()
	log := b.logger().With(logfields.BuildID(buildID))

	ld, err := b.load(ctx, log, true)
	if err != nil {
		return nil, err
	}

	tpl, err := render.NewTemplateRenderer(b.Cfg.Build.ThemeDir, b.Cfg.Site.Theme)
	if err != nil {
		return nil, fmt.Errorf("load theme %s: %w", b.Cfg.Site.Theme, err)
	}
	if err := tpl.CheckTemplates(); err != nil {
		return nil, fmt.Errorf("theme %s: %w", b.Cfg.Site.Theme, err)
	}

	st, err := index.Open(index.OpenOptions{Path: b.indexPath()})
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer st.Close()

	outDir := b.Cfg.Build.PublicDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir public: %w", err)
	}

	rb := app.RouteBuilder{Lib: ld.lib, Taxonomies: ld.taxonomies}
	plan := rb.Build()
	log.Debug("planned routes", logfields.Stage("plan"), logfields.Count(len(plan.Routes)))

	w := &writer{
		outDir:     outDir,
		store:      st,
		themeHash:  tpl.Hash(),
		configHash: b.Cfg.Hash(),
		hashes:     make(map[string]string),
	}
	views := newViewSet(b.Cfg, ld.lib, ld.taxonomies, b.LiveReload)
	docs := &documents{cfg: b.Cfg, lib: ld.lib, taxonomies: ld.taxonomies, views: views, plan: plan, tpl: tpl}

	stage := time.Now()
	if err := b.writeRoutes(ctx, w, docs, plan); err != nil {
		return nil, err
	}
	if err := w.writeStatic(tpl.Static()); err != nil {
		return nil, fmt.Errorf("copy static assets: %w", err)
	}
	log.Info("wrote output", logfields.Stage("write"), logfields.DurationMS(msSince(stage)),
		slog.Int("written", w.written), slog.Int("skipped", w.skipped))

	removed, err := w.removeStale()
	if err != nil {
		return nil, fmt.Errorf("remove stale outputs: %w", err)
	}
	if err := st.Rebuild(pageRecords(ld.lib), ld.lib.Aliases(), index.RebuildOptions{
		IncludeDraft: b.Cfg.Build.IncludeDrafts,
	}); err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}
	if err := st.PutBuildMeta(index.BuildMeta{
		ID:         buildID,
		BuiltAt:    b.Cfg.Build.Now,
		ConfigHash: w.configHash,
		ThemeHash:  w.themeHash,
	}); err != nil {
		return nil, fmt.Errorf("record build: %w", err)
	}

	b.Metrics.Outputs(w.written, w.skipped, removed)
	b.Metrics.Pages(len(ld.lib.Pages))
	log.Info("build complete", logfields.DurationMS(msSince(started)), logfields.Count(len(ld.lib.Pages)))

	return &Result{
		BuildID:  buildID,
		Pages:    len(ld.lib.Pages),
		Sections: len(ld.lib.Sections),
		Written:  w.written,
		Skipped:  w.skipped,
		Removed:  removed,
		Warnings: ld.warns,
	}, nil
}

func (b *Builder) indexPath() string {
	if b.IndexPath != "" {
		return b.IndexPath
	}
	return b.Cfg.Build.IndexPath
}

// load ingests the content directory and checks it for path collisions, then
// aggregates taxonomies, populates sections, renders Markdown and fills
// backlinks. Collisions fail the load when strict is set and are only
// recorded otherwise.
func (b *Builder) load(ctx context.Context, log *slog.Logger, strict bool) (*loaded, error) {
	stage := time.Now()
	lib, warns, err := ingest.Ingest(b.Cfg)
	if err != nil {
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	for _, w := range warns {
		log.Warn(w.Msg, logfields.Path(w.Path))
	}
	log.Info("ingested content", logfields.Stage("ingest"), logfields.Count(len(lib.Pages)),
		logfields.DurationMS(msSince(stage)))

	collisions := lib.FindPathCollisions()
	if len(collisions) > 0 && strict {
		return nil, &domainerr.CollisionError{Items: collisions}
	}

	taxonomies, err := lib.FindTaxonomies()
	if err != nil {
		return nil, fmt.Errorf("find taxonomies: %w", err)
	}

	lib.PopulateSections()
	for _, s := range lib.SectionsByPath(lib.SectionPaths()) {
		for _, key := range s.IgnoredPages {
			log.Warn("page cannot be sorted and is left out of its section",
				logfields.Path(key), slog.String("section", s.File.Path), slog.String("sort_by", string(s.Meta.SortBy)))
		}
	}
	for _, p := range lib.Orphans() {
		log.Debug("orphan page", logfields.Path(p.File.Path))
	}

	stage = time.Now()
	if err := renderMarkdown(ctx, lib); err != nil {
		return nil, err
	}
	lib.FillBacklinks()
	log.Info("rendered markdown", logfields.Stage("markdown"), logfields.DurationMS(msSince(stage)))

	return &loaded{lib: lib, taxonomies: taxonomies, warns: warns, collisions: collisions}, nil
}

// renderMarkdown renders every page and section body in parallel. Each
// worker only writes to its own entry; the library maps are read-only here.
func renderMarkdown(ctx context.Context, lib *library.Library) error {
	md := render.NewMarkdownRenderer()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, p := range lib.PagesByPath(lib.PagePaths()) {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := md.Render([]byte(p.RawContent), lib)
			if err != nil {
				return fmt.Errorf("markdown render(%s): %w", p.File.Path, err)
			}
			p.Content = res.HTML
			p.Summary = res.Summary
			p.TOC = res.Headings
			p.InternalLinks = res.InternalLinks
			p.ExternalLinks = res.ExternalLinks
			return nil
		})
	}
	for _, s := range lib.SectionsByPath(lib.SectionPaths()) {
		s := s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := md.Render([]byte(s.RawContent), lib)
			if err != nil {
				return fmt.Errorf("markdown render(%s): %w", s.File.Path, err)
			}
			s.Content = res.HTML
			s.TOC = res.Headings
			s.InternalLinks = res.InternalLinks
			s.ExternalLinks = res.ExternalLinks
			return nil
		})
	}
	return g.Wait()
}

func pageRecords(lib *library.Library) []index.PageRecord {
	out := make([]index.PageRecord, 0, len(lib.Pages))
	for _, p := range lib.PagesByPath(lib.PagePaths()) {
		out = append(out, index.PageRecord{
			Key:       p.File.Path,
			Title:     p.Meta.Title,
			Lang:      p.Lang,
			Path:      p.Path,
			Permalink: p.Permalink,
			Date:      p.Meta.Date,
			Updated:   p.Meta.Updated,
			Draft:     p.Meta.Draft,
			Render:    p.ShouldRender(),
		})
	}
	return out
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
