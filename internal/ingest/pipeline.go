package ingest

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"kiln/internal/domain/config"
	"kiln/internal/domain/content"
	domainerr "kiln/internal/domain/errors"
	"kiln/internal/library"
)

type Warning struct {
	Path string
	Msg  string
}

type Result struct {
	Page    *content.Page
	Section *content.Section
	Warns   []Warning
	Skip    bool
	Err     error
}

// Ingest reads the content directory of cfg and inserts every page and
// section into a new library. Front matter problems of all files are
// reported together; I/O errors stop the run.
func Ingest(cfg config.Config) (*library.Library, []Warning, error) {
	root := filepath.Clean(cfg.Build.ContentDir)
	src, err := DiscoverSource(root)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}
	contentRoot := filepath.ToSlash(root)

	workers := runtime.GOMAXPROCS(0)
	jobs := make(chan SourceFile)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sf := range jobs {
				results <- parseFile(cfg, contentRoot, src, sf)
			}
		}()
	}

	go func() {
		for _, f := range src.Files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var (
		pages    []*content.Page
		sections []*content.Section
		warns    []Warning
		invalid  []error
		fatal    error
	)
	for r := range results {
		// keep draining so the workers can exit
		if fatal != nil {
			continue
		}
		warns = append(warns, r.Warns...)
		switch {
		case r.Err != nil && errors.Is(r.Err, domainerr.ErrFrontMatter):
			invalid = append(invalid, r.Err)
		case r.Err != nil:
			fatal = r.Err
		case r.Skip:
		case r.Page != nil:
			pages = append(pages, r.Page)
		case r.Section != nil:
			sections = append(sections, r.Section)
		}
	}
	if fatal != nil {
		return nil, nil, fmt.Errorf("ingest: %w", fatal)
	}
	if len(invalid) > 0 {
		sort.Slice(invalid, func(i, j int) bool { return invalid[i].Error() < invalid[j].Error() })
		return nil, warns, errors.Join(invalid...)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].File.Path < pages[j].File.Path })
	sort.Slice(sections, func(i, j int) bool { return sections[i].File.Path < sections[j].File.Path })
	sort.Slice(warns, func(i, j int) bool { return warns[i].Path < warns[j].Path })

	lib := library.New(cfg, contentRoot)
	for _, s := range sections {
		lib.InsertSection(s)
	}
	for _, lang := range cfg.LanguageCodes() {
		if _, ok := lib.IndexSection(lang); !ok {
			lib.InsertSection(content.DefaultIndex(contentRoot, lang, cfg))
		}
	}
	for _, p := range pages {
		lib.InsertPage(p)
	}
	return lib, warns, nil
}

func parseFile(cfg config.Config, contentRoot string, src Source, sf SourceFile) Result {
	raw, err := os.ReadFile(filepath.FromSlash(sf.Path))
	if err != nil {
		return Result{Err: err}
	}
	if sf.Section {
		return parseSection(cfg, contentRoot, src, sf.Path, raw)
	}
	return parsePage(cfg, contentRoot, src, sf.Path, raw)
}

func parseSection(cfg config.Config, contentRoot string, src Source, file string, raw []byte) Result {
	meta, body, err := ParseSectionFrontMatter(file, raw)
	if err != nil {
		return Result{Err: err}
	}
	if meta.Draft && !cfg.Build.IncludeDrafts {
		return Result{Skip: true}
	}

	s, err := content.NewSection(content.NewSectionInfo(file, contentRoot), meta, body, cfg)
	if err != nil {
		return Result{Err: &domainerr.FrontMatterError{Path: file, Err: err}}
	}
	if s.File.ColocatedPath != "" {
		s.Assets = src.Assets[path.Dir(file)]
	}
	return Result{Section: s}
}

func parsePage(cfg config.Config, contentRoot string, src Source, file string, raw []byte) Result {
	meta, body, err := ParsePageFrontMatter(file, raw)
	if err != nil {
		return Result{Err: err}
	}
	if meta.Draft && !cfg.Build.IncludeDrafts {
		return Result{Skip: true}
	}

	p, err := content.NewPage(content.NewPageInfo(file, contentRoot), meta, body, cfg)
	if err != nil {
		return Result{Err: &domainerr.FrontMatterError{Path: file, Err: err}}
	}
	if err := checkTaxonomies(cfg, p); err != nil {
		return Result{Err: &domainerr.FrontMatterError{Path: file, Err: err}}
	}
	if p.File.ColocatedPath != "" {
		p.Assets = src.Assets[path.Dir(file)]
	}

	var warns []Warning
	if p.Meta.Title == "" {
		warns = append(warns, Warning{Path: file, Msg: "title is empty"})
	}
	return Result{Page: p, Warns: warns}
}

// checkTaxonomies rejects terms filed under a taxonomy the page language does
// not declare. The library treats those as a programming error.
func checkTaxonomies(cfg config.Config, p *content.Page) error {
	declared := make(map[string]bool)
	for _, t := range cfg.TaxonomiesFor(p.Lang) {
		declared[t.Name] = true
	}
	ve := &domainerr.ValidationError{}
	names := make([]string, 0, len(p.Meta.Taxonomies))
	for name := range p.Meta.Taxonomies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !declared[name] {
			ve.Add("taxonomies."+name, fmt.Sprintf("taxonomy is not declared for language %q", p.Lang))
		}
	}
	if ve.HasAny() {
		return ve
	}
	return nil
}
