// Package library holds the content graph of one build: every page and
// section keyed by its source path, plus the indices derived from them
// (aliases, translations, taxonomy terms and backlinks).
//
// Relationships between entries are stored as source paths and resolved
// through the maps at read time. Population is single-threaded; once
// PopulateSections has returned the graph is read-only until the next
// insertion.
package library

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"sort"

	"kiln/internal/domain/config"
	"kiln/internal/domain/content"
	domainerr "kiln/internal/domain/errors"
)

type set map[string]struct{}

func (s set) add(v string) { s[v] = struct{}{} }

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

type Library struct {
	cfg         config.Config
	contentRoot string

	Pages    map[string]*content.Page
	Sections map[string]*content.Section

	// alias or URL path -> source files claiming it
	reverseAliases map[string]set
	// canonical path -> every language version of it
	translations map[string]set
	// content-relative target -> source files linking to it
	backlinks map[string]set

	// lang -> taxonomy slug -> terms
	taxonomies map[string]map[string]*termIndex
	// lang -> taxonomy name -> taxonomy slug
	taxonomySlugs map[string]map[string]string
}

// Translation is one language version of a page or section.
type Translation struct {
	Lang      string
	Permalink string
	Title     string
	Path      string
}

// New returns an empty library for cfg. The taxonomy lookup is built here
// once, so cfg must already be resolved.
func New(cfg config.Config, contentRoot string) *Library {
	l := &Library{
		cfg:            cfg,
		contentRoot:    path.Clean(contentRoot),
		Pages:          make(map[string]*content.Page),
		Sections:       make(map[string]*content.Section),
		reverseAliases: make(map[string]set),
		translations:   make(map[string]set),
		backlinks:      make(map[string]set),
		taxonomies:     make(map[string]map[string]*termIndex),
		taxonomySlugs:  make(map[string]map[string]string),
	}
	for _, lang := range cfg.LanguageCodes() {
		l.taxonomies[lang] = make(map[string]*termIndex)
		l.taxonomySlugs[lang] = make(map[string]string)
		for _, t := range cfg.TaxonomiesFor(lang) {
			l.taxonomySlugs[lang][t.Name] = t.Slug
			l.taxonomies[lang][t.Slug] = newTermIndex()
		}
	}
	return l
}

func (l *Library) ContentRoot() string { return l.contentRoot }

func (l *Library) Config() config.Config { return l.cfg }

func (l *Library) insertReverseAliases(file string, entries []string) {
	for _, e := range entries {
		s, ok := l.reverseAliases[e]
		if !ok {
			s = make(set)
			l.reverseAliases[e] = s
		}
		s.add(file)
	}
}

func (l *Library) removeReverseAliases(file string) {
	for alias, files := range l.reverseAliases {
		delete(files, file)
		if len(files) == 0 {
			delete(l.reverseAliases, alias)
		}
	}
}

// InsertPage registers the page URL and aliases, records its taxonomy
// terms and stores it, replacing any page with the same source path.
// It panics when the page names a language or taxonomy the config does not
// declare; config validation rules that out before insertion.
func (l *Library) InsertPage(p *content.Page) {
	key := p.File.Path
	if _, ok := l.Pages[key]; ok {
		l.RemovePage(key)
	}

	l.insertReverseAliases(key, append([]string{p.Path}, p.Meta.Aliases...))

	if len(p.Meta.Taxonomies) > 0 {
		lookup, ok := l.taxonomySlugs[p.Lang]
		if !ok {
			panic(fmt.Sprintf("library: page %s has undeclared language %q", key, p.Lang))
		}
		names := make([]string, 0, len(p.Meta.Taxonomies))
		for name := range p.Meta.Taxonomies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			taxoSlug, ok := lookup[name]
			if !ok {
				panic(fmt.Sprintf("library: page %s uses taxonomy %q which is not declared for language %q", key, name, p.Lang))
			}
			terms := l.taxonomies[p.Lang][taxoSlug]
			for _, term := range p.Meta.Taxonomies[name] {
				terms.add(term, key)
			}
		}
	}

	l.Pages[key] = p
}

// InsertSection stores the section. Only rendered sections take part in
// collision detection since the others have no output URL.
func (l *Library) InsertSection(s *content.Section) {
	key := s.File.Path
	if _, ok := l.Sections[key]; ok {
		l.RemoveSection(key)
	}
	if s.Meta.Render {
		l.insertReverseAliases(key, append([]string{s.Path}, s.Meta.Aliases...))
	}
	l.Sections[key] = s
}

// RemovePage drops a page and everything it registered. It is a no-op for
// unknown paths.
func (l *Library) RemovePage(key string) {
	p, ok := l.Pages[key]
	if !ok {
		return
	}
	l.removeReverseAliases(key)
	for _, terms := range l.taxonomies[p.Lang] {
		terms.remove(key)
	}
	delete(l.Pages, key)
}

func (l *Library) RemoveSection(key string) {
	if _, ok := l.Sections[key]; !ok {
		return
	}
	l.removeReverseAliases(key)
	delete(l.Sections, key)
}

// FindPathCollisions returns every URL path or alias claimed by more than
// one file, ordered by path.
func (l *Library) FindPathCollisions() []domainerr.Collision {
	var out []domainerr.Collision
	for alias, files := range l.reverseAliases {
		if len(files) > 1 {
			out = append(out, domainerr.Collision{Path: alias, Files: files.sorted()})
		}
	}
	slices.SortFunc(out, func(a, b domainerr.Collision) int { return cmp.Compare(a.Path, b.Path) })
	return out
}

// CheckCollisions wraps FindPathCollisions into an error.
func (l *Library) CheckCollisions() error {
	if c := l.FindPathCollisions(); len(c) > 0 {
		return &domainerr.CollisionError{Items: c}
	}
	return nil
}

// Orphans returns pages without any enclosing section, by source path.
func (l *Library) Orphans() []*content.Page {
	var out []*content.Page
	for _, key := range l.PagePaths() {
		if p := l.Pages[key]; len(p.Ancestors) == 0 {
			out = append(out, p)
		}
	}
	return out
}

// FindTranslations lists every language version of canonical, by language.
// Translations are only recorded for multilingual sites.
func (l *Library) FindTranslations(canonical string) []Translation {
	var out []Translation
	for _, key := range l.translations[canonical].sorted() {
		if s, ok := l.Sections[key]; ok {
			out = append(out, Translation{Lang: s.Lang, Permalink: s.Permalink, Title: s.Meta.Title, Path: key})
		} else if p, ok := l.Pages[key]; ok {
			out = append(out, Translation{Lang: p.Lang, Permalink: p.Permalink, Title: p.Meta.Title, Path: key})
		}
	}
	slices.SortStableFunc(out, func(a, b Translation) int { return cmp.Compare(a.Lang, b.Lang) })
	return out
}

// PagePaths returns every page key in ascending order.
func (l *Library) PagePaths() []string {
	out := make([]string, 0, len(l.Pages))
	for k := range l.Pages {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (l *Library) SectionPaths() []string {
	out := make([]string, 0, len(l.Sections))
	for k := range l.Sections {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PagesByPath resolves keys to pages, skipping unknown ones.
func (l *Library) PagesByPath(keys []string) []*content.Page {
	out := make([]*content.Page, 0, len(keys))
	for _, k := range keys {
		if p, ok := l.Pages[k]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (l *Library) SectionsByPath(keys []string) []*content.Section {
	out := make([]*content.Section, 0, len(keys))
	for _, k := range keys {
		if s, ok := l.Sections[k]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Lookup resolves a path relative to the content directory, as written in
// an @/ link, to the permalink of the page or section stored there.
func (l *Library) Lookup(relative string) (string, bool) {
	key := path.Join(l.contentRoot, relative)
	if p, ok := l.Pages[key]; ok {
		return p.Permalink, true
	}
	if s, ok := l.Sections[key]; ok {
		return s.Permalink, true
	}
	return "", false
}

// IndexSection returns the root section of lang, if one was inserted.
func (l *Library) IndexSection(lang string) (*content.Section, bool) {
	s, ok := l.Sections[path.Join(l.contentRoot, indexFilename(l.cfg, lang))]
	return s, ok
}

// Aliases returns every alias declared by a rendered page or section,
// mapped to the permalink it redirects to.
func (l *Library) Aliases() map[string]string {
	out := make(map[string]string)
	for _, key := range l.PagePaths() {
		p := l.Pages[key]
		for _, a := range p.Meta.Aliases {
			out[a] = p.Permalink
		}
	}
	for _, key := range l.SectionPaths() {
		s := l.Sections[key]
		if !s.Meta.Render {
			continue
		}
		for _, a := range s.Meta.Aliases {
			out[a] = s.Permalink
		}
	}
	return out
}

func indexFilename(cfg config.Config, lang string) string {
	if lang == cfg.Site.DefaultLanguage {
		return "_index.md"
	}
	return "_index." + lang + ".md"
}

// Page looks a page up by source path.
func (l *Library) Page(key string) (*content.Page, bool) {
	p, ok := l.Pages[key]
	return p, ok
}
