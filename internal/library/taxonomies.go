package library

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"kiln/internal/domain/config"
	"kiln/internal/domain/content"
	"kiln/internal/slug"
)

// termIndex keeps the raw terms of one taxonomy in first-seen order with the
// pages tagged by each.
type termIndex struct {
	order []string
	pages map[string][]string
}

func newTermIndex() *termIndex {
	return &termIndex{pages: make(map[string][]string)}
}

func (t *termIndex) add(term, page string) {
	if _, ok := t.pages[term]; !ok {
		t.order = append(t.order, term)
	}
	t.pages[term] = append(t.pages[term], page)
}

func (t *termIndex) remove(page string) {
	kept := t.order[:0]
	for _, term := range t.order {
		pages := slices.DeleteFunc(t.pages[term], func(p string) bool { return p == page })
		if len(pages) == 0 {
			delete(t.pages, term)
			continue
		}
		t.pages[term] = pages
		kept = append(kept, term)
	}
	t.order = kept
}

type TaxonomyTerm struct {
	Name      string
	Slug      string
	Path      string
	Permalink string
	// Pages sorted newest first, undated pages last.
	Pages []string
}

type Taxonomy struct {
	Kind      config.TaxonomyConfig
	Lang      string
	Slug      string
	Path      string
	Permalink string
	Items     []TaxonomyTerm
}

// Term finds an item by its slug.
func (t Taxonomy) Term(termSlug string) (TaxonomyTerm, bool) {
	i, ok := slices.BinarySearchFunc(t.Items, termSlug, func(item TaxonomyTerm, s string) int {
		return cmp.Compare(item.Slug, s)
	})
	if !ok {
		return TaxonomyTerm{}, false
	}
	return t.Items[i], true
}

// FindTaxonomies materializes every declared taxonomy of every language,
// ordered by language then slug. Terms whose slugs match are merged and keep
// the first name seen.
func (l *Library) FindTaxonomies() ([]Taxonomy, error) {
	langs := make([]string, 0, len(l.taxonomies))
	for lang := range l.taxonomies {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var out []Taxonomy
	for _, lang := range langs {
		bySlug := l.taxonomies[lang]
		slugs := make([]string, 0, len(bySlug))
		for s := range bySlug {
			slugs = append(slugs, s)
		}
		sort.Strings(slugs)

		for _, taxoSlug := range slugs {
			kind, ok := l.taxonomyConfig(lang, taxoSlug)
			if !ok {
				return nil, fmt.Errorf("library: taxonomy %q of language %q has no config entry", taxoSlug, lang)
			}
			out = append(out, l.buildTaxonomy(kind, lang, bySlug[taxoSlug]))
		}
	}
	return out, nil
}

func (l *Library) taxonomyConfig(lang, taxoSlug string) (config.TaxonomyConfig, bool) {
	for _, t := range l.cfg.TaxonomiesFor(lang) {
		if t.Slug == taxoSlug {
			return t, true
		}
	}
	return config.TaxonomyConfig{}, false
}

func (l *Library) buildTaxonomy(kind config.TaxonomyConfig, lang string, terms *termIndex) Taxonomy {
	taxo := Taxonomy{Kind: kind, Lang: lang, Slug: kind.Slug}
	if lang != l.cfg.Site.DefaultLanguage {
		taxo.Path = "/" + lang + "/" + kind.Slug + "/"
	} else {
		taxo.Path = "/" + kind.Slug + "/"
	}
	taxo.Permalink = l.cfg.MakePermalink(taxo.Path)

	grouped := make(map[string]*TaxonomyTerm)
	seen := make(map[string]set)
	var slugs []string
	for _, name := range terms.order {
		termSlug := slug.Paths(name, l.cfg.Slugify.Taxonomies)
		item, ok := grouped[termSlug]
		if !ok {
			item = &TaxonomyTerm{
				Name: name,
				Slug: termSlug,
				Path: taxo.Path + termSlug + "/",
			}
			item.Permalink = l.cfg.MakePermalink(item.Path)
			grouped[termSlug] = item
			seen[termSlug] = make(set)
			slugs = append(slugs, termSlug)
		}
		for _, p := range terms.pages[name] {
			if _, dup := seen[termSlug][p]; dup {
				continue
			}
			seen[termSlug].add(p)
			item.Pages = append(item.Pages, p)
		}
	}

	sort.Strings(slugs)
	taxo.Items = make([]TaxonomyTerm, 0, len(slugs))
	for _, s := range slugs {
		item := grouped[s]
		dated, undated := SortPages(l.PagesByPath(item.Pages), content.SortDate)
		item.Pages = append(dated, undated...)
		taxo.Items = append(taxo.Items, *item)
	}
	return taxo
}

// Find returns the taxonomy of lang declared under name.
func Find(taxonomies []Taxonomy, lang, name string) (Taxonomy, bool) {
	for _, t := range taxonomies {
		if t.Lang == lang && t.Kind.Name == name {
			return t, true
		}
	}
	return Taxonomy{}, false
}
