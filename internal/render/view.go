package render

import (
	"html/template"
	"time"

	"kiln/internal/domain/content"
	"kiln/internal/pagination"
)

type Link struct {
	Title     string
	Permalink string
}

type SiteView struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
	Lang        string
	Languages   []string
	LiveReload  bool
	Generated   time.Time
}

type PageView struct {
	Key         string
	Title       string
	Description string
	Permalink   string
	Path        string
	Lang        string
	Date        time.Time
	Updated     time.Time
	Weight      *int
	Content     template.HTML
	Summary     template.HTML
	TOC         []content.Heading
	WordCount   int
	ReadingTime int
	Authors     []string
	Extra       map[string]any

	Taxonomies   map[string][]Link
	Ancestors    []Link
	Lower        *Link
	Higher       *Link
	Translations []Link
	Backlinks    []Link
	Assets       []string
}

type SectionView struct {
	Key         string
	Title       string
	Description string
	Permalink   string
	Path        string
	Lang        string
	Content     template.HTML
	TOC         []content.Heading
	WordCount   int
	ReadingTime int
	Extra       map[string]any

	Pages        []PageView
	Subsections  []Link
	Ancestors    []Link
	Translations []Link
	Backlinks    []Link
	Assets       []string
}

type TermView struct {
	Name      string
	Slug      string
	Permalink string
	Count     int
}

type TaxonomyView struct {
	Name      string
	Slug      string
	Lang      string
	Permalink string
}

type PageDoc struct {
	Site SiteView
	Page PageView
}

// SectionDoc is handed to section templates. Paginator is nil unless the
// section is paginated.
type SectionDoc struct {
	Site      SiteView
	Section   SectionView
	Paginator *pagination.Context[PageView]
}

type TaxonomyListDoc struct {
	Site     SiteView
	Taxonomy TaxonomyView
	Terms    []TermView
}

type TermDoc struct {
	Site      SiteView
	Taxonomy  TaxonomyView
	Term      TermView
	Pages     []PageView
	Paginator *pagination.Context[PageView]
}

type NotFoundDoc struct {
	Site SiteView
	Path string
}

type RedirectDoc struct {
	Target string
}
