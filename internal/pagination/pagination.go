// Package pagination splits the page list of a section or taxonomy term into
// fixed-size pagers.
package pagination

import (
	"strconv"

	"kiln/internal/domain/content"
	"kiln/internal/library"
)

// PageSource resolves the page keys stored in sections and terms.
type PageSource interface {
	Page(key string) (*content.Page, bool)
}

type Pager struct {
	// Index is 1-based.
	Index     int
	Permalink string
	Path      string
	// Pages indexes into Paginator.Pages.
	Pages []int
}

type Paginator struct {
	// Pages are the keys of every rendered page, in listing order.
	Pages        []string
	Pagers       []Pager
	PaginateBy   int
	PaginatePath string
	Permalink    string
	Path         string
}

// FromSection paginates the pages of s. A section without paginate_by gets
// a single pager holding everything.
func FromSection(s *content.Section, src PageSource) *Paginator {
	p := &Paginator{
		PaginateBy:   s.Meta.PaginateBy,
		PaginatePath: s.Meta.PaginatePath,
		Permalink:    s.Permalink,
		Path:         s.Path,
	}
	p.fill(s.Pages, s.Meta.PaginateReversed, src)
	return p
}

// FromTaxonomy paginates one term of taxo.
func FromTaxonomy(taxo library.Taxonomy, term library.TaxonomyTerm, src PageSource) *Paginator {
	p := &Paginator{
		PaginateBy:   taxo.Kind.PaginateBy,
		PaginatePath: taxo.Kind.PaginatePath,
		Permalink:    term.Permalink,
		Path:         term.Path,
	}
	p.fill(term.Pages, false, src)
	return p
}

func (p *Paginator) fill(keys []string, reversed bool, src PageSource) {
	for _, k := range keys {
		if page, ok := src.Page(k); ok && page.ShouldRender() {
			p.Pages = append(p.Pages, k)
		}
	}
	if reversed {
		for i, j := 0, len(p.Pages)-1; i < j; i, j = i+1, j-1 {
			p.Pages[i], p.Pages[j] = p.Pages[j], p.Pages[i]
		}
	}

	size := p.PaginateBy
	if size <= 0 {
		size = max(len(p.Pages), 1)
	}

	for start := 0; start < len(p.Pages); start += size {
		end := min(start+size, len(p.Pages))
		indices := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			indices = append(indices, i)
		}
		p.Pagers = append(p.Pagers, p.pager(len(p.Pagers)+1, indices))
	}

	// the first pager always exists so the listing has a landing page
	if len(p.Pagers) == 0 {
		p.Pagers = append(p.Pagers, p.pager(1, nil))
	}
}

func (p *Paginator) pager(index int, pages []int) Pager {
	if index == 1 {
		return Pager{Index: 1, Permalink: p.Permalink, Path: p.Path, Pages: pages}
	}
	suffix := strconv.Itoa(index) + "/"
	if p.PaginatePath != "" {
		suffix = p.PaginatePath + "/" + suffix
	}
	return Pager{
		Index:     index,
		Permalink: withSlash(p.Permalink) + suffix,
		Path:      withSlash(p.Path) + suffix,
		Pages:     pages,
	}
}

func withSlash(s string) string {
	if len(s) == 0 || s[len(s)-1] != '/' {
		return s + "/"
	}
	return s
}

// FirstPagerAlias is the path the first pager would have if it were
// numbered like the others. Paginated listings redirect it to the base path.
func (p *Paginator) FirstPagerAlias() (string, bool) {
	if p.PaginateBy <= 0 {
		return "", false
	}
	suffix := "1/"
	if p.PaginatePath != "" {
		suffix = p.PaginatePath + "/" + suffix
	}
	return withSlash(p.Path) + suffix, true
}

// TotalPages counts the rendered pages across every pager.
func (p *Paginator) TotalPages() int { return len(p.Pages) }

// Context is what a listing template sees for one pager. Previous and Next
// are empty on the first and last pager.
type Context[T any] struct {
	PaginateBy   int
	First        string
	Last         string
	Previous     string
	Next         string
	BaseURL      string
	TotalPages   int
	NumberPagers int
	CurrentIndex int
	Pages        []T
}

// BuildContext assembles the template context of pager. Pages come from
// cache, keyed by source path; keys missing from it are skipped.
func BuildContext[T any](p *Paginator, pager Pager, cache map[string]T) Context[T] {
	i := pager.Index - 1
	ctx := Context[T]{
		PaginateBy:   p.PaginateBy,
		First:        p.Permalink,
		Last:         p.Pagers[len(p.Pagers)-1].Permalink,
		TotalPages:   len(p.Pages),
		NumberPagers: len(p.Pagers),
		CurrentIndex: pager.Index,
		BaseURL:      p.Permalink,
	}
	if p.PaginatePath != "" {
		ctx.BaseURL = withSlash(p.Permalink) + p.PaginatePath + "/"
	}
	if i > 0 {
		ctx.Previous = p.Pagers[i-1].Permalink
	}
	if i < len(p.Pagers)-1 {
		ctx.Next = p.Pagers[i+1].Permalink
	}

	ctx.Pages = make([]T, 0, len(pager.Pages))
	for _, idx := range pager.Pages {
		if v, ok := cache[p.Pages[idx]]; ok {
			ctx.Pages = append(ctx.Pages, v)
		}
	}
	return ctx
}
