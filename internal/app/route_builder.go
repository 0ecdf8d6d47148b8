package app

import (
	"path"
	"sort"
	"strings"

	"kiln/internal/domain/site"
	"kiln/internal/library"
	"kiln/internal/pagination"
)

// RouteBuilder plans the output tree of a populated library.
type RouteBuilder struct {
	Lib        *library.Library
	Taxonomies []library.Taxonomy
}

type Plan struct {
	Routes []site.Route
	// Sections holds the paginator of every rendered section by source path,
	// Terms the paginator of every term by TermKey.
	Sections map[string]*pagination.Paginator
	Terms    map[string]*pagination.Paginator
}

func TermKey(lang, taxonomy, term string) string {
	return lang + "/" + taxonomy + "/" + term
}

func (rb *RouteBuilder) Build() Plan {
	plan := Plan{
		Sections: make(map[string]*pagination.Paginator),
		Terms:    make(map[string]*pagination.Paginator),
	}
	plan.Routes = append(plan.Routes, rb.BuildPageRoutes()...)
	plan.Routes = append(plan.Routes, rb.BuildSectionRoutes(plan.Sections)...)
	plan.Routes = append(plan.Routes, rb.BuildTaxonomyRoutes(plan.Terms)...)
	plan.Routes = append(plan.Routes, rb.BuildAliasRoutes()...)
	plan.Routes = append(plan.Routes, site.Route{Kind: site.RouteNotFound, OutPath: "404.html"})
	return plan
}

func (rb *RouteBuilder) BuildPageRoutes() []site.Route {
	var routes []site.Route
	for _, p := range rb.Lib.PagesByPath(rb.Lib.PagePaths()) {
		if !p.ShouldRender() {
			continue
		}
		routes = append(routes, site.Route{
			Kind:    site.RoutePage,
			Key:     p.File.Path,
			Lang:    p.Lang,
			OutPath: site.OutPath(p.Path),
		})
		routes = append(routes, assetRoutes(p.File.Path, p.Path, p.Assets)...)
	}
	return routes
}

// BuildSectionRoutes emits one route per pager of every rendered section and
// records the paginators in pagers. Sections with redirect_to only get the
// redirect.
func (rb *RouteBuilder) BuildSectionRoutes(pagers map[string]*pagination.Paginator) []site.Route {
	cfg := rb.Lib.Config()
	var routes []site.Route
	for _, s := range rb.Lib.SectionsByPath(rb.Lib.SectionPaths()) {
		if s.Meta.RedirectTo != "" {
			target := s.Meta.RedirectTo
			if !isAbsoluteURL(target) {
				target = cfg.MakePermalink(target)
			}
			routes = append(routes, site.Route{
				Kind:    site.RouteRedirect,
				Key:     s.File.Path,
				Lang:    s.Lang,
				Target:  target,
				OutPath: site.OutPath(s.Path),
			})
			continue
		}
		if !s.ShouldRender() {
			continue
		}

		p := pagination.FromSection(s, rb.Lib)
		pagers[s.File.Path] = p
		for _, pager := range p.Pagers {
			routes = append(routes, site.Route{
				Kind:    site.RouteSection,
				Key:     s.File.Path,
				Lang:    s.Lang,
				Page:    pager.Index,
				OutPath: site.OutPath(pager.Path),
			})
		}
		if alias, ok := p.FirstPagerAlias(); ok {
			routes = append(routes, site.Route{
				Kind:    site.RouteRedirect,
				Key:     s.File.Path,
				Lang:    s.Lang,
				Target:  s.Permalink,
				OutPath: site.OutPath(alias),
			})
		}
		routes = append(routes, assetRoutes(s.File.Path, s.Path, s.Assets)...)
	}
	return routes
}

func (rb *RouteBuilder) BuildTaxonomyRoutes(pagers map[string]*pagination.Paginator) []site.Route {
	var routes []site.Route
	for _, taxo := range rb.Taxonomies {
		if !taxo.Kind.ShouldRender() {
			continue
		}
		routes = append(routes, site.Route{
			Kind:    site.RouteTaxonomyList,
			Key:     taxo.Slug,
			Lang:    taxo.Lang,
			OutPath: site.OutPath(taxo.Path),
		})
		for _, term := range taxo.Items {
			p := pagination.FromTaxonomy(taxo, term, rb.Lib)
			pagers[TermKey(taxo.Lang, taxo.Slug, term.Slug)] = p
			for _, pager := range p.Pagers {
				routes = append(routes, site.Route{
					Kind:    site.RouteTaxonomyTerm,
					Key:     taxo.Slug,
					Lang:    taxo.Lang,
					Term:    term.Slug,
					Page:    pager.Index,
					OutPath: site.OutPath(pager.Path),
				})
			}
			if alias, ok := p.FirstPagerAlias(); ok {
				routes = append(routes, site.Route{
					Kind:    site.RouteRedirect,
					Key:     taxo.Slug,
					Lang:    taxo.Lang,
					Term:    term.Slug,
					Target:  term.Permalink,
					OutPath: site.OutPath(alias),
				})
			}
		}
	}
	return routes
}

func (rb *RouteBuilder) BuildAliasRoutes() []site.Route {
	aliases := rb.Lib.Aliases()
	keys := make([]string, 0, len(aliases))
	for a := range aliases {
		keys = append(keys, a)
	}
	sort.Strings(keys)

	routes := make([]site.Route, 0, len(keys))
	for _, a := range keys {
		routes = append(routes, site.Route{
			Kind:    site.RouteAlias,
			Key:     a,
			Target:  aliases[a],
			OutPath: site.OutPath(a),
		})
	}
	return routes
}

// assetRoutes copies colocated files next to the document of owner.
func assetRoutes(owner, urlPath string, assets []string) []site.Route {
	dir := strings.Trim(urlPath, "/")
	routes := make([]site.Route, 0, len(assets))
	for _, a := range assets {
		routes = append(routes, site.Route{
			Kind:    site.RouteAsset,
			Key:     a,
			Target:  owner,
			OutPath: path.Join(dir, path.Base(a)),
		})
	}
	return routes
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
