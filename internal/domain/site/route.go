package site

import (
	"fmt"
	"path"
	"strings"
)

type RouteKind string

const (
	RoutePage         RouteKind = "page"
	RouteSection      RouteKind = "section"
	RouteTaxonomyList RouteKind = "taxonomy_list"
	RouteTaxonomyTerm RouteKind = "taxonomy_term"
	RouteAlias        RouteKind = "alias"
	RouteRedirect     RouteKind = "redirect"
	RouteNotFound     RouteKind = "404"
	RouteAsset        RouteKind = "asset"
)

// Route is one file of the output tree.
//
// Key is the source file for pages, sections and assets, and the taxonomy
// slug for taxonomy routes. Target is the permalink a redirect points to,
// or the document owning an asset.
type Route struct {
	Kind    RouteKind
	Key     string
	Lang    string
	Term    string
	Page    int
	Target  string
	OutPath string
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Key != "" {
		parts = append(parts, "key="+r.Key)
	}
	if r.Lang != "" {
		parts = append(parts, "lang="+r.Lang)
	}
	if r.Term != "" {
		parts = append(parts, "term="+r.Term)
	}
	if r.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", r.Page))
	}
	if r.Target != "" {
		parts = append(parts, "target="+r.Target)
	}
	if r.OutPath != "" {
		parts = append(parts, "out="+r.OutPath)
	}
	return strings.Join(parts, " ")
}

// OutPath maps a URL path to the file serving it, relative to the output
// directory. Paths whose last segment has an extension name the file itself.
//
//	/           -> index.html
//	/blog/a/    -> blog/a/index.html
//	/feed.xml   -> feed.xml
func OutPath(urlPath string) string {
	clean := strings.Trim(path.Clean("/"+urlPath), "/")
	if clean == "" {
		return "index.html"
	}
	if !strings.HasSuffix(urlPath, "/") && path.Ext(clean) != "" {
		return clean
	}
	return clean + "/index.html"
}
