package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/domain/config"
	"kiln/internal/domain/site"
	"kiln/internal/ingest"
)

func buildPlan(t *testing.T, files map[string]string) (Plan, string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	cfg := config.Default()
	cfg.Site.BaseURL = "https://example.com"
	cfg.Build.ContentDir = dir
	cfg.Taxonomies = []config.TaxonomyConfig{{Name: "tags", PaginateBy: 1}}
	cfg.Resolve()

	lib, _, err := ingest.Ingest(cfg)
	require.NoError(t, err)
	lib.PopulateSections()
	taxonomies, err := lib.FindTaxonomies()
	require.NoError(t, err)

	rb := RouteBuilder{Lib: lib, Taxonomies: taxonomies}
	return rb.Build(), filepath.ToSlash(dir)
}

func outPaths(plan Plan, kind site.RouteKind) []string {
	var out []string
	for _, r := range plan.Routes {
		if r.Kind == kind {
			out = append(out, r.OutPath)
		}
	}
	return out
}

func TestRouteBuilder(t *testing.T) {
	plan, root := buildPlan(t, map[string]string{
		"blog/_index.md":     "+++\npaginate_by = 1\nsort_by = \"date\"\n+++\n",
		"blog/a.md":          "+++\ntitle = \"A\"\ndate = 2024-01-01\naliases = [\"old-a\"]\n[taxonomies]\ntags = [\"Go\", \"Web\"]\n+++\n",
		"blog/b/index.md":    "+++\ntitle = \"B\"\ndate = 2024-02-01\n[taxonomies]\ntags = [\"go\"]\n+++\n",
		"blog/b/diagram.png": "png",
		"hidden.md":          "+++\ntitle = \"H\"\nrender = false\n+++\n",
		"moved/_index.md":    "+++\nredirect_to = \"blog/\"\n+++\n",
		"private/_index.md":  "+++\nrender = false\n+++\n",
	})

	assert.ElementsMatch(t, []string{"blog/a/index.html", "blog/b/index.html"}, outPaths(plan, site.RoutePage))
	assert.ElementsMatch(t, []string{"index.html", "blog/index.html", "blog/page/2/index.html"}, outPaths(plan, site.RouteSection))
	assert.Equal(t, []string{"blog/b/diagram.png"}, outPaths(plan, site.RouteAsset))
	assert.Equal(t, []string{"tags/index.html"}, outPaths(plan, site.RouteTaxonomyList))
	assert.ElementsMatch(t, []string{
		"tags/go/index.html", "tags/go/page/2/index.html", "tags/web/index.html",
	}, outPaths(plan, site.RouteTaxonomyTerm))
	assert.Equal(t, []string{"old-a/index.html"}, outPaths(plan, site.RouteAlias))
	assert.Equal(t, []string{"404.html"}, outPaths(plan, site.RouteNotFound))

	redirects := map[string]string{}
	for _, r := range plan.Routes {
		if r.Kind == site.RouteRedirect {
			redirects[r.OutPath] = r.Target
		}
	}
	assert.Equal(t, map[string]string{
		"moved/index.html":           "https://example.com/blog/",
		"blog/page/1/index.html":     "https://example.com/blog/",
		"tags/go/page/1/index.html":  "https://example.com/tags/go/",
		"tags/web/page/1/index.html": "https://example.com/tags/web/",
	}, redirects)

	require.Len(t, plan.Terms, 2)
	assert.Equal(t, 2, plan.Terms[TermKey("en", "tags", "go")].TotalPages())
	assert.Len(t, plan.Sections, 2)
	assert.Contains(t, plan.Sections, root+"/_index.md")
	assert.Contains(t, plan.Sections, root+"/blog/_index.md")
}
