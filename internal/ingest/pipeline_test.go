package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/domain/config"
	domainerr "kiln/internal/domain/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func ingestConfig(t *testing.T, contentDir string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site.BaseURL = "https://example.com"
	cfg.Build.ContentDir = contentDir
	cfg.Taxonomies = []config.TaxonomyConfig{{Name: "tags"}}
	cfg.Languages = map[string]config.LanguageConfig{"fr": {}}
	cfg.Resolve()
	return cfg
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"blog/_index.md":        "+++\ntitle = \"Blog\"\nsort_by = \"date\"\n+++\n",
		"blog/first.md":         "+++\ntitle = \"First\"\ndate = 2024-01-01\n[taxonomies]\ntags = [\"go\"]\n+++\nHello",
		"blog/draft.md":         "+++\ntitle = \"WIP\"\ndraft = true\n+++\n",
		"blog/bundle/index.md":  "---\ntitle: Bundle\n---\n",
		"blog/bundle/photo.jpg": "jpg",
		"blog/bundle/.DS_Store": "junk",
		"blog/first.fr.md":      "+++\ntitle = \"Premier\"\n+++\n",
		"notitle.md":            "just text",
		".hidden/ignored.md":    "+++\n+++\n",
	})
	cfg := ingestConfig(t, dir)

	lib, warns, err := Ingest(cfg)
	require.NoError(t, err)

	root := filepath.ToSlash(dir)
	assert.ElementsMatch(t, []string{
		root + "/blog/first.md",
		root + "/blog/first.fr.md",
		root + "/blog/bundle/index.md",
		root + "/notitle.md",
	}, lib.PagePaths())

	// both languages get a root section even without an _index file
	assert.ElementsMatch(t, []string{
		root + "/_index.md",
		root + "/_index.fr.md",
		root + "/blog/_index.md",
	}, lib.SectionPaths())

	bundle := lib.Pages[root+"/blog/bundle/index.md"]
	assert.Equal(t, []string{root + "/blog/bundle/photo.jpg"}, bundle.Assets)
	assert.Equal(t, "/blog/bundle/", bundle.Path)

	first := lib.Pages[root+"/blog/first.md"]
	assert.Equal(t, "Hello", first.RawContent)
	assert.Equal(t, "https://example.com/blog/first/", first.Permalink)
	assert.Equal(t, "fr", lib.Pages[root+"/blog/first.fr.md"].Lang)

	require.Len(t, warns, 1)
	assert.Equal(t, root+"/notitle.md", warns[0].Path)

	lib.PopulateSections()
	assert.Equal(t, []string{root + "/blog/first.md"}, lib.Sections[root+"/blog/_index.md"].Pages)
	assert.Equal(t, []string{root + "/blog/bundle/index.md"}, lib.Sections[root+"/blog/_index.md"].IgnoredPages)
}

func TestIngestIncludeDrafts(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"draft.md": "+++\ntitle = \"WIP\"\ndraft = true\n+++\n",
	})
	cfg := ingestConfig(t, dir)
	cfg.Build.IncludeDrafts = true

	lib, _, err := Ingest(cfg)
	require.NoError(t, err)
	assert.Len(t, lib.Pages, 1)
}

func TestIngestReportsEveryInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.md":    "+++\nslug = \"\"\n+++\n",
		"b.md":    "+++\n[taxonomies]\nauthors = [\"me\"]\n+++\n",
		"c.de.md": "+++\ntitle = \"Hallo\"\n+++\n",
		"ok.md":   "+++\ntitle = \"ok\"\n+++\n",
	})

	_, _, err := Ingest(ingestConfig(t, dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerr.ErrFrontMatter)
	assert.Contains(t, err.Error(), "a.md")
	assert.Contains(t, err.Error(), "authors")
	assert.Contains(t, err.Error(), "c.de.md")
}

func TestIngestMissingContentDir(t *testing.T) {
	_, _, err := Ingest(ingestConfig(t, filepath.Join(t.TempDir(), "nope")))
	require.Error(t, err)
}
