package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/slug"
)

func TestFindTaxonomiesMergesBySlug(t *testing.T) {
	cases := []struct {
		name     string
		strategy slug.Strategy
		want     []string
		pages    []int
	}{
		{name: "on", strategy: slug.On, want: []string{"ecole"}, pages: []int{4}},
		{name: "safe", strategy: slug.Safe, want: []string{"Ecole", "ecole", "École", "école"}, pages: []int{1, 1, 1, 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Slugify.Taxonomies = tc.strategy
			cfg.Resolve()
			lib := New(cfg, root)
			lib.InsertPage(newPage(t, cfg, "content/a.md", withTags("Ecole")))
			lib.InsertPage(newPage(t, cfg, "content/b.md", withTags("École")))
			lib.InsertPage(newPage(t, cfg, "content/c.md", withTags("ecole")))
			lib.InsertPage(newPage(t, cfg, "content/d.md", withTags("école")))

			taxonomies, err := lib.FindTaxonomies()
			require.NoError(t, err)
			tags, ok := Find(taxonomies, "en", "tags")
			require.True(t, ok)

			var slugs []string
			var counts []int
			for _, item := range tags.Items {
				slugs = append(slugs, item.Slug)
				counts = append(counts, len(item.Pages))
			}
			assert.Equal(t, tc.want, slugs)
			assert.Equal(t, tc.pages, counts)
			assert.Equal(t, "Ecole", tags.Items[0].Name)
		})
	}
}

func TestFindTaxonomiesPathsAndOrder(t *testing.T) {
	cfg := testConfig(t, "fr")
	lib := New(cfg, root)
	lib.InsertPage(newPage(t, cfg, "content/old.md", withTags("Go", "Web"), withDate("2020-01-01")))
	lib.InsertPage(newPage(t, cfg, "content/new.md", withTags("go"), withDate("2023-01-01")))
	lib.InsertPage(newPage(t, cfg, "content/undated.md", withTags("Go")))
	lib.InsertPage(newPage(t, cfg, "content/post.fr.md", withTags("Rust")))

	taxonomies, err := lib.FindTaxonomies()
	require.NoError(t, err)
	require.Len(t, taxonomies, 3)

	// ordered by language then slug
	assert.Equal(t, "categories", taxonomies[0].Slug)
	assert.Empty(t, taxonomies[0].Items)
	assert.Equal(t, "tags", taxonomies[1].Slug)
	assert.Equal(t, "fr", taxonomies[2].Lang)

	tags := taxonomies[1]
	assert.Equal(t, "/tags/", tags.Path)
	assert.Equal(t, "https://example.com/tags/", tags.Permalink)
	require.Len(t, tags.Items, 2)

	goTerm, ok := tags.Term("go")
	require.True(t, ok)
	assert.Equal(t, "Go", goTerm.Name)
	assert.Equal(t, "/tags/go/", goTerm.Path)
	assert.Equal(t, "https://example.com/tags/go/", goTerm.Permalink)
	assert.Equal(t, []string{"content/new.md", "content/old.md", "content/undated.md"}, goTerm.Pages)

	web, ok := tags.Term("web")
	require.True(t, ok)
	assert.Equal(t, []string{"content/old.md"}, web.Pages)

	_, ok = tags.Term("python")
	assert.False(t, ok)

	frTags := taxonomies[2]
	assert.Equal(t, "/fr/tags/", frTags.Path)
	require.Len(t, frTags.Items, 1)
	assert.Equal(t, "https://example.com/fr/tags/rust/", frTags.Items[0].Permalink)
}

func TestRemovePageDropsTerms(t *testing.T) {
	cfg := testConfig(t)
	lib := New(cfg, root)
	lib.InsertPage(newPage(t, cfg, "content/a.md", withTags("go")))
	lib.InsertPage(newPage(t, cfg, "content/b.md", withTags("go", "rust")))
	lib.RemovePage("content/b.md")

	taxonomies, err := lib.FindTaxonomies()
	require.NoError(t, err)
	tags, ok := Find(taxonomies, "en", "tags")
	require.True(t, ok)
	require.Len(t, tags.Items, 1)
	assert.Equal(t, []string{"content/a.md"}, tags.Items[0].Pages)
}
