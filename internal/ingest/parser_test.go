package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/domain/content"
	domainerr "kiln/internal/domain/errors"
)

func TestParsePageFrontMatterTOML(t *testing.T) {
	raw := []byte(`+++
title = " Hello "
date = 2024-01-02
updated = 2024-02-03T10:00:00
weight = 3
aliases = ["old/hello", "/feed.xml"]
render = false

[taxonomies]
tags = ["Go", "Web"]

[extra]
mood = "calm"
+++

Body text.
`)
	meta, body, err := ParsePageFrontMatter("content/hello.md", raw)
	require.NoError(t, err)

	assert.Equal(t, "Hello", meta.Title)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), meta.Date)
	assert.Equal(t, time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC), meta.Updated)
	require.NotNil(t, meta.Weight)
	assert.Equal(t, 3, *meta.Weight)
	assert.Equal(t, []string{"/old/hello/", "/feed.xml"}, meta.Aliases)
	assert.False(t, meta.Render)
	assert.True(t, meta.InSearchIndex)
	assert.Equal(t, map[string][]string{"tags": {"Go", "Web"}}, meta.Taxonomies)
	assert.Equal(t, "calm", meta.Extra["mood"])
	assert.Equal(t, "Body text.\n", body)
}

func TestParsePageFrontMatterYAML(t *testing.T) {
	raw := []byte(`---
title: Hello
date: 2024-01-02T08:30:00+02:00
slug: custom
draft: true
---
Body`)
	meta, body, err := ParsePageFrontMatter("content/hello.md", raw)
	require.NoError(t, err)

	assert.Equal(t, "custom", meta.Slug)
	assert.True(t, meta.Draft)
	assert.True(t, meta.Date.Equal(time.Date(2024, 1, 2, 6, 30, 0, 0, time.UTC)))
	assert.Nil(t, meta.Weight)
	assert.Equal(t, "Body", body)
}

func TestParsePageFrontMatterMissing(t *testing.T) {
	meta, body, err := ParsePageFrontMatter("content/plain.md", []byte("# Just markdown\n"))
	require.NoError(t, err)
	assert.Equal(t, content.DefaultPageFrontMatter(), meta)
	assert.Equal(t, "# Just markdown\n", body)
}

func TestParsePageFrontMatterInvalid(t *testing.T) {
	raw := []byte(`+++
slug = ""
path = "  "
date = "last tuesday"

[taxonomies]
tags = ["ok", ""]
+++
`)
	_, _, err := ParsePageFrontMatter("content/bad.md", raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerr.ErrFrontMatter)
	assert.ErrorIs(t, err, domainerr.ErrInvalid)

	var fe *domainerr.FrontMatterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "content/bad.md", fe.Path)

	var ve *domainerr.ValidationError
	require.ErrorAs(t, err, &ve)
	var fields []string
	for _, item := range ve.Items {
		fields = append(fields, item.Field)
	}
	assert.ElementsMatch(t, []string{"slug", "path", "date", "taxonomies.tags[1]"}, fields)
}

func TestParsePageFrontMatterBrokenTOML(t *testing.T) {
	_, _, err := ParsePageFrontMatter("content/broken.md", []byte("+++\ntitle = \n+++\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerr.ErrFrontMatter)
}

func TestParseSectionFrontMatter(t *testing.T) {
	raw := []byte(`+++
title = "Blog"
sort_by = "date"
paginate_by = 5
paginate_path = "/p/"
transparent = true
page_template = "post.html"
aliases = ["articles"]
+++
Intro`)
	meta, body, err := ParseSectionFrontMatter("content/blog/_index.md", raw)
	require.NoError(t, err)

	assert.Equal(t, content.SortDate, meta.SortBy)
	assert.Equal(t, 5, meta.PaginateBy)
	assert.Equal(t, "p", meta.PaginatePath)
	assert.True(t, meta.Transparent)
	assert.True(t, meta.Render)
	assert.Equal(t, "post.html", meta.PageTemplate)
	assert.Equal(t, []string{"/articles/"}, meta.Aliases)
	assert.Equal(t, "Intro", body)

	_, _, err = ParseSectionFrontMatter("content/x/_index.md", []byte("+++\nsort_by = \"random\"\npaginate_by = -1\n+++\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerr.ErrInvalid)
}

func TestParseSectionFrontMatterDefaults(t *testing.T) {
	meta, _, err := ParseSectionFrontMatter("content/_index.md", []byte("+++\n+++\n"))
	require.NoError(t, err)
	assert.Equal(t, content.DefaultSectionFrontMatter(), meta)
}
