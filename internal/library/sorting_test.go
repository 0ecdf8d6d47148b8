package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kiln/internal/domain/content"
)

func TestSortPages(t *testing.T) {
	cfg := testConfig(t)

	byTitle := []*content.Page{
		newPage(t, cfg, "content/c.md", withTitle("cherry")),
		newPage(t, cfg, "content/b.md", withTitle("Banana")),
		newPage(t, cfg, "content/n.md"),
		newPage(t, cfg, "content/a.md", withTitle("apple")),
		newPage(t, cfg, "content/e.md", withTitle("Éclair")),
	}

	updated := newPage(t, cfg, "content/u.md", withDate("2020-01-01"))
	updated.Meta.Updated = updated.Meta.Date.AddDate(5, 0, 0)

	cases := []struct {
		name        string
		pages       []*content.Page
		by          content.SortBy
		wantSorted  []string
		wantIgnored []string
	}{
		{
			name: "date newest first",
			pages: []*content.Page{
				newPage(t, cfg, "content/old.md", withDate("2019-05-01")),
				newPage(t, cfg, "content/undated.md"),
				newPage(t, cfg, "content/new.md", withDate("2021-05-01")),
			},
			by:          content.SortDate,
			wantSorted:  []string{"content/new.md", "content/old.md"},
			wantIgnored: []string{"content/undated.md"},
		},
		{
			name: "date ties use permalink",
			pages: []*content.Page{
				newPage(t, cfg, "content/z.md", withDate("2021-05-01")),
				newPage(t, cfg, "content/y.md", withDate("2021-05-01")),
			},
			by:         content.SortDate,
			wantSorted: []string{"content/y.md", "content/z.md"},
		},
		{
			name: "update date falls back to date",
			pages: []*content.Page{
				newPage(t, cfg, "content/d.md", withDate("2022-01-01")),
				updated,
			},
			by:         content.SortUpdateDate,
			wantSorted: []string{"content/u.md", "content/d.md"},
		},
		{
			name: "weight lightest first",
			pages: []*content.Page{
				newPage(t, cfg, "content/heavy.md", withWeight(10)),
				newPage(t, cfg, "content/none.md"),
				newPage(t, cfg, "content/light.md", withWeight(-1)),
				newPage(t, cfg, "content/zero.md", withWeight(0)),
			},
			by:          content.SortWeight,
			wantSorted:  []string{"content/light.md", "content/zero.md", "content/heavy.md"},
			wantIgnored: []string{"content/none.md"},
		},
		{
			name:        "title collated",
			pages:       byTitle,
			by:          content.SortTitle,
			wantSorted:  []string{"content/a.md", "content/b.md", "content/c.md", "content/e.md"},
			wantIgnored: []string{"content/n.md"},
		},
		{
			name:        "title bytes",
			pages:       byTitle,
			by:          content.SortTitleBytes,
			wantSorted:  []string{"content/b.md", "content/a.md", "content/c.md", "content/e.md"},
			wantIgnored: []string{"content/n.md"},
		},
		{
			name: "none keeps input order",
			pages: []*content.Page{
				newPage(t, cfg, "content/b.md"),
				newPage(t, cfg, "content/a.md"),
			},
			by:         content.SortNone,
			wantSorted: []string{"content/b.md", "content/a.md"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sorted, ignored := SortPages(tc.pages, tc.by)
			assert.Equal(t, tc.wantSorted, sorted)
			assert.Equal(t, tc.wantIgnored, ignored)
		})
	}
}
