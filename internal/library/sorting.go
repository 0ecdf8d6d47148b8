package library

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"kiln/internal/domain/content"
)

func updatedOrDate(p *content.Page) time.Time {
	if !p.Meta.Updated.IsZero() {
		return p.Meta.Updated
	}
	return p.Meta.Date
}

func canSort(p *content.Page, by content.SortBy) bool {
	switch by {
	case content.SortDate:
		return p.HasDate()
	case content.SortUpdateDate:
		return !updatedOrDate(p).IsZero()
	case content.SortWeight:
		return p.Meta.Weight != nil
	case content.SortTitle, content.SortTitleBytes:
		return strings.TrimSpace(p.Meta.Title) != ""
	}
	return true
}

// SortPages orders pages by the given mode and returns their keys. Pages
// missing the field the mode needs are returned apart, in input order.
//
// Dates sort newest first and weights lightest first. Title uses a
// language-neutral collation, title_bytes compares raw bytes. Ties fall back
// to the permalink, then the source path, so the result is total.
func SortPages(pages []*content.Page, by content.SortBy) (sorted, ignored []string) {
	if by == content.SortNone || by == "" {
		for _, p := range pages {
			sorted = append(sorted, p.File.Path)
		}
		return sorted, nil
	}

	var can []*content.Page
	for _, p := range pages {
		if canSort(p, by) {
			can = append(can, p)
		} else {
			ignored = append(ignored, p.File.Path)
		}
	}

	tiebreak := func(a, b *content.Page) int {
		if c := cmp.Compare(a.Permalink, b.Permalink); c != 0 {
			return c
		}
		return cmp.Compare(a.File.Path, b.File.Path)
	}

	var order func(a, b *content.Page) int
	switch by {
	case content.SortDate:
		order = func(a, b *content.Page) int {
			if c := b.Meta.Date.Compare(a.Meta.Date); c != 0 {
				return c
			}
			return tiebreak(a, b)
		}
	case content.SortUpdateDate:
		order = func(a, b *content.Page) int {
			if c := updatedOrDate(b).Compare(updatedOrDate(a)); c != 0 {
				return c
			}
			return tiebreak(a, b)
		}
	case content.SortWeight:
		order = func(a, b *content.Page) int {
			if c := cmp.Compare(*a.Meta.Weight, *b.Meta.Weight); c != 0 {
				return c
			}
			return tiebreak(a, b)
		}
	case content.SortTitle:
		// a Collator is not safe for concurrent use
		col := collate.New(language.Und, collate.Loose)
		order = func(a, b *content.Page) int {
			if c := col.CompareString(a.Meta.Title, b.Meta.Title); c != 0 {
				return c
			}
			if c := cmp.Compare(a.Meta.Title, b.Meta.Title); c != 0 {
				return c
			}
			return tiebreak(a, b)
		}
	case content.SortTitleBytes:
		order = func(a, b *content.Page) int {
			if c := cmp.Compare(a.Meta.Title, b.Meta.Title); c != 0 {
				return c
			}
			return tiebreak(a, b)
		}
	}

	slices.SortFunc(can, order)
	for _, p := range can {
		sorted = append(sorted, p.File.Path)
	}
	return sorted, ignored
}
