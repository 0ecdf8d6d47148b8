package content

import (
	"fmt"
	"strings"
	"time"
)

// SortBy is the order a section lists its pages in.
type SortBy string

const (
	SortNone       SortBy = "none"
	SortDate       SortBy = "date"
	SortUpdateDate SortBy = "update_date"
	SortTitle      SortBy = "title"
	SortTitleBytes SortBy = "title_bytes"
	SortWeight     SortBy = "weight"
)

func ParseSortBy(s string) (SortBy, error) {
	v := SortBy(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case "":
		return SortNone, nil
	case SortNone, SortDate, SortUpdateDate, SortTitle, SortTitleBytes, SortWeight:
		return v, nil
	}
	return SortNone, fmt.Errorf("unknown sort_by %q", s)
}

// PageFrontMatter holds validated page metadata. Zero times mean "no date".
type PageFrontMatter struct {
	Title         string
	Description   string
	Date          time.Time
	Updated       time.Time
	Draft         bool
	Slug          string
	Path          string
	Taxonomies    map[string][]string
	Weight        *int
	Authors       []string
	Aliases       []string
	Template      string
	InSearchIndex bool
	Render        bool
	Extra         map[string]any
}

func DefaultPageFrontMatter() PageFrontMatter {
	return PageFrontMatter{
		Render:        true,
		InSearchIndex: true,
	}
}

type SectionFrontMatter struct {
	Title            string
	Description      string
	SortBy           SortBy
	Weight           int
	Draft            bool
	Template         string
	PageTemplate     string
	PaginateBy       int
	PaginatePath     string
	PaginateReversed bool
	Transparent      bool
	RedirectTo       string
	Render           bool
	InSearchIndex    bool
	GenerateFeeds    bool
	Aliases          []string
	Extra            map[string]any
}

func DefaultSectionFrontMatter() SectionFrontMatter {
	return SectionFrontMatter{
		SortBy:        SortNone,
		PaginatePath:  "page",
		Render:        true,
		InSearchIndex: true,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseDate accepts RFC 3339, the same without a zone, or a bare date.
// Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a valid date (want RFC 3339 or YYYY-MM-DD)", s)
}
