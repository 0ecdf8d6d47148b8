package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"kiln/internal/domain/content"
	domainerr "kiln/internal/domain/errors"
)

// +++ fences hold TOML, --- fences hold YAML.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
}

type rawPage struct {
	Title         string              `yaml:"title" toml:"title"`
	Description   string              `yaml:"description" toml:"description"`
	Date          any                 `yaml:"date" toml:"date"`
	Updated       any                 `yaml:"updated" toml:"updated"`
	Draft         bool                `yaml:"draft" toml:"draft"`
	Slug          *string             `yaml:"slug" toml:"slug"`
	Path          *string             `yaml:"path" toml:"path"`
	Taxonomies    map[string][]string `yaml:"taxonomies" toml:"taxonomies"`
	Weight        *int                `yaml:"weight" toml:"weight"`
	Authors       []string            `yaml:"authors" toml:"authors"`
	Aliases       []string            `yaml:"aliases" toml:"aliases"`
	Template      string              `yaml:"template" toml:"template"`
	InSearchIndex *bool               `yaml:"in_search_index" toml:"in_search_index"`
	Render        *bool               `yaml:"render" toml:"render"`
	Extra         map[string]any      `yaml:"extra" toml:"extra"`
}

type rawSection struct {
	Title            string         `yaml:"title" toml:"title"`
	Description      string         `yaml:"description" toml:"description"`
	SortBy           string         `yaml:"sort_by" toml:"sort_by"`
	Weight           int            `yaml:"weight" toml:"weight"`
	Draft            bool           `yaml:"draft" toml:"draft"`
	Template         string         `yaml:"template" toml:"template"`
	PageTemplate     string         `yaml:"page_template" toml:"page_template"`
	PaginateBy       *int           `yaml:"paginate_by" toml:"paginate_by"`
	PaginatePath     *string        `yaml:"paginate_path" toml:"paginate_path"`
	PaginateReversed bool           `yaml:"paginate_reversed" toml:"paginate_reversed"`
	Transparent      bool           `yaml:"transparent" toml:"transparent"`
	RedirectTo       string         `yaml:"redirect_to" toml:"redirect_to"`
	Render           *bool          `yaml:"render" toml:"render"`
	InSearchIndex    *bool          `yaml:"in_search_index" toml:"in_search_index"`
	GenerateFeeds    bool           `yaml:"generate_feeds" toml:"generate_feeds"`
	Aliases          []string       `yaml:"aliases" toml:"aliases"`
	Extra            map[string]any `yaml:"extra" toml:"extra"`
}

func split(raw []byte, v any) (string, error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	body, err := frontmatter.Parse(bytes.NewReader(raw), v, formats...)
	if err != nil {
		return "", err
	}
	return strings.TrimLeft(string(body), "\n"), nil
}

// ParsePageFrontMatter splits a page file into validated front matter and
// its Markdown body. A file without front matter gets the defaults.
func ParsePageFrontMatter(file string, raw []byte) (content.PageFrontMatter, string, error) {
	var rp rawPage
	body, err := split(raw, &rp)
	if err != nil {
		return content.PageFrontMatter{}, "", &domainerr.FrontMatterError{Path: file, Err: err}
	}

	meta := content.DefaultPageFrontMatter()
	ve := &domainerr.ValidationError{}

	meta.Title = strings.TrimSpace(rp.Title)
	meta.Description = rp.Description
	meta.Draft = rp.Draft
	meta.Weight = rp.Weight
	meta.Authors = rp.Authors
	meta.Template = rp.Template
	meta.Extra = rp.Extra
	if rp.InSearchIndex != nil {
		meta.InSearchIndex = *rp.InSearchIndex
	}
	if rp.Render != nil {
		meta.Render = *rp.Render
	}

	if rp.Slug != nil {
		if meta.Slug = strings.TrimSpace(*rp.Slug); meta.Slug == "" {
			ve.Add("slug", "must not be empty when set")
		}
	}
	if rp.Path != nil {
		if meta.Path = strings.TrimSpace(*rp.Path); meta.Path == "" {
			ve.Add("path", "must not be empty when set")
		}
	}

	if meta.Date, err = toTime(rp.Date); err != nil {
		ve.Add("date", err.Error())
	}
	if meta.Updated, err = toTime(rp.Updated); err != nil {
		ve.Add("updated", err.Error())
	}

	if len(rp.Taxonomies) > 0 {
		meta.Taxonomies = make(map[string][]string, len(rp.Taxonomies))
		for name, terms := range rp.Taxonomies {
			for i, term := range terms {
				if strings.TrimSpace(term) == "" {
					ve.Add(fmt.Sprintf("taxonomies.%s[%d]", name, i), "must not be empty")
				}
			}
			if len(terms) > 0 {
				meta.Taxonomies[name] = terms
			}
		}
	}

	meta.Aliases = normalizeAliases(rp.Aliases)

	if ve.HasAny() {
		return meta, body, &domainerr.FrontMatterError{Path: file, Err: ve}
	}
	return meta, body, nil
}

// ParseSectionFrontMatter is the section counterpart of ParsePageFrontMatter.
func ParseSectionFrontMatter(file string, raw []byte) (content.SectionFrontMatter, string, error) {
	var rs rawSection
	body, err := split(raw, &rs)
	if err != nil {
		return content.SectionFrontMatter{}, "", &domainerr.FrontMatterError{Path: file, Err: err}
	}

	meta := content.DefaultSectionFrontMatter()
	ve := &domainerr.ValidationError{}

	meta.Title = strings.TrimSpace(rs.Title)
	meta.Description = rs.Description
	meta.Weight = rs.Weight
	meta.Draft = rs.Draft
	meta.Template = rs.Template
	meta.PageTemplate = rs.PageTemplate
	meta.PaginateReversed = rs.PaginateReversed
	meta.Transparent = rs.Transparent
	meta.RedirectTo = strings.TrimSpace(rs.RedirectTo)
	meta.GenerateFeeds = rs.GenerateFeeds
	meta.Extra = rs.Extra
	meta.Aliases = normalizeAliases(rs.Aliases)
	if rs.Render != nil {
		meta.Render = *rs.Render
	}
	if rs.InSearchIndex != nil {
		meta.InSearchIndex = *rs.InSearchIndex
	}
	if rs.PaginatePath != nil {
		meta.PaginatePath = strings.Trim(strings.TrimSpace(*rs.PaginatePath), "/")
	}
	if rs.PaginateBy != nil {
		if *rs.PaginateBy < 0 {
			ve.Add("paginate_by", "must be >= 0")
		} else {
			meta.PaginateBy = *rs.PaginateBy
		}
	}
	if meta.SortBy, err = content.ParseSortBy(rs.SortBy); err != nil {
		ve.Add("sort_by", err.Error())
	}

	if ve.HasAny() {
		return meta, body, &domainerr.FrontMatterError{Path: file, Err: ve}
	}
	return meta, body, nil
}

// normalizeAliases gives every alias one leading slash. Aliases naming a
// file (with an extension) keep their exact ending, the others end with '/'.
func normalizeAliases(in []string) []string {
	var out []string
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		a = "/" + strings.TrimLeft(a, "/")
		last := a[strings.LastIndex(a, "/")+1:]
		if !strings.Contains(last, ".") && !strings.HasSuffix(a, "/") {
			a += "/"
		}
		out = append(out, a)
	}
	return out
}

// toTime accepts the values both decoders produce for a date: strings, and
// TOML date or datetime values. Local TOML values are read as UTC.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return time.Time{}, nil
		}
		return content.ParseDate(t)
	case time.Time:
		switch name, _ := t.Zone(); name {
		case "date-local", "datetime-local":
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported date value %v (%T)", v, v)
}
