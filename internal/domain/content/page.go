package content

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"kiln/internal/domain/config"
	"kiln/internal/slug"
)

type Heading struct {
	Level int
	ID    string
	Text  string
}

// InternalLink is an @/ link to another content file, Target being its
// path relative to the content directory.
type InternalLink struct {
	Target string
	Anchor string
}

type Page struct {
	File FileInfo
	Meta PageFrontMatter
	Lang string

	RawContent  string
	Slug        string
	Path        string
	Components  []string
	Permalink   string
	WordCount   int
	ReadingTime int

	// Filled by rendering.
	Content       string
	Summary       string
	TOC           []Heading
	InternalLinks []InternalLink
	ExternalLinks []string

	// Filled by section population.
	Ancestors []string
	Lower     string
	Higher    string

	Assets []string
}

var datedFilename = regexp.MustCompile(
	`^(?P<datetime>(\d{4})-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])(T([01][0-9]|2[0-3]):([0-5][0-9]):([0-5][0-9]|60)(\.[0-9]+)?(Z|(\+|-)([01][0-9]|2[0-3]):([0-5][0-9])))?)\s?(_|-)(?P<slug>.+$)`,
)

// NewPage derives the language, slug, URL path and permalink of a page from
// its file location and front matter.
func NewPage(file FileInfo, meta PageFrontMatter, raw string, cfg config.Config) (*Page, error) {
	p := &Page{File: file, Meta: meta, RawContent: raw}

	lang, err := p.File.FindLanguage(cfg.Site.DefaultLanguage, cfg.OtherLanguageCodes())
	if err != nil {
		return nil, err
	}
	p.Lang = lang
	p.WordCount, p.ReadingTime = ReadingAnalytics(raw)

	stem := p.File.Name
	if stem == "index" {
		if parent := path.Base(path.Dir(p.File.Path)); parent != "." && parent != "/" {
			stem = parent
		}
	}

	fromDate := ""
	if m := datedFilename.FindStringSubmatch(stem); m != nil {
		fromDate = m[datedFilename.SubexpIndex("slug")]
		if p.Meta.Date.IsZero() {
			if d, err := ParseDate(m[datedFilename.SubexpIndex("datetime")]); err == nil {
				p.Meta.Date = d
			}
		}
	}

	switch {
	case p.Meta.Slug != "":
		p.Slug = slug.Paths(p.Meta.Slug, cfg.Slugify.Paths)
	case fromDate != "":
		p.Slug = slug.Paths(fromDate, cfg.Slugify.Paths)
	default:
		p.Slug = slug.Paths(stem, cfg.Slugify.Paths)
	}

	if explicit := strings.TrimSpace(p.Meta.Path); explicit != "" {
		p.Path = "/" + strings.TrimLeft(explicit, "/")
	} else {
		var rel string
		switch {
		case len(p.File.Components) > 0:
			rel = strings.Join(p.File.Components, "/") + "/" + p.Slug
		case p.File.Name == "index" && p.File.ColocatedPath == "":
			rel = ""
		default:
			rel = p.Slug
		}
		if p.Lang != cfg.Site.DefaultLanguage {
			rel = p.Lang + "/" + rel
		}
		p.Path = "/" + rel
	}
	if !strings.HasSuffix(p.Path, "/") {
		p.Path += "/"
	}

	for _, c := range strings.Split(p.Path, "/") {
		if c != "" {
			p.Components = append(p.Components, c)
		}
	}
	p.Permalink = cfg.MakePermalink(p.Path)
	return p, nil
}

func (p *Page) IsDraft() bool { return p.Meta.Draft }

func (p *Page) ShouldRender() bool { return p.Meta.Render }

// HasDate reports whether date sorting can place the page.
func (p *Page) HasDate() bool { return !p.Meta.Date.IsZero() }

// ReadingAnalytics returns the word count and the reading time in minutes at
// 200 words a minute, rounded up.
func ReadingAnalytics(raw string) (int, int) {
	words := len(strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '_'
	}))
	return words, (words + 199) / 200
}
