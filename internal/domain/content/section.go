package content

import (
	"path"
	"strings"

	"kiln/internal/domain/config"
)

type Section struct {
	File FileInfo
	Meta SectionFrontMatter
	Lang string

	RawContent  string
	Path        string
	Components  []string
	Permalink   string
	WordCount   int
	ReadingTime int

	Content       string
	TOC           []Heading
	InternalLinks []InternalLink
	ExternalLinks []string

	// Pages holds sorted direct children; IgnoredPages those the sort mode could not place.
	Pages        []string
	IgnoredPages []string
	Subsections  []string
	Ancestors    []string

	Assets []string
}

func NewSection(file FileInfo, meta SectionFrontMatter, raw string, cfg config.Config) (*Section, error) {
	s := &Section{File: file, Meta: meta, RawContent: raw}

	lang, err := s.File.FindLanguage(cfg.Site.DefaultLanguage, cfg.OtherLanguageCodes())
	if err != nil {
		return nil, err
	}
	s.Lang = lang
	s.WordCount, s.ReadingTime = ReadingAnalytics(raw)

	langPrefix := ""
	if s.Lang != cfg.Site.DefaultLanguage {
		langPrefix = "/" + s.Lang
	}
	if rel := strings.Join(s.File.Components, "/"); rel == "" {
		s.Path = langPrefix + "/"
	} else {
		s.Path = langPrefix + "/" + rel + "/"
	}
	s.Components = append([]string(nil), s.File.Components...)
	if s.Lang != cfg.Site.DefaultLanguage {
		s.Components = append([]string{s.Lang}, s.Components...)
	}
	s.Permalink = cfg.MakePermalink(s.Path)
	return s, nil
}

// IsIndex reports whether this is a root section of its language.
func (s *Section) IsIndex() bool { return len(s.File.Components) == 0 }

func (s *Section) IsPaginated() bool { return s.Meta.PaginateBy > 0 }

func (s *Section) ShouldRender() bool { return s.Meta.Render }

// DefaultIndex builds the root section used when the content directory has
// no index file for a language.
func DefaultIndex(contentRoot, lang string, cfg config.Config) *Section {
	filename := "_index.md"
	if lang != cfg.Site.DefaultLanguage {
		filename = "_index." + lang + ".md"
	}
	fi := NewSectionInfo(path.Join(contentRoot, filename), contentRoot)
	s, err := NewSection(fi, DefaultSectionFrontMatter(), "", cfg)
	if err != nil {
		// the language comes from cfg, so it is always known
		panic(err)
	}
	return s
}
