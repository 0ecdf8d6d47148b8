package build

import (
	"html/template"
	"path"
	"strings"
	"time"

	"kiln/internal/domain/config"
	"kiln/internal/domain/content"
	"kiln/internal/library"
	"kiln/internal/render"
)

// viewSet turns library entries into the values templates see. Page views
// are built once and shared by every listing that shows them.
type viewSet struct {
	cfg        config.Config
	lib        *library.Library
	liveReload bool
	now        time.Time

	pages map[string]render.PageView
	// page key -> taxonomy name -> terms of that page
	terms map[string]map[string][]render.Link
}

func newViewSet(cfg config.Config, lib *library.Library, taxonomies []library.Taxonomy, liveReload bool) *viewSet {
	v := &viewSet{
		cfg:        cfg,
		lib:        lib,
		liveReload: liveReload,
		now:        cfg.Build.Now,
		pages:      make(map[string]render.PageView, len(lib.Pages)),
		terms:      make(map[string]map[string][]render.Link),
	}
	for _, taxo := range taxonomies {
		for _, term := range taxo.Items {
			link := render.Link{Title: term.Name, Permalink: term.Permalink}
			for _, key := range term.Pages {
				byName, ok := v.terms[key]
				if !ok {
					byName = make(map[string][]render.Link)
					v.terms[key] = byName
				}
				byName[taxo.Kind.Name] = append(byName[taxo.Kind.Name], link)
			}
		}
	}
	for key, p := range lib.Pages {
		v.pages[key] = v.page(p)
	}
	return v
}

func (v *viewSet) site(lang string) render.SiteView {
	title := v.cfg.Site.Title
	if lc, ok := v.cfg.Languages[lang]; ok && lc.Title != "" {
		title = lc.Title
	}
	return render.SiteView{
		Title:       title,
		Description: v.cfg.Site.Description,
		Author:      v.cfg.Site.Author,
		BaseURL:     strings.TrimSuffix(v.cfg.Site.BaseURL, "/"),
		Lang:        lang,
		Languages:   v.cfg.LanguageCodes(),
		LiveReload:  v.liveReload,
		Generated:   v.now,
	}
}

func (v *viewSet) relative(key string) string {
	return strings.TrimPrefix(key, v.lib.ContentRoot()+"/")
}

// link resolves a page or section key to a titled link.
func (v *viewSet) link(key string) (render.Link, bool) {
	if p, ok := v.lib.Pages[key]; ok {
		return render.Link{Title: p.Meta.Title, Permalink: p.Permalink}, true
	}
	if s, ok := v.lib.Sections[key]; ok {
		return render.Link{Title: s.Meta.Title, Permalink: s.Permalink}, true
	}
	return render.Link{}, false
}

func (v *viewSet) links(keys []string) []render.Link {
	out := make([]render.Link, 0, len(keys))
	for _, k := range keys {
		if l, ok := v.link(k); ok {
			out = append(out, l)
		}
	}
	return out
}

func (v *viewSet) ancestors(rel []string) []render.Link {
	keys := make([]string, len(rel))
	for i, r := range rel {
		keys[i] = path.Join(v.lib.ContentRoot(), r)
	}
	return v.links(keys)
}

func (v *viewSet) translations(canonical, self string) []render.Link {
	var out []render.Link
	for _, t := range v.lib.FindTranslations(canonical) {
		if t.Path == self {
			continue
		}
		out = append(out, render.Link{Title: t.Lang, Permalink: t.Permalink})
	}
	return out
}

func (v *viewSet) page(p *content.Page) render.PageView {
	pv := render.PageView{
		Key:          p.File.Path,
		Title:        p.Meta.Title,
		Description:  p.Meta.Description,
		Permalink:    p.Permalink,
		Path:         p.Path,
		Lang:         p.Lang,
		Date:         p.Meta.Date,
		Updated:      p.Meta.Updated,
		Weight:       p.Meta.Weight,
		Content:      template.HTML(p.Content),
		Summary:      template.HTML(p.Summary),
		TOC:          p.TOC,
		WordCount:    p.WordCount,
		ReadingTime:  p.ReadingTime,
		Authors:      p.Meta.Authors,
		Extra:        p.Meta.Extra,
		Taxonomies:   v.terms[p.File.Path],
		Ancestors:    v.ancestors(p.Ancestors),
		Translations: v.translations(p.File.Canonical, p.File.Path),
		Backlinks:    v.links(v.lib.Backlinks(v.relative(p.File.Path))),
		Assets:       assetNames(p.Assets),
	}
	if l, ok := v.link(p.Lower); ok && p.Lower != "" {
		pv.Lower = &l
	}
	if l, ok := v.link(p.Higher); ok && p.Higher != "" {
		pv.Higher = &l
	}
	return pv
}

func (v *viewSet) section(s *content.Section) render.SectionView {
	sv := render.SectionView{
		Key:          s.File.Path,
		Title:        s.Meta.Title,
		Description:  s.Meta.Description,
		Permalink:    s.Permalink,
		Path:         s.Path,
		Lang:         s.Lang,
		Content:      template.HTML(s.Content),
		TOC:          s.TOC,
		WordCount:    s.WordCount,
		ReadingTime:  s.ReadingTime,
		Extra:        s.Meta.Extra,
		Subsections:  v.links(s.Subsections),
		Ancestors:    v.ancestors(s.Ancestors),
		Translations: v.translations(s.File.Canonical, s.File.Path),
		Backlinks:    v.links(v.lib.Backlinks(v.relative(s.File.Path))),
		Assets:       assetNames(s.Assets),
	}
	sv.Pages = make([]render.PageView, 0, len(s.Pages))
	for _, key := range s.Pages {
		if p, ok := v.lib.Pages[key]; ok && p.ShouldRender() {
			sv.Pages = append(sv.Pages, v.pages[key])
		}
	}
	return sv
}

func assetNames(assets []string) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, path.Base(a))
	}
	return out
}
