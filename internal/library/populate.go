package library

import (
	"cmp"
	"path"
	"slices"

	"kiln/internal/domain/content"
)

func (l *Library) addTranslation(canonical, key string) {
	if !l.cfg.IsMultilingual() {
		return
	}
	s, ok := l.translations[canonical]
	if !ok {
		s = make(set)
		l.translations[canonical] = s
	}
	s.add(key)
}

// PopulateSections links the graph: section ancestors and subsections, the
// pages of every section, inherited page templates, then sorted page lists
// and sibling links. It rebuilds everything it sets, so running it twice
// gives the same result.
func (l *Library) PopulateSections() {
	l.translations = make(map[string]set)

	ancestors := make(map[string][]string, len(l.Sections))
	subsections := make(map[string][]string)
	sectionKeys := l.SectionPaths()

	for _, key := range sectionKeys {
		s := l.Sections[key]
		l.addTranslation(s.File.Canonical, key)

		if s.IsIndex() {
			ancestors[key] = nil
			continue
		}

		// grouped under the parent section's key, which shares this file name
		parentKey := path.Join(s.File.GrandParent, s.File.Filename)
		subsections[parentKey] = append(subsections[parentKey], key)

		var parents []string
		if root, ok := l.Sections[path.Join(l.contentRoot, s.File.Filename)]; ok {
			parents = append(parents, root.File.Relative)
		}
		cur := l.contentRoot
		for _, c := range s.File.Components {
			cur = path.Join(cur, c)
			if cur == s.File.Parent {
				continue
			}
			if anc, ok := l.Sections[path.Join(cur, s.File.Filename)]; ok {
				parents = append(parents, anc.File.Relative)
			}
		}
		ancestors[key] = parents
	}

	for _, key := range sectionKeys {
		s := l.Sections[key]
		s.Pages = nil
		s.IgnoredPages = nil
		s.Subsections = nil
		s.Ancestors = slices.Clone(ancestors[key])

		if children, ok := subsections[key]; ok {
			children = slices.Clone(children)
			slices.SortStableFunc(children, func(a, b string) int {
				return cmp.Compare(l.Sections[a].Meta.Weight, l.Sections[b].Meta.Weight)
			})
			s.Subsections = children
		}
	}

	for _, key := range l.PagePaths() {
		p := l.Pages[key]
		p.Ancestors = nil
		p.Lower, p.Higher = "", ""
		l.addTranslation(p.File.Canonical, key)

		filename := indexFilename(l.cfg, p.Lang)
		candidate := path.Join(p.File.Parent, filename)

		for {
			s, ok := l.Sections[candidate]
			if !ok {
				break
			}
			s.Pages = append(s.Pages, key)

			// reassigned on every step, so a transparent section hands its
			// pages to the chain of the section it forwards to
			p.Ancestors = append(slices.Clone(s.Ancestors), s.File.Relative)

			if p.Meta.Template == "" {
				for i := len(p.Ancestors) - 1; i >= 0; i-- {
					anc, ok := l.Sections[path.Join(l.contentRoot, p.Ancestors[i])]
					if ok && anc.Meta.PageTemplate != "" {
						p.Meta.Template = anc.Meta.PageTemplate
						break
					}
				}
			}

			if !s.Meta.Transparent {
				break
			}
			dir := s.File.Parent
			if dir == l.contentRoot || path.Dir(dir) == dir {
				break
			}
			candidate = path.Join(path.Dir(dir), filename)
		}
	}

	l.SortSectionPages()
}

// SortSectionPages orders the pages of every section with a sort mode and
// moves the pages that mode cannot place to IgnoredPages. Transparent
// sections leave sibling links to the section they forward to.
func (l *Library) SortSectionPages() {
	for _, key := range l.SectionPaths() {
		s := l.Sections[key]
		if s.Meta.SortBy == content.SortNone || s.Meta.SortBy == "" {
			continue
		}

		sorted, ignored := SortPages(l.PagesByPath(s.Pages), s.Meta.SortBy)
		s.Pages = sorted
		s.IgnoredPages = ignored

		if s.Meta.Transparent {
			continue
		}
		for i, pk := range sorted {
			p := l.Pages[pk]
			p.Lower, p.Higher = "", ""
			if i > 0 {
				p.Lower = sorted[i-1]
			}
			if i < len(sorted)-1 {
				p.Higher = sorted[i+1]
			}
		}
	}
}
