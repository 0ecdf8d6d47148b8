package library

// FillBacklinks rebuilds the backlink index from the internal links found
// while rendering. It must run after every page and section was rendered.
func (l *Library) FillBacklinks() {
	l.backlinks = make(map[string]set)
	add := func(target, source string) {
		s, ok := l.backlinks[target]
		if !ok {
			s = make(set)
			l.backlinks[target] = s
		}
		s.add(source)
	}

	for key, p := range l.Pages {
		for _, link := range p.InternalLinks {
			add(link.Target, key)
		}
	}
	for key, s := range l.Sections {
		for _, link := range s.InternalLinks {
			add(link.Target, key)
		}
	}
}

// Backlinks returns the source paths linking to target, a path relative to
// the content directory such as "blog/post.md".
func (l *Library) Backlinks(target string) []string {
	return l.backlinks[target].sorted()
}
