package build

import (
	"context"
	"log/slog"
	"sort"

	domainerr "kiln/internal/domain/errors"
	"kiln/internal/ingest"
	"kiln/internal/logfields"
)

// Report summarises a dry run over the content directory.
type Report struct {
	Pages      int
	Sections   int
	Taxonomies int
	Warnings   []ingest.Warning
	Collisions []domainerr.Collision
	// Orphans are pages that no section lists.
	Orphans []string
	// Unsorted maps a section to the pages its sort_by could not order.
	Unsorted      map[string][]string
	ExternalLinks []string
}

// OK reports whether the site would build. Unsorted pages are only
// warnings; the build leaves them out of their section's list.
func (r *Report) OK() bool {
	return len(r.Collisions) == 0
}

// Check loads and links the site like Run does without writing anything.
func (b *Builder) Check(ctx context.Context) (*Report, error) {
	log := b.logger().With(logfields.Stage("check"))
	ld, err := b.load(ctx, log, false)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Pages:      len(ld.lib.Pages),
		Sections:   len(ld.lib.Sections),
		Taxonomies: len(ld.taxonomies),
		Warnings:   ld.warns,
		Collisions: ld.collisions,
		Unsorted:   make(map[string][]string),
	}
	for _, p := range ld.lib.Orphans() {
		r.Orphans = append(r.Orphans, p.File.Path)
	}
	sort.Strings(r.Orphans)

	external := make(map[string]struct{})
	for _, s := range ld.lib.SectionsByPath(ld.lib.SectionPaths()) {
		if len(s.IgnoredPages) > 0 {
			r.Unsorted[s.File.Path] = append([]string(nil), s.IgnoredPages...)
		}
		for _, l := range s.ExternalLinks {
			external[l] = struct{}{}
		}
	}
	for _, p := range ld.lib.PagesByPath(ld.lib.PagePaths()) {
		for _, l := range p.ExternalLinks {
			external[l] = struct{}{}
		}
	}
	for l := range external {
		r.ExternalLinks = append(r.ExternalLinks, l)
	}
	sort.Strings(r.ExternalLinks)

	log.Info("check complete",
		logfields.Count(r.Pages),
		slog.Int("collisions", len(r.Collisions)),
		slog.Int("orphans", len(r.Orphans)),
		slog.Int("external_links", len(r.ExternalLinks)))
	return r, nil
}
