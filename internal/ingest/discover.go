package ingest

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type SourceFile struct {
	// Path uses forward slashes.
	Path    string
	Section bool
}

// Source is everything found under the content directory.
type Source struct {
	Files []SourceFile
	// Assets maps a directory to the non-Markdown files directly inside it.
	Assets map[string][]string
}

func isMarkdown(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// DiscoverSource walks root and sorts its files by path. Dot files and dot
// directories are skipped.
func DiscoverSource(root string) (Source, error) {
	src := Source{Assets: make(map[string][]string)}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		slashed := filepath.ToSlash(p)
		if isMarkdown(d.Name()) {
			src.Files = append(src.Files, SourceFile{
				Path:    slashed,
				Section: strings.HasPrefix(d.Name(), "_index."),
			})
			return nil
		}
		dir := path.Dir(slashed)
		src.Assets[dir] = append(src.Assets[dir], slashed)
		return nil
	})
	if err != nil {
		return Source{}, err
	}

	sort.Slice(src.Files, func(i, j int) bool { return src.Files[i].Path < src.Files[j].Path })
	for _, files := range src.Assets {
		sort.Strings(files)
	}
	return src, nil
}
