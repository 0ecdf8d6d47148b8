package content

import (
	"fmt"
	"path"
	"strings"
)

// FileInfo is the path metadata of one content file. All paths use forward
// slashes; callers convert OS paths before building one.
type FileInfo struct {
	// Path is the full path to the .md file and the identity of the page or section.
	Path string
	// Filename is the on-disk file name, language code included.
	Filename string
	// Name is the file stem without the language code. Always _index for sections.
	Name string
	// Relative is the .md path from the content directory.
	Relative string
	// ColocatedPath is set for index.md pages and non-root sections, ending with '/'.
	ColocatedPath string
	Parent        string
	// GrandParent is only meaningful for sections.
	GrandParent string
	// Components are the directory names between the content root and the file.
	Components []string
	// Canonical is Parent joined with Name; translations share it.
	Canonical string
}

func contentComponents(file, contentRoot string) []string {
	dir := path.Dir(file)
	root := path.Clean(contentRoot)
	if root == "." || root == "" {
		if dir == "." {
			return nil
		}
		return strings.Split(dir, "/")
	}
	if dir == root {
		return nil
	}
	rel := strings.TrimPrefix(dir, root+"/")
	if rel == dir {
		// file lives outside the content root
		return nil
	}
	return strings.Split(rel, "/")
}

func relativeOf(components []string, stem string) string {
	if len(components) == 0 {
		return stem + ".md"
	}
	return strings.Join(components, "/") + "/" + stem + ".md"
}

func stemOf(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// NewPageInfo builds the FileInfo of a page. An index.md page owns its
// directory, so that directory is not a component and Parent moves up one level.
func NewPageInfo(file, contentRoot string) FileInfo {
	file = path.Clean(file)
	filename := path.Base(file)
	name := stemOf(filename)
	parent := path.Dir(file)
	components := contentComponents(file, contentRoot)

	fi := FileInfo{
		Path:       file,
		Filename:   filename,
		Name:       name,
		Relative:   relativeOf(components, name),
		Parent:     parent,
		Components: components,
		Canonical:  path.Join(parent, name),
	}

	if len(components) > 0 && strings.SplitN(name, ".", 2)[0] == "index" {
		fi.ColocatedPath = strings.Join(components, "/") + "/"
		fi.Components = components[:len(components)-1]
		fi.Parent = path.Dir(parent)
	}
	return fi
}

func NewSectionInfo(file, contentRoot string) FileInfo {
	file = path.Clean(file)
	filename := path.Base(file)
	name := stemOf(filename)
	parent := path.Dir(file)
	components := contentComponents(file, contentRoot)

	fi := FileInfo{
		Path:        file,
		Filename:    filename,
		Name:        name,
		Relative:    relativeOf(components, name),
		Parent:      parent,
		GrandParent: path.Dir(parent),
		Components:  components,
		Canonical:   path.Join(parent, name),
	}
	if len(components) > 0 && strings.SplitN(name, ".", 2)[0] == "_index" {
		fi.ColocatedPath = strings.Join(components, "/") + "/"
	}
	return fi
}

// FindLanguage reads the language code out of a name.lang.md file name,
// strips it from Name and Canonical and returns it. Files without a code
// belong to the default language.
func (f *FileInfo) FindLanguage(defaultLang string, others []string) (string, error) {
	if len(others) == 0 || !strings.Contains(f.Name, ".") {
		return defaultLang, nil
	}

	parts := strings.SplitN(f.Name, ".", 2)
	code := parts[1]
	known := code == defaultLang
	for _, o := range others {
		if o == code {
			known = true
			break
		}
	}
	if !known {
		return "", fmt.Errorf("file %s has a language code of %s which isn't present in the configured languages", f.Path, code)
	}

	f.Name = parts[0]
	f.Canonical = path.Join(path.Dir(f.Path), f.Name)
	return code, nil
}
