package index

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

// PageRecord is the indexed summary of one page.
type PageRecord struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Lang      string    `json:"lang"`
	Path      string    `json:"path"`
	Permalink string    `json:"permalink"`
	Date      time.Time `json:"date"`
	Updated   time.Time `json:"updated"`
	Draft     bool      `json:"draft"`
	Render    bool      `json:"render"`
}

type BuildMeta struct {
	ID         string
	BuiltAt    time.Time
	ConfigHash string
	ThemeHash  string
}

type ListOptions struct {
	Lang         string
	Page         int
	Size         int
	IncludeDraft bool
}

func (s *Store) GetPage(key string) (PageRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return PageRecord{}, ErrNotFound
	}
	var rec PageRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bPages)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	return rec, err
}

// ResolveAlias returns the permalink an alias redirects to. The path is
// tried as given and with a trailing slash.
func (s *Store) ResolveAlias(urlPath string) (string, error) {
	urlPath = strings.TrimSpace(urlPath)
	if urlPath == "" {
		return "", ErrNotFound
	}
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	candidates := []string{urlPath}
	if !strings.HasSuffix(urlPath, "/") {
		candidates = append(candidates, urlPath+"/")
	}

	var mapped string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bAlias)
		if b == nil {
			return ErrNotFound
		}
		for _, c := range candidates {
			if v := b.Get([]byte(c)); v != nil {
				mapped = string(v)
				return nil
			}
		}
		return ErrNotFound
	})
	return mapped, err
}

func normalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// List returns indexed pages newest first. An empty Lang lists every
// language, one after the other in language order.
func (s *Store) List(opt ListOptions) ([]PageRecord, error) {
	opt.Page, opt.Size = normalizePaging(opt.Page, opt.Size)

	var out []PageRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bIdxDate)
		pagesB := tx.Bucket(bPages)
		if idx == nil || pagesB == nil {
			return nil
		}

		var langs [][]byte
		if opt.Lang != "" {
			langs = append(langs, []byte(opt.Lang))
		} else {
			if err := idx.ForEach(func(k, _ []byte) error {
				langs = append(langs, k)
				return nil
			}); err != nil {
				return err
			}
		}

		skip := (opt.Page - 1) * opt.Size
		for _, lang := range langs {
			sb := idx.Bucket(lang)
			if sb == nil {
				continue
			}
			cur := sb.Cursor()
			for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
				key := keyFromDateKey(k)
				if key == "" {
					continue
				}
				v := pagesB.Get([]byte(key))
				if v == nil {
					continue
				}
				var rec PageRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					continue
				}
				if rec.Draft && !opt.IncludeDraft {
					continue
				}
				if skip > 0 {
					skip--
					continue
				}
				out = append(out, rec)
				if len(out) >= opt.Size {
					return nil
				}
			}
		}
		return nil
	})
	return out, err
}

// OutputHash returns the render hash recorded for an output file.
func (s *Store) OutputHash(outPath string) (string, bool) {
	var hash string
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bOutputs)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(outPath)); v != nil {
			hash = string(v)
		}
		return nil
	})
	return hash, hash != ""
}

func (s *Store) BuildMeta() (BuildMeta, error) {
	var m BuildMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return ErrNotFound
		}
		m.ID = string(b.Get(metaBuildID))
		m.ConfigHash = string(b.Get(metaConfigHash))
		m.ThemeHash = string(b.Get(metaThemeHash))
		if v := b.Get(metaBuiltAt); v != nil {
			if err := m.BuiltAt.UnmarshalText(v); err != nil {
				return err
			}
		}
		if m.ID == "" {
			return ErrNotFound
		}
		return nil
	})
	return m, err
}
