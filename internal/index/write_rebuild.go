package index

import (
	"encoding/json"
	"errors"
	"strings"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

type RebuildOptions struct {
	IncludeDraft bool
}

// Rebuild replaces the page listing and the alias table. Output hashes and
// build meta survive.
func (s *Store) Rebuild(pages []PageRecord, aliases map[string]string, opt RebuildOptions) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bPages, bAlias, bIdxDate} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
				return err
			}
		}

		pagesB, err := tx.CreateBucket(bPages)
		if err != nil {
			return err
		}
		aliasB, err := tx.CreateBucket(bAlias)
		if err != nil {
			return err
		}
		idxB, err := tx.CreateBucket(bIdxDate)
		if err != nil {
			return err
		}

		for _, p := range pages {
			if p.Draft && !opt.IncludeDraft {
				continue
			}
			if strings.TrimSpace(p.Key) == "" {
				continue
			}
			pb, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := pagesB.Put([]byte(p.Key), pb); err != nil {
				return err
			}

			sb, err := idxB.CreateBucketIfNotExists([]byte(p.Lang))
			if err != nil {
				return err
			}
			if err := sb.Put(makeDateKey(p.Date, p.Key), []byte{1}); err != nil {
				return err
			}
		}

		for from, to := range aliases {
			from = strings.TrimSpace(from)
			if from == "" {
				continue
			}
			if err := aliasB.Put([]byte(from), []byte(to)); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordOutputs stores the render hash of every output written or skipped
// by a build and forgets the others. It returns the forgotten paths so the
// caller can delete the stale files.
func (s *Store) RecordOutputs(hashes map[string]string) ([]string, error) {
	var stale []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bOutputs)
		if err != nil {
			return err
		}
		if err := b.ForEach(func(k, _ []byte) error {
			if _, ok := hashes[string(k)]; !ok {
				stale = append(stale, string(k))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		for path, hash := range hashes {
			if err := b.Put([]byte(path), []byte(hash)); err != nil {
				return err
			}
		}
		return nil
	})
	return stale, err
}

func (s *Store) PutBuildMeta(m BuildMeta) error {
	at, err := m.BuiltAt.MarshalText()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bMeta)
		if err != nil {
			return err
		}
		for k, v := range map[string][]byte{
			string(metaBuildID):    []byte(m.ID),
			string(metaBuiltAt):    at,
			string(metaConfigHash): []byte(m.ConfigHash),
			string(metaThemeHash):  []byte(m.ThemeHash),
		} {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}
