package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"napm/pkg/database"
)

// Loader supplies a repository index. Implementations own fetching and
// parsing of synced metadata; the index they return is assumed to be
// integrity-checked already.
type Loader interface {
	Load() (*Index, error)
}

// DirLoader reads repository metadata from a directory of JSON index files,
// one per repository, each holding an array of package records. This is the
// on-disk form the external sync collaborator writes.
type DirLoader struct {
	Dir string
}

// Load parses every *.json file under the directory into a single index.
// Records are tagged with the repository they came from (the file basename).
func (l DirLoader) Load() (*Index, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(nil), nil
		}
		return nil, fmt.Errorf("failed to read repository directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []*database.PackageRecord
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(l.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read repository index %s: %w", name, err)
		}

		var records []*database.PackageRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("malformed repository index %s: %w", name, err)
		}

		repoName := name[:len(name)-len(".json")]
		for _, rec := range records {
			if rec.Repository == "" {
				rec.Repository = repoName
			}
		}
		all = append(all, records...)
	}

	return NewIndex(all), nil
}
