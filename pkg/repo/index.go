// Package repo provides the read-only repository index: the set of package
// versions available for installation, sourced from synced metadata.
package repo

import (
	"sort"
	"strings"

	"napm/pkg/database"
	"napm/pkg/version"
)

// Index maps package names to their available versions and virtual names to
// their providers. It is immutable once built.
type Index struct {
	packages map[string][]*database.PackageRecord // newest first
	provides map[string][]string                  // virtual name -> provider package names
}

// NewIndex builds an index from the given records.
func NewIndex(records []*database.PackageRecord) *Index {
	ix := &Index{
		packages: make(map[string][]*database.PackageRecord),
		provides: make(map[string][]string),
	}

	for _, rec := range records {
		ix.packages[rec.Name] = append(ix.packages[rec.Name], rec)
		for _, p := range rec.Provides {
			if !containsString(ix.provides[p.Name], rec.Name) {
				ix.provides[p.Name] = append(ix.provides[p.Name], rec.Name)
			}
		}
	}

	for name := range ix.packages {
		recs := ix.packages[name]
		sort.Slice(recs, func(i, j int) bool {
			return version.Compare(recs[i].Version, recs[j].Version) > 0
		})
	}
	for name := range ix.provides {
		sort.Strings(ix.provides[name])
	}

	return ix
}

// Lookup returns all available versions of name, newest first.
func (ix *Index) Lookup(name string) []*database.PackageRecord {
	return ix.packages[name]
}

// Best returns the highest version of name satisfying the constraint, or
// nil if no version does.
func (ix *Index) Best(name string, c version.Constraint) *database.PackageRecord {
	for _, rec := range ix.packages[name] {
		if c.Satisfied(rec.Version) {
			return rec
		}
	}
	return nil
}

// Providers returns the distinct package names whose highest satisfying
// version fulfills dep through a provide, sorted for a stable ambiguity
// report. Exact-name matches are not included.
func (ix *Index) Providers(dep database.Depend) []string {
	var names []string

	for _, providerName := range ix.provides[dep.Name] {
		if providerName == dep.Name {
			continue
		}
		for _, rec := range ix.packages[providerName] {
			if rec.Satisfies(dep) {
				names = append(names, providerName)
				break
			}
		}
	}

	return names
}

// Search returns the newest version of every package whose name or
// description matches all terms, case-insensitively. Name matches rank
// before description-only matches; each group is sorted by name.
func (ix *Index) Search(terms []string) []*database.PackageRecord {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(t); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return nil
	}

	var byName, byDesc []*database.PackageRecord
	for name, recs := range ix.packages {
		rec := recs[0]
		haystackName := strings.ToLower(name)
		haystackDesc := strings.ToLower(rec.Description)

		nameHit := true
		for _, t := range lowered {
			if !strings.Contains(haystackName, t) {
				nameHit = false
				break
			}
		}
		if nameHit {
			byName = append(byName, rec)
			continue
		}

		descHit := true
		for _, t := range lowered {
			if !strings.Contains(haystackName, t) && !strings.Contains(haystackDesc, t) {
				descHit = false
				break
			}
		}
		if descHit {
			byDesc = append(byDesc, rec)
		}
	}

	byNameLess := func(recs []*database.PackageRecord) func(i, j int) bool {
		return func(i, j int) bool { return recs[i].Name < recs[j].Name }
	}
	sort.Slice(byName, byNameLess(byName))
	sort.Slice(byDesc, byNameLess(byDesc))
	return append(byName, byDesc...)
}

// Packages returns the number of distinct package names in the index.
func (ix *Index) Packages() int {
	return len(ix.packages)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
