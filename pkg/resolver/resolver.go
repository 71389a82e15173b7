// Package resolver computes dependency-closed, conflict-free, ordered
// operation plans from caller requests, the local database, and the
// repository index. Resolution is a pure computation: it reads a snapshot
// of the installed set and never touches the filesystem.
package resolver

import (
	"sort"

	"napm/pkg/database"
	"napm/pkg/repo"
	"napm/pkg/version"
)

type resolver struct {
	idx       *repo.Index
	installed map[string]*database.PackageRecord
	selected  map[string]*database.PackageRecord
	parents   map[string]string
	removing  map[string]bool
	requested map[string]bool // explicit removal requests
	replaced  map[string][]*database.PackageRecord
	queue     []string
}

// Resolve computes a plan for the given requests against a snapshot of the
// installed package set and the repository index.
func Resolve(requests []Request, installed []*database.PackageRecord, idx *repo.Index) (*Resolution, error) {
	r := &resolver{
		idx:       idx,
		installed: make(map[string]*database.PackageRecord, len(installed)),
		selected:  make(map[string]*database.PackageRecord),
		parents:   make(map[string]string),
		removing:  make(map[string]bool),
		requested: make(map[string]bool),
		replaced:  make(map[string][]*database.PackageRecord),
	}
	for _, rec := range installed {
		r.installed[rec.Name] = rec
	}

	return r.run(requests)
}

// UpgradeRequests builds upgrade requests for every installed package with
// a newer version available in the index.
func UpgradeRequests(installed []*database.PackageRecord, idx *repo.Index) []Request {
	var requests []Request

	sorted := append([]*database.PackageRecord(nil), installed...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, inst := range sorted {
		best := idx.Best(inst.Name, version.Constraint{})
		if best != nil && version.Compare(best.Version, inst.Version) > 0 {
			requests = append(requests, Upgrade(inst.Name))
		}
	}

	return requests
}

func (r *resolver) run(requests []Request) (*Resolution, error) {
	// Removals first: installs may legitimately reuse names freed here.
	for _, req := range requests {
		if req.Kind != KindRemove {
			continue
		}
		if r.installed[req.Name] == nil {
			return nil, &NotInstalledError{Name: req.Name}
		}
		r.removing[req.Name] = true
		r.requested[req.Name] = true
	}

	for _, req := range requests {
		var err error
		switch req.Kind {
		case KindInstall:
			err = r.seedInstall(req)
		case KindUpgrade:
			err = r.seedUpgrade(req)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := r.expand(); err != nil {
		return nil, err
	}
	if err := r.checkConflicts(); err != nil {
		return nil, err
	}
	if err := r.checkIntegrity(); err != nil {
		return nil, err
	}

	steps, err := r.order()
	if err != nil {
		return nil, err
	}

	return &Resolution{Steps: steps, AlsoRemove: r.orphans()}, nil
}

func (r *resolver) seedInstall(req Request) error {
	dep := database.Depend{Name: req.Name, Constraint: req.Constraint}

	// Already satisfied by a package staying installed: nothing to do, so
	// re-resolving an applied plan yields an empty resolution.
	if inst := r.installed[req.Name]; inst != nil && !r.removing[req.Name] && inst.Satisfies(dep) {
		return nil
	}

	if rec := r.idx.Best(req.Name, req.Constraint); rec != nil {
		r.selectRecord(rec, "", database.ReasonExplicit)
		return nil
	}

	providers := r.idx.Providers(dep)
	switch len(providers) {
	case 0:
		return &UnsatisfiedError{Dep: dep}
	case 1:
		if rec := r.bestProvider(providers[0], dep); rec != nil {
			r.selectRecord(rec, "", database.ReasonExplicit)
			return nil
		}
		return &UnsatisfiedError{Dep: dep}
	default:
		return &AmbiguousProvidesError{Dep: dep, Candidates: providers}
	}
}

func (r *resolver) seedUpgrade(req Request) error {
	inst := r.installed[req.Name]
	if inst == nil {
		return &NotInstalledError{Name: req.Name}
	}

	best := r.idx.Best(req.Name, version.Constraint{})
	if best == nil || version.Compare(best.Version, inst.Version) <= 0 {
		return nil
	}

	reason := inst.Reason
	if reason == "" {
		reason = database.ReasonExplicit
	}
	r.selectRecord(best, "", reason)
	return nil
}

// selectRecord adds rec to the working set, queues it for dependency
// expansion, and marks any installed packages it declares to replace.
func (r *resolver) selectRecord(rec *database.PackageRecord, parent string, reason database.InstallReason) {
	if r.selected[rec.Name] != nil {
		return
	}

	selected := *rec
	selected.Reason = reason
	r.selected[rec.Name] = &selected
	if parent != "" {
		r.parents[rec.Name] = parent
	}
	r.queue = append(r.queue, rec.Name)

	for _, repName := range rec.Replaces {
		if old := r.installed[repName]; old != nil && !r.removing[repName] {
			r.removing[repName] = true
			r.replaced[rec.Name] = append(r.replaced[rec.Name], old)
		}
	}
}

// expand iteratively closes the working set over hard dependencies.
func (r *resolver) expand() error {
	for len(r.queue) > 0 {
		name := r.queue[0]
		r.queue = r.queue[1:]

		rec := r.selected[name]
		for _, dep := range rec.Depends {
			if r.satisfied(dep) {
				continue
			}
			if err := r.selectFor(dep, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// satisfied reports whether a dependency is met by the working set or by an
// installed package that stays at its current version.
func (r *resolver) satisfied(dep database.Depend) bool {
	for _, s := range r.selected {
		if s.Satisfies(dep) {
			return true
		}
	}
	for name, inst := range r.installed {
		if r.removing[name] || r.selected[name] != nil {
			continue
		}
		if inst.Satisfies(dep) {
			return true
		}
	}
	return false
}

// selectFor picks a candidate for an unmet dependency: exact name match
// first, then a sole provider, otherwise the ambiguity is surfaced.
func (r *resolver) selectFor(dep database.Depend, parent string) error {
	if rec := r.idx.Best(dep.Name, dep.Constraint); rec != nil {
		r.selectRecord(rec, parent, database.ReasonDependency)
		return nil
	}

	providers := r.idx.Providers(dep)
	switch len(providers) {
	case 0:
		return &UnsatisfiedError{Dep: dep, Chain: r.chain(parent)}
	case 1:
		if rec := r.bestProvider(providers[0], dep); rec != nil {
			r.selectRecord(rec, parent, database.ReasonDependency)
			return nil
		}
		return &UnsatisfiedError{Dep: dep, Chain: r.chain(parent)}
	default:
		return &AmbiguousProvidesError{Dep: dep, Candidates: providers, Chain: r.chain(parent)}
	}
}

func (r *resolver) bestProvider(name string, dep database.Depend) *database.PackageRecord {
	for _, rec := range r.idx.Lookup(name) {
		if rec.Satisfies(dep) {
			return rec
		}
	}
	return nil
}

// chain returns the requirer path ending at name, outermost target first.
func (r *resolver) chain(name string) []string {
	var chain []string
	for n := name; n != ""; n = r.parents[n] {
		chain = append([]string{n}, chain...)
	}
	return chain
}

// universe is the package set after the plan would apply: installed minus
// what leaves, overlaid with the working set.
func (r *resolver) universe() map[string]*database.PackageRecord {
	u := make(map[string]*database.PackageRecord, len(r.installed)+len(r.selected))
	for name, inst := range r.installed {
		if !r.removing[name] {
			u[name] = inst
		}
	}
	for name, s := range r.selected {
		u[name] = s
	}
	return u
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkConflicts verifies no two co-resident packages declare a conflict,
// unless one is a designated replacement of the other.
func (r *resolver) checkConflicts() error {
	universe := r.universe()
	universeNames := sortedNames(universe)

	for _, sName := range sortedNames(r.selected) {
		s := r.selected[sName]
		for _, uName := range universeNames {
			if uName == sName {
				continue
			}
			u := universe[uName]
			if !s.ConflictsWith(u) && !u.ConflictsWith(s) {
				continue
			}
			if s.ReplacesPkg(uName) || u.ReplacesPkg(sName) {
				continue
			}
			return &ConflictError{Pkg1: sName, Pkg2: uName}
		}
	}
	return nil
}

// checkIntegrity ensures no surviving package loses a hard dependency when
// something leaves the system through removal, replacement, or upgrade.
func (r *resolver) checkIntegrity() error {
	leaving := len(r.removing) > 0
	for name := range r.selected {
		if r.installed[name] != nil {
			leaving = true
		}
	}
	if !leaving {
		return nil
	}

	universe := r.universe()

	for _, name := range sortedNames(universe) {
		p := universe[name]
		for _, dep := range p.Depends {
			if satisfiedIn(universe, dep) {
				continue
			}
			return &UnsatisfiedError{Dep: dep, Chain: []string{name}}
		}
	}
	return nil
}

func satisfiedIn(universe map[string]*database.PackageRecord, dep database.Depend) bool {
	for _, u := range universe {
		if u.Satisfies(dep) {
			return true
		}
	}
	return false
}

// orphans computes, to a fixpoint, the installed dependency-reason packages
// nothing in the post-plan universe would require anymore.
func (r *resolver) orphans() []*database.PackageRecord {
	universe := r.universe()
	var orphans []*database.PackageRecord

	for changed := true; changed; {
		changed = false
		for _, name := range sortedNames(universe) {
			p := universe[name]
			inst := r.installed[name]
			if inst == nil || p != inst || inst.Reason != database.ReasonDependency {
				continue
			}
			if r.dependedOn(universe, p) {
				continue
			}
			delete(universe, name)
			orphans = append(orphans, p)
			changed = true
		}
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Name < orphans[j].Name })
	return orphans
}

func (r *resolver) dependedOn(universe map[string]*database.PackageRecord, p *database.PackageRecord) bool {
	for name, u := range universe {
		if name == p.Name {
			continue
		}
		for _, dep := range u.Depends {
			if p.Satisfies(dep) {
				return true
			}
		}
	}
	return false
}

// order emits removal steps dependents-first, then install steps with every
// hard dependency before its dependents. Only hard edges participate;
// optional dependency cycles are ignored.
func (r *resolver) order() ([]Step, error) {
	var steps []Step

	steps = append(steps, r.orderRemovals()...)

	installs, err := r.orderInstalls()
	if err != nil {
		return nil, err
	}
	return append(steps, installs...), nil
}

// orderRemovals orders explicitly requested removals so dependents leave
// before their dependencies.
func (r *resolver) orderRemovals() []Step {
	names := sortedNames(r.requested)

	// dependsOn[a][b]: a hard-depends on b within the removal set
	dependsOn := make(map[string]map[string]bool, len(names))
	for _, a := range names {
		dependsOn[a] = make(map[string]bool)
		for _, dep := range r.installed[a].Depends {
			for _, b := range names {
				if b != a && r.installed[b].Satisfies(dep) {
					dependsOn[a][b] = true
				}
			}
		}
	}

	var steps []Step
	emitted := make(map[string]bool)

	// Dependents first: emit packages nothing remaining depends on. Cycles
	// among removals degrade to stable name order.
	for len(emitted) < len(names) {
		progress := false
		for _, name := range names {
			if emitted[name] {
				continue
			}
			blocked := false
			for _, other := range names {
				if other != name && !emitted[other] && dependsOn[other][name] {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
			steps = append(steps, Step{Kind: StepRemove, Old: r.installed[name]})
			emitted[name] = true
			progress = true
		}
		if !progress {
			for _, name := range names {
				if !emitted[name] {
					steps = append(steps, Step{Kind: StepRemove, Old: r.installed[name]})
					emitted[name] = true
				}
			}
		}
	}

	return steps
}

// orderInstalls topologically sorts the working set over hard dependency
// edges. A cycle is fatal.
func (r *resolver) orderInstalls() ([]Step, error) {
	names := sortedNames(r.selected)

	// edges: dependency -> dependents; indegree counts unmet in-set deps
	dependents := make(map[string][]string, len(names))
	indegree := make(map[string]int, len(names))
	for _, name := range names {
		indegree[name] = 0
	}

	for _, name := range names {
		s := r.selected[name]
		seen := make(map[string]bool)
		for _, dep := range s.Depends {
			for _, other := range names {
				if other == name || seen[other] {
					continue
				}
				if r.selected[other].Satisfies(dep) {
					dependents[other] = append(dependents[other], name)
					indegree[name]++
					seen[other] = true
				}
			}
		}
	}

	ready := make([]string, 0, len(names))
	for _, name := range names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	var steps []Step
	done := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		done++

		steps = append(steps, r.installStep(name)...)

		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if done < len(names) {
		var cycle []string
		for _, name := range names {
			if indegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}

	return steps, nil
}

// installStep emits the step(s) for one selected package: a replacement of
// superseded packages, an in-place upgrade, or a plain install.
func (r *resolver) installStep(name string) []Step {
	s := r.selected[name]

	if olds := r.replaced[name]; len(olds) > 0 {
		var steps []Step
		for _, extra := range olds[1:] {
			steps = append(steps, Step{Kind: StepRemove, Old: extra})
		}
		return append(steps, Step{Kind: StepReplace, New: s, Old: olds[0]})
	}

	if inst := r.installed[name]; inst != nil {
		return []Step{{Kind: StepInstall, New: s, Old: inst}}
	}

	return []Step{{Kind: StepInstall, New: s}}
}
