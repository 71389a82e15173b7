package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"napm/pkg/database"
	"napm/pkg/repo"
)

type pkgSpec struct {
	name     string
	ver      string
	deps     []string
	provides []string
	confl    []string
	repl     []string
	reason   database.InstallReason
}

func build(specs ...pkgSpec) []*database.PackageRecord {
	var recs []*database.PackageRecord
	for _, s := range specs {
		rec := &database.PackageRecord{Name: s.name, Version: s.ver, Reason: s.reason}
		for _, d := range s.deps {
			rec.Depends = append(rec.Depends, database.ParseDepend(d))
		}
		for _, p := range s.provides {
			rec.Provides = append(rec.Provides, database.ParseProvide(p))
		}
		rec.Conflicts = s.confl
		rec.Replaces = s.repl
		recs = append(recs, rec)
	}
	return recs
}

func names(steps []Step) []string {
	var out []string
	for _, s := range steps {
		out = append(out, s.Name())
	}
	return out
}

func TestInstallOrdersDependencyFirst(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "foo", ver: "1.0-1", deps: []string{"bar>=2.0"}},
		pkgSpec{name: "bar", ver: "1.0-1"},
		pkgSpec{name: "bar", ver: "2.1-1"},
	))

	res, err := Resolve([]Request{Install("foo")}, nil, idx)
	require.NoError(t, err)

	require.Equal(t, []string{"bar", "foo"}, names(res.Steps))
	assert.Equal(t, "2.1-1", res.Steps[0].New.Version)
	assert.Equal(t, database.ReasonDependency, res.Steps[0].New.Reason)
	assert.Equal(t, database.ReasonExplicit, res.Steps[1].New.Reason)
}

func TestInstallConflictsWithInstalled(t *testing.T) {
	installed := build(pkgSpec{name: "baz", ver: "1.0-1", reason: database.ReasonExplicit})
	idx := repo.NewIndex(build(pkgSpec{name: "foo", ver: "1.0-1", confl: []string{"baz"}}))

	_, err := Resolve([]Request{Install("foo")}, installed, idx)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "foo", conflict.Pkg1)
	assert.Equal(t, "baz", conflict.Pkg2)
}

func TestRemoveStillNeededFails(t *testing.T) {
	installed := build(
		pkgSpec{name: "foo", ver: "1.0-1", deps: []string{"bar"}, reason: database.ReasonExplicit},
		pkgSpec{name: "bar", ver: "1.0-1", reason: database.ReasonDependency},
	)
	idx := repo.NewIndex(nil)

	_, err := Resolve([]Request{Remove("bar")}, installed, idx)

	var unsat *UnsatisfiedError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, "bar", unsat.Dep.Name)
	assert.Equal(t, []string{"foo"}, unsat.Chain)
}

func TestRemoveOffersOrphans(t *testing.T) {
	installed := build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"lib"}, reason: database.ReasonExplicit},
		pkgSpec{name: "lib", ver: "1.0-1", deps: []string{"sublib"}, reason: database.ReasonDependency},
		pkgSpec{name: "sublib", ver: "1.0-1", reason: database.ReasonDependency},
	)
	idx := repo.NewIndex(nil)

	res, err := Resolve([]Request{Remove("app")}, installed, idx)
	require.NoError(t, err)

	require.Equal(t, []string{"app"}, names(res.Steps))

	// Orphaning cascades: lib loses its dependent, then sublib loses lib.
	var orphans []string
	for _, o := range res.AlsoRemove {
		orphans = append(orphans, o.Name)
	}
	assert.Equal(t, []string{"lib", "sublib"}, orphans)
}

func TestUnsatisfiableConstraintReportsChain(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "foo", ver: "1.0-1", deps: []string{"bar"}},
		pkgSpec{name: "bar", ver: "1.0-1", deps: []string{"qux>=5.0"}},
		pkgSpec{name: "qux", ver: "1.0-1"},
	))

	_, err := Resolve([]Request{Install("foo")}, nil, idx)

	var unsat *UnsatisfiedError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, "qux", unsat.Dep.Name)
	assert.Equal(t, []string{"foo", "bar"}, unsat.Chain)
}

func TestProvidesExactNameWins(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"mail-agent"}},
		pkgSpec{name: "mail-agent", ver: "2.0-1"},
		pkgSpec{name: "postfix", ver: "3.0-1", provides: []string{"mail-agent=3.0"}},
	))

	res, err := Resolve([]Request{Install("app")}, nil, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mail-agent", "app"}, names(res.Steps))
}

func TestProvidesSingleProviderSelected(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"mail-agent"}},
		pkgSpec{name: "postfix", ver: "3.0-1", provides: []string{"mail-agent=3.0"}},
	))

	res, err := Resolve([]Request{Install("app")}, nil, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"postfix", "app"}, names(res.Steps))
}

func TestProvidesAmbiguityFails(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"mail-agent"}},
		pkgSpec{name: "postfix", ver: "3.0-1", provides: []string{"mail-agent=3.0"}},
		pkgSpec{name: "exim", ver: "4.0-1", provides: []string{"mail-agent=4.0"}},
	))

	_, err := Resolve([]Request{Install("app")}, nil, idx)

	var ambiguous *AmbiguousProvidesError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"exim", "postfix"}, ambiguous.Candidates)
	assert.Equal(t, []string{"app"}, ambiguous.Chain)
}

func TestInstalledProviderSatisfies(t *testing.T) {
	installed := build(pkgSpec{name: "postfix", ver: "3.0-1", provides: []string{"mail-agent=3.0"}, reason: database.ReasonExplicit})
	idx := repo.NewIndex(build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"mail-agent"}},
		pkgSpec{name: "exim", ver: "4.0-1", provides: []string{"mail-agent=4.0"}},
	))

	res, err := Resolve([]Request{Install("app")}, installed, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names(res.Steps))
}

func TestCyclicHardDependencyFails(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "a", ver: "1.0-1", deps: []string{"b"}},
		pkgSpec{name: "b", ver: "1.0-1", deps: []string{"a"}},
	))

	_, err := Resolve([]Request{Install("a")}, nil, idx)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []string{"a", "b"}, cycle.Cycle)
}

func TestOptionalCycleIgnored(t *testing.T) {
	a := &database.PackageRecord{Name: "a", Version: "1.0-1",
		Depends:    []database.Depend{database.ParseDepend("b")},
		OptDepends: []database.Depend{database.ParseDepend("b")}}
	b := &database.PackageRecord{Name: "b", Version: "1.0-1",
		OptDepends: []database.Depend{database.ParseDepend("a")}}
	idx := repo.NewIndex([]*database.PackageRecord{a, b})

	res, err := Resolve([]Request{Install("a")}, nil, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(res.Steps))
}

func TestReplaceSupersedesConflict(t *testing.T) {
	installed := build(pkgSpec{name: "oldssl", ver: "1.0-1", reason: database.ReasonExplicit})
	idx := repo.NewIndex(build(
		pkgSpec{name: "newssl", ver: "2.0-1", confl: []string{"oldssl"}, repl: []string{"oldssl"}},
	))

	res, err := Resolve([]Request{Install("newssl")}, installed, idx)
	require.NoError(t, err)

	require.Len(t, res.Steps, 1)
	assert.Equal(t, StepReplace, res.Steps[0].Kind)
	assert.Equal(t, "oldssl", res.Steps[0].Old.Name)
	assert.Equal(t, "newssl", res.Steps[0].New.Name)
}

func TestUpgradeSelectsNewerOnly(t *testing.T) {
	installed := build(
		pkgSpec{name: "foo", ver: "1.0-1", reason: database.ReasonExplicit},
		pkgSpec{name: "bar", ver: "2.0-1", reason: database.ReasonExplicit},
	)
	idx := repo.NewIndex(build(
		pkgSpec{name: "foo", ver: "1.5-1"},
		pkgSpec{name: "bar", ver: "2.0-1"},
	))

	reqs := UpgradeRequests(installed, idx)
	require.Len(t, reqs, 1)
	assert.Equal(t, "foo", reqs[0].Name)

	res, err := Resolve(reqs, installed, idx)
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)

	step := res.Steps[0]
	assert.Equal(t, StepInstall, step.Kind)
	assert.Equal(t, "1.5-1", step.New.Version)
	require.NotNil(t, step.Old, "upgrade carries the superseded version")
	assert.Equal(t, "1.0-1", step.Old.Version)
}

func TestUpgradeBreakingDependentFails(t *testing.T) {
	installed := build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"lib<2.0"}, reason: database.ReasonExplicit},
		pkgSpec{name: "lib", ver: "1.5-1", reason: database.ReasonDependency},
	)
	idx := repo.NewIndex(build(pkgSpec{name: "lib", ver: "2.1-1"}))

	_, err := Resolve([]Request{Upgrade("lib")}, installed, idx)

	var unsat *UnsatisfiedError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, "lib", unsat.Dep.Name)
	assert.Equal(t, []string{"app"}, unsat.Chain)
}

func TestResolveIdempotent(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "foo", ver: "1.0-1", deps: []string{"bar"}},
		pkgSpec{name: "bar", ver: "2.1-1"},
	))

	res, err := Resolve([]Request{Install("foo")}, nil, idx)
	require.NoError(t, err)
	require.False(t, res.Empty())

	// Apply the plan conceptually and resolve again: nothing left to do.
	post := res.Installed()
	res2, err := Resolve([]Request{Install("foo")}, post, idx)
	require.NoError(t, err)
	assert.True(t, res2.Empty())
}

func TestClosureComplete(t *testing.T) {
	idx := repo.NewIndex(build(
		pkgSpec{name: "top", ver: "1.0-1", deps: []string{"mid1", "mid2"}},
		pkgSpec{name: "mid1", ver: "1.0-1", deps: []string{"base"}},
		pkgSpec{name: "mid2", ver: "1.0-1", deps: []string{"base", "extra"}},
		pkgSpec{name: "base", ver: "1.0-1"},
		pkgSpec{name: "extra", ver: "1.0-1"},
	))

	res, err := Resolve([]Request{Install("top")}, nil, idx)
	require.NoError(t, err)

	// Every selected package's hard deps are satisfied within the closure,
	// and dependencies precede dependents.
	seen := make(map[string]*database.PackageRecord)
	for _, step := range res.Steps {
		for _, dep := range step.New.Depends {
			found := false
			for _, prior := range seen {
				if prior.Satisfies(dep) {
					found = true
					break
				}
			}
			assert.True(t, found, "dep %s of %s not yet installed", dep, step.Name())
		}
		seen[step.Name()] = step.New
	}
	assert.Len(t, seen, 5)
}

func TestRemoveNotInstalled(t *testing.T) {
	_, err := Resolve([]Request{Remove("ghost")}, nil, repo.NewIndex(nil))

	var notInstalled *NotInstalledError
	require.ErrorAs(t, err, &notInstalled)
	assert.Equal(t, "ghost", notInstalled.Name)
}

func TestRemovalOrderDependentsFirst(t *testing.T) {
	installed := build(
		pkgSpec{name: "app", ver: "1.0-1", deps: []string{"lib"}, reason: database.ReasonExplicit},
		pkgSpec{name: "lib", ver: "1.0-1", reason: database.ReasonExplicit},
	)
	idx := repo.NewIndex(nil)

	res, err := Resolve([]Request{Remove("lib"), Remove("app")}, installed, idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "lib"}, names(res.Steps))
}

func TestInstallUnknownPackage(t *testing.T) {
	_, err := Resolve([]Request{Install("ghost")}, nil, repo.NewIndex(nil))

	var unsat *UnsatisfiedError
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, "ghost", unsat.Dep.Name)
	assert.Empty(t, unsat.Chain)
}
