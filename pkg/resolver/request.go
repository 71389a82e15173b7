package resolver

import (
	"napm/pkg/database"
	"napm/pkg/version"
)

// RequestKind distinguishes the operations a caller can ask for.
type RequestKind int

const (
	KindInstall RequestKind = iota
	KindRemove
	KindUpgrade
)

// Request is a single caller-supplied operation against the package set.
type Request struct {
	Kind       RequestKind
	Name       string
	Constraint version.Constraint
}

// Install builds an install request from a target string such as
// "foo" or "foo>=2.0".
func Install(target string) Request {
	name, c := version.Split(target)
	return Request{Kind: KindInstall, Name: name, Constraint: c}
}

// Remove builds a removal request.
func Remove(name string) Request {
	return Request{Kind: KindRemove, Name: name}
}

// Upgrade builds an upgrade request for an installed package.
func Upgrade(name string) Request {
	return Request{Kind: KindUpgrade, Name: name}
}

// StepKind tags an entry of the resolved plan.
type StepKind int

const (
	StepInstall StepKind = iota
	StepRemove
	StepReplace
)

// Step is one ordered operation of a resolved plan. Install steps carry Old
// when they upgrade an installed version in place; Replace steps carry the
// superseded package in Old.
type Step struct {
	Kind StepKind
	New  *database.PackageRecord
	Old  *database.PackageRecord
}

// Name returns the package name the step acts on.
func (s Step) Name() string {
	if s.New != nil {
		return s.New.Name
	}
	return s.Old.Name
}

// Resolution is the dependency-closed, conflict-checked, ordered outcome of
// resolving a request set. AlsoRemove lists packages whose presence is no
// longer justified after the plan; they are offered to the caller, never
// removed silently.
type Resolution struct {
	Steps      []Step
	AlsoRemove []*database.PackageRecord
}

// Empty reports whether the plan requires no action.
func (r *Resolution) Empty() bool {
	return len(r.Steps) == 0
}

// Removed returns the names of packages leaving the system, including
// replaced and upgraded-over versions.
func (r *Resolution) Removed() []string {
	var names []string
	for _, s := range r.Steps {
		if s.Old != nil {
			names = append(names, s.Old.Name)
		}
	}
	return names
}

// Installed returns the records entering the system.
func (r *Resolution) Installed() []*database.PackageRecord {
	var recs []*database.PackageRecord
	for _, s := range r.Steps {
		if s.New != nil {
			recs = append(recs, s.New)
		}
	}
	return recs
}
