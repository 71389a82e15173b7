package resolver

import (
	"fmt"
	"strings"

	"napm/pkg/database"
)

// UnsatisfiedError reports a dependency no available or installed package
// can satisfy, or a removal that would leave a dependent broken. Chain is
// the path of requiring packages, outermost first.
type UnsatisfiedError struct {
	Dep   database.Depend
	Chain []string
}

func (e *UnsatisfiedError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("nothing satisfies %s", e.Dep)
	}
	return fmt.Sprintf("nothing satisfies %s (required by %s)", e.Dep, strings.Join(e.Chain, " -> "))
}

// AmbiguousProvidesError reports a virtual dependency with more than one
// candidate provider and no exact-name match. The caller must disambiguate.
type AmbiguousProvidesError struct {
	Dep        database.Depend
	Candidates []string
	Chain      []string
}

func (e *AmbiguousProvidesError) Error() string {
	msg := fmt.Sprintf("multiple packages provide %s: %s", e.Dep, strings.Join(e.Candidates, ", "))
	if len(e.Chain) > 0 {
		msg += fmt.Sprintf(" (required by %s)", strings.Join(e.Chain, " -> "))
	}
	return msg
}

// ConflictError reports two packages that declare a conflict and are not a
// designated replacement pair.
type ConflictError struct {
	Pkg1 string
	Pkg2 string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("package %s conflicts with %s", e.Pkg1, e.Pkg2)
}

// CycleError reports a circular hard dependency among packages to install.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular hard dependency among: %s", strings.Join(e.Cycle, ", "))
}

// NotInstalledError reports an operation on a package missing from the
// local database.
type NotInstalledError struct {
	Name string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("package %s is not installed", e.Name)
}
