package version

import "strings"

// Op is a comparison operator in a version constraint.
type Op string

const (
	OpAny Op = ""
	OpEq  Op = "="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
)

// Constraint bounds acceptable versions of a dependency. The zero value
// matches any version.
type Constraint struct {
	Op      Op     `json:"op,omitempty"`
	Version string `json:"version,omitempty"`
}

// Any reports whether the constraint accepts every version.
func (c Constraint) Any() bool {
	return c.Op == OpAny
}

// Satisfied reports whether ver meets the constraint.
func (c Constraint) Satisfied(ver string) bool {
	switch c.Op {
	case OpEq:
		return Compare(ver, c.Version) == 0
	case OpLt:
		return Compare(ver, c.Version) < 0
	case OpLe:
		return Compare(ver, c.Version) <= 0
	case OpGt:
		return Compare(ver, c.Version) > 0
	case OpGe:
		return Compare(ver, c.Version) >= 0
	}
	return true
}

// String renders the constraint as it appears in dependency strings.
func (c Constraint) String() string {
	if c.Any() {
		return ""
	}
	return string(c.Op) + c.Version
}

// Split separates a dependency string such as "bar>=2.0" into its package
// name and constraint. A bare name yields an unconstrained result.
func Split(dep string) (name string, c Constraint) {
	var mod string

	fields := strings.FieldsFunc(dep, func(r rune) bool {
		match := r == '<' || r == '>' || r == '='
		if match {
			mod += string(r)
		}
		return match
	})

	switch len(fields) {
	case 0:
		return "", Constraint{}
	case 1:
		return fields[0], Constraint{}
	}

	return fields[0], Constraint{Op: Op(mod), Version: fields[1]}
}
