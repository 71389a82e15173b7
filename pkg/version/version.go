// Package version implements package version parsing and comparison with
// epoch:pkgver-pkgrel semantics, plus version constraint matching.
package version

import (
	"strconv"
	"strings"
)

// Version is a parsed package version of the form [epoch:]pkgver[-pkgrel].
type Version struct {
	Epoch int
	Ver   string
	Rel   string
}

// Parse splits a version string into its epoch, pkgver, and pkgrel parts.
// Missing parts default to epoch 0 and an empty pkgrel.
func Parse(s string) Version {
	var v Version

	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		if n, err := strconv.Atoi(s[:idx]); err == nil {
			v.Epoch = n
			s = s[idx+1:]
		}
	}

	if idx := strings.LastIndexByte(s, '-'); idx >= 0 {
		v.Rel = s[idx+1:]
		s = s[:idx]
	}

	v.Ver = s
	return v
}

// String reassembles the version into its canonical form.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		b.WriteString(strconv.Itoa(v.Epoch))
		b.WriteByte(':')
	}
	b.WriteString(v.Ver)
	if v.Rel != "" {
		b.WriteByte('-')
		b.WriteString(v.Rel)
	}
	return b.String()
}

// Compare returns -1, 0, or 1 if a is older than, equal to, or newer than b.
// Epoch dominates; pkgver and pkgrel are compared segment-wise. A version
// without a pkgrel compares equal to any pkgrel of the same pkgver.
func Compare(a, b string) int {
	va, vb := Parse(a), Parse(b)

	if va.Epoch != vb.Epoch {
		if va.Epoch < vb.Epoch {
			return -1
		}
		return 1
	}

	if c := compareSegments(va.Ver, vb.Ver); c != 0 {
		return c
	}

	if va.Rel == "" || vb.Rel == "" {
		return 0
	}
	return compareSegments(va.Rel, vb.Rel)
}

// compareSegments walks both strings block-wise: runs of digits compare
// numerically, runs of letters compare lexically, and a numeric block always
// beats an alphabetic one. Trailing alphabetic segments sort older than the
// bare version (1.0a < 1.0), trailing numeric segments newer (1.0.1 > 1.0).
func compareSegments(a, b string) int {
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		ai, bj := i, j
		numA := isDigit(a[i])
		numB := isDigit(b[j])

		for i < len(a) && isDigit(a[i]) == numA && isAlnum(a[i]) {
			i++
		}
		for j < len(b) && isDigit(b[j]) == numB && isAlnum(b[j]) {
			j++
		}

		segA, segB := a[ai:i], b[bj:j]

		if numA != numB {
			// Numeric segments are newer than alphabetic ones.
			if numA {
				return 1
			}
			return -1
		}

		var c int
		if numA {
			c = compareNumeric(segA, segB)
		} else {
			c = strings.Compare(segA, segB)
		}
		if c != 0 {
			return c
		}
	}

	restA := trimSeparators(a[i:])
	restB := trimSeparators(b[j:])

	switch {
	case restA == "" && restB == "":
		return 0
	case restA == "":
		if isDigit(restB[0]) {
			return -1
		}
		return 1
	case restB == "":
		if isDigit(restA[0]) {
			return 1
		}
		return -1
	}
	return 0
}

func trimSeparators(s string) string {
	i := 0
	for i < len(s) && !isAlnum(s[i]) {
		i++
	}
	return s[i:]
}

func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
