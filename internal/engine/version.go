package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a parsed dependency version, ordered the way PEP 440 orders
// package versions: an optional epoch, an arbitrary-length numeric release
// tuple, and a pre-release tag that sorts before the final release it
// precedes.
type Version struct {
	raw     string
	epoch   int64
	release []int64
	pre     string // "" means a final release
	valid   bool
}

var versionPattern = regexp.MustCompile(`^\s*(?:(\d+)!)?(\d+(?:\.\d+)*)([A-Za-z0-9_.\-]*)\s*$`)

// ParseVersion parses a version string into its canonical ordered form.
// Unparseable strings yield an invalid Version: Compare against one always
// reports "incomparable" via the ok return, so callers naturally exclude
// it from upgrade candidacy.
func ParseVersion(raw string) Version {
	m := versionPattern.FindStringSubmatch(raw)
	if m == nil {
		return Version{raw: raw}
	}

	v := Version{raw: raw, valid: true}
	if m[1] != "" {
		e, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Version{raw: raw}
		}
		v.epoch = e
	}

	for _, part := range strings.Split(m[2], ".") {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return Version{raw: raw}
		}
		v.release = append(v.release, n)
	}

	v.pre = strings.ToLower(strings.TrimLeft(m[3], ".-_"))
	return v
}

// Valid reports whether the version parsed successfully.
func (v Version) Valid() bool { return v.valid }

// String returns the original, unnormalized version string.
func (v Version) String() string { return v.raw }

// IsPrerelease reports whether v carries a pre-release tag.
func (v Version) IsPrerelease() bool { return v.valid && v.pre != "" }

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than
// o, and ok=false if either side failed to parse (the pair is incomparable).
func (v Version) Compare(o Version) (cmp int, ok bool) {
	if !v.valid || !o.valid {
		return 0, false
	}

	if v.epoch != o.epoch {
		if v.epoch < o.epoch {
			return -1, true
		}
		return 1, true
	}

	n := len(v.release)
	if len(o.release) > n {
		n = len(o.release)
	}
	for i := 0; i < n; i++ {
		var a, b int64
		if i < len(v.release) {
			a = v.release[i]
		}
		if i < len(o.release) {
			b = o.release[i]
		}
		if a != b {
			if a < b {
				return -1, true
			}
			return 1, true
		}
	}

	// Equal release tuples: a final release is always newer than any
	// pre-release of the same release, and two pre-releases compare
	// lexicographically on their tag (documented limitation: this is not
	// full PEP 440 pre-release ordering, e.g. "alpha" vs "a1").
	switch {
	case v.pre == o.pre:
		return 0, true
	case v.pre == "":
		return 1, true
	case o.pre == "":
		return -1, true
	case v.pre < o.pre:
		return -1, true
	default:
		return 1, true
	}
}

// LessThan is a convenience wrapper over Compare for callers that have
// already established both sides are valid.
func (v Version) LessThan(o Version) bool {
	c, ok := v.Compare(o)
	return ok && c < 0
}

// GreatestStable returns the greatest non-prerelease version among
// versions, or the greatest version overall if none are stable. The second
// return is false if versions is empty.
func GreatestStable(versions []Version) (Version, bool) {
	var bestStable, bestAny Version
	haveStable, haveAny := false, false

	for _, v := range versions {
		if !v.valid {
			continue
		}
		if !haveAny || bestAny.LessThan(v) {
			bestAny = v
			haveAny = true
		}
		if v.IsPrerelease() {
			continue
		}
		if !haveStable || bestStable.LessThan(v) {
			bestStable = v
			haveStable = true
		}
	}

	if haveStable {
		return bestStable, true
	}
	return bestAny, haveAny
}

// Range returns the sorted (ascending) non-prerelease versions v in
// versions with lo <= v < hi. Entries that fail to parse, or that can't be
// compared against lo/hi, are dropped.
func Range(versions []Version, lo, hi Version) []Version {
	var out []Version
	for _, v := range versions {
		if !v.valid || v.IsPrerelease() {
			continue
		}
		if c, ok := v.Compare(lo); !ok || c < 0 {
			continue
		}
		if c, ok := v.Compare(hi); !ok || c >= 0 {
			continue
		}
		out = append(out, v)
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LessThan(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// semverSeverity classifies a version bump as a major (3), minor (2), or
// patch/other (1) jump, feeding the risk scorer. Parsing is attempted first
// via Masterminds/semver's NewVersion (which also accepts one- or
// two-component versions), since that library's Major()/Minor() accessors
// are the natural fit when a version is semver-shaped; versions it rejects
// (four or more release components, epochs, PEP 440 suffixes such as
// "rc1") fall back to comparing the first two elements of the canonical
// release tuple directly.
func semverSeverity(cur, target Version) int {
	if sc, err := semver.NewVersion(cur.raw); err == nil {
		if st, err := semver.NewVersion(target.raw); err == nil {
			switch {
			case st.Major() > sc.Major():
				return 3
			case st.Major() == sc.Major() && st.Minor() > sc.Minor():
				return 2
			default:
				return 1
			}
		}
	}

	if !cur.valid || !target.valid {
		return 1
	}

	major := func(v Version, i int) int64 {
		if i < len(v.release) {
			return v.release[i]
		}
		return 0
	}

	if major(target, 0) > major(cur, 0) {
		return 3
	}
	if major(target, 0) == major(cur, 0) && major(target, 1) > major(cur, 1) {
		return 2
	}
	return 1
}
