package engine

import (
	"regexp"
	"strings"
)

// PruneFreezeOutput filters raw freeze output (one requirement per line, as
// an installer's "freeze" subcommand emits it) down to exact pins and
// editable references, per spec.md §4.A: "keep only lines containing ==
// or beginning with -e ; drop everything else." Applying this twice is
// idempotent, since its own output only ever contains lines that already
// satisfy the keep predicate.
func PruneFreezeOutput(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if IsEditable(trimmed) || strings.Contains(trimmed, "==") {
			out = append(out, trimmed)
		}
	}
	return out
}

// namePattern extracts the package name token from the head of a manifest
// line.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_\-\[\]\.]+`)

// pinPattern recognizes an exact pin, with any trailing environment-marker
// segment ("; python_version >= ...") excluded from the version half.
var pinPattern = regexp.MustCompile(`^[A-Za-z0-9_\-\[\]\.]+==[^;]+$`)

// LineName extracts and normalizes the package name from the head of a
// manifest line. Returns "" if the line doesn't start with a name-shaped
// token (e.g. a bare "-e ./local-pkg" editable with no named component).
func LineName(line string) string {
	if IsEditable(line) {
		return ""
	}
	m := namePattern.FindString(strings.TrimSpace(line))
	if m == "" {
		return ""
	}
	// Strip any extras suffix like "requests[security]" down to the base
	// name for identity purposes; the bracket content isn't part of the
	// package identity.
	if i := strings.IndexByte(m, '['); i >= 0 {
		m = m[:i]
	}
	return Normalize(m)
}

// IsEditable reports whether line is an editable/local reference (a
// "-e ./path" or "-e git+..." entry), which is never a candidate for
// pinning or substitution.
func IsEditable(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "-e ")
}

// IsExactPin reports whether line is an exact pin (name==version, possibly
// with a trailing "; marker" segment stripped before matching).
func IsExactPin(line string) bool {
	line = strings.TrimSpace(line)
	if IsEditable(line) {
		return false
	}
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return pinPattern.MatchString(line)
}

// PinVersion returns everything after "==" in an exact-pin line (including
// any trailing "; marker" segment), and ok=false if line isn't an exact pin.
func PinVersion(line string) (version string, ok bool) {
	line = strings.TrimSpace(line)
	if !IsExactPin(line) {
		return "", false
	}
	i := strings.Index(line, "==")
	return line[i+2:], true
}

// SubstitutePin returns lines with the entry whose normalized name equals
// name replaced by "name==version" (preserving the original casing/extras
// of name as given). Lines with no matching name are returned unchanged.
// Used by the attempt engine to materialize a trial manifest and by the
// manifest store's Rewrite.
func SubstitutePin(lines []string, name, version string) []string {
	norm := Normalize(name)
	out := make([]string, len(lines))
	for i, l := range lines {
		if LineName(l) == norm && !IsEditable(l) {
			out[i] = name + "==" + version
		} else {
			out[i] = l
		}
	}
	return out
}
