package engine

import (
	"regexp"
	"strings"
)

var bracketPattern = regexp.MustCompile(`\[[^\[\]]*\]`)

// ParseBacktrackReply extracts the first bracketed literal from a raw
// oracle response and parses it as a sequence of version strings. This
// never errors; a malformed or empty reply just yields an OracleEmpty
// result, treated by callers as "no suggestions".
func ParseBacktrackReply(raw string) OracleReply {
	m := bracketPattern.FindString(raw)
	if m == "" {
		return OracleReply{Kind: OracleEmpty}
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(m, "["), "]")
	if strings.TrimSpace(inner) == "" {
		return OracleReply{Kind: OracleEmpty}
	}

	var versions []string
	for _, part := range strings.Split(inner, ",") {
		v := strings.Trim(strings.TrimSpace(part), `"'`)
		if v == "" {
			continue
		}
		versions = append(versions, v)
	}

	if len(versions) == 0 {
		return OracleReply{Kind: OracleEmpty}
	}
	return OracleReply{Kind: OracleVersionList, Versions: versions}
}

// ParseSummaryReply wraps a raw one-line summary reply into an
// OracleReply, trimming surrounding whitespace. An empty reply (failure,
// or a circuit-broken oracle) yields OracleEmpty.
func ParseSummaryReply(raw string) OracleReply {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OracleReply{Kind: OracleEmpty}
	}
	return OracleReply{Kind: OracleSummary, Summary: strings.ReplaceAll(s, "\n", " ")}
}
