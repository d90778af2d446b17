package engine

import "testing"

func TestParseBacktrackReplyWellFormed(t *testing.T) {
	r := ParseBacktrackReply(`Sure, here you go: ["1.9.5", "1.9.4", "1.9.3"]`)
	if r.Kind != OracleVersionList {
		t.Fatalf("Kind = %v, want OracleVersionList", r.Kind)
	}
	want := []string{"1.9.5", "1.9.4", "1.9.3"}
	if len(r.Versions) != len(want) {
		t.Fatalf("Versions = %v, want %v", r.Versions, want)
	}
	for i := range want {
		if r.Versions[i] != want[i] {
			t.Errorf("Versions[%d] = %q, want %q", i, r.Versions[i], want[i])
		}
	}
}

func TestParseBacktrackReplyMalformed(t *testing.T) {
	for _, raw := range []string{
		"I cannot help with that.",
		"[]",
		"[   ]",
		"",
	} {
		if r := ParseBacktrackReply(raw); r.Kind != OracleEmpty {
			t.Errorf("ParseBacktrackReply(%q).Kind = %v, want OracleEmpty", raw, r.Kind)
		}
	}
}

func TestParseSummaryReply(t *testing.T) {
	r := ParseSummaryReply("  numpy 2.0 dropped the removed alias.\n")
	if r.Kind != OracleSummary || r.Summary != "numpy 2.0 dropped the removed alias." {
		t.Fatalf("ParseSummaryReply() = %+v", r)
	}

	if r := ParseSummaryReply(""); r.Kind != OracleEmpty {
		t.Fatalf("ParseSummaryReply(\"\").Kind = %v, want OracleEmpty", r.Kind)
	}
}
