package engine

import "testing"

func versions(raw ...string) []Version {
	out := make([]Version, len(raw))
	for i, r := range raw {
		out[i] = ParseVersion(r)
	}
	return out
}

func TestBacktrackQueueDescendsAndExcludesTarget(t *testing.T) {
	q := NewBacktrackQueue(versions("1.0.0", "1.2.0", "1.5.0", "2.0.0"), ParseVersion("2.0.0"))

	want := []string{"1.5.0", "1.2.0", "1.0.0"}
	for i, w := range want {
		v, ok := q.Current()
		if !ok {
			t.Fatalf("Current() empty at step %d", i)
		}
		if v.String() != w {
			t.Fatalf("Current() = %q at step %d, want %q", v.String(), i, w)
		}
		q.Advance("install failed")
	}
	if !q.Exhausted() {
		t.Fatalf("queue not exhausted after %d advances: %s", len(want), q)
	}
}

func TestBacktrackQueueSkipsVersionsAboveTarget(t *testing.T) {
	q := NewBacktrackQueue(versions("1.0.0", "3.0.0"), ParseVersion("2.0.0"))
	v, ok := q.Current()
	if !ok || v.String() != "1.0.0" {
		t.Fatalf("Current() = %v, %v, want 1.0.0", v, ok)
	}
	q.Advance("no")
	if !q.Exhausted() {
		t.Fatal("3.0.0 >= target should never enter the queue")
	}
}

func TestBacktrackQueueEmpty(t *testing.T) {
	q := NewBacktrackQueue(nil, ParseVersion("1.0.0"))
	if _, ok := q.Current(); ok {
		t.Fatal("Current() on empty queue reported ok")
	}
	if !q.Exhausted() {
		t.Fatal("empty queue should be exhausted")
	}
	q.Advance("noop")
	if q.String() != "[]" {
		t.Fatalf("String() = %q", q.String())
	}
}

func TestBacktrackQueueRecordsFailures(t *testing.T) {
	q := NewBacktrackQueue(versions("1.0.0", "1.1.0"), ParseVersion("2.0.0"))
	q.Advance("conflict")
	q.Advance("tests failed")
	if len(q.fails) != 2 {
		t.Fatalf("fails = %d, want 2", len(q.fails))
	}
	if q.fails[0].v.String() != "1.1.0" || q.fails[0].reason != "conflict" {
		t.Fatalf("fails[0] = %+v", q.fails[0])
	}
}
