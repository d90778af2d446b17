package engine

import (
	"fmt"
	"strings"
)

// failedProbe records one version that the healing controller tried and
// rejected, and why, for diagnostics.
type failedProbe struct {
	v      Version
	reason string
}

// BacktrackQueue is the ordered candidate list the healing controller's
// Stage 2 interval scan pops through, highest version first, recording each
// rejection. It is the direct descendant of golang-dep's versionQueue
// (internal/gps/version_queue.go): instead of lazily loading a project's
// version list from a source bridge, it is handed the registry's already
// sorted candidate slice up front, since spec.md's Registry.Range contract
// has no notion of incremental loading.
type BacktrackQueue struct {
	pi    []Version
	fails []failedProbe
}

// NewBacktrackQueue builds a queue over candidates in descending order,
// skipping any version that is not strictly less than target (the interval
// scan only ever probes versions below the version that just failed).
func NewBacktrackQueue(candidates []Version, target Version) *BacktrackQueue {
	q := &BacktrackQueue{}
	for i := len(candidates) - 1; i >= 0; i-- {
		v := candidates[i]
		if c, ok := v.Compare(target); ok && c >= 0 {
			continue
		}
		q.pi = append(q.pi, v)
	}
	return q
}

// Current returns the version at the front of the queue, and ok=false if
// the queue is empty.
func (q *BacktrackQueue) Current() (Version, bool) {
	if len(q.pi) == 0 {
		return Version{}, false
	}
	return q.pi[0], true
}

// Advance records why the current version was rejected and pops it.
func (q *BacktrackQueue) Advance(reason string) {
	if len(q.pi) == 0 {
		return
	}
	q.fails = append(q.fails, failedProbe{v: q.pi[0], reason: reason})
	q.pi = q.pi[1:]
}

// Exhausted reports whether every candidate has been tried and rejected.
func (q *BacktrackQueue) Exhausted() bool {
	return len(q.pi) == 0
}

// String renders the remaining queue, closest golang-dep's versionQueue
// diagnostic dump.
func (q *BacktrackQueue) String() string {
	vs := make([]string, len(q.pi))
	for i, v := range q.pi {
		vs[i] = v.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(vs, ", "))
}
