package oracleclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		Endpoint:   srv.URL,
		HTTPClient: srv.Client(),
		MaxElapsed: 2 * time.Second,
	}
}

func TestBacktrackVersionsParsesListReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "[\"1.9.0\", \"1.8.0\"]"}`))
	})

	reply := c.BacktrackVersions(context.Background(), "foo", "2.0.0", 3)
	if reply.Kind != engine.OracleVersionList {
		t.Fatalf("reply.Kind = %v, want OracleVersionList", reply.Kind)
	}
	if len(reply.Versions) != 2 || reply.Versions[0] != "1.9.0" {
		t.Errorf("reply.Versions = %v, want [1.9.0 1.8.0]", reply.Versions)
	}
}

func TestBacktrackVersionsQuotaExhaustedLatchesKind(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	reply := c.BacktrackVersions(context.Background(), "foo", "2.0.0", 3)
	if reply.Kind != engine.OracleQuotaExhausted {
		t.Fatalf("reply.Kind = %v, want OracleQuotaExhausted", reply.Kind)
	}
}

func TestBacktrackVersionsNoEndpointIsEmpty(t *testing.T) {
	c := &Client{}
	reply := c.BacktrackVersions(context.Background(), "foo", "2.0.0", 3)
	if reply.Kind != engine.OracleEmpty {
		t.Fatalf("reply.Kind = %v, want OracleEmpty with no endpoint configured", reply.Kind)
	}
}

func TestSummarizeErrorParsesSummaryReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "Conflicting transitive pins on urllib3."}`))
	})

	reply := c.SummarizeError(context.Background(), "some stderr")
	if reply.Kind != engine.OracleSummary {
		t.Fatalf("reply.Kind = %v, want OracleSummary", reply.Kind)
	}
	if reply.Summary == "" {
		t.Error("expected a non-empty summary")
	}
}

func TestCompleteCheckedServerErrorIsNotQuotaExhausted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.MaxElapsed = 200 * time.Millisecond

	_, quotaExhausted, ok := c.completeChecked(context.Background(), "prompt")
	if ok {
		t.Fatal("completeChecked() ok = true, want false after exhausting retries on 500s")
	}
	if quotaExhausted {
		t.Error("quotaExhausted = true, want false for a plain server error")
	}
}
