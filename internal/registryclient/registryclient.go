// Package registryclient implements engine.Registry against a PyPI-JSON
// style package index: GET /pypi/<name>/json returns a "releases" map
// keyed by version string, each value an array of file-upload records. Any
// failure (network, decode, 404) resolves to the empty result, per
// spec.md §4.B's failure policy: "the agent treats unknown packages as
// already up to date," never a hard error. Requests are retried with
// github.com/cenkalti/backoff/v4's exponential backoff, matching
// malbeclabs-doublezero's DefaultListenFuncWithRetry shape, so a transient
// blip isn't mistaken for "package doesn't exist."
package registryclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

// DefaultIndexURL is the public PyPI JSON index.
const DefaultIndexURL = "https://pypi.org/pypi"

// Client is the default engine.Registry implementation.
type Client struct {
	IndexURL   string
	HTTPClient *http.Client
	MaxElapsed time.Duration
}

// New returns a Client pointed at the public PyPI index with sane retry
// and timeout defaults.
func New() *Client {
	return &Client{
		IndexURL:   DefaultIndexURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		MaxElapsed: 30 * time.Second,
	}
}

type projectJSON struct {
	Releases map[string][]struct {
		Yanked bool `json:"yanked"`
	} `json:"releases"`
}

// Latest implements engine.Registry.
func (c *Client) Latest(ctx context.Context, name string) (engine.Version, bool) {
	versions, ok := c.allVersions(ctx, name)
	if !ok {
		return engine.Version{}, false
	}
	return engine.GreatestStable(versions)
}

// Range implements engine.Registry.
func (c *Client) Range(ctx context.Context, name string, lo, hi engine.Version) []engine.Version {
	versions, ok := c.allVersions(ctx, name)
	if !ok {
		return nil
	}
	return engine.Range(versions, lo, hi)
}

// allVersions fetches and parses the project's release list, retrying
// transient failures. A permanently unparseable response, a 404, or
// exhausted retries all collapse to ok=false.
func (c *Client) allVersions(ctx context.Context, name string) ([]engine.Version, bool) {
	var versions []engine.Version

	op := func() error {
		doc, err := c.fetch(ctx, name)
		if err != nil {
			return err
		}
		versions = toVersions(doc)
		return nil
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(c.maxElapsed()),
	), ctx)

	if err := backoff.Retry(op, b); err != nil {
		return nil, false
	}
	return versions, true
}

func (c *Client) maxElapsed() time.Duration {
	if c.MaxElapsed > 0 {
		return c.MaxElapsed
	}
	return 30 * time.Second
}

func (c *Client) fetch(ctx context.Context, name string) (projectJSON, error) {
	var doc projectJSON

	u := c.IndexURL + "/" + url.PathEscape(name) + "/json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return doc, backoff.Permanent(err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return doc, err // network blip: retryable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return doc, backoff.Permanent(errUnknownPackage)
	}
	if resp.StatusCode >= 500 {
		return doc, errServerError // retryable
	}
	if resp.StatusCode != http.StatusOK {
		return doc, backoff.Permanent(errUnexpectedStatus)
	}

	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return doc, backoff.Permanent(err)
	}
	return doc, nil
}

func toVersions(doc projectJSON) []engine.Version {
	var out []engine.Version
	for raw, files := range doc.Releases {
		if len(files) == 0 {
			// No uploaded artifacts for this release: PyPI keeps these
			// around for yanked/withdrawn versions, never a real candidate.
			continue
		}
		v := engine.ParseVersion(raw)
		if !v.Valid() {
			continue
		}
		out = append(out, v)
	}
	return out
}

var (
	errUnknownPackage   = simpleError("registry: unknown package")
	errServerError      = simpleError("registry: server error")
	errUnexpectedStatus = simpleError("registry: unexpected status")
)

type simpleError string

func (e simpleError) Error() string { return string(e) }
