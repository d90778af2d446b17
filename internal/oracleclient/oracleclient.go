// Package oracleclient implements engine.Oracle over a generic text-in/
// text-out HTTP endpoint (a model-serving proxy in front of whatever LLM
// the operator configures), the Go stand-in for the Python prototype's
// google.generativeai client (dependency_agent.py). spec.md §6 specifies
// the oracle purely as two text queries; nothing in the example pack
// vendors a Gemini/OpenAI Go SDK, so this speaks the smallest possible
// contract (POST a prompt, read back a text completion) and leaves the
// actual model choice to deployment configuration. Retries go through
// github.com/cenkalti/backoff/v4, same as internal/registryclient; any
// failure — network, non-2xx, quota-exhausted — degrades to an empty
// reply, never an error (BacktrackVersions additionally tags a
// quota-exhausted reply as OracleQuotaExhausted), so the agent keeps
// functioning without the oracle per spec.md §1.
package oracleclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Bhargavvvv2912/depagent/internal/engine"
)

// Client is the default engine.Oracle implementation.
type Client struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	MaxElapsed time.Duration
}

// New returns a Client pointed at endpoint, authenticating with apiKey.
func New(endpoint, apiKey string) *Client {
	return &Client{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxElapsed: 20 * time.Second,
	}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type promptResponse struct {
	Text string `json:"text"`
}

// BacktrackVersions implements engine.Oracle.
func (c *Client) BacktrackVersions(ctx context.Context, name, failedVersion string, k int) engine.OracleReply {
	if c.Endpoint == "" {
		return engine.OracleReply{Kind: engine.OracleEmpty}
	}
	prompt := fmt.Sprintf(
		"Give the %d most recent prior released versions of the Python package %q strictly before version %s, "+
			"as a JSON-style bracketed list of version strings in descending order, e.g. [\"1.2.3\", \"1.2.2\"].",
		k, name, failedVersion,
	)
	text, quotaExhausted, ok := c.completeChecked(ctx, prompt)
	if quotaExhausted {
		return engine.OracleReply{Kind: engine.OracleQuotaExhausted}
	}
	if !ok {
		return engine.OracleReply{Kind: engine.OracleEmpty}
	}
	return engine.ParseBacktrackReply(text)
}

// SummarizeError implements engine.Oracle.
func (c *Client) SummarizeError(ctx context.Context, errorLog string) engine.OracleReply {
	if c.Endpoint == "" {
		return engine.OracleReply{Kind: engine.OracleEmpty}
	}
	prompt := "Summarize the root cause of this package installation error in one sentence:\n\n" + errorLog
	text, ok := c.complete(ctx, prompt)
	if !ok {
		return engine.OracleReply{Kind: engine.OracleEmpty}
	}
	return engine.ParseSummaryReply(text)
}

// RootCause implements engine.Oracle. Carried for completeness, per
// spec.md's Open Question on vestigial concepts; the core healing
// controller never calls it.
func (c *Client) RootCause(ctx context.Context, pkg, errorLog, manifest string) engine.OracleReply {
	if c.Endpoint == "" {
		return engine.OracleReply{Kind: engine.OracleEmpty}
	}
	prompt := fmt.Sprintf(
		"A dependency upgrade of %q failed to install. Is this self-inflicted, or caused by another "+
			"named package needing a different constraint? Error log:\n\n%s\n\nManifest:\n\n%s",
		pkg, errorLog, manifest,
	)
	text, ok := c.complete(ctx, prompt)
	if !ok {
		return engine.OracleReply{Kind: engine.OracleEmpty}
	}
	return engine.ParseSummaryReply(text)
}

// complete posts prompt to the endpoint and returns the raw text reply,
// ok=false on any failure (including retry exhaustion).
func (c *Client) complete(ctx context.Context, prompt string) (string, bool) {
	text, _, ok := c.completeChecked(ctx, prompt)
	return text, ok
}

// completeChecked is complete plus a quotaExhausted flag, for callers
// (BacktrackVersions) that need to distinguish "the provider rejected
// this call for quota reasons" from an ordinary failure.
func (c *Client) completeChecked(ctx context.Context, prompt string) (text string, quotaExhausted bool, ok bool) {
	op := func() error {
		body, err := json.Marshal(promptRequest{Prompt: prompt})
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err // network blip: retryable
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return backoff.Permanent(errQuotaExhausted)
		}
		if resp.StatusCode >= 500 {
			return errServerError
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(errUnexpectedStatus)
		}

		var out promptResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(err)
		}
		text = out.Text
		return nil
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(c.maxElapsed()),
	), ctx)

	if err := backoff.Retry(op, b); err != nil {
		return "", errors.Is(err, errQuotaExhausted), false
	}
	return text, false, true
}

func (c *Client) maxElapsed() time.Duration {
	if c.MaxElapsed > 0 {
		return c.MaxElapsed
	}
	return 20 * time.Second
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

var (
	errQuotaExhausted   = simpleError("oracle: quota exhausted")
	errServerError      = simpleError("oracle: server error")
	errUnexpectedStatus = simpleError("oracle: unexpected status")
)
