// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package names is the client for the remote name-extraction service.
// The service is an optional collaborator: every failure mode (timeout,
// non-2xx status, malformed body) degrades to an empty result and bumps
// a failure counter, never an error to the caller.
package names

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"sheetscan/internal/detector"
	"sheetscan/internal/observability"
)

// ConfidenceThreshold is the minimum service confidence for a name match
// to be flagged valid.
const ConfidenceThreshold = 0.8

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Names       []string `json:"names"`
	Confidence  float64  `json:"confidence"`
	ReviewID    *int64   `json:"review_id,omitempty"`
	IsDuplicate *bool    `json:"is_duplicate,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Client talks to the name-extraction service. Safe for concurrent use.
type Client struct {
	http     *http.Client
	host     string
	failures atomic.Int64
	observer *observability.Observer
}

// NewClient creates a client for the service at host (host:port).
func NewClient(host string, observer *observability.Observer) *Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				MaxIdleConnsPerHost: 5,
			},
		},
		host:     host,
		observer: observer,
	}
}

// Failures returns the number of failed extraction requests so far.
func (c *Client) Failures() int64 {
	return c.failures.Load()
}

// ResetFailures zeroes the failure counter.
func (c *Client) ResetFailures() {
	c.failures.Store(0)
}

// CheckHealth probes the service liveness endpoint and returns its
// reported status.
func (c *Client) CheckHealth() (string, error) {
	url := fmt.Sprintf("http://%s/api/health", c.host)

	resp, err := c.http.Get(url)
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		// A reachable endpoint with an odd body still counts as alive.
		return "ok", nil
	}
	return health.Status, nil
}

// Extract asks the service for person names in text. The validity flag
// comes from the service confidence, not a local checksum. On any
// failure the result is empty and the failure counter is incremented.
func (c *Client) Extract(text string) []detector.Match {
	if strings.TrimSpace(text) == "" {
		return []detector.Match{}
	}

	body, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return c.fail("encode request", err)
	}

	url := fmt.Sprintf("http://%s/api/extract", c.host)
	resp, err := c.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return c.fail("post", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail("status", fmt.Errorf("service returned status %d", resp.StatusCode))
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return c.fail("decode response", err)
	}

	matches := make([]detector.Match, 0, len(decoded.Names))
	for _, name := range decoded.Names {
		m := detector.Match{
			Value: name,
			Valid: decoded.Confidence >= ConfidenceThreshold,
		}
		// The service reports no positions; locate the first verbatim
		// occurrence when there is one.
		if idx := strings.Index(text, name); idx >= 0 {
			m.Start = idx
			m.End = idx + len(name)
		}
		matches = append(matches, m)
	}
	return matches
}

func (c *Client) fail(operation string, err error) []detector.Match {
	c.failures.Add(1)
	c.observer.Log(observability.Record{
		Component: "names_client",
		Operation: operation,
		Subject:   c.host,
		Success:   false,
		Error:     err.Error(),
	})
	return []detector.Match{}
}
