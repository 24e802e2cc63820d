// Package backend implements the two config-fetch transports spec.md §4.1
// describes: a local hosted-extension HTTP endpoint, and a cloud parameter
// store. Both satisfy chaos.Fetcher, returning the raw response bytes
// unparsed — decoding and validation are the chaos package's job.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gunnargrosch/failure-lambda/chaos"
)

const defaultHTTPTimeout = 5 * time.Second

// HostedFetcher issues a GET to the local extension HTTP endpoint
// (spec.md §6: "GET to http://localhost:<port>/applications/<app>/
// environments/<env>/configurations/<profile>"), grounded on the
// teacher's pkg/ai/openai.go makeRequest shape: a timeout-bound
// http.Client, status-code check, and wrapped transport errors.
type HostedFetcher struct {
	App     string
	Env     string
	Profile string
	Port    int

	client *http.Client
}

// NewHostedFetcher builds a HostedFetcher. A nil http.Client defaults to
// one bound by defaultHTTPTimeout.
func NewHostedFetcher(app, env, profile string, port int, client *http.Client) *HostedFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HostedFetcher{App: app, Env: env, Profile: profile, Port: port, client: client}
}

func (f *HostedFetcher) url() string {
	return fmt.Sprintf("http://localhost:%d/applications/%s/environments/%s/configurations/%s",
		f.Port, f.App, f.Env, f.Profile)
}

// Fetch implements chaos.Fetcher.
func (f *HostedFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", chaos.ErrBackendUnreachable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chaos.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", chaos.ErrBadResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", chaos.ErrBadResponse, resp.StatusCode)
	}

	return body, nil
}
