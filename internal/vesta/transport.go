package vesta

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Transport delivers a command to the panel and returns its raw answer.
type Transport interface {
	Send(ctx context.Context, cmd Command) (string, error)
}

// DefaultTimeout bounds a single API round trip.
const DefaultTimeout = 30 * time.Second

const maxResponseSize = 1 << 20

// HTTPTransport talks to the panel's /api/ endpoint with form-encoded POSTs.
type HTTPTransport struct {
	endpoint string
	auth     url.Values
	client   *http.Client
}

// NewHTTPTransport creates an HTTPTransport for the given server.
// Panels usually run with self-signed certificates, so certificate
// verification is disabled. A non-positive timeout selects DefaultTimeout.
func NewHTTPTransport(cfg ServerConfig, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := cleanhttp.DefaultTransport()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	return &HTTPTransport{
		endpoint: cfg.Endpoint(),
		auth:     Credentials(cfg),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

func (t *HTTPTransport) Send(ctx context.Context, cmd Command) (string, error) {
	form := cmd.Fields()
	for key, values := range t.auth {
		form[key] = values
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", cmd.Name, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", cmd.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response for %s: %w", cmd.Name, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("post %s: unexpected status %s", cmd.Name, resp.Status)
	}
	return string(body), nil
}
