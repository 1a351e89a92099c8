package vesta_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

func newTLSPanel(t *testing.T, handler http.HandlerFunc) vesta.ServerConfig {
	t.Helper()

	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	return vesta.ServerConfig{Host: u.Hostname(), Port: u.Port(), Username: "admin", Password: "pw"}
}

func TestHTTPTransportSend(t *testing.T) {
	var got url.Values
	var path, contentType, method string
	cfg := newTLSPanel(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		got = r.PostForm
		io.WriteString(w, "0")
	})

	transport := vesta.NewHTTPTransport(cfg, 0)
	body, err := transport.Send(context.Background(), vesta.Command{Name: vesta.CmdSuspendUser, Args: []string{"alice", "no"}})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if body != "0" {
		t.Errorf("expected body %q, got %q", "0", body)
	}
	if method != http.MethodPost || path != "/api/" {
		t.Errorf("expected POST /api/, got %s %s", method, path)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content type %q", contentType)
	}

	want := map[string]string{
		"user":       "admin",
		"password":   "pw",
		"returncode": "yes",
		"cmd":        vesta.CmdSuspendUser,
		"arg1":       "alice",
		"arg2":       "no",
	}
	for key, value := range want {
		if got.Get(key) != value {
			t.Errorf("form field %s = %q, want %q", key, got.Get(key), value)
		}
	}
	if got.Has("hash") {
		t.Error("expected no hash field with password credentials")
	}
}

func TestHTTPTransportAccessHash(t *testing.T) {
	var got url.Values
	cfg := newTLSPanel(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		got = r.PostForm
		io.WriteString(w, "0")
	})
	cfg.AccessHash = "token"

	if _, err := vesta.NewHTTPTransport(cfg, 0).Send(context.Background(), vesta.Command{Name: vesta.CmdListUsers}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got.Get("hash") != "token" || got.Has("user") || got.Has("password") {
		t.Errorf("expected only hash credentials, got %v", got)
	}
}

func TestHTTPTransportHTTPError(t *testing.T) {
	cfg := newTLSPanel(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := vesta.NewHTTPTransport(cfg, 0).Send(context.Background(), vesta.Command{Name: vesta.CmdListUsers}); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	cfg := newTLSPanel(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := vesta.NewHTTPTransport(cfg, 50*time.Millisecond).Send(context.Background(), vesta.Command{Name: vesta.CmdListUsers})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestManagerOverHTTP(t *testing.T) {
	cfg := newTLSPanel(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		switch r.PostForm.Get("cmd") {
		case vesta.CmdDeleteUser:
			io.WriteString(w, "3\n")
		case vesta.CmdListUsers:
			io.WriteString(w, "Error: authentication failed")
		default:
			io.WriteString(w, "0")
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := vesta.New(cfg, vesta.NewHTTPTransport(cfg, time.Second), logger)
	ctx := context.Background()

	if err := m.CancelAccount(ctx, testAccount); err != nil {
		t.Errorf("expected already-deleted account to be cancelled, got %v", err)
	}
	if err := m.CreateAccount(ctx, testAccount); err != nil {
		t.Errorf("unexpected create error: %v", err)
	}
	if err := m.TestConnection(ctx); err == nil {
		t.Error("expected connection test to fail on error response")
	}
}
