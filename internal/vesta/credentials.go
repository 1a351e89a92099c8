package vesta

import (
	"net"
	"net/url"
	"strconv"
)

// DefaultPort is the panel port used when none (or a non-numeric one) is configured.
const DefaultPort = "8083"

// ServerConfig holds the connection details of a single panel server.
type ServerConfig struct {
	Host       string
	Port       string
	Username   string
	Password   string
	AccessHash string
}

// PortOrDefault returns the configured port if it is numeric, DefaultPort otherwise.
func (c ServerConfig) PortOrDefault() string {
	if _, err := strconv.ParseUint(c.Port, 10, 16); err == nil {
		return c.Port
	}
	return DefaultPort
}

// BaseURL returns the panel root, e.g. https://example.com:8083/.
func (c ServerConfig) BaseURL() string {
	return "https://" + net.JoinHostPort(c.Host, c.PortOrDefault()) + "/"
}

// Endpoint returns the remote API URL.
func (c ServerConfig) Endpoint() string {
	return c.BaseURL() + "api/"
}

// Credentials returns the authentication fields merged into every request.
// A non-empty access hash takes precedence over the username/password pair.
func Credentials(cfg ServerConfig) url.Values {
	v := url.Values{}
	if cfg.AccessHash != "" {
		v.Set("hash", cfg.AccessHash)
		return v
	}
	v.Set("user", cfg.Username)
	v.Set("password", cfg.Password)
	return v
}
