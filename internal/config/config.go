package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	goconfig "github.com/tpodg/go-config"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

const (
	DefaultConfigFileName = ".vestaprov.yaml"
	EnvPrefix             = "VESTAPROV"

	TransportHTTP = "http"
	TransportSSH  = "ssh"
)

type Config struct {
	Servers []ServerConfig `yaml:"servers"`
}

type ServerConfig struct {
	Name       string        `yaml:"name"`
	Host       string        `yaml:"host"`
	// Port is handed to the panel as is; empty or non-numeric means 8083.
	Port       string        `yaml:"port"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	AccessHash string        `yaml:"accesshash"`
	Timeout    time.Duration `yaml:"timeout"`
	Transport  string        `yaml:"transport"`
	SSH        SSHConfig     `yaml:"ssh"`
}

// SSHConfig is only used with the ssh transport.
type SSHConfig struct {
	Address          string        `yaml:"address"`
	User             string        `yaml:"user"`
	SSHKey           string        `yaml:"ssh_key"`
	SudoPassword     string        `yaml:"sudo_password"`
	KnownHostsPath   string        `yaml:"known_hosts"`
	UseAgent         *bool         `yaml:"use_agent"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	BinDir           string        `yaml:"bin_dir"`
}

// Panel returns the connection details understood by the vesta package.
func (s ServerConfig) Panel() vesta.ServerConfig {
	return vesta.ServerConfig{
		Host:       s.Host,
		Port:       s.Port,
		Username:   s.Username,
		Password:   s.Password,
		AccessHash: s.AccessHash,
	}
}

// TransportName returns the configured transport, defaulting to http.
func (s ServerConfig) TransportName() string {
	if s.Transport == "" {
		return TransportHTTP
	}
	return s.Transport
}

// Validate checks the fields every transport needs.
func (s ServerConfig) Validate() error {
	if s.Name == "" {
		return errors.New("server name is required")
	}
	if s.Host == "" {
		return fmt.Errorf("server %s: host is required", s.Name)
	}
	switch s.TransportName() {
	case TransportHTTP:
		if s.AccessHash == "" && (s.Username == "" || s.Password == "") {
			return fmt.Errorf("server %s: accesshash or username and password are required", s.Name)
		}
	case TransportSSH:
		if s.SSH.User == "" {
			return fmt.Errorf("server %s: ssh.user is required for the ssh transport", s.Name)
		}
	default:
		return fmt.Errorf("server %s: unknown transport %q", s.Name, s.Transport)
	}
	return nil
}

// Server returns the server with the given name.
func (c *Config) Server(name string) (ServerConfig, error) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, nil
		}
	}
	return ServerConfig{}, fmt.Errorf("server %q is not configured", name)
}

// Load the configuration from the given file or default locations.
// Variables from a .env file in the working directory are applied first
// without overriding the environment.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}

	c := goconfig.New()
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
		}
		c.WithProviders(&goconfig.Yaml{Path: absPath})
	}

	c.WithProviders(&goconfig.Env{Prefix: EnvPrefix})

	cfg := &Config{}
	if err := c.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, s := range cfg.Servers {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func findConfigFile(cfgFile string) (string, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		return cfgFile, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, DefaultConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if _, err := os.Stat(DefaultConfigFileName); err == nil {
		return DefaultConfigFileName, nil
	}

	return "", nil
}
