package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
	"github.com/tomyedwab/libsqlhttp/libsql/driver"
)

// profile holds the connection settings of one named server.
type profile struct {
	URL       string `yaml:"url"`
	AuthToken string `yaml:"auth_token,omitempty"`
	ClientID  string `yaml:"client_id,omitempty"`
	Format    string `yaml:"format,omitempty"`
}

// config is the on-disk configuration file.
//
//	default_profile: local
//	profiles:
//	  local:
//	    url: http://127.0.0.1:8080
//	    auth_token: ...
type config struct {
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]profile `yaml:"profiles,omitempty"`
}

func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "libsqlcat", "config.yaml")
}

// loadConfig reads the configuration file. A missing file is an empty
// configuration.
func loadConfig(path string) (*config, error) {
	conf := &config{}
	if path == "" {
		return conf, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return conf, nil
		}
		return nil, fmt.Errorf("Failed to read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, conf); err != nil {
		return nil, fmt.Errorf("Failed to parse config file %q: %w", path, err)
	}
	return conf, nil
}

// profile returns the named profile, or the default one when name is empty.
// Without a default, an empty profile is returned.
func (c *config) profile(name string) (profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return profile{}, nil
	}
	p, ok := c.Profiles[name]
	if !ok {
		return profile{}, fmt.Errorf("Profile %q not found in config", name)
	}
	return p, nil
}

// client creates a client for the profile. URLs may be plain server URLs or
// libsql: connection URLs carrying their own properties.
func (p profile) client(logger *slog.Logger) (*client.Client, error) {
	serverURL := p.URL
	var options []client.ClientOption
	if strings.Contains(serverURL, "libsql:") {
		dsn, err := driver.ParseDSN(serverURL)
		if err != nil {
			return nil, err
		}
		serverURL = dsn.URL
		options = append(options, dsn.Options()...)
	}

	if p.AuthToken != "" {
		options = append(options, client.WithAuthToken(p.AuthToken))
	}
	if p.ClientID != "" {
		options = append(options, client.WithClientID(p.ClientID))
	}
	if logger != nil {
		options = append(options, client.WithLogger(logger))
	}
	return client.New(serverURL, options...), nil
}
