package driver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

const dialect = "libsql:"

// Config is the parsed form of a connection URL.
type Config struct {
	// URL is the server URL with driver properties removed.
	URL       string
	AuthToken string
	ClientID  string
}

// ParseDSN parses "[<prefix>:]libsql:<server-url>". The query parameters
// authToken (alias password) and clientId are removed from the server URL and
// returned as properties.
func ParseDSN(dsn string) (Config, error) {
	idx := strings.Index(dsn, dialect)
	if idx < 0 || (idx > 0 && dsn[idx-1] != ':') {
		return Config{}, client.NewValidationError(fmt.Sprintf("invalid connection URL %q: expected [<prefix>:]libsql:<server-url>", dsn))
	}

	u, err := url.Parse(dsn[idx+len(dialect):])
	if err != nil {
		return Config{}, client.NewErrorWithCause(client.ErrorTypeValidation, fmt.Sprintf("invalid server URL in %q", dsn), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, client.NewValidationError(fmt.Sprintf("invalid server URL in %q: expected http(s)://host", dsn))
	}

	var cfg Config
	query := u.Query()
	if token := query.Get("authToken"); token != "" {
		cfg.AuthToken = token
	} else {
		cfg.AuthToken = query.Get("password")
	}
	cfg.ClientID = query.Get("clientId")
	query.Del("authToken")
	query.Del("password")
	query.Del("clientId")
	u.RawQuery = query.Encode()

	cfg.URL = u.String()
	return cfg, nil
}

// Options returns the client options carried by the config.
func (c Config) Options() []client.ClientOption {
	var options []client.ClientOption
	if c.AuthToken != "" {
		options = append(options, client.WithAuthToken(c.AuthToken))
	}
	if c.ClientID != "" {
		options = append(options, client.WithClientID(c.ClientID))
	}
	return options
}
