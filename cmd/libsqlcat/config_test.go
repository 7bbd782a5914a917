package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomyedwab/libsqlhttp/libsql/client"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	conf, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, conf.Profiles)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_profile: prod
profiles:
  prod:
    url: https://db.example.com
    auth_token: secret
  local:
    url: http://127.0.0.1:8080
    format: json
`), 0o600))

	conf, err = loadConfig(path)
	require.NoError(t, err)

	p, err := conf.profile("")
	require.NoError(t, err)
	assert.Equal(t, profile{URL: "https://db.example.com", AuthToken: "secret"}, p)

	p, err = conf.profile("local")
	require.NoError(t, err)
	assert.Equal(t, "json", p.Format)

	_, err = conf.profile("staging")
	assert.ErrorContains(t, err, `Profile "staging" not found`)

	require.NoError(t, os.WriteFile(path, []byte("profiles: [\n"), 0o600))
	_, err = loadConfig(path)
	assert.ErrorContains(t, err, "Failed to parse config file")
}

func TestProfileClient(t *testing.T) {
	cl, err := profile{URL: "jdbc:libsql:http://localhost:8080?clientId=cli"}.client(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cl.BaseURL())
	assert.Equal(t, "cli", cl.ClientID())

	cl, err = profile{URL: "http://localhost:8080", ClientID: "x"}.client(nil)
	require.NoError(t, err)
	assert.Equal(t, "x", cl.ClientID())

	_, err = profile{URL: "libsql:ftp://localhost"}.client(nil)
	assert.True(t, client.IsValidationError(err))
}

func TestRenderTable(t *testing.T) {
	header := []string{"A", "B"}
	data := [][]string{{"1", "x"}, {"2", "z"}}
	raw := []map[string]any{{"A": 1, "B": "x"}, {"A": 2, "B": "z"}}

	tests := []struct {
		format string
		want   string
	}{
		{format: "csv", want: "1,x\n2,z\n"},
		{format: "csv,header", want: "A,B\n1,x\n2,z\n"},
		{format: "yaml", want: "- A: 1\n  B: x\n- A: 2\n  B: z\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, renderTable(&buf, tt.format, header, data, raw))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, TableFormatTable, header, data, raw))
	assert.Contains(t, buf.String(), "| A | B |")

	assert.ErrorContains(t, renderTable(&buf, "xml", header, data, raw), `Invalid format "xml"`)
}
