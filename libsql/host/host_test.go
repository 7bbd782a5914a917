package host

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

func batch(t *testing.T, stmts ...string) types.BatchRequest {
	t.Helper()
	req := types.BatchRequest{}
	for _, s := range stmts {
		req.Statements = append(req.Statements, json.RawMessage(s))
	}
	return req
}

func post(t *testing.T, url, token string, req types.BatchRequest) (*http.Response, []types.StatementResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []types.StatementResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestExecuteBatch(t *testing.T) {
	db := sqlx.MustConnect("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	defer db.Close()
	h := NewHost(db, Config{})

	responses, err := h.ExecuteBatch(context.Background(), batch(t,
		`"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT, data BLOB, score REAL)"`,
		`{"q":"INSERT INTO t (name, data, score) VALUES (?, ?, ?)","params":["a",{"base64":"aGk="},1.5]}`,
		`{"q":"INSERT INTO t (name) VALUES (:name), (:name)","params":{":name":"b"}}`,
		`"SELECT * FROM missing"`,
		`"SELECT id, name, data, score FROM t ORDER BY id"`,
	), false)
	require.NoError(t, err)
	require.Len(t, responses, 5)

	require.Empty(t, responses[1].Error)
	assert.Equal(t, int64(1), responses[1].Results.RowsWritten)
	require.Empty(t, responses[2].Error)
	assert.Equal(t, int64(2), responses[2].Results.RowsWritten)

	assert.Contains(t, responses[3].Error, "no such table")
	assert.Nil(t, responses[3].Results)

	res := responses[4].Results
	require.NotNil(t, res)
	assert.Equal(t, []string{"id", "name", "data", "score"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, int64(3), res.RowsRead)
	assert.Equal(t, int64(0), res.RowsWritten)

	first := res.Rows[0]
	assert.JSONEq(t, `1`, string(first[0]))
	assert.JSONEq(t, `"a"`, string(first[1]))
	assert.JSONEq(t, `{"base64":"aGk="}`, string(first[2]))
	assert.JSONEq(t, `1.5`, string(first[3]))

	second := res.Rows[1]
	assert.JSONEq(t, `"b"`, string(second[1]))
	assert.JSONEq(t, `null`, string(second[2]))
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`null`, nil},
		{`true`, true},
		{`"x"`, "x"},
		{`12`, int64(12)},
		{`-3.25`, -3.25},
		{`{"base64":"AAE="}`, []byte{0, 1}},
	}
	for _, tt := range tests {
		got, err := decodeValue(json.RawMessage(tt.in))
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := decodeValue(json.RawMessage(`[1]`))
	assert.Error(t, err)
}

func TestHandlerAuth(t *testing.T) {
	secret := []byte("test-secret")
	server, _ := NewTestServer(t, Config{JWTSecret: secret},
		"CREATE TABLE t (v TEXT)")

	rw, err := NewToken(secret, "rw")
	require.NoError(t, err)
	ro, err := NewToken(secret, "ro")
	require.NoError(t, err)
	bogus, err := NewToken(secret, "admin")
	require.NoError(t, err)
	foreign, err := NewToken([]byte("other-secret"), "rw")
	require.NoError(t, err)

	insert := batch(t, `"INSERT INTO t VALUES ('x')"`)

	resp, _ := post(t, server.URL, "", insert)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, server.URL, foreign, insert)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, server.URL, bogus, insert)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out := post(t, server.URL, rw, insert)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Error)

	resp, out = post(t, server.URL, ro, insert)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].Error, "read-only token must not write")

	resp, out = post(t, server.URL, ro, batch(t, `"SELECT count(*) AS n FROM t"`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out, 1)
	assert.JSONEq(t, `1`, string(out[0].Results.Rows[0][0]))

	// query_only must not leak into later full-access batches
	resp, out = post(t, server.URL, rw, insert)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, out[0].Error)
}

func TestHandlerVersion(t *testing.T) {
	server, _ := NewTestServer(t, Config{Version: "9.9.9"})

	resp, err := http.Get(server.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "libsqlhost 9.9.9 (sqlite "), buf.String())
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHandlerBadRequest(t *testing.T) {
	server, _ := NewTestServer(t, Config{})

	resp, err := http.Post(server.URL, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
