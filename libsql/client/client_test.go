package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

type capturedRequest struct {
	method string
	header http.Header
	body   []byte
}

// newTestServer answers every batch with body and status, recording the
// last request it saw.
func newTestServer(t *testing.T, status int, body string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			*seen = capturedRequest{method: r.Method, header: r.Header.Clone(), body: data}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExecuteBatchRequest(t *testing.T) {
	var req capturedRequest
	server := newTestServer(t, http.StatusOK,
		`[{"results":{"columns":["a"],"rows":[[1]],"rows_read":1,"rows_written":0,"query_duration_ms":0.5}},
		  {"results":{"columns":[],"rows":[],"rows_read":0,"rows_written":3,"query_duration_ms":1}}]`,
		&req)

	c := New(server.URL, WithAuthToken("secret"), WithClientID("test-client/2.0"))

	insert, err := NewStatement("INSERT INTO t VALUES (?, ?)", 1, "x")
	if err != nil {
		t.Fatalf("NewStatement failed: %v", err)
	}
	results, err := c.ExecuteBatch(context.Background(), []Statement{Query("SELECT 1 AS a"), insert})
	if err != nil {
		t.Fatalf("ExecuteBatch failed: %v", err)
	}

	if req.method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.method)
	}
	if got := req.header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("unexpected Authorization header %q", got)
	}
	if got := req.header.Get("User-Agent"); got != "test-client/2.0" {
		t.Errorf("unexpected User-Agent %q", got)
	}
	if req.header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	var sent types.BatchRequest
	if err := json.Unmarshal(req.body, &sent); err != nil {
		t.Fatalf("request body is not a batch: %v", err)
	}
	if len(sent.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(sent.Statements))
	}
	if string(sent.Statements[0]) != `"SELECT 1 AS a"` {
		t.Errorf("expected bare string statement, got %s", sent.Statements[0])
	}
	if string(sent.Statements[1]) != `{"q":"INSERT INTO t VALUES (?, ?)","params":[1,"x"]}` {
		t.Errorf("unexpected parameterized statement %s", sent.Statements[1])
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	v, err := results[0].Value(0, "A")
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if n, _ := v.Int64(); n != 1 {
		t.Errorf("expected 1, got %v", v)
	}
	if results[1].UpdateCount() != 3 {
		t.Errorf("expected update count 3, got %d", results[1].UpdateCount())
	}
}

func TestExecuteBatchNoAuthHeaderWithoutToken(t *testing.T) {
	var req capturedRequest
	server := newTestServer(t, http.StatusOK, `[{"results":{"columns":[],"rows":[]}}]`, &req)

	if _, err := New(server.URL).Execute(context.Background(), Query("SELECT 1")); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, ok := req.header["Authorization"]; ok {
		t.Error("expected no Authorization header")
	}
	if got := req.header.Get("User-Agent"); got != DefaultClientID {
		t.Errorf("expected default client id, got %q", got)
	}
}

func TestExecuteBatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		stmts  int
		check  func(error) bool
	}{
		{
			name:   "401 is authentication error",
			status: http.StatusUnauthorized,
			body:   `[{"error":"ignored"}]`,
			stmts:  1,
			check:  IsAuthenticationError,
		},
		{
			name:   "403 is access denied",
			status: http.StatusForbidden,
			body:   `not json`,
			stmts:  1,
			check:  IsAccessDeniedError,
		},
		{
			name:   "500 without body is api error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			stmts:  1,
			check:  IsAPIError,
		},
		{
			name:   "500 with statement error",
			status: http.StatusInternalServerError,
			body:   `{"error":"no such table: t"}`,
			stmts:  1,
			check:  IsStatementError,
		},
		{
			name:   "length mismatch is protocol error",
			status: http.StatusOK,
			body:   `[{"results":{"columns":[],"rows":[]}}]`,
			stmts:  2,
			check:  IsProtocolError,
		},
		{
			name:   "malformed json is protocol error",
			status: http.StatusOK,
			body:   `[{"results":`,
			stmts:  1,
			check:  IsProtocolError,
		},
		{
			name:   "ragged row is protocol error",
			status: http.StatusOK,
			body:   `[{"results":{"columns":["a","b"],"rows":[[1]]}}]`,
			stmts:  1,
			check:  IsProtocolError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			stmts := make([]Statement, tt.stmts)
			for i := range stmts {
				stmts[i] = Query("SELECT 1")
			}
			_, err := New(server.URL).ExecuteBatch(context.Background(), stmts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type: %v", err)
			}
		})
	}
}

func TestExecuteBatchSecondStatementFails(t *testing.T) {
	server := newTestServer(t, http.StatusOK,
		`[{"results":{"columns":["a"],"rows":[[1]]}},{"error":"no such table: missing"},{"results":{"columns":[],"rows":[]}}]`,
		nil)

	results, err := New(server.URL).ExecuteBatch(context.Background(), []Statement{
		Query("SELECT 1 AS a"),
		Query("SELECT * FROM missing"),
		Query("SELECT 2"),
	})
	if results != nil {
		t.Errorf("expected no results, got %d", len(results))
	}

	var libErr *Error
	if !errors.As(err, &libErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if libErr.Type != ErrorTypeStatement {
		t.Errorf("expected statement error, got %s", libErr.Type)
	}
	if libErr.StatementIndex != 1 {
		t.Errorf("expected statement index 1, got %d", libErr.StatementIndex)
	}
	if !strings.Contains(err.Error(), "no such table: missing") {
		t.Errorf("expected server message in error, got %q", err.Error())
	}
}

func TestExecuteBatchSingleObjectResponse(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"results":{"columns":["n"],"rows":[["x"]]}}`, nil)

	res, err := New(server.URL).Execute(context.Background(), Query("SELECT 'x' AS n"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	v, err := res.Value(0, "n")
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v.String() != "x" {
		t.Errorf("expected x, got %q", v.String())
	}
}

func TestExecuteBatchEmpty(t *testing.T) {
	_, err := New("http://127.0.0.1:0").ExecuteBatch(context.Background(), nil)
	if !IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExecuteBatchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url).Execute(context.Background(), Query("SELECT 1"))
	if !IsNetworkError(err) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("libsql 0.24.1 (abc)\nsecond line\n"))
	}))
	defer server.Close()

	version, err := New(server.URL + "/").Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != "libsql 0.24.1 (abc)" {
		t.Errorf("unexpected version %q", version)
	}
}

func TestVersionUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := New(server.URL).Version(context.Background())
	if !IsAuthenticationError(err) {
		t.Errorf("expected authentication error, got %v", err)
	}
}
