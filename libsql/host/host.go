package host

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

// DefaultVersion is reported by GET /version when Config.Version is empty.
const DefaultVersion = "1.0.0"

// Config holds the optional settings of a Host.
type Config struct {
	// JWTSecret enables Bearer token checks when non-empty.
	JWTSecret []byte
	Version   string
	Logger    *slog.Logger
}

// Host serves the libSQL HTTP batch protocol on top of a SQLite database.
type Host struct {
	db      *sqlx.DB
	secret  []byte
	version string
	logger  *slog.Logger
}

// NewHost creates a new Host instance.
// The provided db must be an active connection to an SQLite database.
func NewHost(db *sqlx.DB, cfg Config) *Host {
	h := &Host{
		db:      db,
		secret:  cfg.JWTSecret,
		version: cfg.Version,
		logger:  cfg.Logger,
	}
	if h.version == "" {
		h.version = DefaultVersion
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Handler returns the HTTP routes: POST / runs a batch, GET /version reports
// the server version.
func (h *Host) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(h.logRequests)
	r.Get("/version", h.handleVersion)
	r.With(h.authenticate).Post("/", h.handleBatch)
	return r
}

func (h *Host) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)

		h.logger.Debug("request served",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

func (h *Host) handleVersion(w http.ResponseWriter, r *http.Request) {
	var sqliteVersion string
	if err := h.db.GetContext(r.Context(), &sqliteVersion, "SELECT sqlite_version()"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "libsqlhost %s (sqlite %s)\n", h.version, sqliteVersion)
}

func (h *Host) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req types.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.StatementResponse{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	responses, err := h.ExecuteBatch(r.Context(), req, accessFromContext(r.Context()) == accessReadOnly)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, types.StatementResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ExecuteBatch runs every statement of req on one connection, in order, and
// returns one response per statement. A failing statement gets an error entry
// and does not stop the statements after it. The returned error is reserved
// for failures that affect the whole batch.
func (h *Host) ExecuteBatch(ctx context.Context, req types.BatchRequest, readOnly bool) ([]types.StatementResponse, error) {
	conn, err := h.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if readOnly {
		if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable query_only: %w", err)
		}
		defer func() {
			_, _ = conn.ExecContext(context.Background(), "PRAGMA query_only = OFF")
		}()
	}

	responses := make([]types.StatementResponse, len(req.Statements))
	for i, raw := range req.Statements {
		query, args, err := decodeStatement(raw)
		if err != nil {
			responses[i] = types.StatementResponse{Error: err.Error()}
			continue
		}
		results, err := h.runStatement(ctx, conn, query, args)
		if err != nil {
			responses[i] = types.StatementResponse{Error: err.Error()}
			continue
		}
		responses[i] = types.StatementResponse{Results: results}
	}
	return responses, nil
}

func (h *Host) runStatement(ctx context.Context, conn *sqlx.Conn, query string, args []any) (*types.ExecutionResults, error) {
	before, err := totalChanges(ctx, conn)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := &types.ExecutionResults{Columns: columns, Rows: [][]json.RawMessage{}}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row, err := encodeRow(values)
		if err != nil {
			return nil, fmt.Errorf("failed to process row values: %w", err)
		}
		results.Rows = append(results.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	after, err := totalChanges(ctx, conn)
	if err != nil {
		return nil, err
	}

	results.RowsRead = int64(len(results.Rows))
	results.RowsWritten = after - before
	results.QueryDurationMS = float64(elapsed.Microseconds()) / 1000
	return results, nil
}

func totalChanges(ctx context.Context, conn *sqlx.Conn) (int64, error) {
	var n int64
	if err := conn.GetContext(ctx, &n, "SELECT total_changes()"); err != nil {
		return 0, fmt.Errorf("failed to read total_changes: %w", err)
	}
	return n, nil
}

// decodeStatement accepts the bare-string and the {"q","params"} forms.
func decodeStatement(raw json.RawMessage) (string, []any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var query string
		if err := json.Unmarshal(raw, &query); err != nil {
			return "", nil, fmt.Errorf("invalid statement: %w", err)
		}
		return query, nil, nil
	}

	var stmt types.ParameterizedStatement
	if err := json.Unmarshal(raw, &stmt); err != nil {
		return "", nil, fmt.Errorf("invalid statement: %w", err)
	}
	args, err := decodeParams(stmt.Params)
	if err != nil {
		return "", nil, err
	}
	return stmt.Q, args, nil
}

func decodeParams(raw json.RawMessage) ([]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	if raw[0] == '[' {
		var values []json.RawMessage
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		args := make([]any, len(values))
		for i, v := range values {
			arg, err := decodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("param %d: %w", i+1, err)
			}
			args[i] = arg
		}
		return args, nil
	}

	var named map[string]json.RawMessage
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	args := make([]any, 0, len(named))
	for name, v := range named {
		arg, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, err)
		}
		args = append(args, sql.Named(strings.TrimLeft(name, ":@$"), arg))
	}
	return args, nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	switch raw[0] {
	case 'n':
		return nil, nil
	case 't', 'f', '"':
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case '{':
		var blob types.BlobValue
		if err := json.Unmarshal(raw, &blob); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(blob.Base64)
	case '[':
		return nil, fmt.Errorf("unsupported array value")
	}
	if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return n, nil
	}
	return strconv.ParseFloat(string(raw), 64)
}

func encodeRow(values []any) ([]json.RawMessage, error) {
	row := make([]json.RawMessage, len(values))
	for i, val := range values {
		var v any
		switch x := val.(type) {
		case nil:
			v = nil
		case []byte:
			v = types.BlobValue{Base64: base64.StdEncoding.EncodeToString(x)}
		case time.Time:
			v = x.Format(time.RFC3339Nano)
		default:
			v = x
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		row[i] = encoded
	}
	return row, nil
}
