package types

import "encoding/json"

// --- JSON structures for the libSQL HTTP batch protocol ---

// BatchRequest is the body POSTed to the service. Each statement is either a
// bare JSON string or a ParameterizedStatement.
type BatchRequest struct {
	Statements []json.RawMessage `json:"statements"`
}

// ParameterizedStatement is the object form of a statement. Params is a JSON
// array for positional parameters or a JSON object for named ones.
type ParameterizedStatement struct {
	Q      string          `json:"q"`
	Params json.RawMessage `json:"params"`
}

// StatementResponse is one entry of the response, in submission order.
type StatementResponse struct {
	Results *ExecutionResults `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ExecutionResults holds the outcome of one successfully executed statement.
// Cell values are kept raw so the client can decode them into tagged values.
type ExecutionResults struct {
	Columns         []string            `json:"columns"`
	Rows            [][]json.RawMessage `json:"rows"`
	RowsRead        int64               `json:"rows_read"`
	RowsWritten     int64               `json:"rows_written"`
	QueryDurationMS float64             `json:"query_duration_ms"`
}

// BlobValue is the wire form of a binary value, both as a parameter and as a
// result cell.
type BlobValue struct {
	Base64 string `json:"base64"`
}
