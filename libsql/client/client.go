package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomyedwab/libsqlhttp/libsql/types"
)

// DefaultClientID is sent as the User-Agent when no client identifier is set.
const DefaultClientID = "libsqlhttp-go/1.0"

// Client talks to a libSQL HTTP endpoint. Its configuration is fixed at
// construction, so a Client is safe to share.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
	clientID   string
	logger     *slog.Logger
}

// ClientOption represents a functional option for configuring the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithAuthToken sets the Bearer token sent with every request
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithClientID sets the client identifier sent as User-Agent
func WithClientID(id string) ClientOption {
	return func(c *Client) {
		c.clientID = id
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the given base URL. Batches are POSTed to the
// base URL itself.
func New(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clientID:   DefaultClientID,
		logger:     slog.Default(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// BaseURL returns the client's base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClientID returns the identifier sent as User-Agent
func (c *Client) ClientID() string {
	return c.clientID
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, NewErrorWithCause(ErrorTypeValidation, "failed to create request", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if c.clientID != "" {
		req.Header.Set("User-Agent", c.clientID)
	}
	return req, nil
}

// Execute runs a single statement.
func (c *Client) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	results, err := c.ExecuteBatch(ctx, []Statement{stmt})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// ExecuteBatch sends all statements in one request and returns one result per
// statement, in order. If the server reports an error for any statement the
// whole call fails with a statement error naming it.
func (c *Client) ExecuteBatch(ctx context.Context, stmts []Statement) ([]*Result, error) {
	if len(stmts) == 0 {
		return nil, NewValidationError("empty batch")
	}

	payload, err := encodeBatch(stmts)
	if err != nil {
		return nil, NewErrorWithCause(ErrorTypeValidation, "failed to encode batch", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("batch request failed", err)
	}
	defer drainAndClose(resp.Body)

	body, readErr := io.ReadAll(resp.Body)
	if authErr := wrapHTTPStatus(resp, readErr); authErr != nil {
		return nil, authErr
	}
	if readErr != nil {
		return nil, NewNetworkError("failed to read batch response", readErr)
	}

	c.logger.Debug("libsql batch executed",
		"request_id", requestID,
		"statements", len(stmts),
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	entries, err := decodeBatchResponse(body)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, NewAPIError(fmt.Sprintf("batch request failed: %s", resp.Status), resp.StatusCode)
		}
		return nil, err
	}

	for i, entry := range entries {
		if entry.Error != "" {
			return nil, NewStatementError(i, entry.Error)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewAPIError(fmt.Sprintf("batch request failed: %s", resp.Status), resp.StatusCode)
	}
	if len(entries) != len(stmts) {
		return nil, NewProtocolError(fmt.Sprintf("expected %d results, got %d", len(stmts), len(entries)), nil)
	}

	results := make([]*Result, len(entries))
	for i, entry := range entries {
		res, err := decodeResult(entry.Results)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		results[i] = res
	}
	return results, nil
}

// decodeBatchResponse accepts either an array of entries or a single entry.
func decodeBatchResponse(body []byte) ([]types.StatementResponse, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, NewProtocolError("empty response body", nil)
	}

	if body[0] == '[' {
		var entries []types.StatementResponse
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, NewProtocolError("failed to decode batch response", err)
		}
		return entries, nil
	}

	var entry types.StatementResponse
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, NewProtocolError("failed to decode batch response", err)
	}
	return []types.StatementResponse{entry}, nil
}

// Version performs a GET on <base-url>/version and returns the first line of
// the body verbatim.
func (c *Client) Version(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, strings.TrimRight(c.baseURL, "/")+"/version", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", NewNetworkError("version request failed", err)
	}
	defer drainAndClose(resp.Body)

	if authErr := wrapHTTPStatus(resp, nil); authErr != nil {
		return "", authErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", NewAPIError(fmt.Sprintf("version request failed: %s", resp.Status), resp.StatusCode)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", NewNetworkError("failed to read version", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
