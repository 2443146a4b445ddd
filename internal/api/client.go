package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
)

// DefaultBaseURL is the Cloudflare v4 API root
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client talks to the Cloudflare REST API on behalf of one account. Every
// call issues exactly one request and never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	accountID  string
	logger     *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another API root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Cloudflare API client
func NewClient(apiToken, accountID string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiToken) == "" {
		return nil, errors.New("cloudflare api token is required")
	}

	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		apiToken:   apiToken,
		accountID:  accountID,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AccountID returns the account the client is scoped to
func (c *Client) AccountID() string {
	return c.accountID
}

// doJSON sends payload (if any) as a JSON body
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	return c.do(ctx, method, endpoint, body, "application/json")
}

// do sends the request and unwraps the response envelope
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("api request", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api response", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "bytes", len(raw))

	return unwrap(raw, resp.StatusCode)
}

// unwrap returns the result of a successful v4 response envelope. Only a body
// that is not JSON at all is an InvalidResponseError; any JSON body without
// "success": true is an APIError, whatever the shape of its other fields.
func unwrap(body []byte, statusCode int) (json.RawMessage, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &InvalidResponseError{
			Body:       string(body),
			StatusCode: statusCode,
			Err:        err,
		}
	}

	// a JSON array or scalar leaves fields nil and fails below
	var fields map[string]json.RawMessage
	if _, ok := doc.(map[string]any); ok {
		_ = json.Unmarshal(body, &fields)
	}

	var success bool
	if raw, ok := fields["success"]; !ok || json.Unmarshal(raw, &success) != nil || !success {
		return nil, newAPIError(errorEntries(fields["errors"]), statusCode)
	}

	return fields["result"], nil
}

// errorEntries splits the errors field into entries. A value that is not an
// array counts as a single entry.
func errorEntries(raw json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err == nil {
		return entries
	}
	return []json.RawMessage{trimmed}
}

func newAPIError(raw []json.RawMessage, statusCode int) *APIError {
	details := make([]ErrorDetail, 0, len(raw))
	messages := make([]string, 0, len(raw))

	for _, entry := range raw {
		detail := parseErrorDetail(entry)
		details = append(details, detail)
		messages = append(messages, detail.Message)
	}

	return &APIError{
		Message:    strings.Join(messages, ", "),
		StatusCode: statusCode,
		Errors:     details,
	}
}

// parseErrorDetail reads one errors entry. A string is the message itself; an
// object gives its "message" and numeric "code" independently. Anything else
// keeps its JSON text.
func parseErrorDetail(entry json.RawMessage) ErrorDetail {
	detail := ErrorDetail{Message: string(entry)}

	var text string
	if err := json.Unmarshal(entry, &text); err == nil {
		detail.Message = text
		return detail
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return detail
	}

	if raw, ok := fields["message"]; ok {
		var message string
		if err := json.Unmarshal(raw, &message); err == nil {
			detail.Message = message
		} else {
			detail.Message = string(raw)
		}
	}

	var code int
	if err := json.Unmarshal(fields["code"], &code); err == nil {
		detail.Code = code
	}

	return detail
}

// decodeResult decodes raw into out, leaving out untouched for an absent or
// null result
func decodeResult(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}
