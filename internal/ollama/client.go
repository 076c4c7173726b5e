// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind classifies where a request failed.
type ErrorKind int

const (
	// KindTransport means no response was obtained (DNS, refused, reset, bad URL).
	KindTransport ErrorKind = iota
	// KindStatus means a response arrived with a non-2xx status.
	KindStatus
	// KindParse means a 2xx response body did not have the expected shape.
	KindParse
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Kind       ErrorKind
	Op         string // "list models", "chat"
	StatusCode int    // set for KindStatus
	Message    string // server-supplied error text, if any
	Cause      error
}

func (e *ClientError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	b.WriteString(" error: ")
	b.WriteString(e.Detail())
	if e.Message != "" {
		b.WriteString(" (")
		b.WriteString(e.Message)
		b.WriteString(")")
	}
	return b.String()
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Detail is the short human-readable part that callers put after
// "Connection Failed: ", "API Error: " and friends. For status errors it is
// the numeric code; otherwise the cause text.
func (e *ClientError) Detail() string {
	if e.Kind == KindStatus {
		return strconv.Itoa(e.StatusCode)
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// KindOf reports the kind of err. Errors that are not a *ClientError are
// treated as transport failures, since no usable response came with them.
func KindOf(err error) ErrorKind {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind
	}
	return KindTransport
}

// DetailOf returns the display detail of err.
func DetailOf(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Detail()
	}
	return err.Error()
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	return err != nil && KindOf(err) == KindTransport
}

// IsStatus checks if an error is a non-success HTTP status.
func IsStatus(err error) bool {
	return err != nil && KindOf(err) == KindStatus
}

// IsParse checks if an error is a malformed response body.
func IsParse(err error) bool {
	return err != nil && KindOf(err) == KindParse
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// Timeout bounds each request. Zero leaves it to the transport.
	Timeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		UserAgent: "rigchat",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
//
// The endpoint is passed on every call instead of being fixed at
// construction, because the session lets the user repoint it at any time
// and requests already in flight keep the endpoint they started with.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// wireTags mirrors ListModelsResponse with pointers so that absent fields
// can be told apart from empty ones. Only models[].name is required; the
// metadata is kept raw and decoded with decodeOptional.
type wireTags struct {
	Models *[]struct {
		Name       *string         `json:"name"`
		ModifiedAt json.RawMessage `json:"modified_at"`
		Size       json.RawMessage `json:"size"`
		Digest     json.RawMessage `json:"digest"`
	} `json:"models"`
}

// ListModels retrieves all available models from the server at baseURL.
func (c *Client) ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	const op = "list models"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL(baseURL, "/api/tags"), nil)
	if err != nil {
		return nil, &ClientError{Kind: KindTransport, Op: op, Cause: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{Kind: KindTransport, Op: op, Cause: err}
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(op, resp)
	}

	var wire wireTags
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &ClientError{Kind: KindParse, Op: op, Cause: err}
	}
	if wire.Models == nil {
		return nil, &ClientError{Kind: KindParse, Op: op, Cause: errors.New(`missing field "models"`)}
	}

	models := make([]ModelInfo, 0, len(*wire.Models))
	for i, m := range *wire.Models {
		if m.Name == nil {
			return nil, &ClientError{Kind: KindParse, Op: op, Cause: fmt.Errorf(`models[%d]: missing field "name"`, i)}
		}
		info := ModelInfo{Name: *m.Name}
		decodeOptional(m.ModifiedAt, &info.ModifiedAt)
		decodeOptional(m.Size, &info.Size)
		decodeOptional(m.Digest, &info.Digest)
		models = append(models, info)
	}

	return models, nil
}

// ListModelNames is ListModels reduced to the ordered names.
func (c *Client) ListModelNames(ctx context.Context, baseURL string) ([]string, error) {
	models, err := c.ListModels(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	resp := ListModelsResponse{Models: models}
	return resp.Names(), nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// wireChat requires message.role and message.content. Everything else is
// optional metadata.
type wireChat struct {
	Message *struct {
		Role    *string `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`

	Model         json.RawMessage `json:"model"`
	CreatedAt     json.RawMessage `json:"created_at"`
	Done          json.RawMessage `json:"done"`
	TotalDuration json.RawMessage `json:"total_duration"`
	EvalCount     json.RawMessage `json:"eval_count"`
	EvalDuration  json.RawMessage `json:"eval_duration"`
}

// Chat sends a non-streaming chat request and returns the complete response.
// The request's Stream flag is always sent as false.
func (c *Client) Chat(ctx context.Context, baseURL string, chatReq ChatRequest) (*ChatResponse, error) {
	const op = "chat"

	chatReq.Stream = false
	if chatReq.Messages == nil {
		chatReq.Messages = []Message{}
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &ClientError{Kind: KindTransport, Op: op, Cause: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL(baseURL, "/api/chat"), bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Kind: KindTransport, Op: op, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{Kind: KindTransport, Op: op, Cause: err}
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(op, resp)
	}

	var wire wireChat
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &ClientError{Kind: KindParse, Op: op, Cause: err}
	}
	switch {
	case wire.Message == nil:
		return nil, &ClientError{Kind: KindParse, Op: op, Cause: errors.New(`missing field "message"`)}
	case wire.Message.Role == nil:
		return nil, &ClientError{Kind: KindParse, Op: op, Cause: errors.New(`message: missing field "role"`)}
	case wire.Message.Content == nil:
		return nil, &ClientError{Kind: KindParse, Op: op, Cause: errors.New(`message: missing field "content"`)}
	}

	out := &ChatResponse{
		Message: Message{Role: *wire.Message.Role, Content: *wire.Message.Content},
	}
	decodeOptional(wire.Model, &out.Model)
	decodeOptional(wire.CreatedAt, &out.CreatedAt)
	decodeOptional(wire.Done, &out.Done)
	decodeOptional(wire.TotalDuration, &out.TotalDuration)
	decodeOptional(wire.EvalCount, &out.EvalCount)
	decodeOptional(wire.EvalDuration, &out.EvalDuration)
	return out, nil
}

// decodeOptional decodes a metadata field into dst. A missing, null or
// differently typed value leaves dst at its zero value.
func decodeOptional(raw json.RawMessage, dst any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

func (c *Client) setHeaders(req *http.Request) {
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
}

// endpointURL joins the base URL and a path. The base is not validated;
// a malformed one surfaces as a transport error from the request.
func endpointURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// statusError builds a KindStatus error, keeping the server's error text
// when the body carries one.
func statusError(op string, resp *http.Response) *ClientError {
	clientErr := &ClientError{Kind: KindStatus, Op: op, StatusCode: resp.StatusCode}

	var ollamaErr OllamaError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&ollamaErr); err == nil {
		clientErr.Message = ollamaErr.Error
	}
	return clientErr
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
