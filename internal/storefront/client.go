// Package storefront talks to the Shopify Storefront GraphQL API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"inkblot-storefront/internal/domain"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	tokenHeader       = "X-Shopify-Storefront-Access-Token"
	defaultAPIVersion = "2024-01"
	defaultTimeout    = 10 * time.Second
	maxErrorBody      = 4 << 10
)

// Options configures a Client. Domain and Token are required.
type Options struct {
	Domain     string
	Token      string
	APIVersion string
	Timeout    time.Duration
	Retry      RetryPolicy
	// HTTPClient overrides the default instrumented client. Timeout is
	// applied to it when it has none.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client executes GraphQL operations against a single storefront endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *log.Logger
}

// New validates opts and builds a Client. Missing credentials fail with
// domain.ErrConfiguration.
func New(opts Options) (*Client, error) {
	domainName := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(opts.Domain), "https://"), "/")
	token := strings.TrimSpace(opts.Token)
	if domainName == "" || token == "" {
		return nil, fmt.Errorf("%w: storefront domain and access token are required", domain.ErrConfiguration)
	}
	version := strings.TrimSpace(opts.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var httpClient *http.Client
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	} else {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		endpoint:   fmt.Sprintf("https://%s/api/%s/graphql.json", domainName, version),
		token:      token,
		httpClient: httpClient,
		retry:      opts.Retry.normalized(),
		logger:     logger,
	}, nil
}

// Endpoint returns the GraphQL URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

var operationPattern = regexp.MustCompile(`^\s*(query|mutation)\s*(\w*)`)

// Execute sends query with variables and decodes the data field into out.
// Queries are retried on retryable transport failures; mutations are sent
// exactly once.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if variables == nil {
		variables = map[string]interface{}{}
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	kind, op := describe(query)
	attempts := 1
	if kind != "mutation" {
		attempts += c.retry.MaxRetries
	}

	var data json.RawMessage
	err = c.retry.do(ctx, attempts, func() error {
		var callErr error
		data, callErr = c.roundTrip(ctx, op, body)
		return callErr
	}, func(attempt int, callErr error) {
		c.logger.Printf("storefront: %s attempt=%d error=%v, retrying", op, attempt, callErr)
	})
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err), Malformed: true}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Printf("storefront: %s status=%d body=%q", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
		return nil, &domain.TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err), Malformed: true}
	}
	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &domain.RemoteError{Op: op, Messages: messages}
	}
	c.logger.Printf("storefront: %s ok in %s", op, time.Since(start).Truncate(time.Millisecond))
	return decoded.Data, nil
}

func describe(query string) (kind, name string) {
	m := operationPattern.FindStringSubmatch(query)
	if m == nil {
		return "query", "query"
	}
	if m[2] == "" {
		return m[1], m[1]
	}
	return m[1], m[2]
}

// execute is the typed form of Execute.
func execute[T any](ctx context.Context, c *Client, query string, variables map[string]interface{}) (T, error) {
	var out T
	err := c.Execute(ctx, query, variables, &out)
	return out, err
}

func isRetryable(err error) bool {
	var te *domain.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Retryable()
}
