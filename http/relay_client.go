package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	gasless "github.com/gasless-nft/relay"
	"github.com/gasless-nft/relay/mechanisms/evm"
)

// RelayError is returned when the relay answers with a non-2xx status
type RelayError struct {
	StatusCode int
	Message    string
	Reason     string
	Hash       string
}

func (e *RelayError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("relay returned %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Message)
}

// RelayClient posts signed forward requests to a relay server
type RelayClient struct {
	baseURL string
	client  *resty.Client
}

// RelayClientConfig holds optional overrides for RelayClient
type RelayClientConfig struct {
	// HTTPClient replaces the underlying transport client
	HTTPClient *http.Client

	// Timeout for a single call (default DefaultClientTimeout)
	Timeout time.Duration
}

// NewRelayClient creates a client for the relay at baseURL
func NewRelayClient(baseURL string, config *RelayClientConfig) *RelayClient {
	var client *resty.Client
	if config != nil && config.HTTPClient != nil {
		client = resty.NewWithClient(config.HTTPClient)
	} else {
		client = resty.New()
	}

	timeout := DefaultClientTimeout
	if config != nil && config.Timeout > 0 {
		timeout = config.Timeout
	}
	client.SetTimeout(timeout).SetHeader("Content-Type", "application/json")

	return &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Transfer submits a signed request for execution and returns the relay's answer
func (c *RelayClient) Transfer(ctx context.Context, req *evm.ForwardRequestData) (*TransferResponse, error) {
	var out TransferResponse
	if err := c.post(ctx, gasless.TransferPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify asks the relay to verify a signed request without executing it
func (c *RelayClient) Verify(ctx context.Context, req *evm.ForwardRequestData) (*gasless.VerifyResponse, error) {
	var out gasless.VerifyResponse
	if err := c.post(ctx, gasless.VerifyPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Supported fetches the relay's sponsorship policy
func (c *RelayClient) Supported(ctx context.Context) (*gasless.SupportedResponse, error) {
	var out gasless.SupportedResponse
	var errBody ErrorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Get(c.baseURL + gasless.SupportedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reach relay: %w", err)
	}
	if resp.IsError() {
		return nil, relayError(resp, errBody)
	}
	return &out, nil
}

func (c *RelayClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var errBody ErrorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		SetError(&errBody).
		Post(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to reach relay: %w", err)
	}
	if resp.IsError() {
		return relayError(resp, errBody)
	}
	return nil
}

func relayError(resp *resty.Response, body ErrorResponse) *RelayError {
	msg := body.Error
	if msg == "" {
		msg = strings.TrimSpace(string(resp.Body()))
	}
	if msg == "" {
		msg = resp.Status()
	}
	return &RelayError{
		StatusCode: resp.StatusCode(),
		Message:    msg,
		Reason:     body.Reason,
		Hash:       body.Hash,
	}
}
