// Package authclient verifies bearer tokens against the identity service.
//
// Every outcome other than a positive answer is an error, and callers are
// expected to deny the request on any error.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-task-manager/internal/model"
)

const (
	verifyPath      = "/api/auth/verify"
	maxResponseBody = 64 << 10
)

var (
	// ErrTokenRejected means the identity service answered valid:false.
	ErrTokenRejected = errors.New("token rejected by identity service")
	// ErrUpstreamTimeout means no answer arrived within the verify timeout.
	ErrUpstreamTimeout = errors.New("identity service timed out")
	// ErrUpstreamUnavailable covers connection failures.
	ErrUpstreamUnavailable = errors.New("identity service unavailable")
	// ErrUpstreamStatus is any non-2xx answer other than a rejection.
	ErrUpstreamStatus = errors.New("identity service returned unexpected status")
	// ErrUpstreamMalformed means the answer could not be decoded.
	ErrUpstreamMalformed = errors.New("identity service returned malformed response")
)

// Verifier turns a bearer token into trusted claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Claims, error)
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New returns a client bounded by timeout. A nil httpClient gets a default
// transport.
func New(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	// The context deadline is the primary bound; the client timeout also
	// covers body reads.
	bounded := *httpClient
	bounded.Timeout = timeout

	return &Client{baseURL: baseURL, timeout: timeout, httpClient: &bounded}
}

func (c *Client) Verify(ctx context.Context, token string) (model.Claims, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(model.VerifyRequest{Token: token})
	if err != nil {
		return model.Claims{}, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+verifyPath, bytes.NewReader(payload))
	if err != nil {
		return model.Claims{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Claims{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return model.Claims{}, classifyTransportError(ctx, err)
	}

	var decoded model.VerifyResponse
	decodeErr := json.Unmarshal(body, &decoded)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if decodeErr == nil && !decoded.Valid {
			return model.Claims{}, ErrTokenRejected
		}
		return model.Claims{}, ErrUpstreamMalformed
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return model.Claims{}, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	case decodeErr != nil:
		return model.Claims{}, ErrUpstreamMalformed
	case !decoded.Valid:
		return model.Claims{}, ErrTokenRejected
	case decoded.User == nil || decoded.User.UserID <= 0:
		return model.Claims{}, ErrUpstreamMalformed
	}

	return *decoded.User, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrUpstreamTimeout
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// Outcome is a short label for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrTokenRejected):
		return "rejected"
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstreamStatus):
		return "bad_status"
	case errors.Is(err, ErrUpstreamMalformed):
		return "malformed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unavailable"
	}
}
