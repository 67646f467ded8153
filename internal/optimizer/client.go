package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

type Config struct {
	BaseURL string
	RunPath string
	Timeout time.Duration
}

// Client calls the external optimization service. It never retries; a failed
// run has to be resubmitted by the user.
type Client struct {
	baseURL    string
	runPath    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("optimizer: base_url required")
	}
	runPath := strings.TrimSpace(cfg.RunPath)
	if runPath == "" {
		runPath = "/run-ga"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL:    baseURL,
		runPath:    runPath,
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

// Run submits one optimization request and decodes the result. Every error
// satisfies errors.Is(err, ErrCall).
func (c *Client) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, span := otel.Tracer("optimizer").Start(ctx, "optimizer.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("optimizer.population", req.Population),
		attribute.Int("optimizer.generations", req.Generations),
		attribute.Int("optimizer.matrix_cells", len(req.InteractionMatrix)),
	)

	raw, err := c.doJSON(ctx, c.timeout, http.MethodPost, c.runPath, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res, err := decodeResult(raw)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCall, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Float64("optimizer.fitness", res.Fitness))
	return res, nil
}

func (c *Client) doJSON(ctx context.Context, timeout time.Duration, method string, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("%w: encode: %v", ErrCall, err)
		}
	}

	ctx2 := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx2, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx2, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCall, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx2, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: upstreamMessage(raw)}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrCall, err)
	}
	return raw, nil
}

// upstreamMessage prefers the service's {"error": "..."} message over the raw body.
func upstreamMessage(raw []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error) != "" {
		return strings.TrimSpace(env.Error)
	}
	return strings.TrimSpace(string(raw))
}
