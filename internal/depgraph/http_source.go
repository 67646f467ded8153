package depgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/portfolio-backend/internal/matrix"
)

type HTTPSourceConfig struct {
	BaseURL string
	Path    string
	Timeout time.Duration
}

// HTTPSource fetches {"dependencies": {"<module>": [<predecessor>, ...]}}
// from the preprocessing service.
type HTTPSource struct {
	baseURL    string
	path       string
	timeout    time.Duration
	httpClient *http.Client
}

func NewHTTPSource(cfg HTTPSourceConfig) (*HTTPSource, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("depgraph: base_url required")
	}
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "/get-preprocessed-data"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPSource{
		baseURL:    baseURL,
		path:       path,
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
	}, nil
}

// NewHTTPSourceWithClient swaps the transport; used by tests.
func NewHTTPSourceWithClient(cfg HTTPSourceConfig, httpClient *http.Client) (*HTTPSource, error) {
	s, err := NewHTTPSource(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		s.httpClient = httpClient
	}
	return s, nil
}

type dependenciesResponse struct {
	Dependencies map[string][]int `json:"dependencies"`
	Error        string           `json:"error,omitempty"`
}

func (s *HTTPSource) Fetch(ctx context.Context) (matrix.DependencyGraph, error) {
	ctx, span := otel.Tracer("depgraph").Start(ctx, "depgraph.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", s.baseURL+s.path))

	graph, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("depgraph.edges", graph.EdgeCount()))
	return graph, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (matrix.DependencyGraph, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+s.path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphLoad, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphLoad, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrGraphLoad, err)
	}
	var body dependenciesResponse
	decodeErr := json.Unmarshal(raw, &body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(body.Error)
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("%w: upstream status=%d body=%s", ErrGraphLoad, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrGraphLoad, decodeErr)
	}
	if body.Dependencies == nil {
		return nil, fmt.Errorf("%w: response has no dependencies field", ErrGraphLoad)
	}
	return parseDependencies(body.Dependencies)
}

func parseDependencies(in map[string][]int) (matrix.DependencyGraph, error) {
	graph := make(matrix.DependencyGraph, len(in))
	for key, preds := range in {
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: module key %q is not an index", ErrGraphLoad, key)
		}
		list := make([]matrix.Module, 0, len(preds))
		for _, p := range preds {
			list = append(list, matrix.Module(p))
		}
		graph[matrix.Module(n)] = list
	}
	return graph, nil
}
