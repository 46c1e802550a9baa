package nhle

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/riskibarqy/nhl-actions/internal/platform/resilience"
	"github.com/riskibarqy/nhl-actions/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://api-web.nhle.com/v1"

	defaultTimeout   = 20 * time.Second
	maxResponseBytes = 6 << 20
	standingsPath    = "/standings/now"
)

var (
	errNHLETransient    = crerr.New("nhle transient failure")
	errResponseTooLarge = crerr.New("nhle response too large")
)

// RequestObserver receives one observation per upstream round trip.
// status is zero when no response was received.
type RequestObserver interface {
	ObserveUpstreamRequest(endpoint string, status int, duration time.Duration)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Observer       RequestObserver
}

// Client performs unauthenticated GETs against the NHL stats web API. It
// never retries: every failure is returned to the caller as-is.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.Group[response]
	observer       RequestObserver
}

type response struct {
	status int
	body   []byte
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		timeout:        httpClient.Timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		observer:       cfg.Observer,
	}
}

var _ usecase.StatsProvider = (*Client)(nil)

// GetJSON fetches path and decodes the body into a generic JSON tree.
func (c *Client) GetJSON(ctx context.Context, path string) (any, error) {
	ctx, span := startSpan(ctx, "nhle.Client.GetJSON", attribute.String("nhle.path", path))
	defer span.End()

	resp, err := c.get(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	raw := bytes.TrimSpace(resp.body)
	if len(raw) == 0 {
		return nil, nil
	}

	var out any
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, &usecase.UpstreamError{
			Path:       path,
			StatusCode: resp.status,
			Body:       abbreviateBody(raw),
			Err:        crerr.Wrap(err, "decode payload"),
		}
	}
	return out, nil
}

// FetchStandingTeams reads the current standings and returns one team per
// row in upstream order. Rows without a name or abbreviation are skipped.
func (c *Client) FetchStandingTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startSpan(ctx, "nhle.Client.FetchStandingTeams")
	defer span.End()

	resp, err := c.get(ctx, standingsPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var envelope standingsEnvelope
	if err := sonic.Unmarshal(resp.body, &envelope); err != nil {
		return nil, &usecase.UpstreamError{
			Path:       standingsPath,
			StatusCode: resp.status,
			Body:       abbreviateBody(resp.body),
			Err:        crerr.Wrap(err, "decode standings"),
		}
	}

	out := make([]team.Team, 0, len(envelope.Standings))
	for _, row := range envelope.Standings {
		item := team.Team{
			Name:         strings.TrimSpace(row.TeamName.Default),
			Abbreviation: strings.TrimSpace(row.TeamAbbrev.Default),
		}
		if item.Validate() != nil {
			c.logger.WarnContext(ctx, "skip standings row without team identity", "team_name", item.Name, "team_abbreviation", item.Abbreviation)
			continue
		}
		out = append(out, item)
	}
	span.SetAttributes(attribute.Int("team.count", len(out)))
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) (response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "nhle circuit breaker rejected request", "state", c.breaker.State(), "path", path)
			return response{}, fmt.Errorf("%w: stats API is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	resp, err, _ := c.flight.DoContext(ctx, path, func(ctx context.Context) (response, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, reqErr := c.executeRequest(ctx, path)
		if c.circuitEnabled {
			if isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return resp, reqErr
	})
	if err != nil {
		return response{}, err
	}
	return resp, nil
}

func (c *Client) executeRequest(ctx context.Context, path string) (response, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(path, 0, started)
		if ctx.Err() != nil {
			return response{}, ctx.Err()
		}
		upstreamErr := &usecase.UpstreamError{
			Path: path,
			Err:  fmt.Errorf("%w: send request: %v", errNHLETransient, err),
		}
		c.logger.WarnContext(ctx, "nhle request failed", "url", fullURL, "error", err)
		return response{}, upstreamErr
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes+1)); err != nil {
		c.observe(path, resp.StatusCode, started)
		return response{}, &usecase.UpstreamError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: read response body: %v", errNHLETransient, err),
		}
	}
	c.observe(path, resp.StatusCode, started)
	if buf.Len() > maxResponseBytes {
		c.logger.WarnContext(ctx, "nhle response too large", "url", fullURL, "limit_bytes", maxResponseBytes)
		return response{}, &usecase.UpstreamError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: exceeds %d bytes", errResponseTooLarge, maxResponseBytes),
		}
	}

	body := append([]byte(nil), buf.B...)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := &usecase.UpstreamError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       abbreviateBody(body),
		}
		if isTransientStatus(resp.StatusCode) {
			upstreamErr.Err = errNHLETransient
		}
		c.logger.WarnContext(ctx, "nhle request returned non-success status", "url", fullURL, "status", resp.StatusCode)
		return response{}, upstreamErr
	}

	return response{status: resp.StatusCode, body: body}, nil
}

func (c *Client) observe(path string, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstreamRequest(endpointLabel(path), status, time.Since(started))
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errNHLETransient)
}

func isTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// endpointLabel keeps metric cardinality bounded: "/roster/BOS/current"
// becomes "roster".
func endpointLabel(path string) string {
	trimmed := strings.Trim(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("nhl-actions/external/nhle").Start(ctx, name, trace.WithAttributes(attrs...))
}
