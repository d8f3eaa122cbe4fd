package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
	"github.com/bnema/studentgym/internal/version"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 250 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second

	maxResponseBytes = 4 << 20
	tracerName       = "github.com/bnema/studentgym/internal/adapters/remote/rest"
	requestIDHeader  = "X-Request-ID"
)

type Options struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
	Logger         *log.Logger
}

// Client talks JSON over HTTP to the simulation service. Each logical call is retried on transient failures.
type Client struct {
	baseURL        *url.URL
	token          string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	httpClient     *http.Client
	tracer         trace.Tracer
	logger         *log.Logger
}

var _ ports.SimulationClient = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	baseURL, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("%w: user token is required", domain.ErrConfiguration)
	}

	client := &Client{
		baseURL:        baseURL,
		token:          opts.Token,
		timeout:        opts.Timeout,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		httpClient:     opts.HTTPClient,
		logger:         opts.Logger,
	}
	if client.timeout <= 0 {
		client.timeout = domain.DefaultTimeout
	}
	if client.maxRetries < 0 {
		client.maxRetries = 0
	}
	if client.initialBackoff <= 0 {
		client.initialBackoff = DefaultInitialBackoff
	}
	if client.maxBackoff <= 0 {
		client.maxBackoff = DefaultMaxBackoff
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	if client.logger == nil {
		client.logger = log.New(io.Discard, "", 0)
	}

	provider := opts.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	client.tracer = provider.Tracer(tracerName, trace.WithInstrumentationVersion(version.Version))

	return client, nil
}

func (c *Client) Reset(ctx context.Context, req ports.ResetRequest) (ports.ResetReply, error) {
	var payload resetResponse
	body := resetRequest{UserToken: c.token, EnvType: req.EnvType, MaxSteps: req.MaxSteps}
	if err := c.call(ctx, "reset", "", resetPath, body, &payload); err != nil {
		return ports.ResetReply{}, err
	}

	return ports.ResetReply{
		EpisodeID:   domain.EpisodeID(payload.EpisodeID),
		Observation: payload.Observation,
		Info:        payload.Info,
	}, nil
}

func (c *Client) Step(ctx context.Context, req ports.StepRequest) (ports.StepReply, error) {
	var payload stepResponse
	body := stepRequest{EpisodeID: string(req.EpisodeID), Action: req.Action, BatchSize: req.BatchSize}
	if err := c.call(ctx, "step", req.EpisodeID, stepPath, body, &payload); err != nil {
		return ports.StepReply{}, err
	}

	return ports.StepReply{
		Observations: payload.Observations,
		Reward:       payload.Reward,
		Rewards:      payload.Rewards,
		Terminated:   payload.Terminated,
		Truncated:    payload.Truncated,
		Info:         payload.Info,
	}, nil
}

// Close releases an episode. An episode the server no longer knows about counts as released.
func (c *Client) Close(ctx context.Context, req ports.CloseRequest) error {
	var payload closeResponse
	err := c.call(ctx, "close", req.EpisodeID, closePath, closeRequest{EpisodeID: string(req.EpisodeID)}, &payload)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone) {
			return nil
		}
		return err
	}
	if payload.Success != nil && !*payload.Success {
		return &domain.TransportError{
			Op:       "close",
			Attempts: 1,
			Err:      &domain.APIError{StatusCode: http.StatusOK, Message: "server refused to close the episode"},
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, episodeID domain.EpisodeID, path string, body any, out any) (err error) {
	endpoint := c.baseURL.JoinPath(path).String()
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "studentgym."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", endpoint),
			attribute.String("studentgym.request_id", requestID),
		),
	)
	if episodeID != "" {
		span.SetAttributes(attribute.String("studentgym.episode_id", string(episodeID)))
	}

	attempts := 0
	defer func() {
		span.SetAttributes(attribute.Int("studentgym.attempts", attempts))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = min(c.maxBackoff, c.timeout)

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		return struct{}{}, c.attempt(ctx, endpoint, requestID, encoded, out)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithMaxElapsedTime(c.retryBudget()),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Printf("%s attempt %d failed: %v (retrying in %s)", op, attempts, err, next.Round(time.Millisecond))
		}),
	)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrProtocol) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &domain.TransportError{Op: op, Attempts: attempts, Err: err}
}

// attempt performs a single HTTP exchange. Errors wrapped in backoff.Permanent are not retried.
func (c *Client) attempt(ctx context.Context, endpoint, requestID string, body []byte, out any) error {
	attemptCtx, cancel := c.attemptContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &domain.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			RequestID:  firstNonEmpty(resp.Header.Get(requestIDHeader), requestID),
		}
		return classifyStatus(apiErr)
	}

	if len(data) > maxResponseBytes {
		return backoff.Permanent(domain.NewProtocolError("body", "response exceeds %d bytes", maxResponseBytes))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(domain.NewProtocolError("body", "decode response: %v", err))
	}
	return nil
}

func classifyStatus(apiErr *domain.APIError) error {
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrAuthentication, apiErr))
	case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError:
		return apiErr
	default:
		return backoff.Permanent(apiErr)
	}
}

// retryBudget caps the wall clock of one logical call, backoff waits included.
func (c *Client) retryBudget() time.Duration {
	return time.Duration(c.maxRetries+1) * c.timeout
}

// attemptContext bounds one attempt; the caller's deadline still applies when it is shorter.
func (c *Client) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("server url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("server url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("server url host is required")
	}
	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
