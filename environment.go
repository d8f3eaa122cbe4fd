// Package studentgym is a client for a remote engine-degradation simulation that exposes the usual
// reinforcement-learning surface: reset, step, close and render.
//
// An Environment holds one remote episode at a time. It is not safe for concurrent use.
package studentgym

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/bnema/studentgym/internal/adapters/remote/rest"
	"github.com/bnema/studentgym/internal/adapters/render/episode"
	"github.com/bnema/studentgym/internal/application"
	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
	"go.opentelemetry.io/otel/trace"
)

type (
	Config       = domain.Config
	Action       = domain.Action
	Observation  = domain.Observation
	StepResult   = domain.StepResult
	ResetResult  = domain.ResetResult
	Info         = domain.Info
	Episode      = domain.Episode
	EpisodeID    = domain.EpisodeID
	EpisodeState = domain.EpisodeState
)

const (
	ActionNoop   = domain.ActionNoop
	ActionRepair = domain.ActionRepair
	ActionSell   = domain.ActionSell
)

var (
	// ActionSpace is Discrete(3).
	ActionSpace = domain.ActionSpace
	// ObservationSpace is Box(shape=[9]).
	ObservationSpace = domain.ObservationSpace
)

func DefaultConfig() Config {
	return domain.DefaultConfig()
}

type options struct {
	httpClient     *http.Client
	logger         *log.Logger
	clock          ports.Clock
	client         ports.SimulationClient
	tracerProvider trace.TracerProvider
	maxRetries     int
	session        string
}

type Option func(*options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithClock(clock ports.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithSimulationClient replaces the HTTP transport, for tests or custom transports.
func WithSimulationClient(client ports.SimulationClient) Option {
	return func(o *options) { o.client = client }
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = provider }
}

// WithMaxRetries sets how many times a transient transport failure is retried.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// WithSessionName labels the environment in rendered output.
func WithSessionName(name string) Option {
	return func(o *options) { o.session = name }
}

type Environment struct {
	cfg     Config
	session string
	manager *application.SessionManager
	logger  *log.Logger
}

// NewEnvironment validates cfg and wires the transport. It does not contact the server.
func NewEnvironment(cfg Config, opts ...Option) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{maxRetries: rest.DefaultMaxRetries}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}

	client := o.client
	if client == nil {
		restClient, err := rest.NewClient(rest.Options{
			BaseURL:        cfg.ServerURL,
			Token:          cfg.UserToken,
			Timeout:        cfg.Timeout,
			MaxRetries:     o.maxRetries,
			HTTPClient:     o.httpClient,
			TracerProvider: o.tracerProvider,
			Logger:         o.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create simulation client: %w", err)
		}
		client = restClient
	}

	return &Environment{
		cfg:     cfg,
		session: o.session,
		manager: application.NewSessionManager(client, cfg, o.clock, o.logger),
		logger:  o.logger,
	}, nil
}

func (e *Environment) Config() Config {
	return e.cfg
}

// Reset starts a new episode and returns its first observation.
func (e *Environment) Reset(ctx context.Context) (ResetResult, error) {
	return e.manager.Reset(ctx)
}

// Step advances the episode by the configured step size with the same action.
func (e *Environment) Step(ctx context.Context, action Action) (StepResult, error) {
	return e.manager.Step(ctx, action, e.cfg.StepSize)
}

// StepBatch advances the episode by up to batchSize ticks with the same action.
func (e *Environment) StepBatch(ctx context.Context, action Action, batchSize int) (StepResult, error) {
	return e.manager.Step(ctx, action, batchSize)
}

// Close releases the remote episode. It is safe to call more than once.
func (e *Environment) Close(ctx context.Context) error {
	return e.manager.Close(ctx)
}

// Restore continues an episode started by another process.
func (e *Environment) Restore(ep Episode) error {
	return e.manager.Restore(ep)
}

func (e *Environment) Episode() Episode {
	return e.manager.Episode()
}

func (e *Environment) State() EpisodeState {
	return e.manager.State()
}

func (e *Environment) Rewards() []float64 {
	return e.manager.Rewards()
}

func (e *Environment) Status() application.EpisodeStatus {
	return e.manager.Status(e.session)
}

// Render returns a terminal view of the episode. It never fails; on a rendering error it returns a plain summary line.
func (e *Environment) Render() (out string) {
	status := e.Status()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("render episode: %v", r)
			out = fallbackView(status)
		}
	}()

	rendered, err := episode.Render(status, episode.RenderOptions{Now: status.UpdatedAt, EnvType: e.cfg.EnvType})
	if err != nil {
		e.logger.Printf("render episode: %v", err)
		return fallbackView(status)
	}
	return rendered
}

func fallbackView(status application.EpisodeStatus) string {
	return fmt.Sprintf("episode %s [%s] step %d reward %.2f", status.Episode.ID, status.State, status.Episode.Step, status.Episode.TotalReward)
}
