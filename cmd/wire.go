package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/bnema/studentgym"
	"github.com/bnema/studentgym/internal/adapters/config"
	credchain "github.com/bnema/studentgym/internal/adapters/credentials/chain"
	credfile "github.com/bnema/studentgym/internal/adapters/credentials/file"
	credpass "github.com/bnema/studentgym/internal/adapters/credentials/pass"
	tomlrepo "github.com/bnema/studentgym/internal/adapters/repo/toml"
	"github.com/bnema/studentgym/internal/application"
	"github.com/bnema/studentgym/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type app struct {
	flags         *globalFlags
	tokens        ports.TokenStore
	tokenLocation string
	sessions   *application.SessionService
	httpClient *http.Client
	now        func() time.Time
}

// globalFlags are the persistent flags shared by every command. Only flags the user set become overrides.
type globalFlags struct {
	configFile string
	envFile    string
	session    string
	serverURL  string
	token      string
	envType    string
	timeout    time.Duration
	autoReset  bool
	stepSize   int
	maxSteps   int
}

func wireApp() (*app, error) {
	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	tokens, tokenLocation, err := wireTokenStore(envOrDefault("SGYM_TOKEN_BACKEND", "file"))
	if err != nil {
		return nil, err
	}

	return &app{
		flags:         &globalFlags{},
		tokens:        tokens,
		tokenLocation: tokenLocation,
		sessions:      application.NewSessionService(repo, ports.SystemClock{}),
		httpClient:    http.DefaultClient,
		now:           time.Now,
	}, nil
}

// wireTokenStore picks the token backend: "file" (default) or "pass", which falls back to the file.
func wireTokenStore(backend string) (ports.TokenStore, string, error) {
	tokenPath, err := credfile.DefaultPath()
	if err != nil {
		return nil, "", fmt.Errorf("wire token store: %w", err)
	}

	switch backend {
	case "file":
		return credfile.NewStore(tokenPath), tokenPath, nil
	case "pass":
		entry := envOrDefault("SGYM_PASS_ENTRY", credpass.DefaultEntry)
		store, err := credchain.NewPassFirstWithFileFallback(entry, tokenPath)
		if err != nil {
			return nil, "", fmt.Errorf("wire token store chain: %w", err)
		}
		return store, "pass:" + entry + " (fallback " + tokenPath + ")", nil
	default:
		return nil, "", fmt.Errorf("unsupported token backend %q (want file or pass)", backend)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (f *globalFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&f.configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/studentgym/config.toml)")
	flags.StringVar(&f.envFile, "env-file", "", "Dotenv file (default ./.env when present)")
	flags.StringVar(&f.session, "session", application.DefaultSessionName, "Name of the persisted session")
	flags.StringVar(&f.serverURL, "server-url", "", "Simulation server URL")
	flags.StringVar(&f.token, "token", "", "User token")
	flags.StringVar(&f.envType, "env-type", "", "Environment type")
	flags.DurationVar(&f.timeout, "timeout", 0, "Per-request timeout")
	flags.BoolVar(&f.autoReset, "auto-reset", false, "Start a new episode when a step follows termination")
	flags.IntVar(&f.stepSize, "step-size", 0, "Ticks per step")
	flags.IntVar(&f.maxSteps, "max-steps", 0, "Maximum ticks per episode")
}

func (f *globalFlags) overrides(flags *pflag.FlagSet) config.Overrides {
	var o config.Overrides
	if flags.Changed("server-url") {
		o.ServerURL = &f.serverURL
	}
	if flags.Changed("token") {
		o.UserToken = &f.token
	}
	if flags.Changed("env-type") {
		o.EnvType = &f.envType
	}
	if flags.Changed("timeout") {
		o.Timeout = &f.timeout
	}
	if flags.Changed("auto-reset") {
		o.AutoReset = &f.autoReset
	}
	if flags.Changed("step-size") {
		o.StepSize = &f.stepSize
	}
	if flags.Changed("max-steps") {
		o.MaxStepsPerEpisode = &f.maxSteps
	}
	return o
}

func (a *app) logger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "sgym: ", 0)
}

func (a *app) sessionName() string {
	return application.NormalizeSessionName(a.flags.session)
}

func (a *app) loadConfig(cmd *cobra.Command) (config.Loaded, error) {
	return config.Load(cmd.Context(), config.LoadOptions{
		ConfigFile: a.flags.configFile,
		EnvFile:    a.flags.envFile,
		Overrides:  a.flags.overrides(cmd.Flags()),
		Tokens:     a.tokens,
		Logger:     a.logger(cmd),
	})
}

// openEnvironment loads the configuration and builds an environment labelled with the session name.
func (a *app) openEnvironment(cmd *cobra.Command) (*studentgym.Environment, error) {
	loaded, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	env, err := studentgym.NewEnvironment(loaded.Config,
		studentgym.WithHTTPClient(a.httpClient),
		studentgym.WithLogger(a.logger(cmd)),
		studentgym.WithSessionName(a.sessionName()),
	)
	if err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}
	return env, nil
}

// resumeEnvironment opens an environment and restores the persisted episode of the current session.
func (a *app) resumeEnvironment(cmd *cobra.Command) (*studentgym.Environment, error) {
	env, err := a.openEnvironment(cmd)
	if err != nil {
		return nil, err
	}

	record, err := a.sessions.Recall(cmd.Context(), a.sessionName(), env.Config())
	if err != nil {
		return nil, err
	}
	if err := env.Restore(record.Episode); err != nil {
		return nil, fmt.Errorf("restore session %q: %w", record.Name, err)
	}
	return env, nil
}

func (a *app) remember(cmd *cobra.Command, env *studentgym.Environment) error {
	if _, err := a.sessions.Remember(cmd.Context(), a.sessionName(), env.Config(), env.Episode()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
