package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	KeyServerURL          = "server_url"
	KeyUserToken          = "user_token"
	KeyEnvType            = "env_type"
	KeyMaxStepsPerEpisode = "max_steps_per_episode"
	KeyStepSize           = "step_size"
	KeyAutoReset          = "auto_reset"
	KeyTimeout            = "timeout"

	EnvPrefix = "SGYM"

	configName    = "config"
	configType    = "toml"
	configDirName = "studentgym"
	dotenvFile    = ".env"
)

// Keys lists every client option in display order.
var Keys = []string{
	KeyServerURL,
	KeyUserToken,
	KeyEnvType,
	KeyMaxStepsPerEpisode,
	KeyStepSize,
	KeyAutoReset,
	KeyTimeout,
}

// Source tells which layer supplied a value.
type Source string

const (
	SourceDefault    Source = "default"
	SourceFile       Source = "file"
	SourceDotenv     Source = "dotenv"
	SourceEnv        Source = "env"
	SourceFlag       Source = "flag"
	SourceTokenStore Source = "token-store"
	SourceUnset      Source = "unset"
)

// Overrides carries explicit values, usually from CLI flags. Nil fields are not set.
type Overrides struct {
	ServerURL          *string
	UserToken          *string
	EnvType            *string
	MaxStepsPerEpisode *int
	StepSize           *int
	AutoReset          *bool
	Timeout            *time.Duration
}

type LoadOptions struct {
	// ConfigFile is an explicit TOML path. When empty, $XDG_CONFIG_HOME/studentgym/config.toml is used if present.
	ConfigFile string
	// EnvFile is an explicit .env path. When empty, ./.env is used if present.
	EnvFile   string
	Overrides Overrides
	Tokens    ports.TokenStore
	Logger    *log.Logger
	Viper     *viper.Viper
	LookupEnv func(string) (string, bool)
}

type Loaded struct {
	Config     domain.Config
	Sources    map[string]Source
	ConfigFile string
	EnvFile    string
	Viper      *viper.Viper
}

// EnvName maps a key to its environment variable, e.g. step_size -> SGYM_STEP_SIZE.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load resolves the client configuration: defaults < config file < .env < environment < overrides.
// Missing tokens are not an error here; domain.Config.Validate reports them.
func Load(ctx context.Context, opts LoadOptions) (Loaded, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	v := opts.Viper
	if v == nil {
		v = viper.New()
	}

	loaded := Loaded{Sources: make(map[string]Source, len(Keys)), Viper: v}

	configFile, err := readConfigFile(v, opts.ConfigFile)
	if err != nil {
		return Loaded{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	loaded.ConfigFile = configFile

	dotenv, envFile, err := readDotenv(opts.EnvFile)
	if err != nil {
		return Loaded{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	loaded.EnvFile = envFile

	overrides := opts.Overrides.values()
	defaults := defaultValues()

	for _, key := range Keys {
		value, source := resolve(key, overrides, lookupEnv, dotenv, v)
		if source == SourceUnset {
			if def, ok := defaults[key]; ok {
				value, source = def, SourceDefault
				logger.Printf("warning: %s is not configured, using default %v", key, def)
			}
		}
		if source != SourceUnset {
			v.Set(key, value)
		}
		loaded.Sources[key] = source
	}

	cfg, err := decode(v)
	if err != nil {
		return Loaded{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if strings.TrimSpace(cfg.UserToken) == "" && opts.Tokens != nil {
		token, err := opts.Tokens.Load(ctx)
		if err != nil {
			return Loaded{}, fmt.Errorf("load stored token: %w", err)
		}
		if token != "" {
			cfg.UserToken = token
			loaded.Sources[KeyUserToken] = SourceTokenStore
		}
	}
	if strings.TrimSpace(cfg.UserToken) == "" {
		logger.Printf("warning: %s is not configured (set %s or run `sgym auth set`)", KeyUserToken, EnvName(KeyUserToken))
	}

	loaded.Config = cfg
	return loaded, nil
}

// DefaultConfigFile is $XDG_CONFIG_HOME/studentgym/config.toml.
func DefaultConfigFile() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(configDir, configDirName, configName+"."+configType), nil
}

func readConfigFile(v *viper.Viper, explicit string) (string, error) {
	v.SetConfigType(configType)

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read config file %s: %w", explicit, err)
		}
		return v.ConfigFileUsed(), nil
	}

	defaultFile, err := DefaultConfigFile()
	if err != nil {
		return "", err
	}
	v.SetConfigName(configName)
	v.AddConfigPath(filepath.Dir(defaultFile))

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func readDotenv(explicit string) (map[string]string, string, error) {
	path := explicit
	if path == "" {
		if _, err := os.Stat(dotenvFile); err != nil {
			return nil, "", nil
		}
		path = dotenvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, "", fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, path, nil
}

func resolve(key string, overrides map[string]any, lookupEnv func(string) (string, bool), dotenv map[string]string, v *viper.Viper) (any, Source) {
	if value, ok := overrides[key]; ok {
		return value, SourceFlag
	}
	if value, ok := lookupEnv(EnvName(key)); ok && strings.TrimSpace(value) != "" {
		return value, SourceEnv
	}
	if value, ok := dotenv[EnvName(key)]; ok && strings.TrimSpace(value) != "" {
		return value, SourceDotenv
	}
	if v.InConfig(key) {
		return v.Get(key), SourceFile
	}
	return nil, SourceUnset
}

func defaultValues() map[string]any {
	defaults := domain.DefaultConfig()
	return map[string]any{
		KeyServerURL:          defaults.ServerURL,
		KeyEnvType:            defaults.EnvType,
		KeyMaxStepsPerEpisode: defaults.MaxStepsPerEpisode,
		KeyStepSize:           defaults.StepSize,
		KeyAutoReset:          defaults.AutoReset,
		KeyTimeout:            defaults.Timeout,
	}
}

func (o Overrides) values() map[string]any {
	values := map[string]any{}
	if o.ServerURL != nil {
		values[KeyServerURL] = *o.ServerURL
	}
	if o.UserToken != nil {
		values[KeyUserToken] = *o.UserToken
	}
	if o.EnvType != nil {
		values[KeyEnvType] = *o.EnvType
	}
	if o.MaxStepsPerEpisode != nil {
		values[KeyMaxStepsPerEpisode] = *o.MaxStepsPerEpisode
	}
	if o.StepSize != nil {
		values[KeyStepSize] = *o.StepSize
	}
	if o.AutoReset != nil {
		values[KeyAutoReset] = *o.AutoReset
	}
	if o.Timeout != nil {
		values[KeyTimeout] = *o.Timeout
	}
	return values
}

func decode(v *viper.Viper) (domain.Config, error) {
	var errs []error

	maxSteps, err := cast.ToIntE(v.Get(KeyMaxStepsPerEpisode))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyMaxStepsPerEpisode, err))
	}
	stepSize, err := cast.ToIntE(v.Get(KeyStepSize))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyStepSize, err))
	}
	autoReset, err := cast.ToBoolE(v.Get(KeyAutoReset))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyAutoReset, err))
	}
	timeout, err := parseTimeout(v.Get(KeyTimeout))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyTimeout, err))
	}
	if len(errs) > 0 {
		return domain.Config{}, errors.Join(errs...)
	}

	return domain.Config{
		ServerURL:          strings.TrimSpace(cast.ToString(v.Get(KeyServerURL))),
		UserToken:          strings.TrimSpace(cast.ToString(v.Get(KeyUserToken))),
		EnvType:            strings.TrimSpace(cast.ToString(v.Get(KeyEnvType))),
		MaxStepsPerEpisode: maxSteps,
		StepSize:           stepSize,
		AutoReset:          autoReset,
		Timeout:            timeout,
	}, nil
}

// parseTimeout accepts Go durations ("45s", "1m") and bare numbers, which are read as seconds.
func parseTimeout(raw any) (time.Duration, error) {
	switch value := raw.(type) {
	case time.Duration:
		return value, nil
	case string:
		trimmed := strings.TrimSpace(value)
		if seconds, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return time.Duration(seconds * float64(time.Second)), nil
		}
		duration, err := time.ParseDuration(trimmed)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return duration, nil
	default:
		seconds, err := cast.ToFloat64E(raw)
		if err != nil {
			return 0, err
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
}
