package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultServerURL          = "http://localhost:8001"
	DefaultEnvType            = "DegradationEnv"
	DefaultMaxStepsPerEpisode = 1000
	DefaultStepSize           = 10
	DefaultAutoReset          = true
	DefaultTimeout            = 30 * time.Second
)

// Config is built once, before the environment exists, and is treated as read-only afterwards.
type Config struct {
	ServerURL          string
	UserToken          string
	EnvType            string
	MaxStepsPerEpisode int
	StepSize           int
	AutoReset          bool
	Timeout            time.Duration
}

func DefaultConfig() Config {
	return Config{
		ServerURL:          DefaultServerURL,
		EnvType:            DefaultEnvType,
		MaxStepsPerEpisode: DefaultMaxStepsPerEpisode,
		StepSize:           DefaultStepSize,
		AutoReset:          DefaultAutoReset,
		Timeout:            DefaultTimeout,
	}
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ServerURL) == "" {
		errs = append(errs, errors.New("server_url is required"))
	} else if err := validateServerURL(c.ServerURL); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.UserToken) == "" {
		errs = append(errs, errors.New("user_token is required"))
	}
	if strings.TrimSpace(c.EnvType) == "" {
		errs = append(errs, errors.New("env_type is required"))
	}
	if c.MaxStepsPerEpisode <= 0 {
		errs = append(errs, fmt.Errorf("max_steps_per_episode must be positive, got %d", c.MaxStepsPerEpisode))
	}
	if c.StepSize <= 0 {
		errs = append(errs, fmt.Errorf("step_size must be positive, got %d", c.StepSize))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
}

// Redacted returns a copy that is safe to print.
func (c Config) Redacted() Config {
	if c.UserToken != "" {
		c.UserToken = "****"
	}
	return c
}

func validateServerURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse server_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("server_url must use http or https")
	}
	if parsed.Host == "" {
		return errors.New("server_url host is required")
	}
	return nil
}
