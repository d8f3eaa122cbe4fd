package cmd

import (
	"fmt"

	"github.com/bnema/studentgym/internal/adapters/config"
	"github.com/spf13/cobra"
)

type configEntry struct {
	Key    string        `json:"key"`
	Value  any           `json:"value"`
	Source config.Source `json:"source"`
	EnvVar string        `json:"env"`
}

func newConfigCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	cmd.AddCommand(newConfigShowCmd(app))

	return cmd
}

func newConfigShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every option with the layer that supplied it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd)
			if err != nil {
				return err
			}

			entries := configEntries(loaded)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			out := cmd.OutOrStdout()
			if loaded.ConfigFile != "" {
				if _, err := fmt.Fprintf(out, "config file: %s\n", loaded.ConfigFile); err != nil {
					return err
				}
			}
			if loaded.EnvFile != "" {
				if _, err := fmt.Fprintf(out, "env file: %s\n", loaded.EnvFile); err != nil {
					return err
				}
			}
			for _, entry := range entries {
				if _, err := fmt.Fprintf(out, "%-22s = %-32v (%s, %s)\n", entry.Key, entry.Value, entry.Source, entry.EnvVar); err != nil {
					return err
				}
			}
			if err := loaded.Config.Validate(); err != nil {
				_, err = fmt.Fprintf(out, "invalid: %v\n", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func configEntries(loaded config.Loaded) []configEntry {
	cfg := loaded.Config.Redacted()
	values := map[string]any{
		config.KeyServerURL:          cfg.ServerURL,
		config.KeyUserToken:          cfg.UserToken,
		config.KeyEnvType:            cfg.EnvType,
		config.KeyMaxStepsPerEpisode: cfg.MaxStepsPerEpisode,
		config.KeyStepSize:           cfg.StepSize,
		config.KeyAutoReset:          cfg.AutoReset,
		config.KeyTimeout:            cfg.Timeout.String(),
	}

	entries := make([]configEntry, 0, len(config.Keys))
	for _, key := range config.Keys {
		entries = append(entries, configEntry{
			Key:    key,
			Value:  values[key],
			Source: loaded.Sources[key],
			EnvVar: config.EnvName(key),
		})
	}
	return entries
}
