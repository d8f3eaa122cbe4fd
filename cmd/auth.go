package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored user token",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthClearCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the user token used when none is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("token must not be empty")
			}
			if err := app.tokens.Save(cmd.Context(), token); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "token saved to %s\n", app.tokenLocation)
			return err
		},
	}

	cmd.Flags().StringVar(&token, "value", "", "User token")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newAuthClearCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored user token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.tokens.Clear(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
			return err
		},
	}
}
