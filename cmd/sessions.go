package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type sessionOutput struct {
	Name        string    `json:"name"`
	ServerURL   string    `json:"server_url"`
	EnvType     string    `json:"env_type"`
	EpisodeID   string    `json:"episode_id"`
	Step        int       `json:"step"`
	TotalReward float64   `json:"total_reward"`
	Ended       bool      `json:"ended"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newSessionsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List persisted sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := app.sessions.List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]sessionOutput, 0, len(records))
			for _, record := range records {
				rows = append(rows, sessionOutput{
					Name:        record.Name,
					ServerURL:   record.ServerURL,
					EnvType:     record.EnvType,
					EpisodeID:   string(record.Episode.ID),
					Step:        record.Episode.Step,
					TotalReward: record.Episode.TotalReward,
					Ended:       record.Episode.Ended(),
					UpdatedAt:   record.UpdatedAt,
				})
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				_, err := fmt.Fprintln(out, "no sessions")
				return err
			}
			for _, row := range rows {
				state := "active"
				if row.Ended {
					state = "ended"
				}
				if _, err := fmt.Fprintf(out, "%-12s %-24s step %-6d reward %-10.2f %-6s %s (updated %s ago)\n",
					row.Name, row.EpisodeID, row.Step, row.TotalReward, state, row.ServerURL,
					app.now().Sub(row.UpdatedAt).Round(time.Second)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}
