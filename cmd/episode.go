package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/studentgym"
	"github.com/bnema/studentgym/internal/application"
	"github.com/bnema/studentgym/internal/domain"
	"github.com/spf13/cobra"
)

type resetOutput struct {
	EpisodeID   string         `json:"episode_id"`
	Observation []float64      `json:"observation"`
	Info        map[string]any `json:"info"`
}

type stepOutput struct {
	EpisodeID    string         `json:"episode_id"`
	Action       string         `json:"action"`
	Observations [][]float64    `json:"observations"`
	Reward       float64        `json:"reward"`
	Terminated   bool           `json:"terminated"`
	Truncated    bool           `json:"truncated"`
	Step         int            `json:"step"`
	Info         map[string]any `json:"info"`
}

func newResetCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start a new episode and remember it under the session name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.openEnvironment(cmd)
			if err != nil {
				return err
			}

			// A previous handle is restored so the new reset releases it on the server.
			if record, err := app.sessions.Recall(cmd.Context(), app.sessionName(), env.Config()); err == nil {
				if err := env.Restore(record.Episode); err != nil {
					app.logger(cmd).Printf("restore previous episode %s: %v", record.Episode.ID, err)
				}
			}

			result, err := env.Reset(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.remember(cmd, env); err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resetOutput{
					EpisodeID:   string(result.Info.EpisodeID),
					Observation: result.Observation.Slice(),
					Info:        result.Info.Map(),
				})
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "episode %s started (session %s)\n", result.Info.EpisodeID, app.sessionName()); err != nil {
				return err
			}
			return writeObservation(out, result.Observation)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}

func newStepCmd(app *app) *cobra.Command {
	var rawAction string
	var batchSize int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Advance the session's episode with one action",
		RunE: func(cmd *cobra.Command, _ []string) error {
			action, err := domain.ParseAction(strings.ToLower(strings.TrimSpace(rawAction)))
			if err != nil {
				return err
			}

			env, err := app.resumeEnvironment(cmd)
			if err != nil {
				return err
			}

			step := application.StepCommand{Action: action, BatchSize: batchSize}
			if step.BatchSize == 0 {
				step.BatchSize = env.Config().StepSize
			}

			result, stepErr := env.StepBatch(cmd.Context(), step.Action, step.BatchSize)
			if stepErr != nil && !errors.Is(stepErr, domain.ErrEpisodeEnded) {
				return stepErr
			}
			if err := app.remember(cmd, env); err != nil {
				return err
			}
			if stepErr != nil {
				return stepErr
			}

			episode := env.Episode()
			if asJSON {
				observations := make([][]float64, 0, len(result.Observations))
				for _, obs := range result.Observations {
					observations = append(observations, obs.Slice())
				}
				return writeJSON(cmd.OutOrStdout(), stepOutput{
					EpisodeID:    string(episode.ID),
					Action:       step.Action.String(),
					Observations: observations,
					Reward:       result.Reward,
					Terminated:   result.Terminated,
					Truncated:    result.Truncated,
					Step:         episode.Step,
					Info:         result.Info.Map(),
				})
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s x%d: %d ticks, reward %.2f, step %s, total %.2f\n",
				step.Action, step.BatchSize, len(result.Observations), result.Reward,
				stepProgress(episode.Step, env.Config().MaxStepsPerEpisode), episode.TotalReward); err != nil {
				return err
			}
			if result.Done() {
				if _, err := fmt.Fprintf(out, "episode %s ended (terminated=%t truncated=%t)\n", episode.ID, result.Terminated, result.Truncated); err != nil {
					return err
				}
			}
			if last, ok := result.Last(); ok {
				return writeObservation(out, last)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawAction, "action", "", "Action (0|noop, 1|repair, 2|sell)")
	cmd.Flags().IntVar(&batchSize, "batch", 0, "Ticks to advance (default: configured step size)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func newCloseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Release the session's episode on the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.resumeEnvironment(cmd)
			if errors.Is(err, domain.ErrSession) {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %s has no open episode\n", app.sessionName())
				return err
			}
			if err != nil {
				return err
			}

			id := env.Episode().ID
			if err := env.Close(cmd.Context()); err != nil {
				return err
			}
			if err := app.sessions.Forget(cmd.Context(), app.sessionName()); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "episode %s closed\n", id)
			return err
		},
	}
}

func newRenderCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Show the session's episode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := app.resumeEnvironment(cmd)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), env.Render())
			return err
		},
	}
}

func writeObservation(out io.Writer, obs studentgym.Observation) error {
	for i, name := range domain.ObservationFieldNames {
		if _, err := fmt.Fprintf(out, "  %-8s %10.4f\n", name, obs[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(out io.Writer, payload any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func stepProgress(step, maxSteps int) string {
	if maxSteps <= 0 {
		return fmt.Sprintf("%d", step)
	}
	return fmt.Sprintf("%d/%d", step, maxSteps)
}
