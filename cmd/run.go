package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/studentgym/internal/application"
	"github.com/spf13/cobra"
)

func newRunCmd(app *app) *cobra.Command {
	var steps int
	var rawPolicy string
	var seed int64
	var batchSize int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one episode with a fixed policy and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := application.ParsePolicy(rawPolicy)
			if err != nil {
				return err
			}

			env, err := app.openEnvironment(cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := env.Close(context.WithoutCancel(cmd.Context())); err != nil {
					app.logger(cmd).Printf("close episode: %v", err)
				}
			}()

			run := application.RunCommand{Steps: steps, Policy: policy, Seed: seed, BatchSize: batchSize}
			if !cmd.Flags().Changed("seed") {
				run.Seed = app.now().UnixNano()
			}
			if run.BatchSize == 0 {
				run.BatchSize = env.Config().StepSize
			}

			var summary application.RunSummary
			play := func(ctx context.Context, progress chan<- string) error {
				var runErr error
				summary, runErr = application.NewRunService(env).RunEpisode(ctx, run, func(p application.RunProgress) {
					select {
					case progress <- fmt.Sprintf("step %d/%d: %s, total reward %.2f", p.Step, run.Steps, p.Action, p.Total):
					default:
					}
				})
				return runErr
			}

			started := app.now()
			if asJSON {
				err = play(cmd.Context(), make(chan string, 1))
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Running %s policy...", policy), play)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"episode %s: %d steps, %d ticks, total reward %.2f, %d repairs, %d sells, terminated=%t truncated=%t (%s)\n",
				summary.EpisodeID, summary.Steps, summary.Ticks, summary.TotalReward, summary.Repairs, summary.Sells,
				summary.Terminated, summary.Truncated, app.now().Sub(started).Round(time.Millisecond))
			return err
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 50, "Maximum number of step calls")
	cmd.Flags().StringVar(&rawPolicy, "policy", string(application.PolicyRandom), "Policy (random|noop|repair|sell)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the random policy (default: time based)")
	cmd.Flags().IntVar(&batchSize, "batch", 0, "Ticks per step (default: configured step size)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")

	return cmd
}
