package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sgym",
		Short:         "Student Gym CLI (sgym): drive a remote engine-degradation environment",
		Long:          "sgym talks to a remote simulation server: reset an episode, step it with no-op, repair or sell actions, render its progress, and run scripted episodes from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	app.flags.register(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(app),
		newConfigCmd(app),
		newResetCmd(app),
		newStepCmd(app),
		newCloseCmd(app),
		newRenderCmd(app),
		newRunCmd(app),
		newSessionsCmd(app),
	)

	return rootCmd
}
