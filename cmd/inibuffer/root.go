package main

import (
	"github.com/spf13/cobra"
)

// defaultFile is relative to the working directory.
const defaultFile = "testdata/test.ini"

func newRootCommand() *cobra.Command {
	var fileFlag string
	var sourceFlag string
	var logLevel string
	var logFormat string

	ctx := newCommandContext(&fileFlag, &sourceFlag)

	rootCmd := &cobra.Command{
		Use:           "inibuffer",
		Short:         "Read, edit and serve INI configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(cmd.ErrOrStderr(), logLevel, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&fileFlag, "file", "f", defaultFile, "INI file to load")
	rootCmd.PersistentFlags().StringVarP(&sourceFlag, "source", "s", "", "Repository URI to load instead of --file (file, http(s), git+*, s3, gs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(newDemoCommand(ctx))
	rootCmd.AddCommand(newGetCommand(ctx))
	rootCmd.AddCommand(newSetCommand(ctx))
	rootCmd.AddCommand(newEraseCommand(ctx))
	rootCmd.AddCommand(newDumpCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
