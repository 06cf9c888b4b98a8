package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalgallery/internal/config"
	"evalgallery/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var outputName string
	var logLevel string
	var remote bool

	cmd := &cobra.Command{
		Use:           "evalgallery",
		Short:         "Evalgallery manages the photo and document galleries of property evaluations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := format.ForName(outputName)
			if err != nil {
				return err
			}
			outputFormatter = formatter
			remoteAPI = remote

			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVarP(&outputName, "output", "o", format.NamePlain, "output format: plain, json or yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&remote, "remote", false, "send the command to the server at api_url")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newListCmd(cfg),
		newAddCmd(cfg),
		newReplaceCmd(cfg),
		newGetCmd(cfg),
		newPathsCmd(cfg),
		newRenameCmd(cfg),
		newMoveCmd(cfg),
		newRemoveCmd(cfg),
		newCompactCmd(cfg),
		newCoverCmd(cfg),
		newConfigCmd(cfg),
		newMigrateCmd(cfg),
	)

	return cmd
}
