package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/openpress/openpress-stack/pkg/config"
)

var cfgFile string

// ErrUsage is returned by the cmd.Usage() method
var ErrUsage = errors.New("Bad usage of command")

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "openpress",
	Short: "openpress is the main command",
	Long: `OpenPress is a publishing stack with a rich text editor. It keeps the post
documents, runs the paste pipeline that turns images and provider URLs into
blocks, and exports the content as markdown or HTML.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Setup(cfgFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Display the usage/help by default
		return cmd.Usage()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file (default \"$HOME/.config/openpress/openpress.yaml\")")
}
