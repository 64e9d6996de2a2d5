package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "nebula"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Nebula - terminal client for nebula chat",
		Long:          "Nebula is a terminal client for the nebula chat server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("server", "http://localhost:5000", "server base URL")
	cmd.PersistentFlags().String("ws", "", "websocket URL (derived from --server when empty)")
	cmd.PersistentFlags().String("token", "", "auth token (or NEBULA_TOKEN)")
	cmd.PersistentFlags().String("config", "", "preferences file path")
	cmd.PersistentFlags().String("log", "", "debug log file path")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewChatCmd(),
		NewRoomsCmd(),
		NewWhoamiCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
