package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			api, err := cctx.RestClient()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			profile, err := api.Profile(ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(profile)
			}
			avatar := profile.Avatar
			if avatar == "" {
				avatar = "👤"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", avatar, profile.Username)
			if profile.Bio != "" {
				fmt.Fprintln(cmd.OutOrStdout(), profile.Bio)
			}
			return nil
		},
	}
}
