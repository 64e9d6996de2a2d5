package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nebulachat/nebula/internal/types"
)

// NewRoomsCmd creates the rooms command.
func NewRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List joined rooms",
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
			rooms, err := api.Rooms(ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rooms)
			}
			if len(rooms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no rooms")
				return nil
			}
			for _, room := range rooms {
				icon := "👥"
				if room.Kind == types.RoomDirect {
					icon = "💬"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (#%d)\n", icon, room.Name, room.ID)
			}
			return nil
		},
	}
}
