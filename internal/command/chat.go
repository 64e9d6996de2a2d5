package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebulachat/nebula/internal/chat"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return writeCommandError(cmd, fmt.Errorf("--json not supported for interactive chat"))
			}
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()
			if err := chat.Run(ctx.ChatOptions()); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}
}
