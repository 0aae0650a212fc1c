package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) chatCmd() *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "chat <message>...",
		Short: "Ask the skincare assistant; pass --thread to continue a conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.svc.Chat(cmd.Context(), threadID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "existing thread id")
	return cmd
}
