package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nfrund/gobychat/cmd/chat-cli/internal/render"
)

func newRoomsCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List the rooms known to the server",
		Long: `List the rooms the server currently knows about.

Examples:
  chat-cli rooms                  # table output
  chat-cli rooms --format json    # machine-readable output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := c.client.Session.FetchRooms(cmd.Context())
			if err != nil {
				return err
			}
			return render.Rooms(cmd.OutOrStdout(), rooms, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatTable, "output format (table, json)")
	return cmd
}
