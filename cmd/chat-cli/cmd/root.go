package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/gobychat/internal/app"
	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/logging"
)

// cli carries what every subcommand needs. The client services are resolved
// once per invocation in the root's PersistentPreRunE.
type cli struct {
	fs     afero.Fs
	host   string
	client *app.Client
}

// NewRootCmd builds the chat-cli command tree. fs holds the saved identity.
func NewRootCmd(fs afero.Fs) *cobra.Command {
	c := &cli{fs: fs}

	rootCmd := &cobra.Command{
		Use:   "chat-cli",
		Short: "Terminal client for gobychat rooms",
		Long: `chat-cli connects to a gobychat server and lets you chat from the terminal.

Available commands:
  rooms     List the rooms known to the server
  join      Join a room and chat interactively
  logout    Forget the saved username and room

Use "chat-cli [command] --help" for more information about a specific command.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	rootCmd.PersistentFlags().StringVar(&c.host, "host", "", "chat server host:port (overrides CHAT_HOST)")

	rootCmd.AddCommand(
		newRoomsCmd(c),
		newJoinCmd(c),
		newLogoutCmd(c),
		newVersionCmd(),
	)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if c.host != "" {
		cfg.ChatHost = c.host
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	client, err := app.ResolveClient(app.NewInjector(cfg, logger, c.fs))
	if err != nil {
		return err
	}
	c.client = client
	return nil
}
