package command

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nebulachat/nebula/internal/chat"
	"github.com/nebulachat/nebula/internal/rest"
)

// CommandContext carries the resolved connection settings shared by every
// subcommand.
type CommandContext struct {
	ServerURL  string
	ChannelURL string
	Token      string
	PrefsPath  string
	Logger     zerolog.Logger
	closeLog   func()
}

func (c *CommandContext) Close() {
	if c.closeLog != nil {
		c.closeLog()
	}
}

func (c *CommandContext) ChatOptions() chat.Options {
	return chat.Options{
		ServerURL:  c.ServerURL,
		ChannelURL: c.ChannelURL,
		Token:      c.Token,
		PrefsPath:  c.PrefsPath,
		Logger:     c.Logger,
	}
}

func (c *CommandContext) RestClient() (*rest.Client, error) {
	return rest.NewClient(c.ServerURL, c.Token)
}

// GetContext resolves flags and environment into a CommandContext.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	server, _ := cmd.Flags().GetString("server")
	ws, _ := cmd.Flags().GetString("ws")
	token, _ := cmd.Flags().GetString("token")
	prefsPath, _ := cmd.Flags().GetString("config")
	logPath, _ := cmd.Flags().GetString("log")

	if token == "" {
		token = os.Getenv("NEBULA_TOKEN")
	}
	if ws == "" {
		derived, err := deriveChannelURL(server)
		if err != nil {
			return nil, err
		}
		ws = derived
	}

	ctx := &CommandContext{
		ServerURL:  server,
		ChannelURL: ws,
		Token:      token,
		PrefsPath:  prefsPath,
		Logger:     zerolog.Nop(),
	}
	if logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ctx.Logger = zerolog.New(file).With().Timestamp().Logger()
		ctx.closeLog = func() { _ = file.Close() }
	}
	return ctx, nil
}

// deriveChannelURL maps the http(s) base URL to its ws(s) channel endpoint.
func deriveChannelURL(server string) (string, error) {
	parsed, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/ws"
	return parsed.String(), nil
}
