package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gungunsaluja/FileView/internal/client"
	"github.com/gungunsaluja/FileView/internal/infrastructure/config"
	"github.com/gungunsaluja/FileView/internal/infrastructure/logging"
	"github.com/gungunsaluja/FileView/internal/tui"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "fileview-chat",
		Short: "Terminal chat client for the FileView relay",
		Long: "fileview-chat connects to a FileView server over WebSocket and streams\n" +
			"generated replies into a terminal UI. The connection reconnects\n" +
			"automatically with a bounded number of fixed-interval retries.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Printf("fileview-chat v%s\n", version)
				return nil
			}

			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.DefaultClientPath()
			}
			cfg, err := config.LoadClient(configPath)
			if err != nil {
				return err
			}
			if serverURL, _ := cmd.Flags().GetString("server"); serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if theme, _ := cmd.Flags().GetString("theme"); theme != "" {
				cfg.Theme = theme
			}

			// The TUI owns the terminal; logs would corrupt the screen
			cl := client.New(client.Config{
				URL:                  cfg.ServerURL,
				ReconnectInterval:    cfg.ReconnectInterval,
				MaxReconnectAttempts: cfg.MaxReconnectAttempts,
			}, logging.NewNop())
			defer cl.Close()

			probeCtx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			err = cl.Probe(probeCtx)
			cancel()
			if err != nil {
				// The UI starts anyway and keeps retrying from there
				fmt.Fprintf(os.Stderr, "warning: server not reachable: %v\n", err)
			}

			p := tea.NewProgram(tui.New(cl, cfg.ServerURL, cfg.Theme), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	root.Flags().String("server", "", "WebSocket endpoint, e.g. ws://localhost:8000/stream")
	root.Flags().String("config", "", "Path to the client config file (default ~/.fileview/chat.yaml)")
	root.Flags().String("theme", "", "Color theme: dark or light (default from config)")
	root.Flags().BoolP("version", "v", false, "Print version information")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
