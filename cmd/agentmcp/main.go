// Command agentmcp inspects and exercises the MCP servers declared in a
// config file: list the configured servers, show a server's tool catalog,
// and invoke a single tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webpilot-ai/agentmcp/pkg/mcpconfig"
	"github.com/webpilot-ai/agentmcp/pkg/mcpmgr"
)

const version = "1.0.0"

var (
	configPath string
	timeout    time.Duration
	debug      bool
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newManager(log *slog.Logger) *mcpmgr.Manager {
	return mcpmgr.NewManager(&mcpmgr.ManagerOptions{
		ClientName:     "agentmcp",
		ClientVersion:  version,
		ConnectTimeout: timeout,
		Logger:         log,
	})
}

// findServer loads the config file and returns the named server's config.
func findServer(name string) (mcpmgr.ServerConfig, error) {
	file, err := mcpconfig.Load(configPath)
	if err != nil {
		return mcpmgr.ServerConfig{}, err
	}
	if err := file.Validate(); err != nil {
		return mcpmgr.ServerConfig{}, err
	}
	for _, cfg := range file.ServerConfigs() {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return mcpmgr.ServerConfig{}, fmt.Errorf("server %q not found in %s", name, configPath)
}

var rootCmd = &cobra.Command{
	Use:           "agentmcp",
	Short:         "Manage and exercise MCP servers",
	Long:          "agentmcp connects to the MCP servers declared in a config file, lists their tool catalogs, and invokes tools over stdio.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List the servers declared in the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := mcpconfig.Load(configPath)
		if err != nil {
			return err
		}
		if err := file.Validate(); err != nil {
			return err
		}
		configs := file.ServerConfigs()
		if len(configs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no servers configured in %s\n", configPath)
			return nil
		}
		for _, cfg := range configs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\n", cfg.Name, cfg.Command, strings.Join(cfg.Args, " "))
		}
		return nil
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools <server>",
	Short: "Connect to a server and list its tool catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := findServer(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager := newManager(newLogger())
		defer func() {
			if err := manager.DisconnectAll(context.Background()); err != nil {
				newLogger().Warn("disconnect failed", "error", err)
			}
		}()

		if err := manager.Connect(ctx, cfg); err != nil {
			return err
		}
		tools, err := manager.ListTools(ctx, cfg.Name)
		if err != nil {
			return err
		}
		for _, tool := range tools {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tool.Name, tool.Description)
		}
		return nil
	},
}

var callCmd = &cobra.Command{
	Use:   "call <server> <tool> [json-args]",
	Short: "Invoke a tool on a server",
	Long:  "Connect to the named server, call the tool with the given JSON argument object, and print the result content.",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := findServer(args[0])
		if err != nil {
			return err
		}

		toolArgs := map[string]any{}
		if len(args) == 3 {
			if err := json.Unmarshal([]byte(args[2]), &toolArgs); err != nil {
				return fmt.Errorf("parse tool arguments: %w", err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager := newManager(newLogger())
		defer func() {
			if err := manager.DisconnectAll(context.Background()); err != nil {
				newLogger().Warn("disconnect failed", "error", err)
			}
		}()

		if err := manager.Connect(ctx, cfg); err != nil {
			return err
		}
		res := manager.CallTool(ctx, cfg.Name, args[1], toolArgs)
		if !res.Success && res.Error != "" {
			return fmt.Errorf("call %s/%s: %s", cfg.Name, args[1], res.Error)
		}

		for _, item := range res.Content {
			switch item.Kind {
			case mcpmgr.ContentText:
				fmt.Fprintln(cmd.OutOrStdout(), item.Text)
			default:
				encoded, err := json.Marshal(item)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			}
		}
		if res.IsError {
			return fmt.Errorf("tool %s reported failure", args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mcp-servers.json", "path to the MCP servers config file (JSON or YAML)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "connect and handshake timeout per server")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serversCmd, toolsCmd, callCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
