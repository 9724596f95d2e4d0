package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

const (
	CmdServe    = "serve"
	CmdSnapshot = "snapshot"
	FlagConfig  = "config"
	FlagOut     = "out"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := readConfig(configPath)
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		return runServe(cmd.Context(), cfg)
	}

	root := &cobra.Command{
		Use:   "africa-gateway",
		Short: "HTTP gateway for African country data",
		Long: `africa-gateway aggregates REST Countries, World Bank indicators and
Natural Earth boundaries into one JSON API.

  africa-gateway                 # same as "serve"
  africa-gateway serve           # start the HTTP server (LISTEN_ADDR, default :8000)
  africa-gateway snapshot --out countries.geojson
                                 # write the bundled boundary snapshot from the live upstream`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&configPath, FlagConfig, "", "YAML overlay file (default $CONFIG_FILE)")

	serveCmd := &cobra.Command{
		Use:   CmdServe,
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}

	var out string
	snapshotCmd := &cobra.Command{
		Use:   CmdSnapshot,
		Short: "Download the boundary dataset and write it as the bundled snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if out == "" {
				out = cfg.boundarySnapshotPath
			}
			if out == "" {
				return fmt.Errorf("--%s or BOUNDARY_SNAPSHOT_PATH is required", FlagOut)
			}
			return runSnapshot(cmd.Context(), cfg, out, cmd.OutOrStdout())
		},
	}
	snapshotCmd.Flags().StringVar(&out, FlagOut, "", "destination file")

	root.AddCommand(serveCmd, snapshotCmd)
	return root
}
