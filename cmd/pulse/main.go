package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pulse",
		Short: "Aggregate and score trending topics across news, forums and crypto markets",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(aggregateCmd())
	root.AddCommand(alertsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func aggregateCmd() *cobra.Command {
	var (
		jsonOutput bool
		page       int
		limit      int
		sources    []string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Run one aggregation and print the ranked topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(jsonOutput, page, limit, sources)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "topics per page (max 50)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "specific sources to query (e.g., wiki,hn,lemmy,crypto,dex)")
	return cmd
}

func alertsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show recently alerted topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlerts(jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 50, "max alerts to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
