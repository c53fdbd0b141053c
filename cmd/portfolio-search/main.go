package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/portfolio-search/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-search",
	Short: "Content search and caching service for a portfolio site",
	Long: `portfolio-search aggregates portfolio content (projects, writing, experience,
skills and profile) from files, RSS/Atom feeds and SQLite, caches it, and serves
ranked fuzzy search with highlights and suggestions over HTTP or MCP.

Configuration is read from the environment (PORTFOLIO_*) and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"portfolio-search {{.Version}}\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		buildTime, storage.BuildMode, storage.DriverName,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
