// Package cmd implements the command-line interface for the catalog crawler.
// It provides the root command and subcommands for crawling, serving, and
// inspecting the asset catalog.
package cmd

import (
	"context"
	"fmt"

	"github.com/jonesrussell/gocatalog/cmd/assets"
	"github.com/jonesrussell/gocatalog/cmd/common"
	"github.com/jonesrussell/gocatalog/cmd/crawl"
	"github.com/jonesrussell/gocatalog/cmd/httpd"
	cmdscheduler "github.com/jonesrussell/gocatalog/cmd/scheduler"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug mode for all commands.
	debug bool

	// rootCmd represents the root command for the catalog crawler CLI.
	rootCmd = &cobra.Command{
		Use:   "gocatalog",
		Short: "A crawler and API for the Godot asset catalog",
		Long: `A crawler that walks the Godot asset catalog, enriches every asset
with source repository data, and serves the results over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// newDeps defers config and logger construction until a subcommand actually
// runs, so flag values are already parsed.
func newDeps() (*common.Deps, error) {
	return common.NewDeps(cfgFile, debug)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gocatalog version %s\n", version)
		},
	})

	rootCmd.AddCommand(crawl.Command(newDeps))
	rootCmd.AddCommand(httpd.Command(newDeps))
	rootCmd.AddCommand(cmdscheduler.Command(newDeps))
	rootCmd.AddCommand(assets.Command(newDeps))
}
