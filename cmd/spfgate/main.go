// Command spfgate is the compiled security gateway's entry point: a
// stdio MCP server for agent tool calls, plus operator subcommands for
// inspecting and administering its persisted state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "spfgate",
		Short: "Compiled security gateway for agent tool calls",
		Long:  "spfgate enforces path allowlists, complexity-scored tiers, and content inspection on every tool call an agent makes, over stdio MCP.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(gateCmd())
	root.AddCommand(calculateCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(sessionCmd())
	root.AddCommand(resetCmd())
	root.AddCommand(initConfigCmd())
	root.AddCommand(refreshPathsCmd())
	root.AddCommand(fsImportCmd())
	root.AddCommand(fsExportCmd())
	root.AddCommand(configImportCmd())
	root.AddCommand(configExportCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spfgate: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gateway version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("spfgate %s\n", Version)
			return nil
		},
	}
}
