package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/cli"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the gateway's resolved root, mode, and store state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	s, cfg, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	cli.Header("spfgate status")

	cli.Section("Root")
	fmt.Printf("  Root:     %s\n", cli.ShortenHome(s.root))
	fmt.Printf("  Home:     %s\n", cli.ShortenHome(s.actualHome))
	fmt.Printf("  Projects: %s\n", cli.ShortenHome(s.projectsRoot))
	fmt.Printf("  Tmp:      %s\n", cli.ShortenHome(s.tmpRoot))

	cli.Section("Configuration")
	fmt.Printf("  Version:      %s\n", cfg.Version)
	fmt.Printf("  Enforce mode: %s\n", cfg.EnforceMode)
	fmt.Printf("  Max write:    %d bytes\n", cfg.MaxWriteSize)
	fmt.Printf("  Allowed paths: %d\n", len(cfg.AllowedPaths))
	fmt.Printf("  Blocked paths: %d\n", len(cfg.BlockedPaths))

	cli.Section("Stores")
	projects, _ := s.projects.List()
	active, hasActive := s.projects.Active()
	fmt.Printf("  Projects known:  %s\n", cli.FormatNumber(len(projects)))
	if hasActive {
		fmt.Printf("  Active project:  %s\n", active)
	} else {
		fmt.Printf("  Active project:  %snone%s\n", cli.Dim, cli.Reset)
	}
	if count, err := s.agent.ListFiles(); err == nil {
		fmt.Printf("  Agent state files: %s\n", cli.FormatNumber(len(count)))
	}

	sess, err := s.session.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Printf("\n  Session: %snot yet started%s\n", cli.Dim, cli.Reset)
	} else {
		fmt.Printf("\n  Session: %s calls recorded, started at unix %d\n",
			cli.FormatNumber(int(sess.ActionCount)), sess.StartedAt)
	}

	cli.Footer()
	return nil
}
