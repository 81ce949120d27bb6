package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

func refreshPathsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "refresh-paths",
		Short: "Recompute the compiled-default allowed/blocked path lists against the current root and home",
		Long:  "Re-derives allowed_paths and blocked_paths from the current root and home directory, leaving every other configured field untouched. Use this after moving the install root or the user's home directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefreshPaths(dryRun)
		},
	}
	addDryRunFlag(cmd.Flags(), &dryRun)
	return cmd
}

func runRefreshPaths(dryRun bool) error {
	s, _, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	existing, err := s.cfg.Load()
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("no configuration seeded yet — run 'init-config' first")
	}

	fresh := config.Default(s.root, s.actualHome)
	existing.AllowedPaths = fresh.AllowedPaths
	existing.BlockedPaths = fresh.BlockedPaths

	fmt.Println("allowed paths:")
	for _, p := range existing.AllowedPaths {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println("blocked paths:")
	for _, p := range existing.BlockedPaths {
		fmt.Printf("  %s\n", p)
	}

	if dryRun {
		fmt.Println("\ndry run — not saved")
		return nil
	}
	if err := s.cfg.Save(*existing); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("\npath lists updated")
	return nil
}
