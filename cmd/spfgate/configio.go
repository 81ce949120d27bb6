package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

func configImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "config-import <file>",
		Short: "Replace the persisted Configuration with one loaded from a JSON file",
		Long:  "Decodes the file as a full Configuration and saves it, then re-asserts the compiled tier-approval policy so the imported file can never weaken it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigImport(args[0], dryRun)
		},
	}
	addDryRunFlag(cmd.Flags(), &dryRun)
	return cmd
}

func runConfigImport(file string, dryRun bool) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	var cfg config.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	config.ReassertCompiledPolicy(&cfg)

	if dryRun {
		out, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	s, _, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.cfg.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("configuration imported from %s\n", file)
	return nil
}

func configExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config-export <file>",
		Short: "Write the persisted Configuration to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigExport(args[0])
		},
	}
}

func runConfigExport(file string) error {
	s, cfg, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(file, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	fmt.Printf("configuration exported to %s\n", file)
	return nil
}
