package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/config"
)

func initConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Seed the compiled-default Configuration, overwriting any existing one with --force",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitConfig(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an already-seeded configuration")
	return cmd
}

func runInitConfig(force bool) error {
	s, _, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	existing, err := s.cfg.Load()
	if err != nil {
		return err
	}
	if existing != nil && !force {
		return fmt.Errorf("configuration already seeded — pass --force to overwrite")
	}

	defaults := config.Default(s.root, s.actualHome)
	if err := s.cfg.Save(defaults); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("configuration seeded with compiled defaults")
	return nil
}
