package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/session"
)

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the current Session ledger and start a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			fresh := session.New(time.Now())
			if err := s.session.Save(fresh); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Println("session reset")
			return nil
		},
	}
}
