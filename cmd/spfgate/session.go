package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/cli"
)

func sessionCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the current process Session ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runSession(jsonOut bool) error {
	s, _, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	sess, err := s.session.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		if jsonOut {
			fmt.Println("null")
			return nil
		}
		fmt.Println("no session recorded yet")
		return nil
	}

	if jsonOut {
		out, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	cli.Header("spfgate session")
	cli.Box([]string{
		fmt.Sprintf("Actions:     %s", cli.FormatNumber(int(sess.ActionCount))),
		fmt.Sprintf("Files read:  %d", len(sess.FilesRead)),
		fmt.Sprintf("Files wrote: %d", len(sess.FilesWritten)),
		fmt.Sprintf("Last tool:   %s", sess.LastTool),
		fmt.Sprintf("Last result: %s", sess.LastResult),
	})

	if len(sess.Manifest) > 0 {
		cli.Section("Recent manifest entries")
		tail := sess.Manifest
		if len(tail) > 10 {
			tail = tail[len(tail)-10:]
		}
		for _, m := range tail {
			fmt.Printf("  %-8s C=%-8d %s %s\n", m.Status, m.C, m.Tool, m.Notes)
		}
	}

	if len(sess.Failures) > 0 {
		cli.Section("Recent failures")
		tail := sess.Failures
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		for _, f := range tail {
			fmt.Printf("  %-20s %s\n", f.Tool, f.Error)
		}
	}

	cli.Footer()
	return nil
}
