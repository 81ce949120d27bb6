package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/gate"
)

func gateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gate <tool> <json-params>",
		Short: "Run one tool call through the Gate Pipeline and print the Decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGate(args[0], args[1])
		},
	}
}

func runGate(tool, rawParams string) error {
	var params map[string]any
	if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
		return fmt.Errorf("parse params: %w", err)
	}

	s, cfg, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	sess, err := s.session.LoadOrNew(time.Now())
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	now := time.Now()
	d := gate.Process(cfg, sess, s.projectsRoot, s.tmpRoot, tool, params, now)
	gate.RecordOutcome(sess, d, now)
	if err := s.session.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if !d.Allowed {
		return fmt.Errorf("blocked: %s", d.Message)
	}
	return nil
}
