package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/gate"
)

func calculateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calculate <tool> <json-params>",
		Short: "Estimate a call's complexity C and tier without performing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(args[0], args[1])
		},
	}
}

func runCalculate(tool, rawParams string) error {
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

	out, _ := json.MarshalIndent(struct {
		C    uint64 `json:"c"`
		Tier string `json:"tier"`
	}{d.C, string(d.Tier)}, "", "  ")
	fmt.Println(string(out))
	return nil
}
