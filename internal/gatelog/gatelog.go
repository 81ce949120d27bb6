// Package gatelog appends a plain-text record of every gated call to
// cmd.log, one line per call, for operators tailing the gateway's activity
// outside the Session Ledger's own JSON.
package gatelog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Logger appends lines to one cmd.log file.
type Logger struct {
	path string
}

// Open ensures dir exists and returns a Logger writing to dir/cmd.log.
func Open(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Logger{path: filepath.Join(dir, "cmd.log")}, nil
}

// Record appends one "[ts] CALL|FAIL tool | summary" line.
func (l *Logger) Record(now time.Time, allowed bool, tool, summary string) error {
	status := "CALL"
	if !allowed {
		status = "FAIL"
	}
	line := fmt.Sprintf("[%s] %s %s | %s\n", now.UTC().Format(time.RFC3339), status, tool, summary)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
