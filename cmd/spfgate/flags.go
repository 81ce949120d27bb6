package main

import "github.com/spf13/pflag"

// addDryRunFlag registers the --dry-run flag shared by refresh-paths,
// fs-import, and config-import, so its help text and default stay
// consistent across every subcommand that supports a preview mode.
func addDryRunFlag(fs *pflag.FlagSet, target *bool) {
	fs.BoolVar(target, "dry-run", false, "Preview the effect without writing anything")
}
