package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/vfs"
)

func fsImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fs-import <vpath> <file>",
		Short: "Import a host file's contents into the Virtual FS at vpath",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFSImport(args[0], args[1], dryRun)
		},
	}
	addDryRunFlag(cmd.Flags(), &dryRun)
	return cmd
}

func runFSImport(vpath, file string, dryRun bool) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	s, _, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	view := vfs.New(s.vfs, s.cfg, s.agent, s.blobsDir, s.tmpRoot, s.projectsRoot)
	if err := view.EnsureSkeleton(time.Now()); err != nil {
		return fmt.Errorf("seed virtual fs skeleton: %w", err)
	}

	if dryRun {
		fmt.Printf("would import %d bytes into %s\n", len(content), vfs.Normalize(vpath))
		return nil
	}

	meta, err := view.Write(vpath, content, time.Now())
	if err != nil {
		return fmt.Errorf("write %s: %w", vpath, err)
	}
	fmt.Printf("imported %d bytes into %s (version %d)\n", meta.Size, meta.Path, meta.Version)
	return nil
}

func fsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fs-export <vpath> <file>",
		Short: "Export a Virtual FS path's content to a host file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFSExport(args[0], args[1])
		},
	}
}

func runFSExport(vpath, file string) error {
	s, _, err := openStores()
	if err != nil {
		return err
	}
	defer s.Close()

	view := vfs.New(s.vfs, s.cfg, s.agent, s.blobsDir, s.tmpRoot, s.projectsRoot)
	node, err := view.Read(vpath)
	if err != nil {
		return fmt.Errorf("read %s: %w", vpath, err)
	}
	if node.IsDir {
		return fmt.Errorf("%s is a directory, not a file", vpath)
	}
	if err := os.WriteFile(file, node.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	fmt.Printf("exported %d bytes from %s to %s\n", len(node.Content), vpath, file)
	return nil
}
