package main

import (
	"github.com/spf13/cobra"

	"github.com/spf-labs/spfsmartgate/internal/mcpserver"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway's stdio MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			mcpserver.Version = Version
			return mcpserver.Serve(mcpserver.Deps{
				Root:         s.root,
				ActualHome:   s.actualHome,
				ProjectsRoot: s.projectsRoot,
				TmpRoot:      s.tmpRoot,
				BlobsDir:     s.blobsDir,
				LogDir:       s.logDir,
				SessionStore: s.session,
				ConfigStore:  s.cfg,
				Projects:     s.projects,
				Tmp:          s.tmp,
				Agent:        s.agent,
				Vfs:          s.vfs,
			})
		},
	}
}
