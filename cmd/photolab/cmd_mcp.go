package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/photolab/internal/config"
	"github.com/nvandessel/photolab/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run an MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout so that AI agents
can drive the experiment: select materials, take readings, run sweeps,
inspect statistics and export data.

Logs are written to stderr. Tool calls are audited to
~/.photolab/audit.jsonl.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			exportDir, _ := cmd.Flags().GetString("export-dir")
			if exportDir == "" {
				if wd, err := os.Getwd(); err == nil {
					exportDir = wd
				}
			}
			auditDir := ""
			if noAudit, _ := cmd.Flags().GetBool("no-audit"); !noAudit {
				if dir, err := config.Dir(); err == nil {
					auditDir = dir
				}
			}

			server, err := mcp.NewServer(a.session, &mcp.Config{
				Name:      "photolab",
				Version:   version,
				ExportDir: exportDir,
				AuditDir:  auditDir,
				Logger:    a.logger,
			})
			if err != nil {
				a.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			runErr := server.Run(cmd.Context())
			if err := a.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
	cmd.Flags().String("export-dir", "", "Directory for relative export paths (default: working directory)")
	cmd.Flags().Bool("no-audit", false, "Do not write the tool call audit log")
	return cmd
}
