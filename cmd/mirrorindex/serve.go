package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/mcp"
	"github.com/dshills/mirrorindex/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	var fromDB bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the written index to MCP clients over stdio",
		Long: `Serve starts a read-only Model Context Protocol server on stdin/stdout.

Snapshots are read from the output directory (or loader.candidates in the
config file) and cached for loader.cache_max_age. With --from-db the snapshot
saved in --db is served instead. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			logger := a.logger.Named("serve")
			logger.Info("serve:start", logging.Fields{
				"version": version,
				"driver":  storage.DriverName,
				"mode":    storage.BuildMode,
				"out":     a.cfg.OutDir(),
				"from_db": fromDB,
			})

			server, err := mcp.NewServer(a.cfg, a.logger, mcp.Options{FromDatabase: fromDB})
			if err != nil {
				logger.Error("serve:error", logging.Fields{"error": err})
				return err
			}

			// Start server in a goroutine
			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Serve(ctx)
			}()

			// Wait for shutdown signal or error
			select {
			case <-ctx.Done():
				logger.Info("serve:stop", logging.Fields{"reason": ctx.Err()})
				return nil
			case err := <-errChan:
				if err != nil {
					logger.Error("serve:error", logging.Fields{"error": err})
				}
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "Serve the snapshot saved in --db instead of the index files")
	return cmd
}
