// Package cli wires the footgraph commands: ingest, graph and merge.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mvallerand/footgraph/internal/config"
	"github.com/mvallerand/footgraph/internal/platform/logging"
)

var (
	cfg config.Config
	log *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "footgraph",
	Short: "Build player co-occurrence graphs from football lineup data",
	Long: `footgraph ingests football matches and lineups from external sources
into a local sqlite store, merges stores from separate runs, and exports
player co-occurrence graphs for graph analysis tooling.

Examples:
  footgraph ingest --db club.db --source statsbomb_open_data --teams Barcelona --date-from 2004-08-01 --date-to 2005-06-30
  footgraph ingest --db club.db --source footballia --links-file barcelona_match_links.txt --date-from 1990-07-01 --date-to 2000-06-30
  footgraph graph --db club.db --output club.dgs --min-edge-weight 3 --starters-only
  footgraph merge --base club.db --output all.db other.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine, the environment may carry everything.
		_ = godotenv.Load()

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		log = logging.NewJSON(cfg.LogLevel)
		logging.SetDefault(log)
		return nil
	},
}

// ExecuteContext runs the CLI and returns the process exit code. The context
// cancels in-flight fetches and store writes on shutdown.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if log != nil {
			log.Error("command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
