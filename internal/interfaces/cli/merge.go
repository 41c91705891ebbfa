package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvallerand/footgraph/internal/infrastructure/repository/sqlite"
	"github.com/mvallerand/footgraph/internal/usecase"
)

var (
	mergeBasePath   string
	mergeOutputPath string
)

var mergeCmd = &cobra.Command{
	Use:   "merge [store...]",
	Short: "Merge sqlite stores into one",
	Long: `Merge copies the base store to the output path, then folds each given
store into it. Rows already present in the output (matched by source natural
key) are kept; only their missing optional fields are filled in.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeBasePath, "base", "", "Store used as the merge baseline")
	mergeCmd.Flags().StringVar(&mergeOutputPath, "output", "", "Path of the merged store, overwritten if present")
	_ = mergeCmd.MarkFlagRequired("base")
	_ = mergeCmd.MarkFlagRequired("output")
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if mergeOutputPath == mergeBasePath {
		return fmt.Errorf("%w: --output must differ from --base", usecase.ErrConfig)
	}
	if err := copyFile(mergeBasePath, mergeOutputPath); err != nil {
		return fmt.Errorf("copy base store: %w", err)
	}

	target, err := sqlite.Open(ctx, mergeOutputPath, log)
	if err != nil {
		return fmt.Errorf("open output store %s: %w", mergeOutputPath, err)
	}
	defer target.Close()

	service := usecase.NewMergeService(log)
	for _, path := range args {
		source, err := sqlite.OpenReadOnly(ctx, path, log)
		if err != nil {
			return fmt.Errorf("open source store %s: %w", path, err)
		}

		result, err := service.Run(ctx, source, target)
		source.Close()
		if err != nil {
			return fmt.Errorf("merge %s: %w", path, err)
		}

		cmd.Printf("%s: teams +%d/~%d, players +%d/~%d, matches +%d/~%d (%d skipped), appearances +%d/~%d (%d skipped)\n",
			path,
			result.Teams.Added, result.Teams.Updated,
			result.Players.Added, result.Players.Updated,
			result.Matches.Added, result.Matches.Updated, result.Matches.Skipped,
			result.Appearances.Added, result.Appearances.Updated, result.Appearances.Skipped,
		)
	}

	counts, err := target.Counts(ctx)
	if err != nil {
		return fmt.Errorf("read store counts: %w", err)
	}
	cmd.Printf("merged store holds %d teams, %d players, %d matches, %d appearances\n",
		counts.Teams, counts.Players, counts.Matches, counts.Appearances)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
