package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvallerand/footgraph/external/footballia"
	"github.com/mvallerand/footgraph/external/statsbomb"
	"github.com/mvallerand/footgraph/internal/infrastructure/repository/sqlite"
	"github.com/mvallerand/footgraph/internal/usecase"
)

var (
	ingestDBPath    string
	ingestSource    string
	ingestTeams     []string
	ingestDateFrom  string
	ingestDateTo    string
	ingestLinksFile string
	ingestWorkers   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest matches and lineups from an external source",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestDBPath, "db", "", "Path to the sqlite store, created if absent")
	ingestCmd.Flags().StringVar(&ingestSource, "source", statsbomb.SourceName, "Data source: statsbomb_open_data or footballia")
	ingestCmd.Flags().StringSliceVar(&ingestTeams, "teams", nil, "Team names to ingest, comma separated or repeated")
	ingestCmd.Flags().StringVar(&ingestDateFrom, "date-from", "", "Inclusive start date, yyyy-mm-dd")
	ingestCmd.Flags().StringVar(&ingestDateTo, "date-to", "", "Inclusive end date, yyyy-mm-dd")
	ingestCmd.Flags().StringVar(&ingestLinksFile, "links-file", "", "File with curated match page URLs, replaces discovery")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Concurrent lineup fetches, defaults per source")
	_ = ingestCmd.MarkFlagRequired("db")
	_ = ingestCmd.MarkFlagRequired("date-from")
	_ = ingestCmd.MarkFlagRequired("date-to")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dateFrom, err := time.Parse("2006-01-02", ingestDateFrom)
	if err != nil {
		return fmt.Errorf("%w: parse --date-from: %v", usecase.ErrConfig, err)
	}
	dateTo, err := time.Parse("2006-01-02", ingestDateTo)
	if err != nil {
		return fmt.Errorf("%w: parse --date-to: %v", usecase.ErrConfig, err)
	}

	provider, workers, err := buildProvider(ingestSource)
	if err != nil {
		return err
	}
	if ingestWorkers > 0 {
		workers = ingestWorkers
	}

	store, err := sqlite.Open(ctx, ingestDBPath, log)
	if err != nil {
		return fmt.Errorf("open store %s: %w", ingestDBPath, err)
	}
	defer store.Close()

	service := usecase.NewIngestService(provider, store, usecase.IngestConfig{
		Workers:       workers,
		ProgressEvery: cfg.IngestProgressEvery,
	}, log)

	result, err := service.Run(ctx, usecase.IngestInput{
		Teams:     ingestTeams,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		LinksFile: ingestLinksFile,
	})
	if err != nil {
		return err
	}

	cmd.Printf("discovered %d matches, ingested %d, skipped %d\n",
		result.Discovered, result.Ingested, result.Skipped)
	if result.Skipped > 0 {
		cmd.Printf("skip reasons: %s\n", strings.Join(result.SortedSkipReasons(), " "))
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("read store counts: %w", err)
	}
	cmd.Printf("store now holds %d teams, %d players, %d matches, %d appearances\n",
		counts.Teams, counts.Players, counts.Matches, counts.Appearances)
	return nil
}

func buildProvider(source string) (usecase.MatchProvider, int, error) {
	switch source {
	case statsbomb.SourceName:
		return statsbomb.NewClient(statsbomb.ClientConfig{
			BaseURL:    cfg.StatsBombBaseURL,
			Timeout:    cfg.StatsBombTimeout,
			MaxRetries: cfg.StatsBombMaxRetries,
			Workers:    cfg.StatsBombWorkers,
			Logger:     log,
		}), cfg.StatsBombWorkers, nil
	case footballia.SourceName:
		return footballia.NewClient(footballia.ClientConfig{
			BaseURL:    cfg.FootballiaBaseURL,
			Timeout:    cfg.FootballiaTimeout,
			MaxRetries: cfg.FootballiaMaxRetries,
			Workers:    cfg.FootballiaWorkers,
			SleepMin:   cfg.FootballiaSleepMin,
			SleepMax:   cfg.FootballiaSleepMax,
			Logger:     log,
		}), cfg.FootballiaWorkers, nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown source %q", usecase.ErrConfig, source)
	}
}
