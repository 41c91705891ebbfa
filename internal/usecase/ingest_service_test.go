package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	"github.com/mvallerand/footgraph/internal/infrastructure/repository/sqlite"
	"github.com/mvallerand/footgraph/internal/platform/logging"
	"github.com/mvallerand/footgraph/internal/usecase"
)

type fakeProvider struct {
	matches   []usecase.SourceMatch
	lineups   map[string][]usecase.SourceAppearance
	lineupErr map[string]error
	listErr   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ListMatches(_ context.Context, _ []string, _, _ time.Time) ([]usecase.SourceMatch, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.matches, nil
}

func (f *fakeProvider) GetLineups(_ context.Context, sourceMatchID string) ([]usecase.SourceAppearance, error) {
	if err := f.lineupErr[sourceMatchID]; err != nil {
		return nil, err
	}
	return f.lineups[sourceMatchID], nil
}

type fakeLinkProvider struct {
	fakeProvider
	pages   map[string]usecase.SourceMatch
	pageErr map[string]error
}

func (f *fakeLinkProvider) FetchMatchPage(_ context.Context, link string) (usecase.SourceMatch, error) {
	if err := f.pageErr[link]; err != nil {
		return usecase.SourceMatch{}, err
	}
	sm, ok := f.pages[link]
	if !ok {
		return usecase.SourceMatch{}, fmt.Errorf("%w: no page for %s", usecase.ErrFetch, link)
	}
	return sm, nil
}

func (f *fakeLinkProvider) MatchIDFromLink(link string) string {
	return path.Base(link)
}

func fakeMatch(id, date string) usecase.SourceMatch {
	return usecase.SourceMatch{
		Source:        "fake",
		SourceMatchID: id,
		MatchDate:     date,
		Home:          team.Record{Source: "fake", SourceTeamID: "h", Name: "Home FC"},
		Away:          team.Record{Source: "fake", SourceTeamID: "a", Name: "Away FC"},
	}
}

func fakeLineup(playerIDs ...string) []usecase.SourceAppearance {
	out := make([]usecase.SourceAppearance, 0, len(playerIDs))
	for _, id := range playerIDs {
		out = append(out, usecase.SourceAppearance{
			Player:    player.Record{Source: "fake", SourcePlayerID: id, Name: "Player " + id},
			Team:      team.Record{Source: "fake", SourceTeamID: "h", Name: "Home FC"},
			IsStarter: true,
		})
	}
	return out
}

func openIngestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.InMemory, logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ingestInput() usecase.IngestInput {
	return usecase.IngestInput{
		Teams:    []string{"Home FC"},
		DateFrom: time.Date(2004, 8, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2005, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestIngestService_Run_IngestsAndIsIdempotent(t *testing.T) {
	store := openIngestStore(t)
	provider := &fakeProvider{
		matches: []usecase.SourceMatch{
			fakeMatch("m1", "2004-11-20"),
			fakeMatch("m2", "2004-11-27"),
			fakeMatch("m1", "2004-11-20"), // discovered under both teams
		},
		lineups: map[string][]usecase.SourceAppearance{
			"m1": fakeLineup("p1", "p2"),
			"m2": fakeLineup("p1", "p3"),
		},
	}
	svc := usecase.NewIngestService(provider, store, usecase.IngestConfig{Workers: 2}, logging.NewNop())

	result, err := svc.Run(context.Background(), ingestInput())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Discovered != 2 || result.Ingested != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	result, err = svc.Run(context.Background(), ingestInput())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Ingested != 2 {
		t.Fatalf("re-run should re-ingest cleanly: %+v", result)
	}

	counts, err := store.Counts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Matches != 2 || counts.Players != 3 || counts.Appearances != 4 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestIngestService_Run_SkipsFailedLineupFetch(t *testing.T) {
	store := openIngestStore(t)
	provider := &fakeProvider{
		matches: []usecase.SourceMatch{
			fakeMatch("m1", "2004-11-20"),
			fakeMatch("m2", "2004-11-27"),
		},
		lineups: map[string][]usecase.SourceAppearance{
			"m1": fakeLineup("p1"),
		},
		lineupErr: map[string]error{
			"m2": fmt.Errorf("%w: connection reset", usecase.ErrFetch),
		},
	}
	svc := usecase.NewIngestService(provider, store, usecase.IngestConfig{Workers: 2}, logging.NewNop())

	result, err := svc.Run(context.Background(), ingestInput())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Ingested != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.SkipReasons["fetch"] != 1 {
		t.Fatalf("unexpected skip reasons: %v", result.SkipReasons)
	}
}

func TestIngestService_Run_SkipsUnparsableDate(t *testing.T) {
	store := openIngestStore(t)
	provider := &fakeProvider{
		matches: []usecase.SourceMatch{fakeMatch("m1", "late 2004")},
		lineups: map[string][]usecase.SourceAppearance{"m1": fakeLineup("p1")},
	}
	svc := usecase.NewIngestService(provider, store, usecase.IngestConfig{}, logging.NewNop())

	result, err := svc.Run(context.Background(), ingestInput())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Ingested != 0 || result.SkipReasons["validation"] != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestIngestService_Run_RejectsInvalidInput(t *testing.T) {
	store := openIngestStore(t)
	svc := usecase.NewIngestService(&fakeProvider{}, store, usecase.IngestConfig{}, logging.NewNop())

	input := ingestInput()
	input.Teams = nil
	if _, err := svc.Run(context.Background(), input); !errors.Is(err, usecase.ErrConfig) {
		t.Fatalf("expected ErrConfig for empty team filter, got %v", err)
	}

	input = ingestInput()
	input.DateFrom, input.DateTo = input.DateTo, input.DateFrom
	if _, err := svc.Run(context.Background(), input); !errors.Is(err, usecase.ErrConfig) {
		t.Fatalf("expected ErrConfig for inverted range, got %v", err)
	}

	input = ingestInput()
	input.LinksFile = "links.txt"
	if _, err := svc.Run(context.Background(), input); !errors.Is(err, usecase.ErrConfig) {
		t.Fatalf("expected ErrConfig when provider cannot resolve links, got %v", err)
	}
}

func TestIngestService_Run_LinksFile(t *testing.T) {
	store := openIngestStore(t)

	linksFile := filepath.Join(t.TempDir(), "links.txt")
	content := `# curated links
https://example.org/matches/m1
https://example.org/matches/m1
https://example.org/matches/m2

https://example.org/matches/m3
`
	if err := os.WriteFile(linksFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write links file: %v", err)
	}

	provider := &fakeLinkProvider{
		fakeProvider: fakeProvider{
			lineups: map[string][]usecase.SourceAppearance{
				"m1": fakeLineup("p1", "p2"),
				"m2": fakeLineup("p2", "p3"),
			},
		},
		pages: map[string]usecase.SourceMatch{
			"https://example.org/matches/m1": fakeMatch("m1", "2004-11-20"),
			"https://example.org/matches/m2": fakeMatch("m2", "2004-11-27"),
			// Out of the requested range, must be filtered.
			"https://example.org/matches/m3": fakeMatch("m3", "2010-05-01"),
		},
	}
	svc := usecase.NewIngestService(provider, store, usecase.IngestConfig{Workers: 2}, logging.NewNop())

	input := ingestInput()
	input.Teams = nil
	input.LinksFile = linksFile
	result, err := svc.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Discovered != 2 || result.Ingested != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.SkipReasons["out_of_range"] != 1 {
		t.Fatalf("expected one out-of-range skip: %v", result.SkipReasons)
	}
}
