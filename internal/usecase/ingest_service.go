package usecase

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/match"
	"github.com/mvallerand/footgraph/internal/platform/logging"
)

const (
	defaultIngestWorkers = 4
	defaultProgressEvery = 25
	matchDateLayout      = "2006-01-02"
	skipReasonFetch      = "fetch"
	skipReasonValidation = "validation"
	skipReasonIntegrity  = "integrity"
	skipReasonStore      = "store"
	skipReasonOutOfRange = "out_of_range"
)

// matchIngestWriter is the slice of the store the ingest pipeline needs.
type matchIngestWriter interface {
	UpsertMatchBundle(ctx context.Context, bundle match.Bundle) error
}

type IngestConfig struct {
	// Workers bounds concurrent provider fetches. Store writes stay on a
	// single goroutine regardless.
	Workers       int
	ProgressEvery int
}

type IngestInput struct {
	// Teams filters discovery by source-reported team name. May be empty
	// only when LinksFile is set or the provider accepts unfiltered runs.
	Teams    []string
	DateFrom time.Time `validate:"required"`
	DateTo   time.Time `validate:"required"`
	// LinksFile points at a curated list of match page URLs, one per
	// line, `#` comments allowed. It replaces provider-side discovery.
	LinksFile string
}

type IngestResult struct {
	Discovered  int
	Ingested    int
	Skipped     int
	SkipReasons map[string]int
}

type IngestService struct {
	provider      MatchProvider
	store         matchIngestWriter
	log           *logging.Logger
	validate      *validator.Validate
	workers       int
	progressEvery int
}

func NewIngestService(provider MatchProvider, store matchIngestWriter, cfg IngestConfig, log *logging.Logger) *IngestService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultIngestWorkers
	}
	progressEvery := cfg.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &IngestService{
		provider:      provider,
		store:         store,
		log:           log,
		validate:      validator.New(),
		workers:       workers,
		progressEvery: progressEvery,
	}
}

type fetchResult struct {
	match  SourceMatch
	lineup []SourceAppearance
	err    error
}

// Run discovers matches, fetches lineups concurrently and persists each match
// with its full lineup as one transaction. Single-record failures are skipped
// and tallied; only invalid input aborts the run.
func (s *IngestService) Run(ctx context.Context, input IngestInput) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestService.Run")
	defer span.End()

	result := IngestResult{SkipReasons: map[string]int{}}

	if err := s.validate.Struct(input); err != nil {
		return result, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if input.DateTo.Before(input.DateFrom) {
		return result, fmt.Errorf("%w: date range ends before it starts", ErrConfig)
	}
	if input.LinksFile == "" && len(input.Teams) == 0 {
		return result, fmt.Errorf("%w: either a team filter or a links file is required", ErrConfig)
	}

	discovered, err := s.discover(ctx, input, &result)
	if err != nil {
		return result, err
	}
	discovered = dedupMatches(discovered)
	result.Discovered = len(discovered)
	s.log.InfoContext(ctx, "discovery complete",
		"source", s.provider.Name(),
		"matches", len(discovered),
	)
	if len(discovered) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan fetchResult, s.workers)

	// Single writer: the store is one sqlite file, so every transaction
	// funnels through this goroutine while fetches run in parallel.
	var writer conc.WaitGroup
	writer.Go(func() {
		for res := range results {
			s.persist(ctx, res, &result)
			if result.Ingested > 0 && result.Ingested%s.progressEvery == 0 {
				s.log.InfoContext(ctx, "ingest progress",
					"ingested", result.Ingested,
					"skipped", result.Skipped,
					"discovered", result.Discovered,
				)
			}
		}
	})

	var fetchers sync.WaitGroup
	for _, sm := range discovered {
		sm := sm
		fetchers.Add(1)
		if err := pool.Submit(func() {
			defer fetchers.Done()
			if ctx.Err() != nil {
				results <- fetchResult{match: sm, err: fmt.Errorf("%w: %v", ErrFetch, ctx.Err())}
				return
			}
			lineup, err := s.provider.GetLineups(ctx, sm.SourceMatchID)
			results <- fetchResult{match: sm, lineup: lineup, err: err}
		}); err != nil {
			fetchers.Done()
			fetchers.Wait()
			close(results)
			writer.Wait()
			return result, fmt.Errorf("submit fetch to worker pool: %w", err)
		}
	}

	fetchers.Wait()
	close(results)
	writer.Wait()

	s.log.InfoContext(ctx, "ingest complete",
		"source", s.provider.Name(),
		"discovered", result.Discovered,
		"ingested", result.Ingested,
		"skipped", result.Skipped,
	)
	return result, ctx.Err()
}

func (s *IngestService) discover(ctx context.Context, input IngestInput, result *IngestResult) ([]SourceMatch, error) {
	if input.LinksFile != "" {
		return s.discoverFromLinks(ctx, input, result)
	}
	matches, err := s.provider.ListMatches(ctx, input.Teams, input.DateFrom, input.DateTo)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// discoverFromLinks resolves curated match URLs into source matches. Links
// are deduplicated by canonical match id before any fetch is issued, and
// every resolved match is still held to the run's date range.
func (s *IngestService) discoverFromLinks(ctx context.Context, input IngestInput, result *IngestResult) ([]SourceMatch, error) {
	fetcher, ok := s.provider.(MatchPageFetcher)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s cannot resolve match links", ErrConfig, s.provider.Name())
	}

	links, err := readLinksFile(input.LinksFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	links = dedupLinks(fetcher, links)
	s.log.InfoContext(ctx, "resolving match links", "links", len(links), "file", input.LinksFile)

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	type linkResult struct {
		match SourceMatch
		err   error
	}
	resolved := make([]linkResult, len(links))

	var wg sync.WaitGroup
	for i, link := range links {
		i, link := i, link
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			sm, err := fetcher.FetchMatchPage(ctx, link)
			resolved[i] = linkResult{match: sm, err: err}
		}); err != nil {
			wg.Done()
			return nil, fmt.Errorf("submit link fetch to worker pool: %w", err)
		}
	}
	wg.Wait()

	matches := make([]SourceMatch, 0, len(links))
	for i, res := range resolved {
		if res.err != nil {
			s.skip(result, res.err)
			s.log.WarnContext(ctx, "skipping match link",
				"link", links[i],
				"error", res.err,
			)
			continue
		}
		inRange, err := matchDateInRange(res.match.MatchDate, input.DateFrom, input.DateTo)
		if err != nil {
			result.Skipped++
			result.SkipReasons[skipReasonValidation]++
			s.log.WarnContext(ctx, "skipping match with unusable date",
				"link", links[i],
				"date", res.match.MatchDate,
			)
			continue
		}
		if !inRange {
			result.Skipped++
			result.SkipReasons[skipReasonOutOfRange]++
			continue
		}
		matches = append(matches, res.match)
	}
	return matches, nil
}

// persist turns one fetch result into a store transaction and tallies the
// outcome. It never commits after cancellation.
func (s *IngestService) persist(ctx context.Context, res fetchResult, result *IngestResult) {
	if res.err != nil {
		s.skip(result, res.err)
		s.log.WarnContext(ctx, "skipping match",
			"source_match_id", res.match.SourceMatchID,
			"error", res.err,
		)
		return
	}
	if ctx.Err() != nil {
		s.skip(result, fmt.Errorf("%w: %v", ErrFetch, ctx.Err()))
		return
	}
	if _, err := time.Parse(matchDateLayout, res.match.MatchDate); err != nil {
		s.skip(result, fmt.Errorf("%w: match date %q", ErrValidation, res.match.MatchDate))
		s.log.WarnContext(ctx, "skipping match with unusable date",
			"source_match_id", res.match.SourceMatchID,
			"date", res.match.MatchDate,
		)
		return
	}

	bundle := match.Bundle{
		Match: match.Record{
			Source:        res.match.Source,
			SourceMatchID: res.match.SourceMatchID,
			MatchDate:     res.match.MatchDate,
			Season:        res.match.Season,
			Competition:   res.match.Competition,
		},
		Home:   res.match.Home,
		Away:   res.match.Away,
		Lineup: make([]match.LineupEntry, 0, len(res.lineup)),
	}
	for _, app := range res.lineup {
		bundle.Lineup = append(bundle.Lineup, match.LineupEntry{
			Player: app.Player,
			Team:   app.Team,
			Appearance: appearance.Record{
				IsStarter: app.IsStarter,
				Minutes:   app.Minutes,
				Position:  app.Position,
			},
		})
	}

	if err := s.store.UpsertMatchBundle(ctx, bundle); err != nil {
		s.skip(result, err)
		s.log.WarnContext(ctx, "skipping match on store failure",
			"source_match_id", res.match.SourceMatchID,
			"error", err,
		)
		return
	}
	result.Ingested++
}

func (s *IngestService) skip(result *IngestResult, err error) {
	result.Skipped++
	result.SkipReasons[classifySkip(err)]++
}

func classifySkip(err error) string {
	switch {
	case errors.Is(err, ErrFetch):
		return skipReasonFetch
	case errors.Is(err, ErrValidation):
		return skipReasonValidation
	case errors.Is(err, ErrIntegrity):
		return skipReasonIntegrity
	default:
		return skipReasonStore
	}
}

// dedupMatches drops repeated (source, source_match_id) pairs, keeping the
// first occurrence. Providers may report the same fixture under both teams.
func dedupMatches(matches []SourceMatch) []SourceMatch {
	seen := make(map[string]struct{}, len(matches))
	out := matches[:0]
	for _, m := range matches {
		key := m.Source + "\x00" + m.SourceMatchID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func dedupLinks(fetcher MatchPageFetcher, links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, link := range links {
		id := fetcher.MatchIDFromLink(link)
		if id == "" {
			id = link
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, link)
	}
	return out
}

func readLinksFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open links file: %v", err)
	}
	defer f.Close()

	var links []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read links file: %v", err)
	}
	return links, nil
}

func matchDateInRange(date string, from, to time.Time) (bool, error) {
	d, err := time.Parse(matchDateLayout, date)
	if err != nil {
		return false, err
	}
	return !d.Before(from) && !d.After(to), nil
}

// SortedSkipReasons renders the tally in a stable order for logs and CLI
// summaries.
func (r IngestResult) SortedSkipReasons() []string {
	reasons := make([]string, 0, len(r.SkipReasons))
	for reason := range r.SkipReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	out := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		out = append(out, fmt.Sprintf("%s=%d", reason, r.SkipReasons[reason]))
	}
	return out
}
