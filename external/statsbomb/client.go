// Package statsbomb adapts the StatsBomb open-data GitHub mirror into
// normalized matches and lineups. The data is static JSON served over HTTP,
// organized as a matches index, per-competition match files and per-match
// lineup files.
package statsbomb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	"github.com/mvallerand/footgraph/internal/platform/logging"
	"github.com/mvallerand/footgraph/internal/usecase"
)

const (
	// SourceName is the provider identity recorded on every row it produces.
	SourceName = "statsbomb_open_data"

	defaultBaseURL = "https://raw.githubusercontent.com/statsbomb/open-data/master/data"
	defaultWorkers = 8

	maxBodyBytes = 64 << 20
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Workers bounds concurrent per-competition match file fetches.
	Workers int
	Logger  *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	workers    int
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: max(cfg.MaxRetries, 0),
		workers:    workers,
		logger:     logger,
	}
}

func (c *Client) Name() string { return SourceName }

// ListMatches walks the matches index and every per-competition match file,
// keeping matches inside the date range where either side matches the team
// filter. An empty filter keeps every team. Individual match files that fail
// to download are skipped so one broken competition cannot sink a run.
func (c *Client) ListMatches(ctx context.Context, teamNames []string, dateFrom, dateTo time.Time) ([]usecase.SourceMatch, error) {
	var index []indexEntry
	if err := c.getJSON(ctx, "/matches/index.json", &index); err != nil {
		return nil, fmt.Errorf("fetch matches index: %w", err)
	}

	nameFilter := make(map[string]struct{}, len(teamNames))
	for _, name := range teamNames {
		trimmed := strings.ToLower(strings.TrimSpace(name))
		if trimmed != "" {
			nameFilter[trimmed] = struct{}{}
		}
	}
	from := dateFrom.Format("2006-01-02")
	to := dateTo.Format("2006-01-02")

	var mu sync.Mutex
	var out []usecase.SourceMatch

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)
	for _, entry := range index {
		entry := entry
		if entry.MatchesFile == "" {
			continue
		}
		group.Go(func() error {
			var items []matchItem
			if err := c.getJSON(gctx, "/matches/"+entry.MatchesFile, &items); err != nil {
				c.logger.WarnContext(gctx, "skipping competition match file",
					"file", entry.MatchesFile,
					"error", err,
				)
				return nil
			}

			matches := filterMatches(entry, items, nameFilter, from, to)
			if len(matches) == 0 {
				return nil
			}
			mu.Lock()
			out = append(out, matches...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchDate != out[j].MatchDate {
			return out[i].MatchDate < out[j].MatchDate
		}
		return out[i].SourceMatchID < out[j].SourceMatchID
	})
	return out, nil
}

func filterMatches(entry indexEntry, items []matchItem, nameFilter map[string]struct{}, from, to string) []usecase.SourceMatch {
	var out []usecase.SourceMatch
	for _, item := range items {
		if item.MatchID <= 0 || item.MatchDate == "" {
			continue
		}
		if item.MatchDate < from || item.MatchDate > to {
			continue
		}
		if len(nameFilter) > 0 {
			_, home := nameFilter[strings.ToLower(item.HomeTeam.Name)]
			_, away := nameFilter[strings.ToLower(item.AwayTeam.Name)]
			if !home && !away {
				continue
			}
		}

		season := strconv.FormatInt(entry.SeasonID, 10)
		competition := strconv.FormatInt(entry.CompetitionID, 10)
		out = append(out, usecase.SourceMatch{
			Source:        SourceName,
			SourceMatchID: strconv.FormatInt(item.MatchID, 10),
			MatchDate:     item.MatchDate,
			Season:        &season,
			Competition:   &competition,
			Home: team.Record{
				Source:       SourceName,
				SourceTeamID: strconv.FormatInt(item.HomeTeam.ID, 10),
				Name:         item.HomeTeam.Name,
			},
			Away: team.Record{
				Source:       SourceName,
				SourceTeamID: strconv.FormatInt(item.AwayTeam.ID, 10),
				Name:         item.AwayTeam.Name,
			},
		})
	}
	return out
}

// GetLineups fetches lineups/<match id>.json. A player with at least one
// recorded position entered play and is stored as a starter, the upstream
// dataset's convention.
func (c *Client) GetLineups(ctx context.Context, sourceMatchID string) ([]usecase.SourceAppearance, error) {
	var blocks []lineupTeamBlock
	if err := c.getJSON(ctx, "/lineups/"+sourceMatchID+".json", &blocks); err != nil {
		return nil, fmt.Errorf("fetch lineups match_id=%s: %w", sourceMatchID, err)
	}

	var out []usecase.SourceAppearance
	for _, block := range blocks {
		teamRec := team.Record{
			Source:       SourceName,
			SourceTeamID: strconv.FormatInt(block.TeamID, 10),
			Name:         block.TeamName,
		}
		for _, p := range block.Lineup {
			playerRec := player.Record{
				Source:         SourceName,
				SourcePlayerID: strconv.FormatInt(p.PlayerID, 10),
				Name:           p.Name,
			}
			if p.Country != nil && p.Country.Name != "" {
				nationality := p.Country.Name
				playerRec.Nationality = &nationality
			}

			app := usecase.SourceAppearance{
				Player:    playerRec,
				Team:      teamRec,
				IsStarter: len(p.Positions) > 0,
			}
			if len(p.Positions) > 0 {
				position := p.Positions[0].Position
				app.Position = &position
			}
			out = append(out, app)
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	raw, err := c.execute(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode %s: %v", usecase.ErrFetch, path, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", usecase.ErrFetch, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", usecase.ErrFetch, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: status=%d url=%s", usecase.ErrFetch, resp.StatusCode, fullURL)
			default:
				return nil, fmt.Errorf("%w: status=%d url=%s", usecase.ErrFetch, resp.StatusCode, fullURL)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "statsbomb request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
