// Package footballia scrapes footballia.eu team and match pages into
// normalized matches and lineups. The site has no API: discovery walks a
// team's paginated match list and every detail comes from parsing HTML.
package footballia

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	"github.com/mvallerand/footgraph/internal/platform/logging"
	"github.com/mvallerand/footgraph/internal/usecase"
)

const (
	SourceName = "footballia"

	defaultBaseURL  = "https://footballia.eu"
	defaultWorkers  = 3
	defaultSleepMin = 1 * time.Second
	defaultSleepMax = 2500 * time.Millisecond

	// Browser-like UA: the site serves scrapers differently otherwise.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/121.0.0.0 Safari/537.36"

	startersPerSide = 11
)

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Workers bounds concurrent match page fetches during discovery.
	Workers int
	// SleepMin and SleepMax bound the randomized delay reserved between
	// consecutive requests.
	SleepMin time.Duration
	SleepMax time.Duration
	Logger   *logging.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	workers    int
	sleepMin   time.Duration
	sleepMax   time.Duration
	logger     *logging.Logger

	// mu guards nextFetch and rng. Each fetch reserves its slot up front,
	// so concurrent workers still respect the global request spacing.
	mu        sync.Mutex
	nextFetch time.Time
	rng       *rand.Rand
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
	sleepMin := cfg.SleepMin
	if sleepMin <= 0 {
		sleepMin = defaultSleepMin
	}
	sleepMax := cfg.SleepMax
	if sleepMax < sleepMin {
		sleepMax = sleepMin
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: max(cfg.MaxRetries, 0),
		workers:    workers,
		sleepMin:   sleepMin,
		sleepMax:   sleepMax,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Client) Name() string { return SourceName }

// ListMatches walks each team's match list and resolves every surviving link
// into match metadata. Team names are slugged into footballia team URLs, so
// the filter must not be empty: the site has no global match index.
func (c *Client) ListMatches(ctx context.Context, teamNames []string, dateFrom, dateTo time.Time) ([]usecase.SourceMatch, error) {
	if len(teamNames) == 0 {
		return nil, fmt.Errorf("%w: footballia discovery needs at least one team name", usecase.ErrConfig)
	}

	linkSet := make(map[string]struct{})
	for _, name := range teamNames {
		slug := Slugify(name)
		links, err := c.listMatchLinks(ctx, slug, dateFrom.Year(), dateTo.Year())
		if err != nil {
			return nil, fmt.Errorf("list matches for team %s: %w", slug, err)
		}
		c.logger.InfoContext(ctx, "team match links collected", "team_slug", slug, "links", len(links))
		for _, link := range links {
			linkSet[link] = struct{}{}
		}
	}

	links := make([]string, 0, len(linkSet))
	for link := range linkSet {
		links = append(links, link)
	}
	sort.Strings(links)

	seen := make(map[string]struct{}, len(links))
	var mu sync.Mutex
	var out []usecase.SourceMatch

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)
	for _, link := range links {
		link := link
		if _, ok := seen[c.MatchIDFromLink(link)]; ok {
			continue
		}
		seen[c.MatchIDFromLink(link)] = struct{}{}
		group.Go(func() error {
			sm, err := c.FetchMatchPage(gctx, link)
			if err != nil {
				c.logger.WarnContext(gctx, "skipping match link", "url", link, "error", err)
				return nil
			}
			inRange, err := dateInRange(sm.MatchDate, dateFrom, dateTo)
			if err != nil {
				c.logger.WarnContext(gctx, "skipping match with unusable date",
					"url", link, "date", sm.MatchDate)
				return nil
			}
			if !inRange {
				c.logger.WarnContext(gctx, "skipping match outside date range",
					"url", link, "date", sm.MatchDate)
				return nil
			}
			mu.Lock()
			out = append(out, sm)
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

// FetchMatchPage resolves one match page URL into match metadata. A page
// without any parseable date is unusable and fails with ErrValidation.
func (c *Client) FetchMatchPage(ctx context.Context, link string) (usecase.SourceMatch, error) {
	doc, err := c.fetchDocument(ctx, link)
	if err != nil {
		return usecase.SourceMatch{}, err
	}

	matchDate, ok := extractMatchDate(doc)
	if !ok {
		return usecase.SourceMatch{}, fmt.Errorf("%w: no match date on %s", usecase.ErrValidation, link)
	}

	homeName, homeID := extractTeam(doc, "homeTeam")
	awayName, awayID := extractTeam(doc, "awayTeam")

	sm := usecase.SourceMatch{
		Source:        SourceName,
		SourceMatchID: c.MatchIDFromLink(link),
		MatchDate:     matchDate,
		Home:          team.Record{Source: SourceName, SourceTeamID: homeID, Name: homeName},
		Away:          team.Record{Source: SourceName, SourceTeamID: awayID, Name: awayName},
	}
	if competition, ok := extractCompetition(doc); ok {
		sm.Competition = &competition
	}
	if season, ok := seasonFromURL(link); ok {
		sm.Season = &season
	} else if season, ok := seasonFromPage(doc); ok {
		sm.Season = &season
	}
	return sm, nil
}

// MatchIDFromLink extracts the canonical match id from a match page URL.
func (c *Client) MatchIDFromLink(link string) string {
	return matchIDFromURL(link)
}

// GetLineups parses the lineup table of a match page. Columns alternate
// home/away, and within a column the first eleven players are the starters.
// A page without a lineup block yields no appearances and no error.
func (c *Client) GetLineups(ctx context.Context, sourceMatchID string) ([]usecase.SourceAppearance, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+"/matches/"+sourceMatchID)
	if err != nil {
		return nil, err
	}

	homeName, homeID := extractTeam(doc, "homeTeam")
	awayName, awayID := extractTeam(doc, "awayTeam")
	home := team.Record{Source: SourceName, SourceTeamID: homeID, Name: homeName}
	away := team.Record{Source: SourceName, SourceTeamID: awayID, Name: awayName}

	playersDiv := doc.Find("div.players").First()
	if playersDiv.Length() == 0 {
		c.logger.WarnContext(ctx, "match page has no lineup block", "match_id", sourceMatchID)
		return nil, nil
	}

	var out []usecase.SourceAppearance
	playersDiv.Find(`td[width="45%"]`).Each(func(column int, col *goquery.Selection) {
		side := home
		if column%2 == 1 {
			side = away
		}

		position := 0
		col.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if !strings.Contains(href, "/players/") {
				return
			}
			name := strings.TrimSpace(link.Text())
			out = append(out, usecase.SourceAppearance{
				Player: player.Record{
					Source:         SourceName,
					SourcePlayerID: idFromHref(href, "/players/", name),
					Name:           name,
				},
				Team:      side,
				IsStarter: position < startersPerSide,
			})
			position++
		})
	})
	return out, nil
}

// listMatchLinks walks every page of a team's match list. Rows carry a
// season label, used to discard seasons that cannot intersect the requested
// year range before any match page is fetched.
func (c *Client) listMatchLinks(ctx context.Context, teamSlug string, minYear, maxYear int) ([]string, error) {
	firstPage, err := c.fetchDocument(ctx, c.teamPageURL(teamSlug, 1))
	if err != nil {
		return nil, err
	}
	totalPages := totalPages(firstPage)
	c.logger.InfoContext(ctx, "walking team match list", "team_slug", teamSlug, "pages", totalPages)

	linkSet := make(map[string]struct{})
	collect := func(doc *goquery.Document) {
		doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
			seasonText := strings.TrimSpace(row.Find("td.season").First().Text())
			if start, ok := seasonStartYear(seasonText); ok {
				if start < minYear || start > maxYear {
					return
				}
			}
			href, ok := row.Find("td.match div.hidden-xs a[href]").First().Attr("href")
			if !ok {
				return
			}
			linkSet[c.baseURL+href] = struct{}{}
		})
	}

	collect(firstPage)
	for page := 2; page <= totalPages; page++ {
		doc, err := c.fetchDocument(ctx, c.teamPageURL(teamSlug, page))
		if err != nil {
			c.logger.WarnContext(ctx, "skipping team list page",
				"team_slug", teamSlug,
				"page", page,
				"error", err,
			)
			continue
		}
		collect(doc)
	}

	links := make([]string, 0, len(linkSet))
	for link := range linkSet {
		links = append(links, link)
	}
	sort.Strings(links)
	return links, nil
}

func (c *Client) teamPageURL(teamSlug string, page int) string {
	return c.baseURL + "/teams/" + teamSlug + "?page=" + strconv.Itoa(page)
}

func totalPages(doc *goquery.Document) int {
	pages := 1
	doc.Find("ul.pagination a").Each(func(_ int, link *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(link.Text())); err == nil && n > pages {
			pages = n
		}
	})
	return pages
}

// fetchDocument reserves a polite delay slot, then fetches and parses one
// page, retrying transient failures.
func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.politeWait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", usecase.ErrFetch, err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: status=%d url=%s", usecase.ErrFetch, resp.StatusCode, url)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, lastErr
			}
			continue
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: parse html: %v", usecase.ErrFetch, err)
			continue
		}
		return doc, nil
	}
	c.logger.WarnContext(ctx, "footballia request failed", "url", url, "error", lastErr)
	return nil, lastErr
}

// politeWait reserves the next request slot. The delay between any two
// requests is uniform in [sleepMin, sleepMax] regardless of how many workers
// are fetching.
func (c *Client) politeWait(ctx context.Context) error {
	c.mu.Lock()
	delay := c.sleepMin
	if span := c.sleepMax - c.sleepMin; span > 0 {
		delay += time.Duration(c.rng.Int63n(int64(span)))
	}
	now := time.Now()
	slot := c.nextFetch
	if slot.Before(now) {
		slot = now
	}
	c.nextFetch = slot.Add(delay)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func dateInRange(matchDate string, from, to time.Time) (bool, error) {
	d, err := time.Parse("2006-01-02", matchDate)
	if err != nil {
		return false, err
	}
	return !d.Before(from) && !d.After(to), nil
}
