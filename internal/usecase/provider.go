package usecase

import (
	"context"
	"time"

	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
)

// SourceMatch is one candidate match reported by a provider. Both teams carry
// their own normalized identity so the orchestrator never sees
// provider-specific types.
type SourceMatch struct {
	Source        string
	SourceMatchID string
	// MatchDate is ISO yyyy-mm-dd.
	MatchDate   string
	Season      *string
	Competition *string
	Home        team.Record
	Away        team.Record
}

// SourceAppearance is one lineup entry reported by a provider.
type SourceAppearance struct {
	Player    player.Record
	Team      team.Record
	IsStarter bool
	Minutes   *int64
	Position  *string
}

// MatchProvider adapts one external data source into normalized matches and
// lineups.
//
// ListMatches returns candidate matches for the given team-name filters
// (case-insensitive exact match against source-reported names) within the
// inclusive [dateFrom, dateTo] range. Whether an empty teamNames slice is
// accepted is provider-specific: the bulk open-data provider treats it as
// "all teams", the scraping provider rejects it with ErrConfig.
//
// GetLineups returns every appearance for a match. It fails with an
// ErrFetch-marked error once the provider's retry policy is exhausted, and
// returns an empty (nil) slice without error when the page is retrievable
// but reports no lineup.
type MatchProvider interface {
	Name() string
	ListMatches(ctx context.Context, teamNames []string, dateFrom, dateTo time.Time) ([]SourceMatch, error)
	GetLineups(ctx context.Context, sourceMatchID string) ([]SourceAppearance, error)
}

// MatchPageFetcher is the optional capability behind links-file ingestion:
// resolving one externally curated match URL into a SourceMatch. Only the
// scraping provider implements it.
type MatchPageFetcher interface {
	FetchMatchPage(ctx context.Context, link string) (SourceMatch, error)
	// MatchIDFromLink extracts the canonical source match id from a match
	// URL, used to deduplicate links before any fetch is issued.
	MatchIDFromLink(link string) string
}
