package match

import (
	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
)

// Match is a persisted fixture, natural-keyed by (Source, SourceMatchID).
// MatchDate is an ISO yyyy-mm-dd string.
type Match struct {
	ID            int64
	MatchDate     string
	Season        *string
	Competition   *string
	HomeTeamID    int64
	AwayTeamID    int64
	Source        string
	SourceMatchID string
}

// Record is the upsert input. MatchDate, Season and Competition are
// overwritten on re-ingest since a re-fetch is assumed fresher.
type Record struct {
	Source        string
	SourceMatchID string
	MatchDate     string
	Season        *string
	Competition   *string
}

// Bundle is one source match with its full lineup, the unit of one atomic
// store transaction: no appearance row may outlive a failed match write.
type Bundle struct {
	Match  Record
	Home   team.Record
	Away   team.Record
	Lineup []LineupEntry
}

// LineupEntry ties a player appearance to the team the player represented.
type LineupEntry struct {
	Player     player.Record
	Team       team.Record
	Appearance appearance.Record
}
