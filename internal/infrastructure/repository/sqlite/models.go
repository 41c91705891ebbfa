package sqlite

import (
	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/match"
	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
)

type teamRow struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	Country      *string `db:"country"`
	Source       string  `db:"source"`
	SourceTeamID string  `db:"source_team_id"`
}

func (r teamRow) toDomain() team.Team {
	return team.Team{
		ID:           r.ID,
		Name:         r.Name,
		Country:      r.Country,
		Source:       r.Source,
		SourceTeamID: r.SourceTeamID,
	}
}

type playerRow struct {
	ID             int64   `db:"id"`
	Name           string  `db:"name"`
	BirthDate      *string `db:"birth_date"`
	Nationality    *string `db:"nationality"`
	Source         string  `db:"source"`
	SourcePlayerID string  `db:"source_player_id"`
}

func (r playerRow) toDomain() player.Player {
	return player.Player{
		ID:             r.ID,
		Name:           r.Name,
		BirthDate:      r.BirthDate,
		Nationality:    r.Nationality,
		Source:         r.Source,
		SourcePlayerID: r.SourcePlayerID,
	}
}

type matchRow struct {
	ID            int64   `db:"id"`
	MatchDate     string  `db:"match_date"`
	Season        *string `db:"season"`
	Competition   *string `db:"competition"`
	HomeTeamID    int64   `db:"home_team_id"`
	AwayTeamID    int64   `db:"away_team_id"`
	Source        string  `db:"source"`
	SourceMatchID string  `db:"source_match_id"`
}

func (r matchRow) toDomain() match.Match {
	return match.Match{
		ID:            r.ID,
		MatchDate:     r.MatchDate,
		Season:        r.Season,
		Competition:   r.Competition,
		HomeTeamID:    r.HomeTeamID,
		AwayTeamID:    r.AwayTeamID,
		Source:        r.Source,
		SourceMatchID: r.SourceMatchID,
	}
}

type appearanceRow struct {
	MatchID   int64   `db:"match_id"`
	PlayerID  int64   `db:"player_id"`
	TeamID    int64   `db:"team_id"`
	IsStarter bool    `db:"is_starter"`
	Minutes   *int64  `db:"minutes"`
	Position  *string `db:"position"`
}

func (r appearanceRow) toDomain() appearance.Appearance {
	return appearance.Appearance{
		MatchID:   r.MatchID,
		PlayerID:  r.PlayerID,
		TeamID:    r.TeamID,
		IsStarter: r.IsStarter,
		Minutes:   r.Minutes,
		Position:  r.Position,
	}
}
