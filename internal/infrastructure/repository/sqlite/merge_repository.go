package sqlite

import (
	"context"
	"fmt"

	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/match"
	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	qb "github.com/mvallerand/footgraph/internal/platform/querybuilder"
)

// Full-table readers and natural-key lookups backing the offline merge tool.
// Reads stream whole tables: store files are local and merge is a batch job.

func (s *Store) AllTeams(ctx context.Context) ([]team.Team, error) {
	var rows []teamRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM team ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select all teams: %w", err)
	}
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) AllPlayers(ctx context.Context) ([]player.Player, error) {
	var rows []playerRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM player ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select all players: %w", err)
	}
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) AllMatches(ctx context.Context) ([]match.Match, error) {
	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM match ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select all matches: %w", err)
	}
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) AllAppearances(ctx context.Context) ([]appearance.Appearance, error) {
	var rows []appearanceRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM appearance ORDER BY match_id, player_id"); err != nil {
		return nil, fmt.Errorf("select all appearances: %w", err)
	}
	out := make([]appearance.Appearance, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) TeamByNaturalKey(ctx context.Context, source, sourceTeamID string) (*team.Team, error) {
	var row teamRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM team WHERE source = ? AND source_team_id = ?", source, sourceTeamID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select team by natural key: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *Store) PlayerByNaturalKey(ctx context.Context, source, sourcePlayerID string) (*player.Player, error) {
	var row playerRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM player WHERE source = ? AND source_player_id = ?", source, sourcePlayerID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select player by natural key: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *Store) MatchByNaturalKey(ctx context.Context, source, sourceMatchID string) (*match.Match, error) {
	var row matchRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM match WHERE source = ? AND source_match_id = ?", source, sourceMatchID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select match by natural key: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

func (s *Store) AppearanceByKey(ctx context.Context, matchID, playerID int64) (*appearance.Appearance, error) {
	var row appearanceRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM appearance WHERE match_id = ? AND player_id = ?", matchID, playerID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select appearance by key: %w", err)
	}
	out := row.toDomain()
	return &out, nil
}

// InsertTeam copies a team row, minting a fresh surrogate id.
func (s *Store) InsertTeam(ctx context.Context, t team.Team) (int64, error) {
	query, args, err := qb.InsertInto("team").
		Columns("name", "country", "source", "source_team_id").
		Values(t.Name, t.Country, t.Source, t.SourceTeamID).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build team insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapStoreErr("insert team", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertPlayer(ctx context.Context, p player.Player) (int64, error) {
	query, args, err := qb.InsertInto("player").
		Columns("name", "birth_date", "nationality", "source", "source_player_id").
		Values(p.Name, p.BirthDate, p.Nationality, p.Source, p.SourcePlayerID).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build player insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapStoreErr("insert player", err)
	}
	return res.LastInsertId()
}

// InsertMatch copies a match row whose team foreign keys have already been
// remapped to this store.
func (s *Store) InsertMatch(ctx context.Context, m match.Match) (int64, error) {
	query, args, err := qb.InsertInto("match").
		Columns("match_date", "season", "competition", "home_team_id", "away_team_id", "source", "source_match_id").
		Values(m.MatchDate, m.Season, m.Competition, m.HomeTeamID, m.AwayTeamID, m.Source, m.SourceMatchID).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build match insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapStoreErr("insert match", err)
	}
	return res.LastInsertId()
}

func (s *Store) InsertAppearance(ctx context.Context, a appearance.Appearance) error {
	row := appearanceRow{
		MatchID:   a.MatchID,
		PlayerID:  a.PlayerID,
		TeamID:    a.TeamID,
		IsStarter: a.IsStarter,
		Minutes:   a.Minutes,
		Position:  a.Position,
	}
	query, args, err := qb.InsertModel("appearance", row, "")
	if err != nil {
		return fmt.Errorf("build appearance insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapStoreErr("insert appearance", err)
	}
	return nil
}

// FillTeamFields sets only the provided fields; the caller is responsible for
// passing a field only when the stored value is null.
func (s *Store) FillTeamFields(ctx context.Context, id int64, country *string) error {
	if country == nil {
		return nil
	}
	query, args, err := qb.Update("team").
		Set("country", *country).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build team fill update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapStoreErr("fill team fields", err)
	}
	return nil
}

func (s *Store) FillPlayerFields(ctx context.Context, id int64, birthDate, nationality *string) error {
	builder := qb.Update("player")
	if birthDate != nil {
		builder.Set("birth_date", *birthDate)
	}
	if nationality != nil {
		builder.Set("nationality", *nationality)
	}
	if birthDate == nil && nationality == nil {
		return nil
	}
	query, args, err := builder.Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build player fill update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapStoreErr("fill player fields", err)
	}
	return nil
}

func (s *Store) FillMatchFields(ctx context.Context, id int64, season *string) error {
	if season == nil {
		return nil
	}
	query, args, err := qb.Update("match").
		Set("season", *season).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build match fill update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapStoreErr("fill match fields", err)
	}
	return nil
}

func (s *Store) FillAppearanceFields(ctx context.Context, matchID, playerID int64, minutes *int64, position *string) error {
	builder := qb.Update("appearance")
	if minutes != nil {
		builder.Set("minutes", *minutes)
	}
	if position != nil {
		builder.Set("position", *position)
	}
	if minutes == nil && position == nil {
		return nil
	}
	query, args, err := builder.
		Where(qb.Eq("match_id", matchID), qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build appearance fill update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapStoreErr("fill appearance fields", err)
	}
	return nil
}
