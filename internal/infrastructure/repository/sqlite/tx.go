package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/match"
	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	qb "github.com/mvallerand/footgraph/internal/platform/querybuilder"
)

// Tx exposes the four natural-key upserts inside one ambient transaction.
// Each upsert resolves and returns the surrogate id.
type Tx struct {
	tx *sqlx.Tx
}

// InTx runs fn inside a transaction. The transaction is rolled back on error
// and also when the context is cancelled before commit, so a cancelled run
// never leaves a partially written match behind.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpsertMatchBundle writes one source match and its full lineup atomically:
// home/away teams, the match, then per lineup entry the player, the
// represented team and the appearance.
func (s *Store) UpsertMatchBundle(ctx context.Context, bundle match.Bundle) error {
	return s.InTx(ctx, func(tx *Tx) error {
		homeID, err := tx.UpsertTeam(ctx, bundle.Home)
		if err != nil {
			return err
		}
		awayID, err := tx.UpsertTeam(ctx, bundle.Away)
		if err != nil {
			return err
		}
		matchID, err := tx.UpsertMatch(ctx, bundle.Match, homeID, awayID)
		if err != nil {
			return err
		}
		for _, entry := range bundle.Lineup {
			playerID, err := tx.UpsertPlayer(ctx, entry.Player)
			if err != nil {
				return err
			}
			// The represented team can be a third club (mid-season
			// transfer), so it is upserted in its own right.
			teamID, err := tx.UpsertTeam(ctx, entry.Team)
			if err != nil {
				return err
			}
			if err := tx.UpsertAppearance(ctx, matchID, playerID, teamID, entry.Appearance); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertTeam inserts or updates by (source, source_team_id). Name is always
// refreshed; country keeps its first non-null value.
func (t *Tx) UpsertTeam(ctx context.Context, rec team.Record) (int64, error) {
	query, args, err := qb.InsertInto("team").
		Columns("name", "country", "source", "source_team_id").
		Values(rec.Name, rec.Country, rec.Source, rec.SourceTeamID).
		Suffix(`ON CONFLICT(source, source_team_id) DO UPDATE SET
			name = excluded.name,
			country = COALESCE(team.country, excluded.country)`).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build team upsert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return 0, wrapStoreErr("upsert team", err)
	}

	var id int64
	err = t.tx.GetContext(ctx, &id,
		"SELECT id FROM team WHERE source = ? AND source_team_id = ?",
		rec.Source, rec.SourceTeamID)
	if err != nil {
		return 0, fmt.Errorf("resolve team id: %w", err)
	}
	return id, nil
}

// UpsertPlayer inserts or updates by (source, source_player_id). Name is
// always refreshed; birth_date and nationality keep their first non-null
// values.
func (t *Tx) UpsertPlayer(ctx context.Context, rec player.Record) (int64, error) {
	query, args, err := qb.InsertInto("player").
		Columns("name", "birth_date", "nationality", "source", "source_player_id").
		Values(rec.Name, rec.BirthDate, rec.Nationality, rec.Source, rec.SourcePlayerID).
		Suffix(`ON CONFLICT(source, source_player_id) DO UPDATE SET
			name = excluded.name,
			birth_date = COALESCE(player.birth_date, excluded.birth_date),
			nationality = COALESCE(player.nationality, excluded.nationality)`).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build player upsert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return 0, wrapStoreErr("upsert player", err)
	}

	var id int64
	err = t.tx.GetContext(ctx, &id,
		"SELECT id FROM player WHERE source = ? AND source_player_id = ?",
		rec.Source, rec.SourcePlayerID)
	if err != nil {
		return 0, fmt.Errorf("resolve player id: %w", err)
	}
	return id, nil
}

// UpsertMatch inserts or updates by (source, source_match_id). The mutable
// fields are overwritten unconditionally: a re-fetch is assumed fresher.
func (t *Tx) UpsertMatch(ctx context.Context, rec match.Record, homeTeamID, awayTeamID int64) (int64, error) {
	query, args, err := qb.InsertInto("match").
		Columns("match_date", "season", "competition", "home_team_id", "away_team_id", "source", "source_match_id").
		Values(rec.MatchDate, rec.Season, rec.Competition, homeTeamID, awayTeamID, rec.Source, rec.SourceMatchID).
		Suffix(`ON CONFLICT(source, source_match_id) DO UPDATE SET
			match_date = excluded.match_date,
			season = excluded.season,
			competition = excluded.competition`).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build match upsert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return 0, wrapStoreErr("upsert match", err)
	}

	var id int64
	err = t.tx.GetContext(ctx, &id,
		"SELECT id FROM match WHERE source = ? AND source_match_id = ?",
		rec.Source, rec.SourceMatchID)
	if err != nil {
		return 0, fmt.Errorf("resolve match id: %w", err)
	}
	return id, nil
}

// UpsertAppearance inserts or updates by (match_id, player_id). is_starter,
// minutes and position are overwritten unconditionally. Foreign keys are
// enforced, so the match, player and team rows must already exist.
func (t *Tx) UpsertAppearance(ctx context.Context, matchID, playerID, teamID int64, rec appearance.Record) error {
	row := appearanceRow{
		MatchID:   matchID,
		PlayerID:  playerID,
		TeamID:    teamID,
		IsStarter: rec.IsStarter,
		Minutes:   rec.Minutes,
		Position:  rec.Position,
	}
	query, args, err := qb.InsertModel("appearance", row, `ON CONFLICT(match_id, player_id) DO UPDATE SET
		is_starter = excluded.is_starter,
		minutes = excluded.minutes,
		position = excluded.position`)
	if err != nil {
		return fmt.Errorf("build appearance upsert: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return wrapStoreErr("upsert appearance", err)
	}
	return nil
}
