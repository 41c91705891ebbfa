package usecase

import (
	"context"
	"fmt"

	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/match"
	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	"github.com/mvallerand/footgraph/internal/platform/logging"
)

// MergeSource reads whole tables from the store being merged in.
type MergeSource interface {
	AllTeams(ctx context.Context) ([]team.Team, error)
	AllPlayers(ctx context.Context) ([]player.Player, error)
	AllMatches(ctx context.Context) ([]match.Match, error)
	AllAppearances(ctx context.Context) ([]appearance.Appearance, error)
}

// MergeTarget is the destination store. Lookups return nil when the natural
// key is absent; Fill* methods only ever set fields the caller passes, so the
// service decides the fill-only-missing policy and the store stays dumb.
type MergeTarget interface {
	TeamByNaturalKey(ctx context.Context, source, sourceTeamID string) (*team.Team, error)
	InsertTeam(ctx context.Context, t team.Team) (int64, error)
	FillTeamFields(ctx context.Context, id int64, country *string) error

	PlayerByNaturalKey(ctx context.Context, source, sourcePlayerID string) (*player.Player, error)
	InsertPlayer(ctx context.Context, p player.Player) (int64, error)
	FillPlayerFields(ctx context.Context, id int64, birthDate, nationality *string) error

	MatchByNaturalKey(ctx context.Context, source, sourceMatchID string) (*match.Match, error)
	InsertMatch(ctx context.Context, m match.Match) (int64, error)
	FillMatchFields(ctx context.Context, id int64, season *string) error

	AppearanceByKey(ctx context.Context, matchID, playerID int64) (*appearance.Appearance, error)
	InsertAppearance(ctx context.Context, a appearance.Appearance) error
	FillAppearanceFields(ctx context.Context, matchID, playerID int64, minutes *int64, position *string) error
}

// MergeEntityResult tallies one entity table. Skipped counts source rows
// whose foreign keys could not be remapped into the target.
type MergeEntityResult struct {
	Added   int
	Updated int
	Skipped int
}

type MergeResult struct {
	Teams       MergeEntityResult
	Players     MergeEntityResult
	Matches     MergeEntityResult
	Appearances MergeEntityResult
}

type MergeService struct {
	log *logging.Logger
}

func NewMergeService(log *logging.Logger) *MergeService {
	if log == nil {
		log = logging.NewNop()
	}
	return &MergeService{log: log}
}

// mergeState carries the source-to-target surrogate id remappings built up
// as each entity table is merged in dependency order.
type mergeState struct {
	teamIDs   map[int64]int64
	playerIDs map[int64]int64
	matchIDs  map[int64]int64
}

// Run merges src into dst: teams, players, matches, then appearances, so
// every foreign key can be remapped through ids already resolved. Rows
// matched by natural key are never overwritten; only null target fields are
// filled from the source.
func (s *MergeService) Run(ctx context.Context, src MergeSource, dst MergeTarget) (MergeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "MergeService.Run")
	defer span.End()

	var result MergeResult
	state := &mergeState{
		teamIDs:   map[int64]int64{},
		playerIDs: map[int64]int64{},
		matchIDs:  map[int64]int64{},
	}

	if err := s.mergeTeams(ctx, src, dst, state, &result.Teams); err != nil {
		return result, fmt.Errorf("merge teams: %w", err)
	}
	if err := s.mergePlayers(ctx, src, dst, state, &result.Players); err != nil {
		return result, fmt.Errorf("merge players: %w", err)
	}
	if err := s.mergeMatches(ctx, src, dst, state, &result.Matches); err != nil {
		return result, fmt.Errorf("merge matches: %w", err)
	}
	if err := s.mergeAppearances(ctx, src, dst, state, &result.Appearances); err != nil {
		return result, fmt.Errorf("merge appearances: %w", err)
	}

	s.log.InfoContext(ctx, "merge complete",
		"teams_added", result.Teams.Added,
		"players_added", result.Players.Added,
		"matches_added", result.Matches.Added,
		"appearances_added", result.Appearances.Added,
	)
	return result, nil
}

func (s *MergeService) mergeTeams(ctx context.Context, src MergeSource, dst MergeTarget, state *mergeState, res *MergeEntityResult) error {
	teams, err := src.AllTeams(ctx)
	if err != nil {
		return err
	}
	for _, t := range teams {
		existing, err := dst.TeamByNaturalKey(ctx, t.Source, t.SourceTeamID)
		if err != nil {
			return err
		}
		if existing == nil {
			id, err := dst.InsertTeam(ctx, t)
			if err != nil {
				return err
			}
			state.teamIDs[t.ID] = id
			res.Added++
			continue
		}
		state.teamIDs[t.ID] = existing.ID
		if existing.Country == nil && t.Country != nil {
			if err := dst.FillTeamFields(ctx, existing.ID, t.Country); err != nil {
				return err
			}
			res.Updated++
		}
	}
	return nil
}

func (s *MergeService) mergePlayers(ctx context.Context, src MergeSource, dst MergeTarget, state *mergeState, res *MergeEntityResult) error {
	players, err := src.AllPlayers(ctx)
	if err != nil {
		return err
	}
	for _, p := range players {
		existing, err := dst.PlayerByNaturalKey(ctx, p.Source, p.SourcePlayerID)
		if err != nil {
			return err
		}
		if existing == nil {
			id, err := dst.InsertPlayer(ctx, p)
			if err != nil {
				return err
			}
			state.playerIDs[p.ID] = id
			res.Added++
			continue
		}
		state.playerIDs[p.ID] = existing.ID

		var birthDate, nationality *string
		if existing.BirthDate == nil && p.BirthDate != nil {
			birthDate = p.BirthDate
		}
		if existing.Nationality == nil && p.Nationality != nil {
			nationality = p.Nationality
		}
		if birthDate == nil && nationality == nil {
			continue
		}
		if err := dst.FillPlayerFields(ctx, existing.ID, birthDate, nationality); err != nil {
			return err
		}
		res.Updated++
	}
	return nil
}

func (s *MergeService) mergeMatches(ctx context.Context, src MergeSource, dst MergeTarget, state *mergeState, res *MergeEntityResult) error {
	matches, err := src.AllMatches(ctx)
	if err != nil {
		return err
	}
	for _, m := range matches {
		homeID, homeOK := state.teamIDs[m.HomeTeamID]
		awayID, awayOK := state.teamIDs[m.AwayTeamID]
		if !homeOK || !awayOK {
			res.Skipped++
			s.log.WarnContext(ctx, "skipping match with dangling team reference",
				"source", m.Source,
				"source_match_id", m.SourceMatchID,
			)
			continue
		}

		existing, err := dst.MatchByNaturalKey(ctx, m.Source, m.SourceMatchID)
		if err != nil {
			return err
		}
		if existing == nil {
			m.HomeTeamID = homeID
			m.AwayTeamID = awayID
			id, err := dst.InsertMatch(ctx, m)
			if err != nil {
				return err
			}
			state.matchIDs[m.ID] = id
			res.Added++
			continue
		}
		state.matchIDs[m.ID] = existing.ID
		if existing.Season == nil && m.Season != nil {
			if err := dst.FillMatchFields(ctx, existing.ID, m.Season); err != nil {
				return err
			}
			res.Updated++
		}
	}
	return nil
}

func (s *MergeService) mergeAppearances(ctx context.Context, src MergeSource, dst MergeTarget, state *mergeState, res *MergeEntityResult) error {
	appearances, err := src.AllAppearances(ctx)
	if err != nil {
		return err
	}
	for _, a := range appearances {
		matchID, matchOK := state.matchIDs[a.MatchID]
		playerID, playerOK := state.playerIDs[a.PlayerID]
		teamID, teamOK := state.teamIDs[a.TeamID]
		if !matchOK || !playerOK || !teamOK {
			res.Skipped++
			s.log.WarnContext(ctx, "skipping appearance with dangling reference",
				"match_id", a.MatchID,
				"player_id", a.PlayerID,
			)
			continue
		}

		existing, err := dst.AppearanceByKey(ctx, matchID, playerID)
		if err != nil {
			return err
		}
		if existing == nil {
			a.MatchID = matchID
			a.PlayerID = playerID
			a.TeamID = teamID
			if err := dst.InsertAppearance(ctx, a); err != nil {
				return err
			}
			res.Added++
			continue
		}

		var minutes *int64
		var position *string
		if existing.Minutes == nil && a.Minutes != nil {
			minutes = a.Minutes
		}
		if existing.Position == nil && a.Position != nil {
			position = a.Position
		}
		if minutes == nil && position == nil {
			continue
		}
		if err := dst.FillAppearanceFields(ctx, matchID, playerID, minutes, position); err != nil {
			return err
		}
		res.Updated++
	}
	return nil
}
