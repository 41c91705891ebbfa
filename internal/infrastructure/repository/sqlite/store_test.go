package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mvallerand/footgraph/internal/domain/appearance"
	"github.com/mvallerand/footgraph/internal/domain/match"
	"github.com/mvallerand/footgraph/internal/domain/player"
	"github.com/mvallerand/footgraph/internal/domain/team"
	"github.com/mvallerand/footgraph/internal/platform/logging"
	"github.com/mvallerand/footgraph/internal/usecase"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), InMemory, logging.NewNop())
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func testBundle(sourceMatchID, date string, playerIDs ...string) match.Bundle {
	bundle := match.Bundle{
		Match: match.Record{
			Source:        "test",
			SourceMatchID: sourceMatchID,
			MatchDate:     date,
		},
		Home: team.Record{Source: "test", SourceTeamID: "home", Name: "Home FC"},
		Away: team.Record{Source: "test", SourceTeamID: "away", Name: "Away FC"},
	}
	for i, id := range playerIDs {
		side := bundle.Home
		if i%2 == 1 {
			side = bundle.Away
		}
		bundle.Lineup = append(bundle.Lineup, match.LineupEntry{
			Player:     player.Record{Source: "test", SourcePlayerID: id, Name: "Player " + id},
			Team:       side,
			Appearance: appearance.Record{IsStarter: true},
		})
	}
	return bundle
}

func TestStore_UpsertMatchBundle_Idempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bundle := testBundle("m1", "2004-11-20", "p1", "p2", "p3")
	for i := 0; i < 2; i++ {
		if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
			t.Fatalf("upsert bundle (run %d): %v", i+1, err)
		}
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Teams != 2 || counts.Players != 3 || counts.Matches != 1 || counts.Appearances != 3 {
		t.Fatalf("unexpected counts after re-ingest: %+v", counts)
	}
}

func TestStore_UpsertTeam_CountryFillsOnlyOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bundle := testBundle("m1", "2004-11-20")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	bundle.Home.Country = strPtr("Spain")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	home, err := store.TeamByNaturalKey(ctx, "test", "home")
	if err != nil {
		t.Fatalf("lookup team: %v", err)
	}
	if home == nil || home.Country == nil || *home.Country != "Spain" {
		t.Fatalf("country not filled: %+v", home)
	}

	bundle.Home.Country = strPtr("France")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	home, err = store.TeamByNaturalKey(ctx, "test", "home")
	if err != nil {
		t.Fatalf("lookup team: %v", err)
	}
	if *home.Country != "Spain" {
		t.Fatalf("country overwritten to %q, want first value kept", *home.Country)
	}
}

func TestStore_UpsertMatch_OverwritesMutableFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bundle := testBundle("m1", "2004-11-20")
	bundle.Match.Season = strPtr("2004-2005")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	bundle.Match.MatchDate = "2004-11-21"
	bundle.Match.Season = strPtr("2004-05")
	bundle.Match.Competition = strPtr("La Liga")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	m, err := store.MatchByNaturalKey(ctx, "test", "m1")
	if err != nil {
		t.Fatalf("lookup match: %v", err)
	}
	if m == nil {
		t.Fatal("match missing after upsert")
	}
	if m.MatchDate != "2004-11-21" {
		t.Fatalf("match date not refreshed: %s", m.MatchDate)
	}
	if m.Season == nil || *m.Season != "2004-05" {
		t.Fatalf("season not refreshed: %v", m.Season)
	}
	if m.Competition == nil || *m.Competition != "La Liga" {
		t.Fatalf("competition not refreshed: %v", m.Competition)
	}
}

func TestStore_UpsertPlayer_DetailsFillOnlyOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bundle := testBundle("m1", "2004-11-20", "p1")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	bundle.Lineup[0].Player.BirthDate = strPtr("1987-06-24")
	bundle.Lineup[0].Player.Nationality = strPtr("Argentina")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	p, err := store.PlayerByNaturalKey(ctx, "test", "p1")
	if err != nil {
		t.Fatalf("lookup player: %v", err)
	}
	if p.BirthDate == nil || *p.BirthDate != "1987-06-24" {
		t.Fatalf("birth date not filled: %v", p.BirthDate)
	}

	bundle.Lineup[0].Player.BirthDate = strPtr("1990-01-01")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	p, err = store.PlayerByNaturalKey(ctx, "test", "p1")
	if err != nil {
		t.Fatalf("lookup player: %v", err)
	}
	if *p.BirthDate != "1987-06-24" {
		t.Fatalf("birth date overwritten to %q, want first value kept", *p.BirthDate)
	}
}

func TestStore_UpsertAppearance_RefreshesMinutesAndPosition(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bundle := testBundle("m1", "2004-11-20", "p1")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	bundle.Lineup[0].Appearance.Minutes = int64Ptr(73)
	bundle.Lineup[0].Appearance.Position = strPtr("Right Winger")
	bundle.Lineup[0].Appearance.IsStarter = false
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	m, err := store.MatchByNaturalKey(ctx, "test", "m1")
	if err != nil {
		t.Fatalf("lookup match: %v", err)
	}
	p, err := store.PlayerByNaturalKey(ctx, "test", "p1")
	if err != nil {
		t.Fatalf("lookup player: %v", err)
	}
	app, err := store.AppearanceByKey(ctx, m.ID, p.ID)
	if err != nil {
		t.Fatalf("lookup appearance: %v", err)
	}
	if app == nil {
		t.Fatal("appearance missing")
	}
	if app.Minutes == nil || *app.Minutes != 73 {
		t.Fatalf("minutes not refreshed: %v", app.Minutes)
	}
	if app.Position == nil || *app.Position != "Right Winger" {
		t.Fatalf("position not refreshed: %v", app.Position)
	}
	if app.IsStarter {
		t.Fatal("is_starter not refreshed")
	}
}

func TestStore_InsertAppearance_DanglingRefFailsIntegrity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.InsertAppearance(ctx, appearance.Appearance{
		MatchID:  999,
		PlayerID: 999,
		TeamID:   999,
	})
	if !errors.Is(err, usecase.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", err)
	}
}

func TestStore_MergeReaders_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bundle := testBundle("m1", "2004-11-20", "p1", "p2")
	if err := store.UpsertMatchBundle(ctx, bundle); err != nil {
		t.Fatalf("upsert bundle: %v", err)
	}

	teams, err := store.AllTeams(ctx)
	if err != nil {
		t.Fatalf("all teams: %v", err)
	}
	players, err := store.AllPlayers(ctx)
	if err != nil {
		t.Fatalf("all players: %v", err)
	}
	matches, err := store.AllMatches(ctx)
	if err != nil {
		t.Fatalf("all matches: %v", err)
	}
	apps, err := store.AllAppearances(ctx)
	if err != nil {
		t.Fatalf("all appearances: %v", err)
	}

	if len(teams) != 2 || len(players) != 2 || len(matches) != 1 || len(apps) != 2 {
		t.Fatalf("unexpected table sizes: teams=%d players=%d matches=%d appearances=%d",
			len(teams), len(players), len(matches), len(apps))
	}
	if matches[0].HomeTeamID == 0 || matches[0].AwayTeamID == 0 {
		t.Fatalf("match team refs not resolved: %+v", matches[0])
	}
}

func TestOpenReadOnly_NeverWritesSource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "source.db")

	store, err := Open(ctx, path, logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.UpsertMatchBundle(ctx, testBundle("m1", "2004-11-20", "p1")); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	ro, err := OpenReadOnly(ctx, path, logging.NewNop())
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	t.Cleanup(func() { _ = ro.Close() })

	teams, err := ro.AllTeams(ctx)
	if err != nil {
		t.Fatalf("read teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("got %d teams, want 2", len(teams))
	}

	if _, err := ro.InsertTeam(ctx, team.Team{Name: "X", Source: "test", SourceTeamID: "x"}); err == nil {
		t.Fatal("insert on read-only store should fail")
	}
}

func TestOpenReadOnly_MissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	if _, err := OpenReadOnly(context.Background(), path, logging.NewNop()); err == nil {
		t.Fatal("read-only open of a missing file should fail")
	}
}
