package statsbomb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/mvallerand/footgraph/internal/platform/logging"
	"github.com/mvallerand/footgraph/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		Workers: 2,
		Logger:  logging.NewNop(),
	})
}

const indexJSON = `[
	{"competition_id": 11, "season_id": 37, "matches": "11/37.json"},
	{"competition_id": 11, "season_id": 38, "matches": "11/38.json"},
	{"competition_id": 2, "season_id": 44}
]`

const matches37JSON = `[
	{
		"match_id": 68313,
		"match_date": "2004-11-20",
		"home_team": {"home_team_id": 217, "home_team_name": "Barcelona"},
		"away_team": {"away_team_id": 220, "away_team_name": "Real Madrid"}
	},
	{
		"match_id": 68314,
		"match_date": "2010-04-10",
		"home_team": {"home_team_id": 217, "home_team_name": "Barcelona"},
		"away_team": {"away_team_id": 222, "away_team_name": "Villarreal"}
	}
]`

const matches38JSON = `[
	{
		"match_id": 70000,
		"match_date": "2004-12-04",
		"home_team": {"home_team_id": 230, "home_team_name": "Sevilla"},
		"away_team": {"away_team_id": 231, "away_team_name": "Valencia"}
	}
]`

const lineupsJSON = `[
	{
		"team_id": 217,
		"team_name": "Barcelona",
		"lineup": [
			{
				"player_id": 5503,
				"player_name": "Lionel Messi",
				"country": {"name": "Argentina"},
				"positions": [{"position": "Right Wing", "start_reason": "Starting XI"}]
			},
			{
				"player_id": 5216,
				"player_name": "Andres Iniesta",
				"country": {"name": "Spain"},
				"positions": [{"position": "Left Center Midfield", "start_reason": "Substitution - On (Tactical)"}]
			},
			{
				"player_id": 9999,
				"player_name": "Unused Sub",
				"positions": []
			}
		]
	},
	{
		"team_id": 220,
		"team_name": "Real Madrid",
		"lineup": [
			{
				"player_id": 5721,
				"player_name": "Iker Casillas",
				"country": {"name": "Spain"},
				"positions": [{"position": "Goalkeeper", "start_reason": "Starting XI"}]
			}
		]
	}
]`

func openDataMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/matches/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexJSON)
	})
	mux.HandleFunc("/matches/11/37.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matches37JSON)
	})
	mux.HandleFunc("/matches/11/38.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matches38JSON)
	})
	mux.HandleFunc("/lineups/68313.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, lineupsJSON)
	})
	return mux
}

var (
	seasonWindowFrom = time.Date(2004, 8, 1, 0, 0, 0, 0, time.UTC)
	seasonWindowTo   = time.Date(2005, 6, 30, 0, 0, 0, 0, time.UTC)
)

func TestClient_ListMatches_FiltersByTeamAndDate(t *testing.T) {
	client := newTestClient(t, openDataMux())

	matches, err := client.ListMatches(context.Background(), []string{"barcelona"}, seasonWindowFrom, seasonWindowTo)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(matches), matches)
	}
	m := matches[0]
	if m.SourceMatchID != "68313" || m.MatchDate != "2004-11-20" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Home.SourceTeamID != "217" || m.Away.SourceTeamID != "220" {
		t.Fatalf("unexpected teams: %+v", m)
	}
	if m.Season == nil || *m.Season != "37" || m.Competition == nil || *m.Competition != "11" {
		t.Fatalf("season/competition not carried: %+v", m)
	}
}

func TestClient_ListMatches_EmptyFilterKeepsAllTeams(t *testing.T) {
	client := newTestClient(t, openDataMux())

	matches, err := client.ListMatches(context.Background(), nil, seasonWindowFrom, seasonWindowTo)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}

	// 68313 and 70000 are in the window, 68314 is not; results are date
	// ordered across competition files.
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}
	if matches[0].SourceMatchID != "68313" || matches[1].SourceMatchID != "70000" {
		t.Fatalf("unexpected order: %+v", matches)
	}
}

func TestClient_ListMatches_SkipsBrokenCompetitionFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/matches/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"competition_id": 11, "season_id": 37, "matches": "11/37.json"},
			{"competition_id": 11, "season_id": 39, "matches": "11/39.json"}
		]`)
	})
	mux.HandleFunc("/matches/11/37.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, matches37JSON)
	})
	mux.HandleFunc("/matches/11/39.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newTestClient(t, mux)

	matches, err := client.ListMatches(context.Background(), []string{"Barcelona"}, seasonWindowFrom, seasonWindowTo)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
}

func TestClient_GetLineups(t *testing.T) {
	client := newTestClient(t, openDataMux())

	apps, err := client.GetLineups(context.Background(), "68313")
	if err != nil {
		t.Fatalf("get lineups: %v", err)
	}
	if len(apps) != 4 {
		t.Fatalf("got %d appearances, want 4", len(apps))
	}

	messi := apps[0]
	if messi.Player.SourcePlayerID != "5503" || !messi.IsStarter {
		t.Fatalf("unexpected starter: %+v", messi)
	}
	if messi.Position == nil || *messi.Position != "Right Wing" {
		t.Fatalf("position not carried: %+v", messi)
	}
	if messi.Player.Nationality == nil || *messi.Player.Nationality != "Argentina" {
		t.Fatalf("nationality not carried: %+v", messi.Player)
	}

	// Any player with a recorded position entered play and counts as a
	// starter, the dataset's convention even for substitutes.
	iniesta := apps[1]
	if !iniesta.IsStarter {
		t.Fatalf("player who entered play not marked as starter: %+v", iniesta)
	}

	unused := apps[2]
	if unused.IsStarter || unused.Position != nil {
		t.Fatalf("player without positions should be bench-only: %+v", unused)
	}

	casillas := apps[3]
	if casillas.Team.SourceTeamID != "220" {
		t.Fatalf("away block not mapped: %+v", casillas)
	}
}

func TestClient_GetLineups_MissingMatchFails(t *testing.T) {
	client := newTestClient(t, openDataMux())

	_, err := client.GetLineups(context.Background(), "404404")
	if !errors.Is(err, usecase.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}
