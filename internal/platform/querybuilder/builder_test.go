package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectWithConditions(t *testing.T) {
	query, args, err := Select("id", "name").
		From("team").
		Where(
			Eq("source", "footballia"),
			In("country", []any{"Spain", "England"}),
			IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}

	want := "SELECT id, name FROM team WHERE source = ? AND country IN (?, ?) AND deleted_at IS NULL ORDER BY id"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{"footballia", "Spain", "England"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInEmptyNeverMatches(t *testing.T) {
	query, args, err := Select("id").From("player").Where(In("position", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if query != "SELECT id FROM player WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertWithSuffix(t *testing.T) {
	query, args, err := InsertInto("team").
		Columns("name", "source", "source_team_id").
		Values("Ajax", "footballia", "ajax").
		Suffix("ON CONFLICT(source, source_team_id) DO UPDATE SET name = excluded.name").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO team (name, source, source_team_id) VALUES (?, ?, ?) " +
		"ON CONFLICT(source, source_team_id) DO UPDATE SET name = excluded.name"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestUpdateWithSetExpr(t *testing.T) {
	query, args, err := Update("player").
		Set("name", "Johan Cruyff").
		SetExpr("nationality", "COALESCE(nationality, ?)", "Netherlands").
		Where(Eq("id", int64(7))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update: %v", err)
	}

	want := "UPDATE player SET name = ?, nationality = COALESCE(nationality, ?) WHERE id = ?"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{"Johan Cruyff", "Netherlands", int64(7)}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertModelUsesDBTags(t *testing.T) {
	row := struct {
		MatchID   int64  `db:"match_id"`
		PlayerID  int64  `db:"player_id"`
		IsStarter bool   `db:"is_starter"`
		Ignored   string `db:"-"`
	}{MatchID: 1, PlayerID: 2, IsStarter: true, Ignored: "x"}

	query, args, err := InsertModel("appearance", row, "")
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	if query != "INSERT INTO appearance (match_id, player_id, is_starter) VALUES (?, ?, ?)" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %v", args)
	}
}
