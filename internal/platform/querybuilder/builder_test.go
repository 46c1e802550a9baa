package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("position", "team_name", "team_abbreviation").
		From("team_directory").
		Where(Eq("position", 1), Expr("team_name ILIKE ?", "%bruins%")).
		OrderBy("position").
		Limit(5).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT position, team_name, team_abbreviation FROM team_directory WHERE position = $1 AND team_name ILIKE $2 ORDER BY position LIMIT 5"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != 1 || args[1] != "%bruins%" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_MultiRow(t *testing.T) {
	query, args, err := InsertInto("team_directory").
		Columns("position", "team_name", "team_abbreviation").
		Values(0, "Boston Bruins", "BOS").
		Values(1, "Toronto Maple Leafs", "TOR").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO team_directory (position, team_name, team_abbreviation) VALUES ($1, $2, $3), ($4, $5, $6)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[2] != "BOS" || args[5] != "TOR" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("team_directory").Columns("a", "b").Values(1).ToSQL()
	if err == nil {
		t.Fatalf("expected row width error")
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("team_directory").ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM team_directory" || len(args) != 0 {
		t.Fatalf("unexpected delete: %s %+v", query, args)
	}

	query, args, err = DeleteFrom("team_directory").Where(Eq("team_abbreviation", "BOS")).ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM team_directory WHERE team_abbreviation = $1" || len(args) != 1 {
		t.Fatalf("unexpected delete: %s %+v", query, args)
	}
}

func TestInsertModel(t *testing.T) {
	refreshedAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	model := struct {
		ID          int       `db:"id"`
		TeamCount   int       `db:"team_count"`
		RefreshedAt time.Time `db:"refreshed_at"`
		ignored     string
		Skipped     string `db:"-"`
	}{ID: 1, TeamCount: 32, RefreshedAt: refreshedAt}

	query, args, err := InsertModel("team_directory_refresh", model, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO team_directory_refresh (id, team_count, refreshed_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[1] != 32 || args[2] != refreshedAt {
		t.Fatalf("unexpected args: %+v", args)
	}
	_ = model.ignored
}
