package postgres

import "time"

const (
	teamDirectoryTable        = "team_directory"
	teamDirectoryRefreshTable = "team_directory_refresh"

	// The refresh table holds a single row; its presence marks the
	// directory as created even when the team list is empty.
	teamDirectoryRefreshID = 1
)

type teamDirectoryTableModel struct {
	Position     int    `db:"position"`
	Name         string `db:"team_name"`
	Abbreviation string `db:"team_abbreviation"`
}

type teamDirectoryRefreshModel struct {
	ID          int       `db:"id"`
	TeamCount   int       `db:"team_count"`
	RefreshedAt time.Time `db:"refreshed_at"`
}
