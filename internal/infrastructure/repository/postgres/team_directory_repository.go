package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	qb "github.com/riskibarqy/nhl-actions/internal/platform/querybuilder"
)

type TeamDirectoryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTeamDirectoryRepository(db *sqlx.DB) *TeamDirectoryRepository {
	return &TeamDirectoryRepository{db: db, now: time.Now}
}

var _ team.Directory = (*TeamDirectoryRepository)(nil)

func (r *TeamDirectoryRepository) Exists(ctx context.Context) (bool, error) {
	query, args, err := teamDirectoryExistsQuery()
	if err != nil {
		return false, fmt.Errorf("build team directory exists query: %w", err)
	}

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check team directory: %w", err)
	}
	return true, nil
}

func (r *TeamDirectoryRepository) Load(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("position", "team_name", "team_abbreviation").
		From(teamDirectoryTable).
		OrderBy("position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build load team directory query: %w", err)
	}

	var rows []teamDirectoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load team directory: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{Name: row.Name, Abbreviation: row.Abbreviation})
	}
	return out, nil
}

// Replace swaps the whole directory in one transaction, so readers observe
// either the previous list or the new one.
func (r *TeamDirectoryRepository) Replace(ctx context.Context, items []team.Team) error {
	if err := team.ValidateDirectory(items); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace team directory: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.DeleteFrom(teamDirectoryTable).ToSQL()
	if err != nil {
		return fmt.Errorf("build clear team directory query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear team directory: %w", err)
	}

	if len(items) > 0 {
		query, args, err := teamDirectoryInsertQuery(items)
		if err != nil {
			return fmt.Errorf("build insert team directory query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert team directory: %w", err)
		}
	}

	markQuery, markArgs, err := teamDirectoryRefreshQuery(len(items), r.now().UTC())
	if err != nil {
		return fmt.Errorf("build team directory refresh query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, markQuery, markArgs...); err != nil {
		return fmt.Errorf("mark team directory refresh: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace team directory: %w", err)
	}
	return nil
}

func teamDirectoryExistsQuery() (string, []any, error) {
	return qb.Select("id").
		From(teamDirectoryRefreshTable).
		Where(qb.Eq("id", teamDirectoryRefreshID)).
		Limit(1).
		ToSQL()
}

func teamDirectoryInsertQuery(items []team.Team) (string, []any, error) {
	insert := qb.InsertInto(teamDirectoryTable).Columns("position", "team_name", "team_abbreviation")
	for i, item := range items {
		insert.Values(i, item.Name, item.Abbreviation)
	}
	return insert.ToSQL()
}

func teamDirectoryRefreshQuery(teamCount int, refreshedAt time.Time) (string, []any, error) {
	return qb.InsertModel(teamDirectoryRefreshTable, teamDirectoryRefreshModel{
		ID:          teamDirectoryRefreshID,
		TeamCount:   teamCount,
		RefreshedAt: refreshedAt,
	}, `ON CONFLICT (id) DO UPDATE SET
    team_count = EXCLUDED.team_count,
    refreshed_at = EXCLUDED.refreshed_at`)
}
