package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/riskibarqy/nhl-actions/internal/domain/team"
	"github.com/riskibarqy/nhl-actions/internal/platform/jsonfile"
)

const teamDirectoryFile = "teams.json"

// TeamDirectoryRepository keeps the team directory as a JSON array in
// {dataDir}/teams.json.
type TeamDirectoryRepository struct {
	mu   sync.RWMutex
	path string
}

func NewTeamDirectoryRepository(dataDir string) *TeamDirectoryRepository {
	return &TeamDirectoryRepository{path: filepath.Join(dataDir, teamDirectoryFile)}
}

var _ team.Directory = (*TeamDirectoryRepository)(nil)

func (r *TeamDirectoryRepository) Path() string {
	return r.path
}

func (r *TeamDirectoryRepository) Exists(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, err := os.Stat(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat team directory: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("team directory path %s is a directory", r.path)
	}
	return true, nil
}

func (r *TeamDirectoryRepository) Load(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []team.Team
	if err := jsonfile.Read(r.path, &items); err != nil {
		return nil, fmt.Errorf("read team directory: %w", err)
	}
	if items == nil {
		items = []team.Team{}
	}
	return items, nil
}

func (r *TeamDirectoryRepository) Replace(_ context.Context, items []team.Team) error {
	if err := team.ValidateDirectory(items); err != nil {
		return err
	}
	if items == nil {
		items = []team.Team{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return jsonfile.Write(r.path, items)
}
