package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/nhl-actions/internal/domain/team"
)

// TeamDirectoryRepository holds the directory in process memory. It starts
// empty and reports Exists=false until the first Replace.
type TeamDirectoryRepository struct {
	mu     sync.RWMutex
	teams  []team.Team
	loaded bool
}

func NewTeamDirectoryRepository() *TeamDirectoryRepository {
	return &TeamDirectoryRepository{}
}

var _ team.Directory = (*TeamDirectoryRepository)(nil)

func (r *TeamDirectoryRepository) Exists(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loaded, nil
}

func (r *TeamDirectoryRepository) Load(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	out = append(out, r.teams...)
	return out, nil
}

func (r *TeamDirectoryRepository) Replace(_ context.Context, items []team.Team) error {
	if err := team.ValidateDirectory(items); err != nil {
		return err
	}

	next := make([]team.Team, 0, len(items))
	next = append(next, items...)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.teams = next
	r.loaded = true
	return nil
}
