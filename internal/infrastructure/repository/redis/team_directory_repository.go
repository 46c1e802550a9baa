package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/nhl-actions/internal/domain/team"
)

const DefaultDirectoryKey = "nhl:teams:directory"

// TeamDirectoryRepository stores the directory as one JSON array under a
// single key without expiry.
type TeamDirectoryRepository struct {
	client goredis.UniversalClient
	key    string
}

func NewTeamDirectoryRepository(client goredis.UniversalClient, key string) *TeamDirectoryRepository {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultDirectoryKey
	}
	return &TeamDirectoryRepository{client: client, key: key}
}

var _ team.Directory = (*TeamDirectoryRepository)(nil)

func (r *TeamDirectoryRepository) Exists(ctx context.Context) (bool, error) {
	n, err := r.client.Exists(ctx, r.key).Result()
	if err != nil {
		return false, fmt.Errorf("check team directory key %s: %w", r.key, err)
	}
	return n > 0, nil
}

func (r *TeamDirectoryRepository) Load(ctx context.Context) ([]team.Team, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []team.Team{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load team directory key %s: %w", r.key, err)
	}
	return decodeDirectory(raw)
}

func (r *TeamDirectoryRepository) Replace(ctx context.Context, items []team.Team) error {
	raw, err := encodeDirectory(items)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("store team directory key %s: %w", r.key, err)
	}
	return nil
}

func encodeDirectory(items []team.Team) ([]byte, error) {
	if err := team.ValidateDirectory(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []team.Team{}
	}
	raw, err := sonic.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode team directory: %w", err)
	}
	return raw, nil
}

func decodeDirectory(raw []byte) ([]team.Team, error) {
	var items []team.Team
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode team directory: %w", err)
	}
	if items == nil {
		items = []team.Team{}
	}
	return items, nil
}
