package team

import "context"

// Directory persists the ordered team list. It starts empty, is populated
// by the first refresh and is only ever replaced wholesale.
type Directory interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) ([]Team, error)
	Replace(ctx context.Context, teams []Team) error
}
