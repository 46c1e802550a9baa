package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nhl-actions/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_WritesPrettyJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writer := NewFileWriter(dir, logging.NewNop())

	var payload any
	require.NoError(t, sonic.UnmarshalString(`{"forwards":[{"name":"A"}]}`, &payload))
	require.NoError(t, writer.Write(context.Background(), "team_BOS_roster", payload))

	raw, err := os.ReadFile(filepath.Join(dir, "team_BOS_roster.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"forwards\": [\n        {\n            \"name\": \"A\"\n        }\n    ]\n}", string(raw))
}

func TestFileWriter_RejectsPathNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writer := NewFileWriter(dir, logging.NewNop())

	for _, name := range []string{"", "../teams", "a/b", `a\b`, ".hidden", "team BOS"} {
		assert.Errorf(t, writer.Write(context.Background(), name, map[string]any{}), "name %q", name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
