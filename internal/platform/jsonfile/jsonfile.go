// Package jsonfile reads and writes pretty-printed JSON documents on disk.
package jsonfile

import (
	"fmt"
	"os"
	"path/filepath"

	sonic "github.com/bytedance/sonic"
)

const indent = "    "

// api keeps non-ASCII text as raw UTF-8 and sorts object keys so repeated
// writes of the same payload are byte-identical.
var api = sonic.Config{
	SortMapKeys:    true,
	ValidateString: true,
}.Froze()

// Marshal renders v with a four-space indent.
func Marshal(v any) ([]byte, error) {
	return api.MarshalIndent(v, "", indent)
}

// Write replaces path with the JSON encoding of v. The document is written to
// a temporary file in the same directory and renamed into place, so readers
// see either the old or the new content.
func Write(path string, v any) error {
	raw, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Read decodes the JSON document at path into v.
func Read(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
