// Package upload stores admin file uploads on local disk under a configured
// directory, with collision-resistant generated names.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes the uploaded content to a generated file name derived from the
// original name's extension and returns the stored path (relative to Dir).
// An existing target path is refused rather than overwritten; the timestamp
// plus random component makes that effectively unreachable for distinct
// uploads.
func (s *Store) Save(original string, content io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := generateName(original)
	target := filepath.Join(s.Dir, name)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("upload target %s already exists", name)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

// Delete removes a previously stored file. A missing file is not an error.
func (s *Store) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the absolute path of a stored file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

func generateName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d_%s%s", time.Now().Unix(), random, ext)
}
