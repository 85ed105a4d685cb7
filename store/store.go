// Package store persists backup artifacts.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout names artifacts down to the second. Two runs for the
// same device collide only when they finish within the same second.
const TimestampLayout = "20060102-150405"

// Store writes one device's captured configuration to durable storage and
// returns the artifact path.
type Store interface {
	Save(deviceName string, at time.Time, contents []byte) (string, error)
}

// DirStore writes artifacts as {dir}/{name}-{timestamp}.config.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create backup directory %v: %w", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Save(deviceName string, at time.Time, contents []byte) (string, error) {
	path := filepath.Join(s.dir, ArtifactName(deviceName, at))
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return "", fmt.Errorf("unable to write backup for %v: %w", deviceName, err)
	}
	return path, nil
}

func ArtifactName(deviceName string, at time.Time) string {
	return fmt.Sprintf("%v-%v.config", deviceName, at.Format(TimestampLayout))
}

// TranscriptPath names the session transcript for one attempt under dir.
func TranscriptPath(dir, deviceName string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%v-%v_session.log", deviceName, at.Format(TimestampLayout)))
}
