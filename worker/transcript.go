package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// transcript mirrors every byte exchanged on a session to a log file for
// post-mortem debugging. A nil transcript is valid and discards writes, so
// session code mirrors unconditionally.
type transcript struct {
	mu   sync.Mutex
	file *os.File
}

func newTranscript(path string) (*transcript, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create session log directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create session log %v: %w", path, err)
	}
	return &transcript{file: file}, nil
}

func (t *transcript) Write(p []byte) (int, error) {
	if t == nil {
		return len(p), nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return len(p), nil
	}
	return t.file.Write(p)
}

func (t *transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
