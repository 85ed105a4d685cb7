package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestBackupMissingInventoryFails(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	err := runCLI("backup",
		"-d", filepath.Join(dir, "missing.yaml"),
		"-b", backupDir)
	require.Error(t, err)
	// Load happens before any directory creation, so a bad inventory
	// leaves no side effects at all
	assert.NoDirExists(t, backupDir)
}

func TestBackupMalformedInventoryFails(t *testing.T) {
	dir := t.TempDir()
	inventoryPath := filepath.Join(dir, "devices.yaml")
	require.NoError(t, os.WriteFile(inventoryPath, []byte("devices: [\n"), 0o644))
	err := runCLI("backup", "-d", inventoryPath, "-b", filepath.Join(dir, "backups"))
	assert.Error(t, err)
}

func TestBackupDeviceFailuresDoNotChangeExitCode(t *testing.T) {
	dir := t.TempDir()
	inventoryPath := filepath.Join(dir, "devices.yaml")
	// Port 1 on loopback refuses immediately, so this fails fast as a
	// per-device error rather than an inventory error
	require.NoError(t, os.WriteFile(inventoryPath, []byte(`
devices:
  - name: R1
    host: 127.0.0.1
    port: 1
    username: admin
    password: pw
    device_type: cisco_ios
`), 0o644))
	backupDir := filepath.Join(dir, "backups")
	err := runCLI("backup",
		"-d", inventoryPath,
		"-b", backupDir,
		"--timeout", "500ms",
		"-w", "1")
	assert.NoError(t, err)
	assert.DirExists(t, backupDir)
	entries, readErr := os.ReadDir(backupDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestBackupEmptyInventorySucceeds(t *testing.T) {
	dir := t.TempDir()
	inventoryPath := filepath.Join(dir, "devices.yaml")
	require.NoError(t, os.WriteFile(inventoryPath, []byte("something_else: 1\n"), 0o644))
	err := runCLI("backup", "-d", inventoryPath, "-b", filepath.Join(dir, "backups"))
	assert.NoError(t, err)
}

func TestBackupInvalidCronFails(t *testing.T) {
	dir := t.TempDir()
	inventoryPath := filepath.Join(dir, "devices.yaml")
	require.NoError(t, os.WriteFile(inventoryPath, []byte("devices: []\n"), 0o644))
	err := runCLI("backup", "-d", inventoryPath, "-b", filepath.Join(dir, "backups"),
		"--cron", "not a schedule")
	assert.Error(t, err)
}

func TestProbeMissingHostFileFails(t *testing.T) {
	err := runCLI("probe", "-f", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
