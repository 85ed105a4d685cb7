package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheenubhat/network-automation-scripts/model"
	"github.com/sheenubhat/network-automation-scripts/store"
)

type fakeSession struct {
	output     string
	fileOutput string
	runErr     error
	elevateErr error
	closes     atomic.Int32
}

func (f *fakeSession) elevate() error { return f.elevateErr }

func (f *fakeSession) run(string) ([]byte, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	return []byte(f.output), nil
}

func (f *fakeSession) fetchFile(string) ([]byte, error) {
	return []byte(f.fileOutput), nil
}

func (f *fakeSession) close() error {
	f.closes.Add(1)
	return nil
}

// fakeFleet hands out canned sessions and dial errors by host.
type fakeFleet struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	dialErrs map[string]error
	panics   map[string]bool
}

func (f *fakeFleet) dial(_ context.Context, params *model.ConnParams, _ zerolog.Logger) (session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[params.Host] {
		panic("broken session plumbing for " + params.Host)
	}
	if err := f.dialErrs[params.Host]; err != nil {
		return nil, err
	}
	sess, ok := f.sessions[params.Host]
	if !ok {
		sess = &fakeSession{output: "default config"}
		if f.sessions == nil {
			f.sessions = map[string]*fakeSession{}
		}
		f.sessions[params.Host] = sess
	}
	return sess, nil
}

func testDevice(name, host string) *model.Device {
	return &model.Device{
		Name:       name,
		Host:       host,
		Username:   "admin",
		Password:   "pw",
		DeviceType: "cisco_ios",
	}
}

func newTestRunner(t *testing.T, fleet *fakeFleet, workers int) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	artifacts, err := store.NewDirStore(dir)
	require.NoError(t, err)
	runner := NewRunner(&Config{Workers: workers, Timeout: time.Second}, artifacts, zerolog.Nop())
	runner.exec.dial = fleet.dial
	return runner, dir
}

func TestRunBacksUpEveryDevice(t *testing.T) {
	fleet := &fakeFleet{sessions: map[string]*fakeSession{
		"10.0.0.1": {output: "interface Gi0/1\n no shutdown\n"},
		"10.0.0.2": {output: "hostname sw1\n"},
	}}
	runner, _ := newTestRunner(t, fleet, 1)
	devices := []*model.Device{
		testDevice("R1", "10.0.0.1"),
		testDevice("SW1", "10.0.0.2"),
	}
	summary := runner.Run(context.Background(), devices)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Attempts, 2)

	contents, err := os.ReadFile(summary.Attempts[0].ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "interface Gi0/1\n no shutdown\n", string(contents))
	assert.Equal(t, int32(1), fleet.sessions["10.0.0.1"].closes.Load())
	assert.Equal(t, int32(1), fleet.sessions["10.0.0.2"].closes.Load())
}

func TestRunAuthFailureDoesNotStopBatch(t *testing.T) {
	fleet := &fakeFleet{
		dialErrs: map[string]error{
			"10.0.0.1": classifyDialErr(errors.New("ssh: unable to authenticate, attempted methods [none password]")),
		},
		sessions: map[string]*fakeSession{
			"10.0.0.2": {output: "hostname sw1\n"},
		},
	}
	runner, _ := newTestRunner(t, fleet, 1)
	devices := []*model.Device{
		testDevice("R1", "10.0.0.1"),
		testDevice("SW1", "10.0.0.2"),
	}
	summary := runner.Run(context.Background(), devices)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"R1"}, summary.FailedNames())

	require.Len(t, summary.Attempts, 2)
	assert.Equal(t, model.FailureConnectAuth, summary.Attempts[0].Kind)
	assert.Empty(t, summary.Attempts[0].ArtifactPath)
	assert.True(t, summary.Attempts[1].Succeeded)
	assert.FileExists(t, summary.Attempts[1].ArtifactPath)
}

func TestRunCommandFailureStillClosesSession(t *testing.T) {
	sess := &fakeSession{runErr: transportErr(errors.New("unexpected disconnect"))}
	fleet := &fakeFleet{sessions: map[string]*fakeSession{"10.0.0.1": sess}}
	runner, _ := newTestRunner(t, fleet, 1)

	summary := runner.Run(context.Background(), []*model.Device{testDevice("R1", "10.0.0.1")})
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, model.FailureTransport, summary.Attempts[0].Kind)
	assert.Equal(t, int32(1), sess.closes.Load())
}

func TestRunElevateFailureContinuesUnprivileged(t *testing.T) {
	sess := &fakeSession{
		output:     "partial config\n",
		elevateErr: transportErr(errors.New("enable rejected")),
	}
	fleet := &fakeFleet{sessions: map[string]*fakeSession{"10.0.0.1": sess}}
	runner, _ := newTestRunner(t, fleet, 1)

	summary := runner.Run(context.Background(), []*model.Device{testDevice("R1", "10.0.0.1")})
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, int32(1), sess.closes.Load())
}

func TestRunPanicRecordedAsInternal(t *testing.T) {
	fleet := &fakeFleet{
		panics:   map[string]bool{"10.0.0.1": true},
		sessions: map[string]*fakeSession{"10.0.0.2": {output: "ok\n"}},
	}
	runner, _ := newTestRunner(t, fleet, 1)
	devices := []*model.Device{
		testDevice("R1", "10.0.0.1"),
		testDevice("SW1", "10.0.0.2"),
	}
	summary := runner.Run(context.Background(), devices)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Internal)
	assert.Equal(t, model.FailureInternal, summary.Attempts[0].Kind)
	assert.Contains(t, summary.String(), "internal")
}

func TestRunEmptyInventory(t *testing.T) {
	runner, _ := newTestRunner(t, &fakeFleet{}, 4)
	summary := runner.Run(context.Background(), nil)
	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.Attempts)
}

func TestRunDuplicateNamesGetIndependentAttempts(t *testing.T) {
	fleet := &fakeFleet{sessions: map[string]*fakeSession{
		"10.0.0.1": {output: "one\n"},
		"10.0.0.2": {output: "two\n"},
	}}
	runner, _ := newTestRunner(t, fleet, 1)
	devices := []*model.Device{
		testDevice("R1", "10.0.0.1"),
		testDevice("R1", "10.0.0.2"),
	}
	summary := runner.Run(context.Background(), devices)
	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Attempts, 2)
	assert.Equal(t, "R1", summary.Attempts[0].DeviceName)
	assert.Equal(t, "R1", summary.Attempts[1].DeviceName)
}

func TestRunConcurrentKeepsInventoryOrder(t *testing.T) {
	fleet := &fakeFleet{sessions: map[string]*fakeSession{}}
	devices := make([]*model.Device, 12)
	for i := range devices {
		host := fmt.Sprintf("10.0.1.%d", i+1)
		devices[i] = testDevice(fmt.Sprintf("dev%02d", i), host)
		fleet.sessions[host] = &fakeSession{output: "config " + host}
	}
	runner, _ := newTestRunner(t, fleet, 4)
	summary := runner.Run(context.Background(), devices)
	assert.Equal(t, len(devices), summary.Succeeded)
	require.Len(t, summary.Attempts, len(devices))
	for i, attempt := range summary.Attempts {
		assert.Equal(t, devices[i].Name, attempt.DeviceName)
		assert.Equal(t, i, attempt.Index)
	}
	for _, sess := range fleet.sessions {
		assert.Equal(t, int32(1), sess.closes.Load())
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner, _ := newTestRunner(t, &fakeFleet{}, 1)
	devices := []*model.Device{
		testDevice("R1", "10.0.0.1"),
		testDevice("R2", "10.0.0.2"),
	}
	summary := runner.Run(ctx, devices)
	assert.Equal(t, len(devices), summary.Succeeded+summary.Failed)
	assert.NotZero(t, summary.Failed)
}

func TestRunFetchFileDevice(t *testing.T) {
	sess := &fakeSession{fileOutput: "iface eth0\n"}
	fleet := &fakeFleet{sessions: map[string]*fakeSession{"10.0.0.1": sess}}
	runner, _ := newTestRunner(t, fleet, 1)
	device := testDevice("FW1", "10.0.0.1")
	device.ConfigFile = "/etc/network/interfaces"

	summary := runner.Run(context.Background(), []*model.Device{device})
	require.Equal(t, 1, summary.Succeeded)
	contents, err := os.ReadFile(summary.Attempts[0].ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "iface eth0\n", string(contents))
}

func TestRunOnScheduleStopsOnCancel(t *testing.T) {
	fleet := &fakeFleet{sessions: map[string]*fakeSession{"10.0.0.1": {output: "x"}}}
	runner, _ := newTestRunner(t, fleet, 1)
	sched, err := model.NewCronSchedule("* * * * *")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.RunOnSchedule(ctx, sched, []*model.Device{testDevice("R1", "10.0.0.1")})
		close(done)
	}()
	// First run happens immediately; cancel while waiting for the next tick
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunOnSchedule did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, fleet.sessions["10.0.0.1"].closes.Load(), int32(1))
}
