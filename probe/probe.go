// Package probe checks host liveness with ICMP echo, one external ping
// invocation per host. It is a peer utility of the backup orchestrator,
// not a dependency of it.
package probe

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTimeout = 5 * time.Second

// runnerFunc executes the ping subprocess; tests substitute their own.
type runnerFunc func(ctx context.Context, name string, args ...string) error

type Prober struct {
	timeout time.Duration
	run     runnerFunc
	log     zerolog.Logger
}

func NewProber(timeout time.Duration, log zerolog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		timeout: timeout,
		run: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			return cmd.Run()
		},
		log: log,
	}
}

// Probe sends a single ICMP echo at host. Any non-zero exit or process
// error means unreachable.
func (p *Prober) Probe(ctx context.Context, host string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	seconds := int(p.timeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	err := p.run(ctx, "ping", "-c", "1", "-W", strconv.Itoa(seconds), host)
	if err != nil {
		p.log.Warn().Str("host", host).Err(err).Msg("ping failed")
		return false
	}
	p.log.Info().Str("host", host).Msg("ping succeeded")
	return true
}

// ProbeAll probes each host independently and reports how many were
// reachable. One host's result never affects another.
func (p *Prober) ProbeAll(ctx context.Context, hosts []string) (reachable int) {
	for _, host := range hosts {
		if p.Probe(ctx, host) {
			reachable++
		}
	}
	return reachable
}
