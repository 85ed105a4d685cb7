package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FailureKind buckets a failed backup attempt by remediation: timeouts mean
// reachability work, auth failures mean credential work, transport errors
// mean protocol trouble, and internal failures mean a bug here rather than
// a device problem.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureConnectTimeout
	FailureConnectAuth
	FailureTransport
	FailureInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureConnectTimeout:
		return "connect_timeout"
	case FailureConnectAuth:
		return "auth_failure"
	case FailureTransport:
		return "transport_error"
	case FailureInternal:
		return "internal_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Attempt is the outcome of one device's backup. Immutable once the
// executor returns it.
type Attempt struct {
	DeviceName string
	// Index is the device's position in the inventory, so summaries keep
	// inventory order even when completion order differs.
	Index        int
	Succeeded    bool
	Kind         FailureKind
	Err          error
	ArtifactPath string
	Start        time.Time
	End          time.Time
}

func NewSuccessAttempt(name string, index int, artifactPath string, start time.Time) *Attempt {
	return &Attempt{
		DeviceName:   name,
		Index:        index,
		Succeeded:    true,
		ArtifactPath: artifactPath,
		Start:        start,
		End:          time.Now(),
	}
}

func NewFailedAttempt(name string, index int, kind FailureKind, err error, start time.Time) *Attempt {
	return &Attempt{
		DeviceName: name,
		Index:      index,
		Kind:       kind,
		Err:        err,
		Start:      start,
		End:        time.Now(),
	}
}

// Summary aggregates a run's attempts in inventory order.
type Summary struct {
	Attempts []*Attempt
	// Succeeded/Failed are counts; Internal counts the subset of Failed
	// attempts that look like bugs rather than device problems.
	Succeeded int
	Failed    int
	Internal  int
}

// NewSummary builds a summary from attempts, sorted back into inventory
// order by index.
func NewSummary(attempts []*Attempt) *Summary {
	ordered := make([]*Attempt, len(attempts))
	copy(ordered, attempts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	s := &Summary{Attempts: ordered}
	for _, attempt := range ordered {
		if attempt.Succeeded {
			s.Succeeded++
			continue
		}
		s.Failed++
		if attempt.Kind == FailureInternal {
			s.Internal++
		}
	}
	return s
}

// FailedNames lists failed device names in inventory order.
func (s *Summary) FailedNames() []string {
	names := []string{}
	for _, attempt := range s.Attempts {
		if !attempt.Succeeded {
			names = append(names, attempt.DeviceName)
		}
	}
	return names
}

func (s *Summary) String() string {
	if s.Failed == 0 {
		return fmt.Sprintf("%v succeeded, 0 failed", s.Succeeded)
	}
	msg := fmt.Sprintf("%v succeeded, %v failed (%v)", s.Succeeded, s.Failed, strings.Join(s.FailedNames(), ", "))
	if s.Internal > 0 {
		msg += fmt.Sprintf(", %v internal error(s) - likely a bug, not a device problem", s.Internal)
	}
	return msg
}
