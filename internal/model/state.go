package model

import "fmt"

// RunState is the position of a Run in the download state machine.
//
//	Init → FetchedPage → ResourcesLocated → ResourcesFetched → Rewritten → Saved
//
// Errored is reachable from every non-terminal state.
type RunState int

const (
	// StateInit is the state of a Run that has not started.
	StateInit RunState = iota

	// StateFetchedPage means the output directory was validated and the
	// page body is held in memory.
	StateFetchedPage

	// StateResourcesLocated means the eligible references are known.
	StateResourcesLocated

	// StateResourcesFetched means every reference has a local file.
	StateResourcesFetched

	// StateRewritten means the document references point at local files.
	StateRewritten

	// StateSaved is the successful terminal state.
	StateSaved

	// StateErrored is the failed terminal state.
	StateErrored
)

// String returns the state name used in logs and reports.
func (s RunState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFetchedPage:
		return "fetched_page"
	case StateResourcesLocated:
		return "resources_located"
	case StateResourcesFetched:
		return "resources_fetched"
	case StateRewritten:
		return "rewritten"
	case StateSaved:
		return "saved"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s RunState) IsTerminal() bool {
	return s == StateSaved || s == StateErrored
}

// MarshalText implements encoding.TextMarshaler so states serialize by name.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unlike ParseRunState
// it rejects unknown names.
func (s *RunState) UnmarshalText(text []byte) error {
	for st := StateInit; st <= StateErrored; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown run state %q", text)
}

// ParseRunState returns the RunState for a name produced by String.
// Unknown names map to StateErrored.
func ParseRunState(name string) RunState {
	for s := StateInit; s <= StateErrored; s++ {
		if s.String() == name {
			return s
		}
	}
	return StateErrored
}
