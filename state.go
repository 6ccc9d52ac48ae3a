package cache

import "github.com/krisalay/faculty-cache/types"

// Status is where a data context is in its load cycle.
type Status int

const (
	// StatusIdle: no identity in scope, nothing cached or fetched.
	StatusIdle Status = iota
	// StatusLoading: a remote fetch is in flight. Data may still hold the
	// previous (stale) document.
	StatusLoading
	// StatusReady: Data is the latest fetched or locally updated document.
	StatusReady
	// StatusError: the last fetch failed. Data keeps whatever was there.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of what consumers observe.
type State struct {
	Identity string
	Status   Status
	Data     types.Document
	Err      error
}

// ErrMessage returns the error text, or "" when there is none.
func (s State) ErrMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
