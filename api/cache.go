package api

import (
	"context"

	"github.com/krisalay/faculty-cache/types"
)

/*
FacultyData is what the faculty data cache exposes to forms and tables.
Consumers read sections through it and save through it; no consumer reaches
into another's state.
*/
type FacultyData interface {

	// FacultyData is the current document, nil until the first load.
	FacultyData() types.Document

	// Loading is true while a remote fetch is in flight.
	Loading() bool

	// Error is the last fetch failure message, "" when the last fetch
	// succeeded. Storage failures never show up here.
	Error() string

	/*
		Refresh re-fetches the document from the faculty API, ignoring
		freshness and clearing both cache tiers first.
	*/
	Refresh(ctx context.Context) error

	/*
		UpdateSection replaces one section in the cached document and
		restamps it. It makes no remote call. Without a loaded document it
		does nothing.
	*/
	UpdateSection(name string, value types.Section)

	/*
		SaveSection writes the section to the faculty API and, only if that
		succeeds, applies it with UpdateSection.
	*/
	SaveSection(ctx context.Context, name string, value types.Section) error

	// Section returns a list section's records, empty when absent.
	Section(name string) []types.Record

	// Single returns a singleton section's record.
	Single(name string) (types.Record, bool)
}
