package types

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Fetcher when the identity has no faculty
// record. It lets callers tell "empty" apart from a transport failure.
var ErrNotFound = errors.New("faculty record not found")

// Fetcher is the contract between the cache and the remote faculty API.
//
// Fetch is called when the cache misses, finds a stale entry, or is told
// to refresh. The cache stores whatever document comes back.
type Fetcher interface {
	Fetch(ctx context.Context, identity string) (Document, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, identity string) (Document, error)

func (f FetcherFunc) Fetch(ctx context.Context, identity string) (Document, error) {
	return f(ctx, identity)
}

/*
Persister writes one section back to the remote faculty API.

This does NOT touch the cache. Write policies call it before the cache
applies a local update, so a failed remote write leaves the cache as it was.
*/
type Persister interface {
	PersistSection(ctx context.Context, identity, name string, sec Section) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, identity, name string, sec Section) error

func (f PersisterFunc) PersistSection(ctx context.Context, identity, name string, sec Section) error {
	return f(ctx, identity, name, sec)
}
