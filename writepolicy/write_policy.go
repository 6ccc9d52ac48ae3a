package writepolicy

import (
	"context"

	"github.com/krisalay/faculty-cache/types"
)

/*
WritePolicy is the remote half of a section save.

A save is two sequential steps: persist the section remotely, then patch
the cache. The policy owns step one and reports whether step two may run:
a nil error means the cache may apply the update, anything else means the
cache must be left untouched.
*/
type WritePolicy interface {
	Write(ctx context.Context, identity, name string, sec types.Section) error
}
