package writepolicy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/types"
)

// ErrNoPersister is returned when a save is attempted without a remote.
var ErrNoPersister = errors.New("no remote persister configured")

/*
WriteThrough forwards every save to the remote API synchronously. The cache
update waits for it, so the cache never shows a section the server rejected.
*/
type WriteThrough struct {
	persister types.Persister
	logger    *zap.Logger
}

func NewWriteThrough(persister types.Persister, logger *zap.Logger) *WriteThrough {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WriteThrough{persister: persister, logger: logger}
}

func (w *WriteThrough) Write(ctx context.Context, identity, name string, sec types.Section) error {
	if w.persister == nil {
		return ErrNoPersister
	}
	if err := w.persister.PersistSection(ctx, identity, name, sec); err != nil {
		w.logger.Warn("remote section write failed; cache left untouched",
			zap.String("identity", identity),
			zap.String("section", name),
			zap.Error(err),
		)
		return fmt.Errorf("persist section %q: %w", name, err)
	}
	return nil
}
