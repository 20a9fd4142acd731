package hedges

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no hedge set exists under an id.
var ErrNotFound = errors.New("hedges: not found")

// Source resolves a hedge-set identifier to its data. The evaluation
// engine only needs reads; writes belong to the host surface.
type Source interface {
	Get(ctx context.Context, id uuid.UUID) (*Data, error)
}
