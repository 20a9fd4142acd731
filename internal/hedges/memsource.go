package hedges

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemSource is an in-memory Source, used in tests and when no Redis is
// configured.
type MemSource struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*Data
}

var _ Source = (*MemSource)(nil)

func NewMemSource() *MemSource {
	return &MemSource{data: make(map[uuid.UUID]*Data)}
}

func (m *MemSource) Put(ctx context.Context, d *Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[d.ID()] = d
	return nil
}

func (m *MemSource) Get(ctx context.Context, id uuid.UUID) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}
