package store

import (
	"context"
	"sync"
	"time"
)

// Meta is backing-owned metadata describing the last persisted snapshot.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Backing reads and writes serialized graphs by ident.
type Backing interface {
	Read(ctx context.Context, ident string) (data []byte, meta Meta, ok bool, err error)
	Write(ctx context.Context, ident string, data []byte, meta Meta) (Meta, error)
}

// MemoryBacking keeps payloads in process memory. It is safe for concurrent
// use and meant for tests and ephemeral stores.
type MemoryBacking struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	data []byte
	meta Meta
}

func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{records: map[string]memoryRecord{}}
}

func (b *MemoryBacking) Read(_ context.Context, ident string) ([]byte, Meta, bool, error) {
	b.mu.RLock()
	record, ok := b.records[ident]
	b.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return append([]byte(nil), record.data...), record.meta, true, nil
}

func (b *MemoryBacking) Write(_ context.Context, ident string, data []byte, meta Meta) (Meta, error) {
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	b.mu.Lock()
	if b.records == nil {
		b.records = map[string]memoryRecord{}
	}
	b.records[ident] = memoryRecord{data: append([]byte(nil), data...), meta: meta}
	b.mu.Unlock()
	return meta, nil
}

// Idents lists the stored idents.
func (b *MemoryBacking) Idents() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.records))
	for ident := range b.records {
		out = append(out, ident)
	}
	return out
}
