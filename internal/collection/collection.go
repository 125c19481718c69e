// Package collection dispatches search and mutation across the three
// attachable ANN indexes and the record store that backs them.
package collection

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ar4mirez/vectord/internal/index"
	"github.com/ar4mirez/vectord/internal/record"
)

// IndexType tags an attached index by its kind.
type IndexType string

// The three index kinds a Collection can have attached.
const (
	IndexTypeCosine IndexType = "cosine"
	IndexTypeIVF    IndexType = "ivf"
	IndexTypeNSW    IndexType = "nsw"
)

// ErrUnknownIndex is returned by Search when no index is attached under
// the requested tag.
var ErrUnknownIndex = errors.New("no index attached under this tag")

// Result is a search hit joined back against the record store: the
// index's ranked id plus the content it points at.
type Result struct {
	ID         uuid.UUID
	Content    string
	Confidence float32
}

// Collection ties a record.Store to zero or more tagged index.Index
// instances, keeping them in sync via the store's observer hook and
// dispatching queries to a named one. Grounded on the teacher's
// retrieval.Retriever (multi-strategy fan-out over named indexes joined
// back against a store), generalized from weighted multi-index fusion
// down to single-index dispatch per tag.
type Collection struct {
	store  record.Store
	logger *zap.Logger

	broadcastMu sync.Mutex // serializes the total order of index mutations

	indexMu sync.RWMutex
	tags    []IndexType
	indexes map[IndexType]index.Index
}

// New creates a Collection over store and registers itself as the
// store's observer so that every Add/Update/Delete on store fans out to
// whichever indexes are attached at the time.
func New(store record.Store, logger *zap.Logger) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collection{
		store:   store,
		logger:  logger,
		indexes: make(map[IndexType]index.Index),
	}
	store.AddObserver(c)
	return c
}

// Attach registers idx under tag, replacing any existing index at that
// tag, and immediately rebuilds it from the store's full snapshot.
func (c *Collection) Attach(ctx context.Context, tag IndexType, idx index.Index) error {
	records, err := c.store.ListAll(ctx)
	if err != nil {
		return err
	}

	snapshot := make([]index.Record, len(records))
	for i, r := range records {
		snapshot[i] = index.Record{ID: r.ID, Embedding: r.Embedding}
	}
	if err := idx.Rebuild(ctx, snapshot); err != nil {
		return err
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	if _, exists := c.indexes[tag]; !exists {
		c.tags = append(c.tags, tag)
	}
	c.indexes[tag] = idx
	return nil
}

// Detach removes and closes the index registered under tag, if any.
func (c *Collection) Detach(tag IndexType) error {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	idx, ok := c.indexes[tag]
	if !ok {
		return nil
	}
	delete(c.indexes, tag)
	for i, t := range c.tags {
		if t == tag {
			c.tags = append(c.tags[:i], c.tags[i+1:]...)
			break
		}
	}
	return idx.Close()
}

// AddRecord writes a new record to the store; the store's observer
// callback fans the resulting Added event out to every attached index.
func (c *Collection) AddRecord(ctx context.Context, r *record.Record) (*record.Record, error) {
	return c.store.Add(ctx, r)
}

// UpdateRecord writes a partial update to the store, fanning out an
// Updated event to every attached index.
func (c *Collection) UpdateRecord(ctx context.Context, id uuid.UUID, update record.RecordUpdate) (*record.Record, error) {
	return c.store.Update(ctx, id, update)
}

// RemoveRecord deletes a record from the store, fanning out a Removed
// event to every attached index.
func (c *Collection) RemoveRecord(ctx context.Context, id uuid.UUID) error {
	return c.store.Delete(ctx, id)
}

// AttachedIndexes returns the tags currently attached, in attach order.
func (c *Collection) AttachedIndexes() []IndexType {
	c.indexMu.RLock()
	defer c.indexMu.RUnlock()

	out := make([]IndexType, len(c.tags))
	copy(out, c.tags)
	return out
}

// Rebuild discards and reconstructs the index registered under tag from
// the store's current full snapshot. It returns ErrUnknownIndex if no
// index is attached under tag.
func (c *Collection) Rebuild(ctx context.Context, tag IndexType) error {
	c.indexMu.RLock()
	idx, ok := c.indexes[tag]
	c.indexMu.RUnlock()
	if !ok {
		return ErrUnknownIndex
	}

	records, err := c.store.ListAll(ctx)
	if err != nil {
		return err
	}

	snapshot := make([]index.Record, len(records))
	for i, r := range records {
		snapshot[i] = index.Record{ID: r.ID, Embedding: r.Embedding}
	}
	return idx.Rebuild(ctx, snapshot)
}

// Search locates the index registered under tag, ranks text against it,
// and joins each hit back against the store for its content. Results
// whose record vanished between ranking and join are dropped silently.
func (c *Collection) Search(ctx context.Context, tag IndexType, text string, k int) ([]Result, error) {
	c.indexMu.RLock()
	idx, ok := c.indexes[tag]
	c.indexMu.RUnlock()
	if !ok {
		return nil, ErrUnknownIndex
	}

	hits, err := idx.Search(ctx, text, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		rec, err := c.store.Get(ctx, h.ID)
		if err != nil {
			continue
		}
		results = append(results, Result{ID: h.ID, Content: rec.Content, Confidence: h.Score})
	}
	return results, nil
}

// Close closes every attached index.
func (c *Collection) Close() error {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	var firstErr error
	for _, tag := range c.tags {
		if err := c.indexes[tag].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.indexes = make(map[IndexType]index.Index)
	c.tags = nil
	return firstErr
}

// OnRecordAdded implements record.Observer. A record with no embedding
// yet (e.g. still awaiting an async embedding step) is not handed to
// any index.
func (c *Collection) OnRecordAdded(ctx context.Context, r record.Record) {
	if len(r.Embedding) == 0 {
		return
	}
	c.broadcast(ctx, func(idx index.Index) error { return idx.Add(ctx, r.ID, r.Embedding) })
}

// OnRecordUpdated implements record.Observer. Indexes treat an update
// as a re-add: Add replaces the prior vector for an existing id.
func (c *Collection) OnRecordUpdated(ctx context.Context, r record.Record) {
	if len(r.Embedding) == 0 {
		return
	}
	c.broadcast(ctx, func(idx index.Index) error { return idx.Add(ctx, r.ID, r.Embedding) })
}

// OnRecordRemoved implements record.Observer.
func (c *Collection) OnRecordRemoved(ctx context.Context, id uuid.UUID) {
	c.broadcast(ctx, func(idx index.Index) error { return idx.Remove(ctx, id) })
}

// broadcast applies fn to every attached index in attach order under a
// single lock, forming a total order over mutations across indexes.
func (c *Collection) broadcast(ctx context.Context, fn func(index.Index) error) {
	c.broadcastMu.Lock()
	defer c.broadcastMu.Unlock()

	c.indexMu.RLock()
	tags := make([]IndexType, len(c.tags))
	copy(tags, c.tags)
	indexes := c.indexes
	c.indexMu.RUnlock()

	for _, tag := range tags {
		if err := fn(indexes[tag]); err != nil {
			c.logger.Warn("index update failed",
				zap.String("index", string(tag)),
				zap.Error(err),
			)
		}
	}
}
