// Package badger provides a BadgerDB-based implementation of
// record.Store.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ar4mirez/vectord/internal/record"
)

// Key prefixes for the three entity types and the document-by-library
// secondary index.
const (
	prefixRecord   = "rec:"
	prefixDocument = "doc:"
	prefixLibrary  = "lib:"
	prefixDocByLib = "dbl:" // document by library index
)

// Store implements record.Store using BadgerDB.
type Store struct {
	db *badger.DB

	mu        sync.RWMutex
	closed    bool
	observers []record.Observer
}

// Options holds configuration for the BadgerDB store.
type Options struct {
	DataDir    string
	SyncWrites bool
	Logger     badger.Logger
}

// New opens a BadgerDB store at opts.DataDir.
func New(opts *Options) (*Store, error) {
	if opts == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}
	if opts.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	dbOpts := badger.DefaultOptions(opts.DataDir)
	dbOpts.SyncWrites = opts.SyncWrites
	dbOpts.ValueLogFileSize = 64 << 20
	dbOpts.MemTableSize = 16 << 20

	if opts.Logger != nil {
		dbOpts.Logger = opts.Logger
	} else {
		dbOpts.Logger = nil
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithPath is a convenience constructor for the common case.
func NewWithPath(dataDir string) (*Store, error) {
	return New(&Options{DataDir: dataDir})
}

// AddObserver registers o to receive record lifecycle events. Not safe
// to call concurrently with Add/Update/Delete.
func (s *Store) AddObserver(o record.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) notifyAdded(ctx context.Context, r record.Record) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.OnRecordAdded(ctx, r)
	}
}

func (s *Store) notifyUpdated(ctx context.Context, r record.Record) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.OnRecordUpdated(ctx, r)
	}
}

func (s *Store) notifyRemoved(ctx context.Context, id uuid.UUID) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, o := range observers {
		o.OnRecordRemoved(ctx, id)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Add persists a new Record, stamping id/timestamps, then fires
// OnRecordAdded to every registered observer. An id that is already
// stored yields *record.ErrAlreadyExists.
func (s *Store) Add(ctx context.Context, r *record.Record) (*record.Record, error) {
	if r == nil {
		return nil, &record.ErrInvalidInput{Field: "record", Message: "cannot be nil"}
	}
	if r.Content == "" {
		return nil, &record.ErrInvalidInput{Field: "content", Message: "cannot be empty"}
	}

	now := time.Now().UTC()
	stored := *r
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	key := []byte(prefixRecord + stored.ID.String())
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return &record.ErrAlreadyExists{Type: "record", ID: stored.ID.String()}
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add record: %w", err)
	}

	s.notifyAdded(ctx, stored)
	return &stored, nil
}

// Get retrieves a Record by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	var r record.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixRecord + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "record", ID: id.String()}
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Exists reports whether a Record with id is present.
func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixRecord + id.String()))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

// Update applies a partial update to an existing Record and fires
// OnRecordUpdated.
func (s *Store) Update(ctx context.Context, id uuid.UUID, update record.RecordUpdate) (*record.Record, error) {
	var updated record.Record

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixRecord + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "record", ID: id.String()}
		}
		if err != nil {
			return err
		}

		var existing record.Record
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		}); err != nil {
			return err
		}

		if update.Content != nil {
			existing.Content = *update.Content
		}
		if update.SetEmbedding {
			existing.Embedding = update.Embedding
		}
		if update.Metadata != nil {
			existing.Metadata = update.Metadata
		}
		existing.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&existing)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixRecord+id.String()), data); err != nil {
			return err
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyUpdated(ctx, updated)
	return &updated, nil
}

// Delete removes a Record and fires OnRecordRemoved.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixRecord + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "record", ID: id.String()}
		}
		if err != nil {
			return err
		}
		return txn.Delete([]byte(prefixRecord + id.String()))
	})
	if err != nil {
		return err
	}

	s.notifyRemoved(ctx, id)
	return nil
}

// ListAll returns every stored Record. Used by Collection.Attach to
// seed a freshly attached index via Rebuild.
func (s *Store) ListAll(ctx context.Context) ([]*record.Record, error) {
	var records []*record.Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixRecord)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r record.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				continue
			}
			records = append(records, &r)
		}
		return nil
	})
	return records, err
}

// AddLibrary persists a new Library.
func (s *Store) AddLibrary(ctx context.Context, l *record.Library) (*record.Library, error) {
	if l == nil || l.Name == "" {
		return nil, &record.ErrInvalidInput{Field: "name", Message: "cannot be empty"}
	}

	now := time.Now().UTC()
	stored := *l
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixLibrary+stored.ID.String()), data)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetLibrary retrieves a Library by id.
func (s *Store) GetLibrary(ctx context.Context, id uuid.UUID) (*record.Library, error) {
	var l record.Library
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixLibrary + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "library", ID: id.String()}
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &l)
		})
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateLibrary applies a partial update to an existing Library.
func (s *Store) UpdateLibrary(ctx context.Context, id uuid.UUID, update record.LibraryUpdate) (*record.Library, error) {
	var updated record.Library
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixLibrary + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "library", ID: id.String()}
		}
		if err != nil {
			return err
		}

		var existing record.Library
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		}); err != nil {
			return err
		}

		if update.Name != nil {
			existing.Name = *update.Name
		}
		if update.Metadata != nil {
			existing.Metadata = update.Metadata
		}
		existing.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&existing)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixLibrary+id.String()), data); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteLibrary removes a Library by id. Documents belonging to it are
// left untouched — cascade deletion is out of scope.
func (s *Store) DeleteLibrary(ctx context.Context, id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(prefixLibrary + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "library", ID: id.String()}
		}
		if err != nil {
			return err
		}
		return txn.Delete([]byte(prefixLibrary + id.String()))
	})
}

// ListLibraries returns every stored Library.
func (s *Store) ListLibraries(ctx context.Context) ([]*record.Library, error) {
	var libraries []*record.Library
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixLibrary)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var l record.Library
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &l)
			}); err != nil {
				continue
			}
			libraries = append(libraries, &l)
		}
		return nil
	})
	return libraries, err
}

// AddDocument persists a new Document under a secondary
// document-by-library index so ListDocumentsByLibrary can range-scan.
func (s *Store) AddDocument(ctx context.Context, d *record.Document) (*record.Document, error) {
	if d == nil || d.Name == "" {
		return nil, &record.ErrInvalidInput{Field: "name", Message: "cannot be empty"}
	}

	now := time.Now().UTC()
	stored := *d
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefixDocument+stored.ID.String()), data); err != nil {
			return err
		}
		indexKey := []byte(prefixDocByLib + stored.LibraryID.String() + ":" + stored.ID.String())
		return txn.Set(indexKey, []byte(stored.ID.String()))
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetDocument retrieves a Document by id.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*record.Document, error) {
	var d record.Document
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixDocument + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "document", ID: id.String()}
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocument applies a partial update to an existing Document.
func (s *Store) UpdateDocument(ctx context.Context, id uuid.UUID, update record.DocumentUpdate) (*record.Document, error) {
	var updated record.Document
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixDocument + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "document", ID: id.String()}
		}
		if err != nil {
			return err
		}

		var existing record.Document
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		}); err != nil {
			return err
		}

		if update.Name != nil {
			existing.Name = *update.Name
		}
		if update.Metadata != nil {
			existing.Metadata = update.Metadata
		}
		existing.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&existing)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(prefixDocument+id.String()), data); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteDocument removes a Document and its library index entry.
// Records belonging to it are left untouched — cascade deletion is out
// of scope.
func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixDocument + id.String()))
		if err == badger.ErrKeyNotFound {
			return &record.ErrNotFound{Type: "document", ID: id.String()}
		}
		if err != nil {
			return err
		}

		var d record.Document
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		}); err != nil {
			return err
		}

		if err := txn.Delete([]byte(prefixDocument + id.String())); err != nil {
			return err
		}
		indexKey := []byte(prefixDocByLib + d.LibraryID.String() + ":" + id.String())
		if err := txn.Delete(indexKey); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		return nil
	})
}

// ListDocumentsByLibrary range-scans the document-by-library index.
func (s *Store) ListDocumentsByLibrary(ctx context.Context, libraryID uuid.UUID) ([]*record.Document, error) {
	var documents []*record.Document
	prefix := []byte(prefixDocByLib + libraryID.String() + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var docID string
			if err := it.Item().Value(func(val []byte) error {
				docID = string(val)
				return nil
			}); err != nil {
				return err
			}

			docItem, err := txn.Get([]byte(prefixDocument + docID))
			if err == badger.ErrKeyNotFound {
				continue // orphaned index entry
			}
			if err != nil {
				return err
			}

			var d record.Document
			if err := docItem.Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				continue
			}
			documents = append(documents, &d)
		}
		return nil
	})
	return documents, err
}
