package record

import (
	"context"

	"github.com/google/uuid"
)

// Observer is notified of record lifecycle events. collection.Collection
// implements this to keep its attached indexes in sync with the store
// without the store needing to know about indexes.
type Observer interface {
	OnRecordAdded(ctx context.Context, r Record)
	OnRecordUpdated(ctx context.Context, r Record)
	OnRecordRemoved(ctx context.Context, id uuid.UUID)
}

// Store persists Records and fires lifecycle events to any registered
// Observer. Library and Document CRUD live alongside it since both
// share the same backing KV store, but neither type participates in
// the Observer fan-out — only Records carry embeddings.
type Store interface {
	Add(ctx context.Context, r *Record) (*Record, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, id uuid.UUID, update RecordUpdate) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]*Record, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	AddLibrary(ctx context.Context, l *Library) (*Library, error)
	GetLibrary(ctx context.Context, id uuid.UUID) (*Library, error)
	UpdateLibrary(ctx context.Context, id uuid.UUID, update LibraryUpdate) (*Library, error)
	DeleteLibrary(ctx context.Context, id uuid.UUID) error
	ListLibraries(ctx context.Context) ([]*Library, error)

	AddDocument(ctx context.Context, d *Document) (*Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, update DocumentUpdate) (*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocumentsByLibrary(ctx context.Context, libraryID uuid.UUID) ([]*Document, error)

	AddObserver(o Observer)
	Close() error
}
