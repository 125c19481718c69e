// Package record defines the persisted entities vectord indexes and
// serves: libraries, documents, and the chunk records ("Record") that
// carry embeddings.
package record

import (
	"time"

	"github.com/google/uuid"
)

// Record is a single chunk of content plus its embedding, linked to a
// document. Only Records participate in indexing — libraries and
// documents are plain CRUD with no index fan-out.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	Content    string         `json:"content"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RecordUpdate carries a partial update to a Record. Nil fields are left
// unchanged; Embedding uses a separate presence flag since a nil slice is
// itself a meaningful "no embedding" value.
type RecordUpdate struct {
	Content      *string
	Embedding    []float32
	SetEmbedding bool
	Metadata     map[string]any
}

// Library groups documents under a name.
type Library struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LibraryUpdate carries a partial update to a Library.
type LibraryUpdate struct {
	Name     *string
	Metadata map[string]any
}

// Document groups records under a library.
type Document struct {
	ID        uuid.UUID      `json:"id"`
	LibraryID uuid.UUID      `json:"library_id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DocumentUpdate carries a partial update to a Document.
type DocumentUpdate struct {
	Name     *string
	Metadata map[string]any
}

// ErrNotFound is returned when a requested entity is not found.
type ErrNotFound struct {
	Type string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return e.Type + " not found: " + e.ID
}

// ErrAlreadyExists is returned when adding a record whose id already
// exists. Library and document creation do not check for an existing id.
type ErrAlreadyExists struct {
	Type string
	ID   string
}

func (e *ErrAlreadyExists) Error() string {
	return e.Type + " already exists: " + e.ID
}

// ErrInvalidInput is returned when input validation fails.
type ErrInvalidInput struct {
	Field   string
	Message string
}

func (e *ErrInvalidInput) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}
