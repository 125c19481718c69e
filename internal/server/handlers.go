package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ar4mirez/vectord/internal/collection"
	"github.com/ar4mirez/vectord/internal/record"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateLibraryRequest is the request body for creating a library.
type CreateLibraryRequest struct {
	Name     string         `json:"name" binding:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateLibraryRequest is the request body for updating a library.
type UpdateLibraryRequest struct {
	Name     *string        `json:"name,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	LibraryID uuid.UUID      `json:"library_id" binding:"required"`
	Name      string         `json:"name" binding:"required"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest struct {
	Name     *string        `json:"name,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateChunkRequest is the request body for creating a chunk.
type CreateChunkRequest struct {
	DocumentID uuid.UUID      `json:"document_id" binding:"required"`
	Content    string         `json:"content" binding:"required"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// UpdateChunkRequest is the request body for updating a chunk.
type UpdateChunkRequest struct {
	Content   *string        `json:"content,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// QueryRequest is the request body for POST /v1/query.
type QueryRequest struct {
	Collection string         `json:"collection" binding:"required"`
	IndexType  string         `json:"index_type" binding:"required"`
	Text       string         `json:"text" binding:"required"`
	Limit      int            `json:"limit"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// QueryResult mirrors collection.Result over the wire.
type QueryResult struct {
	ID         uuid.UUID `json:"id"`
	Content    string    `json:"content"`
	Confidence float32   `json:"confidence"`
}

// QueryResponse is the response body for POST /v1/query.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}

// chunksCollectionName is the only named collection the server exposes;
// the spec's per-collection dispatch is otherwise a single-collection
// deployment over chunk records.
const chunksCollectionName = "chunks"

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "vectord"})
}

func (s *Server) resetHandler(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := s.store.ListAll(ctx)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	for _, r := range records {
		_ = s.store.Delete(ctx, r.ID)
	}

	libs, err := s.store.ListLibraries(ctx)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	for _, l := range libs {
		docs, err := s.store.ListDocumentsByLibrary(ctx, l.ID)
		if err == nil {
			for _, d := range docs {
				_ = s.store.DeleteDocument(ctx, d.ID)
			}
		}
		_ = s.store.DeleteLibrary(ctx, l.ID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "collections reset successfully"})
}

// Library handlers

func (s *Server) createLibrary(c *gin.Context) {
	var req CreateLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	lib, err := s.store.AddLibrary(c.Request.Context(), &record.Library{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lib)
}

func (s *Server) listLibraries(c *gin.Context) {
	libs, err := s.store.ListLibraries(c.Request.Context())
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, libs)
}

func (s *Server) getLibrary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid library id"})
		return
	}

	lib, err := s.store.GetLibrary(c.Request.Context(), id)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, lib)
}

func (s *Server) updateLibrary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid library id"})
		return
	}

	var req UpdateLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	lib, err := s.store.UpdateLibrary(c.Request.Context(), id, record.LibraryUpdate{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, lib)
}

func (s *Server) deleteLibrary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid library id"})
		return
	}

	if err := s.store.DeleteLibrary(c.Request.Context(), id); err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listDocumentsByLibrary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid library id"})
		return
	}

	docs, err := s.store.ListDocumentsByLibrary(c.Request.Context(), id)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Document handlers

func (s *Server) createDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := s.store.GetLibrary(c.Request.Context(), req.LibraryID); err != nil {
		s.handleStoreError(c, err)
		return
	}

	doc, err := s.store.AddDocument(c.Request.Context(), &record.Document{
		LibraryID: req.LibraryID,
		Name:      req.Name,
		Metadata:  req.Metadata,
	})
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) getDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid document id"})
		return
	}

	doc, err := s.store.GetDocument(c.Request.Context(), id)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) updateDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid document id"})
		return
	}

	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	doc, err := s.store.UpdateDocument(c.Request.Context(), id, record.DocumentUpdate{
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) deleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid document id"})
		return
	}

	if err := s.store.DeleteDocument(c.Request.Context(), id); err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Chunk handlers — chunk mutations go through Collection so that attached
// indexes stay in sync via the store's observer hook.

func (s *Server) createChunk(c *gin.Context) {
	var req CreateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if _, err := s.store.GetDocument(c.Request.Context(), req.DocumentID); err != nil {
		s.handleStoreError(c, err)
		return
	}

	rec, err := s.collection.AddRecord(c.Request.Context(), &record.Record{
		DocumentID: req.DocumentID,
		Content:    req.Content,
		Embedding:  req.Embedding,
		Metadata:   req.Metadata,
	})
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) getChunk(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chunk id"})
		return
	}

	rec, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) updateChunk(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chunk id"})
		return
	}

	var req UpdateChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	rec, err := s.collection.UpdateRecord(c.Request.Context(), id, record.RecordUpdate{
		Content:      req.Content,
		Embedding:    req.Embedding,
		SetEmbedding: req.Embedding != nil,
		Metadata:     req.Metadata,
	})
	if err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteChunk(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chunk id"})
		return
	}

	if err := s.collection.RemoveRecord(c.Request.Context(), id); err != nil {
		s.handleStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// query dispatches POST /v1/query against the single "chunks" collection.
func (s *Server) query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if req.Collection != chunksCollectionName {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "collection not found"})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	start := c.Request.Context()
	results, err := s.collection.Search(start, collection.IndexType(req.IndexType), req.Text, limit)
	if err != nil {
		if errors.Is(err, collection.ErrUnknownIndex) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: req.IndexType + " has not been configured for " + req.Collection,
			})
			return
		}
		s.handleStoreError(c, err)
		return
	}

	out := make([]QueryResult, len(results))
	for i, r := range results {
		out[i] = QueryResult{ID: r.ID, Content: r.Content, Confidence: r.Confidence}
	}
	c.JSON(http.StatusOK, QueryResponse{Results: out})
}

// reindex rebuilds the named index from the store's current contents.
func (s *Server) reindex(c *gin.Context) {
	if c.Param("collection") != chunksCollectionName {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "collection not found"})
		return
	}

	indexType := c.Param("index_type")
	err := s.collection.Rebuild(c.Request.Context(), collection.IndexType(indexType))
	if err != nil {
		if errors.Is(err, collection.ErrUnknownIndex) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: indexType + " has not been configured for " + chunksCollectionName,
			})
			return
		}
		s.handleStoreError(c, err)
		return
	}

	s.metrics.RecordIndexRebuild(indexType, true)
	c.JSON(http.StatusOK, gin.H{"message": "index rebuilt", "index_type": indexType})
}

// StatsResponse summarizes the store and attached indexes.
type StatsResponse struct {
	RecordCount     int      `json:"record_count"`
	LibraryCount    int      `json:"library_count"`
	AttachedIndexes []string `json:"attached_indexes"`
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := s.store.ListAll(ctx)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}

	libs, err := s.store.ListLibraries(ctx)
	if err != nil {
		s.handleStoreError(c, err)
		return
	}

	tags := s.collection.AttachedIndexes()
	indexNames := make([]string, len(tags))
	for i, t := range tags {
		indexNames[i] = string(t)
		s.metrics.SetIndexSize(chunksCollectionName, string(t), int64(len(records)))
	}

	c.JSON(http.StatusOK, StatsResponse{
		RecordCount:     len(records),
		LibraryCount:    len(libs),
		AttachedIndexes: indexNames,
	})
}

// handleStoreError maps record store errors onto HTTP status codes.
func (s *Server) handleStoreError(c *gin.Context, err error) {
	var notFound *record.ErrNotFound
	var alreadyExists *record.ErrAlreadyExists
	var invalidInput *record.ErrInvalidInput

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.As(err, &alreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "ALREADY_EXISTS"})
	case errors.As(err, &invalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
	default:
		s.logger.Error("store error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
	}
}
