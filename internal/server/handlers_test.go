package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ar4mirez/vectord/internal/collection"
	"github.com/ar4mirez/vectord/internal/config"
	"github.com/ar4mirez/vectord/internal/embedding"
	"github.com/ar4mirez/vectord/internal/index"
	"github.com/ar4mirez/vectord/internal/record/badger"
)

func setupTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "vectord-server-test-*")
	require.NoError(t, err)

	store, err := badger.NewWithPath(dir)
	require.NoError(t, err)

	provider := embedding.NewMockProvider(8)
	coll := collection.New(store, zap.NewNop())
	require.NoError(t, coll.Attach(context.Background(), collection.IndexTypeCosine, index.NewBruteForceCosine(provider, 8)))

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.RequestTimeout = 0
	cfg.Log.Level = "info"

	srv := New(cfg, store, coll, zap.NewNop())

	cleanup := func() {
		coll.Close()
		store.Close()
		os.RemoveAll(dir)
	}
	return srv, cleanup
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_LibraryCRUD(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/libraries", CreateLibraryRequest{Name: "physics"})
	require.Equal(t, http.StatusCreated, w.Code)

	var lib map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lib))
	id := lib["id"].(string)

	w = doRequest(t, srv, http.MethodGet, "/v1/libraries/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/v1/libraries", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	newName := "chemistry"
	w = doRequest(t, srv, http.MethodPut, "/v1/libraries/"+id, UpdateLibraryRequest{Name: &newName})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodDelete, "/v1/libraries/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/v1/libraries/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_GetLibrary_InvalidID(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodGet, "/v1/libraries/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func createTestLibraryAndDocument(t *testing.T, srv *Server) (uuid.UUID, uuid.UUID) {
	t.Helper()

	w := doRequest(t, srv, http.MethodPost, "/v1/libraries", CreateLibraryRequest{Name: "physics"})
	require.Equal(t, http.StatusCreated, w.Code)
	var lib struct{ ID uuid.UUID }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lib))

	w = doRequest(t, srv, http.MethodPost, "/v1/documents", CreateDocumentRequest{LibraryID: lib.ID, Name: "mechanics"})
	require.Equal(t, http.StatusCreated, w.Code)
	var doc struct{ ID uuid.UUID }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))

	return lib.ID, doc.ID
}

func TestServer_DocumentRequiresExistingLibrary(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/documents", CreateDocumentRequest{LibraryID: uuid.New(), Name: "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ChunkCRUDAndQuery(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	_, docID := createTestLibraryAndDocument(t, srv)

	w := doRequest(t, srv, http.MethodPost, "/v1/chunks", CreateChunkRequest{
		DocumentID: docID,
		Content:    "the quick fox",
		Embedding:  []float32{1, 0, 0, 0, 0, 0, 0, 0},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var chunk struct{ ID uuid.UUID }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chunk))

	w = doRequest(t, srv, http.MethodGet, "/v1/chunks/"+chunk.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	newContent := "a red fox"
	w = doRequest(t, srv, http.MethodPut, "/v1/chunks/"+chunk.ID.String(), UpdateChunkRequest{Content: &newContent})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/v1/query", QueryRequest{
		Collection: "chunks",
		IndexType:  "cosine",
		Text:       "q",
		Limit:      5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 1)

	w = doRequest(t, srv, http.MethodDelete, "/v1/chunks/"+chunk.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestServer_ChunkRequiresExistingDocument(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/chunks", CreateChunkRequest{
		DocumentID: uuid.New(),
		Content:    "orphaned",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Query_UnknownCollection(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/query", QueryRequest{
		Collection: "nope",
		IndexType:  "cosine",
		Text:       "q",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Query_UnconfiguredIndex(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/query", QueryRequest{
		Collection: "chunks",
		IndexType:  "ivf",
		Text:       "q",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Reindex(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	_, docID := createTestLibraryAndDocument(t, srv)

	w := doRequest(t, srv, http.MethodPost, "/v1/chunks", CreateChunkRequest{
		DocumentID: docID,
		Content:    "rebuild me",
		Embedding:  []float32{0, 1, 0, 0, 0, 0, 0, 0},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, srv, http.MethodPost, "/v1/collections/chunks/reindex/cosine", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Reindex_UnconfiguredIndex(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/collections/chunks/reindex/ivf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Reindex_UnknownCollection(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	w := doRequest(t, srv, http.MethodPost, "/v1/collections/nope/reindex/cosine", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Stats(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	createTestLibraryAndDocument(t, srv)

	w := doRequest(t, srv, http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.LibraryCount)
	assert.Contains(t, stats.AttachedIndexes, "cosine")
}

func TestServer_Reset(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	createTestLibraryAndDocument(t, srv)

	w := doRequest(t, srv, http.MethodPost, "/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, srv, http.MethodGet, "/v1/libraries", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var libs []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &libs))
	assert.Empty(t, libs)
}
