package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"paperless-rag-api/internal/domain/entity"
)

func ptr(v float64) *float64 { return &v }

type fakeEmbedder struct {
	fn    func(texts []string) ([][]float64, error)
	calls int
	mu    sync.Mutex
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(texts)
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeGenerator struct {
	fn func(prompt string, temperature float32) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if f.fn != nil {
		return f.fn(prompt, temperature)
	}
	return "", fmt.Errorf("no generator configured")
}

type fakeVector struct {
	mu          sync.Mutex
	chunks      map[string]*VectorChunk
	searchFn    func(params *VectorSearchParams) ([]*VectorSearchResult, error)
	insertCalls int
}

func newFakeVector() *fakeVector {
	return &fakeVector{chunks: make(map[string]*VectorChunk)}
}

func chunkKey(docID, idx int64) string {
	return fmt.Sprintf("%d_%d", docID, idx)
}

func (f *fakeVector) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeVector) InsertChunks(ctx context.Context, chunks []*VectorChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	for _, c := range chunks {
		f.chunks[chunkKey(c.DocumentID, c.ChunkIndex)] = c
	}
	return nil
}

func (f *fakeVector) Search(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error) {
	if f.searchFn != nil {
		return f.searchFn(params)
	}
	return nil, nil
}

func (f *fakeVector) HasChunk(ctx context.Context, documentID int64, chunkIndex int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.chunks[chunkKey(documentID, int64(chunkIndex))]
	return ok, nil
}

func (f *fakeVector) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, c := range f.chunks {
		if c.DocumentID == documentID {
			delete(f.chunks, key)
		}
	}
	return nil
}

func (f *fakeVector) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.chunks)), nil
}

func (f *fakeVector) Drop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = make(map[string]*VectorChunk)
	return nil
}

func (f *fakeVector) chunkCount(documentID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n
}

type fakeSource struct {
	docs    map[int64]*entity.Document
	listErr error
}

func (f *fakeSource) GetDocument(ctx context.Context, id int64) (*entity.Document, error) {
	return f.docs[id], nil
}

func (f *fakeSource) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*entity.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeSource) ListDocumentsByTag(ctx context.Context, tag string) ([]*entity.Document, error) {
	return f.ListDocuments(ctx)
}

func (f *fakeSource) ListTags(ctx context.Context) ([]string, error) {
	return []string{"steuer", "privat"}, nil
}

func (f *fakeSource) ListDocumentTypes(ctx context.Context) ([]string, error) {
	return []string{"Rechnung", "Vertrag"}, nil
}

func (f *fakeSource) ListCorrespondents(ctx context.Context) ([]string, error) {
	return []string{"Amazon", "Finanzamt"}, nil
}

func (f *fakeSource) CountDocuments(ctx context.Context) (int, error) {
	return len(f.docs), nil
}

type fakeOptions struct {
	opts MetadataOptions
	err  error
}

func (f *fakeOptions) MetadataOptions(ctx context.Context) (MetadataOptions, error) {
	return f.opts, f.err
}
