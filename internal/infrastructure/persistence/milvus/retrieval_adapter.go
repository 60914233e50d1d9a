package milvus

import (
	"context"

	"paperless-rag-api/internal/application/retrieval"
)

// RetrievalVectorRepository 把向量仓储适配为应用层端口
type RetrievalVectorRepository struct {
	repo *Repository
}

func NewRetrievalVectorRepository(repo *Repository) *RetrievalVectorRepository {
	return &RetrievalVectorRepository{repo: repo}
}

var _ retrieval.VectorRepository = (*RetrievalVectorRepository)(nil)

func (r *RetrievalVectorRepository) EnsureCollection(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.EnsureCollection(ctx)
}

func (r *RetrievalVectorRepository) InsertChunks(ctx context.Context, chunks []*retrieval.VectorChunk) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	if len(chunks) == 0 {
		return nil
	}

	out := make([]*DocumentChunk, 0, len(chunks))
	for i := range chunks {
		c := chunks[i]
		if c == nil {
			continue
		}
		out = append(out, &DocumentChunk{
			DocumentID:    c.DocumentID,
			ChunkIndex:    c.ChunkIndex,
			TotalChunks:   c.TotalChunks,
			Text:          c.Text,
			Title:         c.Title,
			Correspondent: c.Correspondent,
			DocumentType:  c.DocumentType,
			Tags:          c.Tags,
			Created:       c.Created,
			ArchiveSerial: c.ArchiveSerial,
			Vector:        c.Vector,
		})
	}
	return r.repo.InsertChunks(ctx, out)
}

func (r *RetrievalVectorRepository) Search(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	if r == nil || r.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}
	if params == nil {
		return nil, nil
	}

	chunks, distances, err := r.repo.Search(ctx, &SearchParams{
		QueryVector:   params.QueryVector,
		TopK:          params.TopK,
		DocumentType:  params.DocumentType,
		Correspondent: params.Correspondent,
	})
	if err != nil {
		return nil, err
	}

	results := make([]*retrieval.VectorSearchResult, 0, len(chunks))
	for i := range chunks {
		c := chunks[i]
		if c == nil {
			continue
		}
		d := distances[i]
		results = append(results, &retrieval.VectorSearchResult{
			DocumentID:    c.DocumentID,
			ChunkIndex:    c.ChunkIndex,
			TotalChunks:   c.TotalChunks,
			Text:          c.Text,
			Title:         c.Title,
			Correspondent: c.Correspondent,
			DocumentType:  c.DocumentType,
			Tags:          c.Tags,
			Created:       c.Created,
			Distance:      &d,
		})
	}
	return results, nil
}

func (r *RetrievalVectorRepository) HasChunk(ctx context.Context, documentID int64, chunkIndex int) (bool, error) {
	if r == nil || r.repo == nil {
		return false, retrieval.ErrVectorDisabled
	}
	return r.repo.HasChunk(ctx, documentID, int64(chunkIndex))
}

func (r *RetrievalVectorRepository) DeleteByDocumentID(ctx context.Context, documentID int64) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.DeleteByDocumentID(ctx, documentID)
}

func (r *RetrievalVectorRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.repo == nil {
		return 0, retrieval.ErrVectorDisabled
	}
	return r.repo.Count(ctx)
}

func (r *RetrievalVectorRepository) Drop(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.Drop(ctx)
}
