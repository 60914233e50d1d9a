package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paperless-rag-api/internal/application/retrieval"
)

const (
	metadataOptionsKey = "metadata:options"
	metadataOptionsTTL = 10 * time.Minute
)

// MetadataOptionsCache 带 Redis 缓存的元数据选项提供者。
// 过滤条件抽取每次问答都要用到全部标签/类型/通信方名称，直接打到文档源太重。
type MetadataOptionsCache struct {
	cache  *Cache
	source retrieval.DocumentSource
}

// NewMetadataOptionsCache 创建元数据选项缓存
func NewMetadataOptionsCache(cache *Cache, source retrieval.DocumentSource) *MetadataOptionsCache {
	return &MetadataOptionsCache{cache: cache, source: source}
}

var _ retrieval.MetadataOptionsProvider = (*MetadataOptionsCache)(nil)

// MetadataOptions 返回文档源已知的元数据取值，结果缓存 10 分钟。
// 缓存不可用时直接回源。
func (m *MetadataOptionsCache) MetadataOptions(ctx context.Context) (retrieval.MetadataOptions, error) {
	if m == nil || m.source == nil {
		return retrieval.MetadataOptions{}, fmt.Errorf("document source not configured")
	}
	if m.cache == nil {
		return m.load(ctx)
	}

	raw, err := m.cache.GetOrLoadSafe(ctx, metadataOptionsKey, metadataOptionsTTL, func() (interface{}, error) {
		opts, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		return opts, nil
	})
	if err != nil {
		return retrieval.MetadataOptions{}, err
	}

	var opts retrieval.MetadataOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return retrieval.MetadataOptions{}, fmt.Errorf("failed to unmarshal metadata options: %w", err)
	}
	return opts, nil
}

func (m *MetadataOptionsCache) load(ctx context.Context) (retrieval.MetadataOptions, error) {
	tags, err := m.source.ListTags(ctx)
	if err != nil {
		return retrieval.MetadataOptions{}, fmt.Errorf("failed to list tags: %w", err)
	}
	types, err := m.source.ListDocumentTypes(ctx)
	if err != nil {
		return retrieval.MetadataOptions{}, fmt.Errorf("failed to list document types: %w", err)
	}
	correspondents, err := m.source.ListCorrespondents(ctx)
	if err != nil {
		return retrieval.MetadataOptions{}, fmt.Errorf("failed to list correspondents: %w", err)
	}
	return retrieval.MetadataOptions{
		Tags:           tags,
		DocumentTypes:  types,
		Correspondents: correspondents,
	}, nil
}
