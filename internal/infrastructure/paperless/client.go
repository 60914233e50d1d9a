// Package paperless 提供 paperless-ngx REST API 客户端
package paperless

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"paperless-rag-api/internal/application/retrieval"
	"paperless-rag-api/internal/config"
	"paperless-rag-api/internal/domain/entity"
)

const (
	defaultPageSize = 100
	nameCacheTTL    = 5 * time.Minute
)

// Client paperless-ngx API 客户端。
// 文档接口返回的 correspondent/document_type/tags 都是数字 ID，
// 客户端负责解析为名称，名称表带短 TTL 缓存。
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client

	mu        sync.Mutex
	names     map[string]map[int64]string
	namesUpTo time.Time
}

// NewClient 创建客户端
func NewClient(cfg *config.PaperlessConfig) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ retrieval.DocumentSource = (*Client)(nil)

type apiDocument struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Content             string  `json:"content"`
	Correspondent       *int64  `json:"correspondent"`
	DocumentType        *int64  `json:"document_type"`
	Tags                []int64 `json:"tags"`
	Created             string  `json:"created"`
	CreatedDate         string  `json:"created_date"`
	ArchiveSerialNumber *int64  `json:"archive_serial_number"`
}

type apiName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type documentPage struct {
	Count   int           `json:"count"`
	Next    *string       `json:"next"`
	Results []apiDocument `json:"results"`
}

type namePage struct {
	Count   int       `json:"count"`
	Next    *string   `json:"next"`
	Results []apiName `json:"results"`
}

// GetDocument 获取单个文档，文档不存在时返回 (nil, nil)。
func (c *Client) GetDocument(ctx context.Context, id int64) (*entity.Document, error) {
	var doc apiDocument
	status, err := c.getJSON(ctx, fmt.Sprintf("/api/documents/%d/", id), nil, &doc)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	names, err := c.nameTables(ctx)
	if err != nil {
		return nil, err
	}
	return c.toEntity(&doc, names), nil
}

// ListDocuments 分页拉取全部文档
func (c *Client) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	return c.listDocuments(ctx, nil)
}

// ListDocumentsByTag 按标签名（大小写不敏感）拉取文档
func (c *Client) ListDocumentsByTag(ctx context.Context, tag string) ([]*entity.Document, error) {
	tags, err := c.fetchNames(ctx, "tags")
	if err != nil {
		return nil, err
	}

	var tagID int64 = -1
	for id, name := range tags {
		if strings.EqualFold(name, tag) {
			tagID = id
			break
		}
	}
	if tagID < 0 {
		return []*entity.Document{}, nil
	}

	return c.listDocuments(ctx, url.Values{
		"tags__id__in": []string{strconv.FormatInt(tagID, 10)},
	})
}

func (c *Client) listDocuments(ctx context.Context, extra url.Values) ([]*entity.Document, error) {
	names, err := c.nameTables(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, vs := range extra {
		query[k] = vs
	}
	query.Set("page_size", strconv.Itoa(c.pageSize))

	var out []*entity.Document
	path := "/api/documents/"
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		var resp documentPage
		status, err := c.getJSON(ctx, path, query, &resp)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			// paperless 对超出范围的页返回 404
			break
		}
		for i := range resp.Results {
			out = append(out, c.toEntity(&resp.Results[i], names))
		}
		if resp.Next == nil || *resp.Next == "" {
			break
		}
	}
	return out, nil
}

// ListTags 返回全部标签名称
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "tags")
}

// ListDocumentTypes 返回全部文档类型名称
func (c *Client) ListDocumentTypes(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "document_types")
}

// ListCorrespondents 返回全部通信方名称
func (c *Client) ListCorrespondents(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "correspondents")
}

// CountDocuments 返回文档源中的文档总数
func (c *Client) CountDocuments(ctx context.Context) (int, error) {
	var resp documentPage
	status, err := c.getJSON(ctx, "/api/documents/", url.Values{"page_size": []string{"1"}}, &resp)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	return resp.Count, nil
}

// HealthCheck 检查文档源可达性
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.CountDocuments(ctx)
	return err
}

func (c *Client) listNames(ctx context.Context, resource string) ([]string, error) {
	table, err := c.fetchNames(ctx, resource)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(table))
	for _, name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// nameTables 返回三张 ID->名称 映射表，带 TTL 缓存。
func (c *Client) nameTables(ctx context.Context) (map[string]map[int64]string, error) {
	c.mu.Lock()
	if c.names != nil && time.Now().Before(c.namesUpTo) {
		cached := c.names
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	tables := make(map[string]map[int64]string, 3)
	for _, resource := range []string{"tags", "document_types", "correspondents"} {
		table, err := c.fetchNamesUncached(ctx, resource)
		if err != nil {
			return nil, err
		}
		tables[resource] = table
	}

	c.mu.Lock()
	c.names = tables
	c.namesUpTo = time.Now().Add(nameCacheTTL)
	c.mu.Unlock()
	return tables, nil
}

func (c *Client) fetchNames(ctx context.Context, resource string) (map[int64]string, error) {
	tables, err := c.nameTables(ctx)
	if err != nil {
		return nil, err
	}
	return tables[resource], nil
}

func (c *Client) fetchNamesUncached(ctx context.Context, resource string) (map[int64]string, error) {
	out := make(map[int64]string)
	query := url.Values{"page_size": []string{strconv.Itoa(c.pageSize)}}
	path := "/api/" + resource + "/"
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		var resp namePage
		status, err := c.getJSON(ctx, path, query, &resp)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			break
		}
		for _, n := range resp.Results {
			out[n.ID] = n.Name
		}
		if resp.Next == nil || *resp.Next == "" {
			break
		}
	}
	return out, nil
}

func (c *Client) toEntity(doc *apiDocument, names map[string]map[int64]string) *entity.Document {
	out := &entity.Document{
		ID:      doc.ID,
		Title:   doc.Title,
		Content: doc.Content,
		Created: createdDate(doc),
	}
	if doc.Correspondent != nil {
		out.Correspondent = names["correspondents"][*doc.Correspondent]
	}
	if doc.DocumentType != nil {
		out.DocumentType = names["document_types"][*doc.DocumentType]
	}
	for _, tagID := range doc.Tags {
		if name, ok := names["tags"][tagID]; ok {
			out.Tags = append(out.Tags, name)
		}
	}
	if doc.ArchiveSerialNumber != nil {
		out.ArchiveSerialNumber = strconv.FormatInt(*doc.ArchiveSerialNumber, 10)
	}
	return out
}

// createdDate 归一化创建日期为 YYYY-MM-DD
func createdDate(doc *apiDocument) string {
	if doc.CreatedDate != "" {
		return doc.CreatedDate
	}
	if len(doc.Created) >= 10 {
		return doc.Created[:10]
	}
	return doc.Created
}

// getJSON 执行带 Token 认证的 GET 请求。
// 404 返回 (StatusNotFound, nil) 由调用方决定语义，其余非 2xx 一律视为错误。
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) (int, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("paperless base url is empty")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("paperless request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return http.StatusNotFound, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("paperless request failed: status=%d path=%s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode paperless response: %w", err)
	}
	return resp.StatusCode, nil
}
