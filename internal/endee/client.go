package endee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"endee-rag/internal/models"
)

const defaultTimeout = 60 * time.Second

// Client talks to the Endee vector database over its HTTP API.
// Failed calls are not retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL, e.g. http://localhost:8080/api/v1.
// A nil httpClient gets a default one with a 60s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	log.Debug().Str("base_url", baseURL).Msg("Endee client initialized")
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type createIndexRequest struct {
	IndexName string `json:"index_name"`
	Dim       int    `json:"dim"`
	SpaceType string `json:"space_type"`
}

type searchRequest struct {
	K      int       `json:"k"`
	Vector []float32 `json:"vector"`
	EF     int       `json:"ef"`
}

// CreateIndex creates a named index. A conflict surfaces as an error
// matching models.ErrIndexExists.
func (c *Client) CreateIndex(ctx context.Context, name string, dim int, space string) error {
	if space == "" {
		space = models.DefaultSpaceType
	}
	_, _, err := c.do(ctx, "create index", http.MethodPost, "/index/create",
		createIndexRequest{IndexName: name, Dim: dim, SpaceType: space})
	return err
}

// Upsert inserts records and returns how many the server reports as stored.
// An empty or count-less body counts every record. A reported count below
// len(records) is a store error.
func (c *Client) Upsert(ctx context.Context, index string, records []models.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	body, _, err := c.do(ctx, "upsert", http.MethodPost, c.indexPath(index, "vector", "insert"), records)
	if err != nil {
		return 0, err
	}

	var res struct {
		Inserted *int `json:"inserted"`
	}
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &res) == nil && res.Inserted != nil {
		if *res.Inserted < len(records) {
			return *res.Inserted, fmt.Errorf("%w: upsert: server inserted %d of %d vectors",
				models.ErrStore, *res.Inserted, len(records))
		}
		return *res.Inserted, nil
	}
	return len(records), nil
}

// Search returns at most k hits in the server's order. A body that cannot be
// decoded yields no hits rather than an error.
func (c *Client) Search(ctx context.Context, index string, vector []float32, k int) ([]models.SearchHit, error) {
	body, contentType, err := c.do(ctx, "search", http.MethodPost, c.indexPath(index, "search"),
		searchRequest{K: k, Vector: vector, EF: models.DefaultSearchEF})
	if err != nil {
		return nil, err
	}

	hits, err := decodeSearch(contentType, body)
	if err != nil {
		log.Warn().Err(err).Str("index", index).Str("content_type", contentType).Msg("Could not decode search response")
		return []models.SearchHit{}, nil
	}
	return hits, nil
}

// Delete removes one vector by ID.
func (c *Client) Delete(ctx context.Context, index, id string) error {
	_, _, err := c.do(ctx, "delete", http.MethodDelete, c.indexPath(index, "delete", id), nil)
	return err
}

// ListIndices returns every index the server knows about.
func (c *Client) ListIndices(ctx context.Context) ([]models.IndexInfo, error) {
	body, _, err := c.do(ctx, "list indices", http.MethodGet, "/index/list", nil)
	if err != nil {
		return nil, err
	}

	var res struct {
		Indexes []json.RawMessage `json:"indexes"`
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: list indices: %v", models.ErrDecode, err)
	}

	infos := make([]models.IndexInfo, 0, len(res.Indexes))
	for _, raw := range res.Indexes {
		var name string
		if json.Unmarshal(raw, &name) == nil {
			infos = append(infos, models.IndexInfo{Name: name})
			continue
		}
		var info models.IndexInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("%w: list indices: %v", models.ErrDecode, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// IndexInfo describes a single index.
func (c *Client) IndexInfo(ctx context.Context, name string) (models.IndexInfo, error) {
	body, _, err := c.do(ctx, "index info", http.MethodGet, c.indexPath(name, "info"), nil)
	if err != nil {
		return models.IndexInfo{}, err
	}
	info := models.IndexInfo{Name: name}
	if err := json.Unmarshal(body, &info); err != nil {
		return models.IndexInfo{}, fmt.Errorf("%w: index info: %v", models.ErrDecode, err)
	}
	if info.Name == "" {
		info.Name = name
	}
	return info, nil
}

func (c *Client) indexPath(index string, parts ...string) string {
	segs := []string{"/index", url.PathEscape(index)}
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/")
}

// do sends payload as JSON (when non-nil) and returns the response body and
// content type. Non-2xx responses become *models.StoreError.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, string, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("op", op).Str("method", method).Str("path", path).Msg("Endee request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", models.ErrStore, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: read body: %v", models.ErrStore, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", models.NewStoreError(op, resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
