package endee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"endee-rag/internal/models"
)

// scoreKeys are tried in order on object-shaped hits.
var scoreKeys = []string{"score", "distance", "similarity"}

// decodeSearch normalizes a search response body. The server answers either
// in MessagePack or JSON, with a bare list or {"results": [...]}, and each
// hit is a positional tuple [score, id, meta?, ...] or an object.
func decodeSearch(contentType string, body []byte) ([]models.SearchHit, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []models.SearchHit{}, nil
	}

	var raw any
	if strings.Contains(strings.ToLower(contentType), "msgpack") {
		if err := msgpack.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: msgpack: %v", models.ErrDecode, err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: json: %v", models.ErrDecode, err)
		}
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		results, ok := v["results"].([]any)
		if !ok {
			return []models.SearchHit{}, nil
		}
		items = results
	default:
		return nil, fmt.Errorf("%w: unexpected search response %T", models.ErrDecode, raw)
	}

	hits := make([]models.SearchHit, 0, len(items))
	for i, item := range items {
		hits = append(hits, decodeHit(i+1, item))
	}
	return hits, nil
}

func decodeHit(rank int, item any) models.SearchHit {
	switch v := item.(type) {
	case []any:
		if len(v) >= 2 {
			hit := models.SearchHit{Score: toFloat(v[0]), ID: toString(v[1])}
			if len(v) >= 3 {
				hit.Metadata = toMetadata(v[2])
			}
			return hit
		}
	case map[string]any:
		hit := models.SearchHit{ID: toString(v["id"])}
		for _, k := range scoreKeys {
			if s, ok := v[k]; ok {
				hit.Score = toFloat(s)
				break
			}
		}
		hit.Metadata = toMetadata(v["metadata"])
		for _, k := range []string{"text", "source"} {
			if s, ok := v[k]; ok {
				if hit.Metadata == nil {
					hit.Metadata = map[string]any{}
				}
				if _, exists := hit.Metadata[k]; !exists {
					hit.Metadata[k] = s
				}
			}
		}
		return hit
	}
	// Unrecognized shapes keep their rank and carry their printed form as text.
	return models.SearchHit{
		ID:       strconv.Itoa(rank),
		Metadata: map[string]any{"text": fmt.Sprint(item)},
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case json.Number:
		return s.String()
	}
	return fmt.Sprint(v)
}

// toMetadata accepts an inline map or a JSON document carried as bytes or string.
func toMetadata(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case []byte:
		return jsonMetadata(m)
	case string:
		return jsonMetadata([]byte(m))
	}
	return nil
}

func jsonMetadata(b []byte) map[string]any {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
