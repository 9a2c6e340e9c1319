package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

const defaultHashDimension = 384

// HashEmbedder derives pseudo-embeddings from SHA-256 digests. The vectors
// carry no semantics; they only keep the pipeline usable without a model.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder sizes the vectors from the model name, see FallbackDimension.
func NewHashEmbedder(model string) *HashEmbedder {
	return &HashEmbedder{dim: FallbackDimension(model)}
}

// FallbackDimension is 8 per hyphen in the last path segment of the model
// name, or 384 when there are none.
func FallbackDimension(model string) int {
	name := model
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if d := strings.Count(name, "-") * 8; d > 0 {
		return d
	}
	return defaultHashDimension
}

func (h *HashEmbedder) Dimension() int { return h.dim }

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashVector(text, h.dim), nil
}

func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// hashVector reads the digest as big-endian uint64 words mapped into [-1, 1),
// rehashing the digest until dim values exist.
func hashVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vals := make([]float32, 0, dim+len(sum)/8)
	for len(vals) < dim {
		for i := 0; i+8 <= len(sum); i += 8 {
			v := binary.BigEndian.Uint64(sum[i : i+8])
			vals = append(vals, float32(float64(v%1_000_000)/1_000_000.0*2.0-1.0))
		}
		sum = sha256.Sum256(sum[:])
	}
	return vals[:dim]
}
