package models

// Chunk represents a word window of a source document with its position metadata
type Chunk struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Source      string `json:"source"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// ChunkMetadata is the descriptive part of a chunk, keyed by chunk ID in the metadata store
type ChunkMetadata struct {
	Text        string `json:"text" msgpack:"text"`
	Source      string `json:"source" msgpack:"source"`
	ChunkIndex  int    `json:"chunk_index" msgpack:"chunk_index"`
	TotalChunks int    `json:"total_chunks" msgpack:"total_chunks"`
}

// Metadata returns the descriptive fields of the chunk.
func (c Chunk) Metadata() ChunkMetadata {
	return ChunkMetadata{
		Text:        c.Text,
		Source:      c.Source,
		ChunkIndex:  c.ChunkIndex,
		TotalChunks: c.TotalChunks,
	}
}

// VectorRecord is the unit sent to the vector store on upsert
type VectorRecord struct {
	ID       string        `json:"id"`
	Vector   []float32     `json:"vector"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchHit is the normalized shape of a single vector store search result.
// Metadata is whatever payload the store chose to return, possibly nil.
type SearchHit struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// RetrievedDocument is a search hit joined with its metadata
type RetrievedDocument struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
}

// IngestResult reports the outcome of ingesting one file
type IngestResult struct {
	File          string `json:"file"`
	Chunks        int    `json:"chunks"`
	VectorsStored int    `json:"vectors_stored"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// IndexInfo describes a vector index as reported by the store
type IndexInfo struct {
	Name          string `json:"name"`
	Dimension     int    `json:"dimension"`
	TotalElements int    `json:"total_elements"`
	SpaceType     string `json:"space_type"`
	Precision     string `json:"precision"`
}

// Usage is the token accounting returned by the completion API
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// PromptResponse is a generated answer with the model's token usage
type PromptResponse struct {
	Query   string `json:"query"`
	Model   string `json:"model"`
	Content string `json:"answer"`
	Usage   Usage  `json:"usage"`
}
