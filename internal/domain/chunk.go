package domain

// ChunkMethod tags how a chunk was produced.
type ChunkMethod string

const (
	ChunkMethodSection   ChunkMethod = "section"
	ChunkMethodFixedSize ChunkMethod = "fixed_size"
)

// Chunk is a bounded slice of a document's text sized for model input.
// Chunks are ephemeral: produced per pipeline run, never persisted.
type Chunk struct {
	Text      string
	Index     int
	Method    ChunkMethod
	WordCount int // fixed_size chunks only
	Metadata  map[string]any
}
