package models

// UploadedFile is a file received from the upload form. Content may be nil for files
// rejected on size before being read.
type UploadedFile struct {
	Name    string
	Content []byte
	Size    int64
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	Source     string
	PageNumber int
	ChunkID    int
}

// ChunkEmbedding is a chunk together with its embedding vector.
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// ChatTurn is one question and the answer it received.
type ChatTurn struct {
	Question string
	Answer   string
}

type PromptResponse struct {
	Query   string
	Sources []Chunk
	Content string
}
