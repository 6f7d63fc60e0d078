package types

// Document is a raw reference document before chunking. Pages hold the
// extracted text per page, in order.
type Document struct {
	Title  string   `json:"title"`
	Source string   `json:"source"`
	Pages  []string `json:"pages"`
}

// DocumentChunk is the unit of embedding and retrieval.
type DocumentChunk struct {
	Content  string           // The actual text content
	Page     int              // Page number where the chunk is from
	Metadata DocumentMetadata // Associated metadata for the chunk
}

// DocumentMetadata contains positional metadata for a chunk.
type DocumentMetadata struct {
	Title      string // Title of the source document
	Source     string // Source file path
	Section    string // Optional section heading, empty if unknown
	PageNum    int    // Current page number
	TotalPages int    // Total number of pages in the document
}

// DocumentServiceConfig contains configuration options for the splitter.
type DocumentServiceConfig struct {
	MaxChunkSize int // Maximum size for text chunks, in characters
	OverlapSize  int // Size of overlap between consecutive chunks
}

// ScoreUnknown marks a retrieval hit whose backend supplied no score. A
// score of exactly 0 is a valid, maximally distant result.
const ScoreUnknown float32 = -1

// RetrievedDoc is a similarity-search hit. Results are ordered by
// descending score.
type RetrievedDoc struct {
	Content  string           `json:"content"`
	Score    float32          `json:"score"` // in [0,1], or ScoreUnknown
	Metadata DocumentMetadata `json:"metadata"`
}

// IngestResult reports the outcome of a corpus ingestion run.
type IngestResult struct {
	Success          bool   `json:"success"`
	TotalChunks      int    `json:"total_chunks"`
	TotalPages       int    `json:"total_pages"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Message          string `json:"message,omitempty"`
}
