package types

// Record is one persisted unit in the vector store. Its embedding length
// must equal the collection's declared dimension and the text fields must
// fit the schema byte caps; the store validates both before any write.
type Record struct {
	Embedding     []float32
	TextChunk     string
	CandidateName string
	Skills        []string
}

// Hit is a single nearest-neighbor result as returned by the store.
// Score is the store's raw distance value, not renormalized, so its
// direction (higher or lower is better) depends on the backend metric.
type Hit struct {
	TextChunk     string
	CandidateName string
	Score         float64
}

// Match is one ranked retrieval result surfaced to API callers.
type Match struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
