package narrative

// Chunk is a bounded excerpt of unstructured text (earnings call passage,
// filing section) tagged with provenance metadata. Chunks are produced by the
// ingestion pipeline; the core only reads them.
type Chunk struct {
	ID           int64   `db:"id"`
	Company      string  `db:"company"`
	Ticker       string  `db:"ticker"`
	Year         int     `db:"year"`
	DocType      DocType `db:"doc_type"`
	SectionTitle string  `db:"section_title"`
	ChunkIndex   int     `db:"chunk_id"`
	TotalChunks  int     `db:"total_chunks"`
	Text         string  `db:"content"`

	// Similarity is the cosine similarity against the query embedding,
	// clamped to [0,1] before leaving the retriever.
	Similarity float64 `db:"similarity"`
}

// Citable reports whether the chunk carries enough provenance to be surfaced
// with a source label. Uncitable chunks are dropped, never shown unlabeled.
func (c Chunk) Citable() bool {
	return c.Ticker != ""
}

// DocType classifies the source document of a narrative chunk
type DocType string

const (
	DocEarningsCall         DocType = "earnings_call"
	DocRiskFactors          DocType = "risk_factors"
	DocManagementDiscussion DocType = "management_discussion"
	DocPressRelease         DocType = "press_release"
)

// Valid checks if the doc type is a known classification
func (d DocType) Valid() bool {
	switch d {
	case DocEarningsCall, DocRiskFactors, DocManagementDiscussion, DocPressRelease:
		return true
	}
	return false
}

// String returns string representation
func (d DocType) String() string {
	return string(d)
}
