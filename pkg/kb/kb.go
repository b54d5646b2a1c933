// Package kb provides knowledge base retrieval for grounding responses.
//
// Two backends implement the same Store interface: Pinecone performs
// embedding-based vector search against a hosted index, and Keyword scores
// token overlap against a local markdown document set. The backend is a
// one-time configuration decision made at process start; callers never see
// the difference. Retrieval returning nothing is a valid, non-failing
// outcome in both modes.
package kb

import "context"

// Document is a retrievable passage. Immutable once indexed.
type Document struct {
	// ID uniquely identifies the document within its collection.
	ID string `json:"id"`

	// Text is the passage content.
	Text string `json:"text"`

	// Source is the label used for citations.
	Source string `json:"source"`
}

// Result pairs a document with its relevance score. Scores are only
// comparable within one backend: cosine-similarity-like for Pinecone,
// shared-token counts for Keyword.
type Result struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Store is the retrieval contract shared by all backends.
type Store interface {
	// Search returns up to topK results ordered by descending score.
	// An empty slice (never an error) means nothing relevant was found.
	Search(ctx context.Context, query string, topK int) ([]Result, error)
}
