package kb

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Keyword implements Store with a token-overlap scorer over a fixed local
// document set. It needs no credentials and serves as the retrieval
// fallback when no vector index is configured.
type Keyword struct {
	docs []Document
}

// NewKeyword creates a keyword store over the given documents.
// Document order is preserved and used to break score ties.
func NewKeyword(docs []Document) *Keyword {
	return &Keyword{docs: docs}
}

// LoadDir loads every .md file beneath dir as one document. The path
// relative to dir becomes both the document ID and its citation source.
// A missing directory yields an empty store, not an error.
func LoadDir(dir string) (*Keyword, error) {
	var docs []Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		docs = append(docs, Document{ID: rel, Text: string(data), Source: rel})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return NewKeyword(nil), nil
		}
		return nil, err
	}

	return NewKeyword(docs), nil
}

// Len returns the number of indexed documents.
func (k *Keyword) Len() int {
	return len(k.docs)
}

// Search scores each document by the number of query tokens it contains.
// Only documents scoring at least 1 are returned, ordered by descending
// score with ties broken by original document order.
func (k *Keyword) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 || topK <= 0 {
		return nil, nil
	}

	type scored struct {
		order int
		res   Result
	}
	var hits []scored

	for i, doc := range k.docs {
		text := strings.ToLower(doc.Text)
		var score int
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{order: i, res: Result{Document: doc, Score: float64(score)}})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].res.Score != hits[b].res.Score {
			return hits[a].res.Score > hits[b].res.Score
		}
		return hits[a].order < hits[b].order
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = h.res
	}
	return results, nil
}

func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(query)))
}
