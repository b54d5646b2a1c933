// Package answer composes the assistant's reply from a transcript and
// retrieved knowledge.
//
// Two composers implement the same interface: LLM asks a hosted language
// model to answer from the retrieved context, and Template builds a
// deterministic reply from the top passages with no external service.
// Exactly one is bound at process start depending on configuration, so the
// pipeline completes end-to-end even with zero credentials.
package answer

import (
	"context"
	"strings"

	"github.com/xccelera/voicegate/pkg/kb"
)

// maxSnippets caps how many retrieved passages ground one reply.
const maxSnippets = 5

// Answer is a composed reply.
type Answer struct {
	// Text is the reply to speak back to the user.
	Text string

	// Citations are the knowledge sources used, deduplicated in order.
	Citations []string
}

// Composer builds a reply from a transcript and retrieval results.
// An empty transcript or empty results must produce a best-effort reply,
// never an error for that reason alone.
type Composer interface {
	Compose(ctx context.Context, transcript string, results []kb.Result) (*Answer, error)
}

// NoMatchReply is returned when retrieval found nothing usable.
const NoMatchReply = "I could not find a direct match in our current knowledge base. " +
	"Could you share more details so I can narrow this down?"

// context extracted from retrieval results: non-empty snippets plus the
// citation list (one per result, deduplicated, order preserved).
func splitResults(results []kb.Result) (snippets, citations []string) {
	seen := make(map[string]bool)
	for i, r := range results {
		if i >= maxSnippets {
			break
		}
		if text := strings.TrimSpace(r.Document.Text); text != "" {
			snippets = append(snippets, text)
		}
		source := r.Document.Source
		if source == "" {
			source = "unknown"
		}
		if !seen[source] {
			seen[source] = true
			citations = append(citations, source)
		}
	}
	return snippets, citations
}

func withSources(text string, citations []string) string {
	if len(citations) == 0 {
		return text
	}
	return text + "\n\nSources: " + strings.Join(citations, ", ")
}
