package answer

import (
	"context"

	"github.com/xccelera/voicegate/pkg/kb"
)

// Template composes deterministic replies from the top retrieved passage.
// It needs no credentials and never fails, guaranteeing the pipeline can
// complete when no language model is configured.
type Template struct{}

// NewTemplate creates the fallback composer.
func NewTemplate() *Template {
	return &Template{}
}

// Compose builds a reply from the highest-scoring passage. With no usable
// passage it returns the canned no-match reply. The transcript may be
// empty; the reply is grounded in what was retrieved, not the question.
func (t *Template) Compose(ctx context.Context, transcript string, results []kb.Result) (*Answer, error) {
	snippets, citations := splitResults(results)

	if len(snippets) == 0 {
		return &Answer{Text: NoMatchReply, Citations: citations}, nil
	}

	text := "Based on our knowledge base, here is a concise answer: " + snippets[0] +
		" If you need role-specific details, share your team and location."

	return &Answer{
		Text:      withSources(text, citations),
		Citations: citations,
	}, nil
}
