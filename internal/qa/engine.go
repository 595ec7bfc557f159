// Package qa holds the contract to the retrieval and generation engine and
// its OpenAI-compatible implementation.
package qa

import (
	"context"

	"github.com/chatdocs/chatdocs/internal/domain"
)

// IndexFileName is the vector index file inside a knowledge base index directory.
const IndexFileName = "index.db"

// Partial is one element of a streamed answer. Answer carries the full text
// accumulated so far, not a delta; consumers compute their own suffixes.
// Sources are attached only on the element with Final set. A non-nil Err
// terminates the stream.
type Partial struct {
	Answer  string
	Sources []domain.Source
	Final   bool
	Err     error
}

// Engine is the narrow two-sided contract the orchestrator and the index
// manager rely on: build or extend an index, and answer with or without one.
type Engine interface {
	// BuildIndex performs a full build of the index at indexDir from the
	// given files, replacing any previous index. Files the engine cannot
	// read or use are skipped; the returned names are those incorporated.
	BuildIndex(ctx context.Context, indexDir string, files []string) ([]string, error)

	// ExtendIndex adds the given files to an existing index incrementally.
	ExtendIndex(ctx context.Context, indexDir string, files []string) ([]string, error)

	// AnswerStream answers a query against an index, emitting a finite
	// sequence of growing partials ending with exactly one final element.
	AnswerStream(ctx context.Context, query, indexDir string, history domain.History) (<-chan Partial, error)

	// AnswerDirect answers a query conversationally without retrieval.
	AnswerDirect(ctx context.Context, query string, history domain.History) (string, error)
}
