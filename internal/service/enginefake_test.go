package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/domain"
	"github.com/chatdocs/chatdocs/internal/index"
	"github.com/chatdocs/chatdocs/internal/qa"
	"github.com/chatdocs/chatdocs/internal/storage"
)

// fakeEngine is a scripted qa.Engine. Index operations materialize the index
// file so HasIndex observes them; answer operations replay the configured
// partials.
type fakeEngine struct {
	mu       sync.Mutex
	built    [][]string
	extended [][]string

	partials  []qa.Partial
	direct    string
	directErr error
}

func (f *fakeEngine) BuildIndex(ctx context.Context, indexDir string, files []string) ([]string, error) {
	f.mu.Lock()
	f.built = append(f.built, files)
	f.mu.Unlock()

	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(indexDir, qa.IndexFileName), []byte("index"), 0644); err != nil {
		return nil, err
	}
	return fileNames(files), nil
}

func (f *fakeEngine) ExtendIndex(ctx context.Context, indexDir string, files []string) ([]string, error) {
	f.mu.Lock()
	f.extended = append(f.extended, files)
	f.mu.Unlock()
	return fileNames(files), nil
}

func (f *fakeEngine) AnswerStream(ctx context.Context, query, indexDir string, history domain.History) (<-chan qa.Partial, error) {
	ch := make(chan qa.Partial, len(f.partials))
	for _, p := range f.partials {
		ch <- p
	}
	close(ch)
	return ch, nil
}

func (f *fakeEngine) AnswerDirect(ctx context.Context, query string, history domain.History) (string, error) {
	return f.direct, f.directErr
}

func (f *fakeEngine) buildCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.built...)
}

func (f *fakeEngine) extendCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.extended...)
}

func fileNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

// newTestStack wires a store, fake engine and manager over a temp directory.
func newTestStack(t *testing.T) (*storage.Store, *fakeEngine, *index.Manager) {
	t.Helper()
	store, engine, manager := newTestStackWith(t, &fakeEngine{})
	return store, engine, manager
}

func newTestStackWith(t *testing.T, engine *fakeEngine) (*storage.Store, *fakeEngine, *index.Manager) {
	t.Helper()
	root := t.TempDir()
	store := storage.NewStore(filepath.Join(root, "content"))
	manager := index.NewManager(filepath.Join(root, "vector_store"), engine, store, zap.NewNop())
	return store, engine, manager
}
