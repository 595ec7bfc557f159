// Package index bridges the document store to the QA engine's indexing
// operations and owns the per-knowledge-base index locations.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/qa"
	"github.com/chatdocs/chatdocs/internal/storage"
)

// Manager builds, extends and tears down knowledge base indexes. It also
// hands out the per-knowledge-base locks that serialize uploads, deletes and
// rebuilds against each other and against query traffic.
type Manager struct {
	vectorRoot string
	engine     qa.Engine
	store      *storage.Store
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewManager creates an index manager rooted at vectorRoot.
func NewManager(vectorRoot string, engine qa.Engine, store *storage.Store, logger *zap.Logger) *Manager {
	return &Manager{
		vectorRoot: vectorRoot,
		engine:     engine,
		store:      store,
		logger:     logger,
		locks:      map[string]*sync.RWMutex{},
	}
}

func (m *Manager) lockFor(knowledgeBaseID string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[knowledgeBaseID]
	if !ok {
		l = &sync.RWMutex{}
		m.locks[knowledgeBaseID] = l
	}
	return l
}

// Lock acquires the exclusive section for a knowledge base and returns the
// release function. Mutating operations (upload, delete, rebuild) hold it.
func (m *Manager) Lock(knowledgeBaseID string) func() {
	l := m.lockFor(knowledgeBaseID)
	l.Lock()
	return l.Unlock
}

// RLock acquires the shared section for a knowledge base, guarding query
// traffic against a concurrent rebuild swapping the index underneath it.
func (m *Manager) RLock(knowledgeBaseID string) func() {
	l := m.lockFor(knowledgeBaseID)
	l.RLock()
	return l.RUnlock
}

// IndexDir returns the index location for a knowledge base.
func (m *Manager) IndexDir(knowledgeBaseID string) string {
	return filepath.Join(m.vectorRoot, knowledgeBaseID)
}

// HasIndex reports whether a built index exists for a knowledge base.
func (m *Manager) HasIndex(knowledgeBaseID string) bool {
	_, err := os.Stat(filepath.Join(m.IndexDir(knowledgeBaseID), qa.IndexFileName))
	return err == nil
}

// BuildOrExtend incorporates files into the knowledge base index: a full
// initial build when no index exists yet, an incremental extension otherwise.
// Returns the names of files actually incorporated. Callers hold the lock.
func (m *Manager) BuildOrExtend(ctx context.Context, knowledgeBaseID string, files []string) ([]string, error) {
	indexDir := m.IndexDir(knowledgeBaseID)
	if m.HasIndex(knowledgeBaseID) {
		added, err := m.engine.ExtendIndex(ctx, indexDir, files)
		if err != nil {
			return added, fmt.Errorf("failed to extend index for %s: %w", knowledgeBaseID, err)
		}
		return added, nil
	}

	added, err := m.engine.BuildIndex(ctx, indexDir, files)
	if err != nil {
		return added, fmt.Errorf("failed to build index for %s: %w", knowledgeBaseID, err)
	}
	return added, nil
}

// Rebuild performs a full rebuild over the knowledge base's current document
// set. Used after a delete: the engine has no single-document removal, so the
// remaining files are re-indexed from scratch. Callers hold the lock.
func (m *Manager) Rebuild(ctx context.Context, knowledgeBaseID string) error {
	paths, err := m.store.DocPaths(knowledgeBaseID)
	if err != nil {
		return err
	}
	if _, err := m.engine.BuildIndex(ctx, m.IndexDir(knowledgeBaseID), paths); err != nil {
		return fmt.Errorf("failed to rebuild index for %s: %w", knowledgeBaseID, err)
	}
	return nil
}

// RemoveIndex tears down the index directory for a knowledge base.
func (m *Manager) RemoveIndex(knowledgeBaseID string) error {
	return os.RemoveAll(m.IndexDir(knowledgeBaseID))
}
