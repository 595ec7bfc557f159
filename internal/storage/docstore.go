package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatdocs/chatdocs/internal/domain"
)

// SaveStatus reports the outcome of storing an uploaded file.
type SaveStatus int

const (
	// StatusStored means the file bytes were written.
	StatusStored SaveStatus = iota
	// StatusDuplicate means a same-named file of identical size already
	// existed and the upload was skipped.
	StatusDuplicate
)

// Store owns the on-disk layout of uploaded documents, one directory per
// knowledge base under the upload root.
type Store struct {
	root string
}

// NewStore creates a document store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the document directory for a knowledge base.
func (s *Store) Dir(knowledgeBaseID string) string {
	return filepath.Join(s.root, knowledgeBaseID)
}

// Path returns the on-disk path for a document within a knowledge base.
func (s *Store) Path(knowledgeBaseID, filename string) string {
	return filepath.Join(s.root, knowledgeBaseID, filepath.Base(filename))
}

// Save writes uploaded bytes into the knowledge base directory, creating it
// if absent. A same-named file with identical byte size is treated as a
// duplicate and left untouched. The size check is deliberately weak: two
// distinct same-sized files under the same name are indistinguishable here.
func (s *Store) Save(knowledgeBaseID, filename string, data []byte) (SaveStatus, error) {
	dir := s.Dir(knowledgeBaseID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create knowledge base directory: %w", err)
	}

	path := s.Path(knowledgeBaseID, filename)
	if info, err := os.Stat(path); err == nil && info.Size() == int64(len(data)) {
		return StatusDuplicate, nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write document: %w", err)
	}
	return StatusStored, nil
}

// ListDocs returns the document filenames in a knowledge base, regular files
// only, in directory enumeration order.
func (s *Store) ListDocs(knowledgeBaseID string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(knowledgeBaseID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("knowledge base %s: %w", knowledgeBaseID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read knowledge base directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// DocPaths returns the full on-disk paths of all documents in a knowledge base.
func (s *Store) DocPaths(knowledgeBaseID string) ([]string, error) {
	names, err := s.ListDocs(knowledgeBaseID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = s.Path(knowledgeBaseID, name)
	}
	return paths, nil
}

// ListKnowledgeBases returns the ids of all known knowledge bases. A missing
// upload root means no knowledge bases yet, not an error.
func (s *Store) ListKnowledgeBases() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read upload root: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// Exists reports whether a knowledge base directory is present.
func (s *Store) Exists(knowledgeBaseID string) bool {
	info, err := os.Stat(s.Dir(knowledgeBaseID))
	return err == nil && info.IsDir()
}

// Remove deletes a single document from a knowledge base. The index is not
// touched; callers drive a rebuild explicitly.
func (s *Store) Remove(knowledgeBaseID, filename string) error {
	if !s.Exists(knowledgeBaseID) {
		return fmt.Errorf("knowledge base %s: %w", knowledgeBaseID, domain.ErrNotFound)
	}
	path := s.Path(knowledgeBaseID, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("document %s: %w", filename, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to stat document: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// RemoveAll deletes the entire document directory of a knowledge base.
func (s *Store) RemoveAll(knowledgeBaseID string) error {
	if !s.Exists(knowledgeBaseID) {
		return fmt.Errorf("knowledge base %s: %w", knowledgeBaseID, domain.ErrNotFound)
	}
	return os.RemoveAll(s.Dir(knowledgeBaseID))
}
