package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/index"
	"github.com/chatdocs/chatdocs/internal/storage"
)

// UploadFile is one file in a batch upload.
type UploadFile struct {
	Name string
	Data []byte
}

// KnowledgeService drives the knowledge base lifecycle: storing uploaded
// documents, keeping the index in step, and tearing both down on delete.
type KnowledgeService struct {
	store   *storage.Store
	manager *index.Manager
	logger  *zap.Logger
}

// NewKnowledgeService creates a new knowledge service
func NewKnowledgeService(store *storage.Store, manager *index.Manager, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{
		store:   store,
		manager: manager,
		logger:  logger,
	}
}

// UploadOne stores a single document and incorporates it into the knowledge
// base index. Returns the user-facing status message. A same-named file of
// identical size is reported as already present without re-indexing.
func (s *KnowledgeService) UploadOne(ctx context.Context, knowledgeBaseID string, file UploadFile) (string, error) {
	unlock := s.manager.Lock(knowledgeBaseID)
	defer unlock()

	status, err := s.store.Save(knowledgeBaseID, file.Name, file.Data)
	if err != nil {
		return "", err
	}
	if status == storage.StatusDuplicate {
		return fmt.Sprintf("文件 %s 已存在。", file.Name), nil
	}

	hadIndex := s.manager.HasIndex(knowledgeBaseID)
	added, err := s.manager.BuildOrExtend(ctx, knowledgeBaseID, []string{s.store.Path(knowledgeBaseID, file.Name)})
	if err != nil {
		return "", err
	}
	if len(added) == 0 {
		return "", fmt.Errorf("document %s was not incorporated into the index", file.Name)
	}

	if hadIndex {
		return fmt.Sprintf("文件 %s 已上传并已加载知识库，请开始提问。", file.Name), nil
	}
	return fmt.Sprintf("文件 %s 已上传至新的知识库，并已加载知识库，请开始提问。", file.Name), nil
}

// UploadMany stores a batch of documents and incorporates the newly stored
// ones into the index. Size-identical re-uploads are silently skipped.
func (s *KnowledgeService) UploadMany(ctx context.Context, knowledgeBaseID string, files []UploadFile) (string, error) {
	unlock := s.manager.Lock(knowledgeBaseID)
	defer unlock()

	var paths []string
	for _, file := range files {
		status, err := s.store.Save(knowledgeBaseID, file.Name, file.Data)
		if err != nil {
			return "", err
		}
		if status == storage.StatusDuplicate {
			continue
		}
		paths = append(paths, s.store.Path(knowledgeBaseID, file.Name))
	}

	if len(paths) == 0 {
		return "", errors.New("no new documents to load")
	}

	added, err := s.manager.BuildOrExtend(ctx, knowledgeBaseID, paths)
	if err != nil {
		return "", err
	}
	if len(added) == 0 {
		return "", errors.New("no documents were incorporated into the index")
	}

	return fmt.Sprintf("已上传 %s 至知识库，并已加载知识库，请开始提问", strings.Join(added, "、")), nil
}

// List returns the documents of a knowledge base, or all knowledge base ids
// when knowledgeBaseID is empty.
func (s *KnowledgeService) List(knowledgeBaseID string) ([]string, error) {
	if knowledgeBaseID == "" {
		return s.store.ListKnowledgeBases()
	}
	return s.store.ListDocs(knowledgeBaseID)
}

// Delete removes a single document (docName given) or the whole knowledge
// base (docName empty). Removing the last document tears the knowledge base
// down entirely; otherwise the index is rebuilt over the remaining set.
func (s *KnowledgeService) Delete(ctx context.Context, knowledgeBaseID, docName string) error {
	unlock := s.manager.Lock(knowledgeBaseID)
	defer unlock()

	if docName == "" {
		if err := s.store.RemoveAll(knowledgeBaseID); err != nil {
			return err
		}
		return s.manager.RemoveIndex(knowledgeBaseID)
	}

	if err := s.store.Remove(knowledgeBaseID, docName); err != nil {
		return err
	}

	remaining, err := s.store.ListDocs(knowledgeBaseID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := s.store.RemoveAll(knowledgeBaseID); err != nil {
			return err
		}
		return s.manager.RemoveIndex(knowledgeBaseID)
	}

	return s.manager.Rebuild(ctx, knowledgeBaseID)
}
