package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/domain"
	"github.com/chatdocs/chatdocs/internal/index"
	"github.com/chatdocs/chatdocs/internal/qa"
	"github.com/chatdocs/chatdocs/internal/repository"
)

// ChatService orchestrates conversational exchanges against the QA engine,
// both single-shot and streamed.
type ChatService struct {
	engine      qa.Engine
	manager     *index.Manager
	sessionRepo *repository.SessionRepository
	logger      *zap.Logger
}

// NewChatService creates a new chat service. sessionRepo may be nil, in
// which case transcripts are not recorded.
func NewChatService(
	engine qa.Engine,
	manager *index.Manager,
	sessionRepo *repository.SessionRepository,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		engine:      engine,
		manager:     manager,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// HasIndex reports whether a knowledge base has a built index.
func (s *ChatService) HasIndex(knowledgeBaseID string) bool {
	return s.manager.HasIndex(knowledgeBaseID)
}

// Chat runs one retrieval-augmented exchange to completion. Intermediate
// partials are discarded; the final answer, the history with this turn
// appended, and the rendered citations are returned.
func (s *ChatService) Chat(ctx context.Context, knowledgeBaseID, question string, history domain.History) (*domain.ChatMessage, error) {
	stream, err := s.StreamTurn(ctx, knowledgeBaseID, question, history)
	if err != nil {
		return nil, err
	}

	var final qa.Partial
	var streamErr error
	for partial := range stream {
		if partial.Err != nil && streamErr == nil {
			streamErr = partial.Err
		}
		if partial.Final {
			final = partial
		}
	}
	if streamErr != nil {
		return nil, streamErr
	}

	return &domain.ChatMessage{
		Question:        question,
		Response:        final.Answer,
		History:         append(history, domain.NewTurn(question, final.Answer)),
		SourceDocuments: domain.RenderSources(final.Sources),
	}, nil
}

// ChatDirect runs one conversational exchange without retrieval.
func (s *ChatService) ChatDirect(ctx context.Context, question string, history domain.History) (*domain.ChatMessage, error) {
	answer, err := s.engine.AnswerDirect(ctx, question, history)
	if err != nil {
		return nil, err
	}

	return &domain.ChatMessage{
		Question:        question,
		Response:        answer,
		History:         append(history, domain.NewTurn(question, answer)),
		SourceDocuments: []string{},
	}, nil
}

// StreamTurn starts one streamed turn against a knowledge base and returns
// the engine's partial sequence. The knowledge base's shared lock is held
// until the stream is drained or ctx is cancelled, so a rebuild cannot swap
// the index mid-turn. A caller that stops reading must cancel ctx, or the
// lock stays held.
func (s *ChatService) StreamTurn(ctx context.Context, knowledgeBaseID, question string, history domain.History) (<-chan qa.Partial, error) {
	runlock := s.manager.RLock(knowledgeBaseID)

	if !s.manager.HasIndex(knowledgeBaseID) {
		runlock()
		return nil, fmt.Errorf("knowledge base %s: %w", knowledgeBaseID, domain.ErrNotFound)
	}

	stream, err := s.engine.AnswerStream(ctx, question, s.manager.IndexDir(knowledgeBaseID), history)
	if err != nil {
		runlock()
		return nil, err
	}

	out := make(chan qa.Partial, 16)
	go func() {
		defer close(out)
		defer runlock()
		for partial := range stream {
			select {
			case out <- partial:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// OpenSession records the start of a conversation transcript. Recording is
// best-effort: a nil session is returned on failure and turns are dropped.
func (s *ChatService) OpenSession(knowledgeBaseID, kind string) *domain.Session {
	if s.sessionRepo == nil {
		return nil
	}
	session := &domain.Session{KnowledgeBaseID: knowledgeBaseID, Kind: kind}
	if err := s.sessionRepo.Create(session); err != nil {
		s.logger.Warn("failed to open transcript session", zap.Error(err))
		return nil
	}
	return session
}

// RecordTurn appends one completed turn to a transcript session.
func (s *ChatService) RecordTurn(session *domain.Session, question, answer string, sources []domain.Source) {
	if s.sessionRepo == nil || session == nil {
		return
	}

	userMsg := &domain.Message{SessionID: session.ID, Role: "user", Content: question}
	assistantMsg := &domain.Message{SessionID: session.ID, Role: "assistant", Content: answer, Sources: sources}

	if err := s.sessionRepo.CreateMessage(userMsg); err != nil {
		s.logger.Warn("failed to record question", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	if err := s.sessionRepo.CreateMessage(assistantMsg); err != nil {
		s.logger.Warn("failed to record answer", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	if err := s.sessionRepo.Touch(session.ID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session_id", session.ID), zap.Error(err))
	}
}
