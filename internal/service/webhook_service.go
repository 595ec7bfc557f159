package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/config"
	"github.com/chatdocs/chatdocs/internal/domain"
	"github.com/chatdocs/chatdocs/internal/feishu"
)

// WebhookService decouples inbound Feishu event acknowledgement from the
// latency of answering and posting the reply.
type WebhookService struct {
	chat   *ChatService
	client *feishu.Client
	cfg    config.FeishuConfig
	logger *zap.Logger

	// wg tracks in-flight background deliveries; tests wait on it.
	wg sync.WaitGroup
}

// NewWebhookService creates a new webhook service
func NewWebhookService(chat *ChatService, client *feishu.Client, cfg config.FeishuConfig, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		chat:   chat,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// HandleResult is what the HTTP handler writes back immediately.
type HandleResult struct {
	// Challenge is set for the platform handshake event.
	Challenge string
	// Echo is the received envelope, returned for all other events.
	Echo *feishu.Event
}

// Handle validates the envelope and acknowledges it without waiting for the
// answer. Message events are processed by a detached goroutine whose
// failures are logged and swallowed: the platform has already been answered
// and there is no retry.
func (s *WebhookService) Handle(event *feishu.Event) (*HandleResult, error) {
	if s.cfg.VerificationToken != "" && event.Token != s.cfg.VerificationToken {
		return nil, fmt.Errorf("webhook token mismatch: %w", domain.ErrInvalidRequest)
	}

	if event.Type == feishu.EventTypeURLVerification {
		return &HandleResult{Challenge: event.Challenge}, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(context.Background(), event)
	}()

	return &HandleResult{Echo: event}, nil
}

// process runs the full answer-and-deliver chain for one message event.
func (s *WebhookService) process(ctx context.Context, event *feishu.Event) {
	question, err := event.MessageText()
	if err != nil {
		s.logger.Error("webhook event has no question", zap.Error(err))
		return
	}
	messageID, err := event.MessageID()
	if err != nil {
		s.logger.Error("webhook event has no message id", zap.Error(err))
		return
	}

	s.logger.Info("processing webhook event",
		zap.String("message_id", messageID),
		zap.String("knowledge_base_id", s.cfg.KnowledgeBaseID),
	)

	answer, err := s.chat.Chat(ctx, s.cfg.KnowledgeBaseID, question, nil)
	if err != nil {
		s.logger.Error("webhook answer failed",
			zap.String("message_id", messageID), zap.Error(err))
		return
	}

	token, err := s.client.TenantAccessToken(ctx)
	if err != nil {
		s.logger.Error("webhook auth failed",
			zap.String("message_id", messageID), zap.Error(err))
		return
	}

	if err := s.client.Reply(ctx, token, messageID, answer.Response); err != nil {
		s.logger.Error("webhook reply failed",
			zap.String("message_id", messageID), zap.Error(err))
		return
	}

	session := s.chat.OpenSession(s.cfg.KnowledgeBaseID, domain.SessionKindWebhook)
	s.chat.RecordTurn(session, question, answer.Response, nil)

	s.logger.Info("webhook reply delivered", zap.String("message_id", messageID))
}

// Wait blocks until all in-flight background deliveries finish.
func (s *WebhookService) Wait() {
	s.wg.Wait()
}
