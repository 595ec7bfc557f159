package qa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/chatdocs/chatdocs/internal/domain"
)

// knowledgePrompt wraps retrieved context around the user question.
const knowledgePrompt = `已知信息：
%s

根据上述已知信息，简洁和专业的来回答用户的问题。如果无法从中得到答案，请说 “根据已知信息无法回答该问题” 或 “没有提供足够的相关信息”，不允许在答案中添加编造成分，答案请使用中文。 问题是：%s`

// EngineConfig holds tuning parameters for the OpenAI-compatible engine.
type EngineConfig struct {
	EmbeddingModel string
	ChatModel      string
	TopK           int
	ChunkSize      int
	ChunkOverlap   int
	ScoreThreshold float64
}

// OpenAIEngine implements Engine against any OpenAI-compatible endpoint
// (OpenAI proper, or a local Ollama-style server).
type OpenAIEngine struct {
	client *openai.Client
	cfg    EngineConfig
	logger *zap.Logger
}

// NewOpenAIEngine creates an engine talking to the given base URL.
func NewOpenAIEngine(baseURL, apiKey string, cfg EngineConfig, logger *zap.Logger) *OpenAIEngine {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

// BuildIndex performs a full build, replacing any existing index at indexDir.
func (e *OpenAIEngine) BuildIndex(ctx context.Context, indexDir string, files []string) ([]string, error) {
	if err := os.RemoveAll(indexDir); err != nil {
		return nil, fmt.Errorf("failed to clear index directory: %w", err)
	}
	return e.ExtendIndex(ctx, indexDir, files)
}

// ExtendIndex adds files to the index at indexDir, creating it if absent.
// Files that cannot be read or yield no content are skipped, not fatal.
func (e *OpenAIEngine) ExtendIndex(ctx context.Context, indexDir string, files []string) ([]string, error) {
	store, err := OpenChunkStore(indexDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var added []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		pieces := SplitText(string(data), e.cfg.ChunkSize, e.cfg.ChunkOverlap)
		if len(pieces) == 0 {
			e.logger.Warn("skipping empty file", zap.String("path", path))
			continue
		}

		vectors, err := e.embed(ctx, pieces)
		if err != nil {
			return added, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}

		filename := filepath.Base(path)
		chunks := make([]Chunk, len(pieces))
		for i, piece := range pieces {
			chunks[i] = Chunk{Filename: filename, Content: piece, Embedding: vectors[i]}
		}
		if err := store.Add(ctx, chunks); err != nil {
			return added, err
		}
		added = append(added, filename)
	}
	return added, nil
}

// AnswerStream retrieves context from the index and streams a generated
// answer. Each partial carries the accumulated text; the final one adds the
// ranked sources.
func (e *OpenAIEngine) AnswerStream(ctx context.Context, query, indexDir string, history domain.History) (<-chan Partial, error) {
	store, err := OpenChunkStore(indexDir)
	if err != nil {
		return nil, err
	}

	queryVec, err := e.embed(ctx, []string{query})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	hits, err := store.Search(ctx, queryVec[0], e.cfg.TopK)
	store.Close()
	if err != nil {
		return nil, err
	}

	sources := make([]domain.Source, 0, len(hits))
	contextParts := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < e.cfg.ScoreThreshold {
			continue
		}
		sources = append(sources, domain.Source{
			Filename: hit.Filename,
			Content:  hit.Content,
			Score:    hit.Score,
		})
		contextParts = append(contextParts, hit.Content)
	}

	prompt := fmt.Sprintf(knowledgePrompt, strings.Join(contextParts, "\n"), query)
	stream, err := e.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    e.cfg.ChatModel,
		Messages: buildMessages(history, prompt),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	ch := make(chan Partial, 16)
	go func() {
		defer close(ch)
		defer stream.Close()

		// send gives up when the consumer is gone, so an abandoned stream
		// cannot strand this goroutine on a full channel.
		send := func(p Partial) bool {
			select {
			case ch <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var accumulated strings.Builder
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				send(Partial{Answer: accumulated.String(), Sources: sources, Final: true})
				return
			}
			if err != nil {
				send(Partial{Answer: accumulated.String(), Err: fmt.Errorf("%w: %v", domain.ErrUpstream, err)})
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			accumulated.WriteString(resp.Choices[0].Delta.Content)
			if !send(Partial{Answer: accumulated.String()}) {
				return
			}
		}
	}()
	return ch, nil
}

// AnswerDirect answers conversationally without retrieval.
func (e *OpenAIEngine) AnswerDirect(ctx context.Context, query string, history domain.History) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    e.cfg.ChatModel,
		Messages: buildMessages(history, query),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func (e *OpenAIEngine) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// buildMessages converts history turns plus the current prompt into chat
// completion messages.
func buildMessages(history domain.History, prompt string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2*len(history)+1)
	for _, turn := range history {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.Question()},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Answer()},
		)
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}
