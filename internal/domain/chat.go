package domain

import "fmt"

// Turn is one completed question/answer exchange. It serializes as a
// two-element JSON array so a conversation history reads as
// [["question", "answer"], ...] on the wire.
type Turn [2]string

// NewTurn builds a turn from a question and its answer.
func NewTurn(question, answer string) Turn {
	return Turn{question, answer}
}

// Question returns the question half of the turn.
func (t Turn) Question() string { return t[0] }

// Answer returns the answer half of the turn.
func (t Turn) Answer() string { return t[1] }

// History is the ordered list of prior turns in a conversation.
type History []Turn

// ChatRequest is the request for a single-shot knowledge-base chat.
type ChatRequest struct {
	KnowledgeBaseID string  `json:"knowledge_base_id" binding:"required"`
	Question        string  `json:"question" binding:"required"`
	History         History `json:"history"`
}

// DirectChatRequest is the request for a chat without retrieval.
type DirectChatRequest struct {
	Question string  `json:"question" binding:"required"`
	History  History `json:"history"`
}

// ChatMessage is the response for a completed chat exchange.
type ChatMessage struct {
	Question        string   `json:"question"`
	Response        string   `json:"response"`
	History         History  `json:"history"`
	SourceDocuments []string `json:"source_documents"`
}

// Source is a citation linking an answer back to an originating document.
type Source struct {
	Filename string  `json:"filename"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// Render formats the source as a single citation block, numbered from 1.
func (s Source) Render(ordinal int) string {
	return fmt.Sprintf("出处 [%d] %s：\n\n%s\n\n相关度：%v\n\n", ordinal, s.Filename, s.Content, s.Score)
}

// RenderSources formats a ranked source list into citation blocks.
func RenderSources(sources []Source) []string {
	rendered := make([]string, len(sources))
	for i, s := range sources {
		rendered[i] = s.Render(i + 1)
	}
	return rendered
}

// Stream flag values for control frames around a streamed turn.
const (
	StreamFlagStart = "start"
	StreamFlagEnd   = "end"
)

// StreamControl is the JSON control frame bracketing one streamed turn.
// The doubled "sources_documents" key is the wire shape existing stream
// clients parse; the single-shot response keeps "source_documents".
type StreamControl struct {
	Question        string   `json:"question"`
	Turn            int      `json:"turn"`
	Flag            string   `json:"flag"`
	SourceDocuments []string `json:"sources_documents,omitempty"`
}

// StreamError is the single frame sent before closing a stream on failure.
type StreamError struct {
	Error string `json:"error"`
}
