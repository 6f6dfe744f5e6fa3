package interview

import (
	"github.com/tiktoken-go/tokenizer"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// ContextWindow bounds what a long interview sends to the conversational
// model: a sliding window of the most recent messages. Summarization of the
// dropped messages is the extractor's job, folded back in through the
// system prompt by the orchestrator.
type ContextWindow struct {
	maxMessages        int
	extractionInterval int
	codec              tokenizer.Codec
}

// NewContextWindow creates a context window with the given sliding-window
// size and extraction interval (in exchanges). Non-positive values fall
// back to the defaults of 30 messages and 10 exchanges.
func NewContextWindow(maxMessages, extractionInterval int) *ContextWindow {
	if maxMessages <= 0 {
		maxMessages = 30
	}
	if extractionInterval <= 0 {
		extractionInterval = 10
	}
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		codec = nil
	}
	return &ContextWindow{
		maxMessages:        maxMessages,
		extractionInterval: extractionInterval,
		codec:              codec,
	}
}

// Build returns the bounded, ordered role/content sequence for the model:
// the last maxMessages messages when the history is longer, the whole
// history otherwise. The knowledge record is accepted for future use but
// does not currently alter the window. Pure function of its inputs.
func (c *ContextWindow) Build(history []models.Message, knowledge *models.KnowledgeRecord) []models.ChatMessage {
	windowed := history
	if len(history) > c.maxMessages {
		windowed = history[len(history)-c.maxMessages:]
	}
	return models.ChatHistory(windowed)
}

// ShouldExtract reports whether an extraction pass should run after the
// session reaches messageCount messages. An exchange is one user plus one
// assistant message; extraction fires every extractionInterval exchanges,
// never on an empty session.
func (c *ContextWindow) ShouldExtract(messageCount int) bool {
	exchanges := messageCount / 2
	return exchanges > 0 && exchanges%c.extractionInterval == 0
}

// EstimateTokens estimates the token count of a message sequence using the
// cl100k encoding, falling back to the chars/4 heuristic when the encoding
// is unavailable.
func (c *ContextWindow) EstimateTokens(messages []models.ChatMessage) int {
	total := 0
	for _, m := range messages {
		if c.codec != nil {
			if ids, _, err := c.codec.Encode(m.Content); err == nil {
				total += len(ids)
				continue
			}
		}
		total += len(m.Content) / 4
	}
	return total
}
