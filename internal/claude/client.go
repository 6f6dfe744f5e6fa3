// Package claude wraps the Anthropic API for interview use.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// Client sends conversation turns to the Anthropic Messages API.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// Config holds the configuration for the Anthropic client.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// NewClient creates a new Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// SendMessage sends a message sequence to the model and returns the reply
// text. Provider errors are surfaced verbatim; the caller decides what a
// failed call means for the turn.
func (c *Client) SendMessage(ctx context.Context, messages []models.ChatMessage, systemPrompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  toParams(messages),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		sb.WriteString(block.Text)
	}
	return sb.String(), nil
}

// SendWithContext sends recent conversation messages with the interviewer
// system prompt, folding a rendered summary of extracted knowledge into the
// system context so the model remembers what the sliding window dropped.
func (c *Client) SendWithContext(ctx context.Context, messages []models.ChatMessage, systemPrompt string, knowledge *models.KnowledgeRecord, maxTokens int) (string, error) {
	fullSystem := systemPrompt
	if knowledge != nil && !knowledge.IsEmpty() {
		fullSystem = systemPrompt + "\n\n## KNOWLEDGE CAPTURED SO FAR\n" + FormatKnowledge(knowledge)
	}
	return c.SendMessage(ctx, messages, fullSystem, maxTokens)
}

// FormatKnowledge renders a knowledge record for inclusion in the system
// prompt: topics, top-5 insights, people, and top-3 open questions. Empty
// sections are omitted.
func FormatKnowledge(k *models.KnowledgeRecord) string {
	if k == nil {
		return "No knowledge extracted yet."
	}

	var sections []string

	if len(k.TopicsDiscussed) > 0 {
		sections = append(sections, "Topics: "+strings.Join(k.TopicsDiscussed, ", "))
	}

	if len(k.KeyInsights) > 0 {
		insights := k.KeyInsights
		if len(insights) > 5 {
			insights = insights[:5]
		}
		lines := make([]string, len(insights))
		for i, ins := range insights {
			lines[i] = fmt.Sprintf("- %s: %s", ins.Topic, ins.Insight)
		}
		sections = append(sections, "Key Insights:\n"+strings.Join(lines, "\n"))
	}

	if len(k.PeopleMentioned) > 0 {
		lines := make([]string, len(k.PeopleMentioned))
		for i, p := range k.PeopleMentioned {
			callsign := p.Callsign
			if callsign == "" {
				callsign = "N/A"
			}
			lines[i] = fmt.Sprintf("- %s (%s)", p.Name, callsign)
		}
		sections = append(sections, "People Mentioned:\n"+strings.Join(lines, "\n"))
	}

	if len(k.OpenQuestions) > 0 {
		questions := k.OpenQuestions
		if len(questions) > 3 {
			questions = questions[:3]
		}
		lines := make([]string, len(questions))
		for i, q := range questions {
			lines[i] = "- " + q
		}
		sections = append(sections, "Questions to Follow Up:\n"+strings.Join(lines, "\n"))
	}

	if len(sections) == 0 {
		return "No knowledge extracted yet."
	}
	return strings.Join(sections, "\n\n")
}

func toParams(messages []models.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
