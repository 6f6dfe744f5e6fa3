package interview

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// extractionMaxTokens bounds the extraction reply independent of the
// interview reply budget.
const extractionMaxTokens = 1000

// Extractor turns a raw conversation segment into the structured knowledge
// shape and merges it losslessly with prior knowledge.
type Extractor struct {
	model ModelClient
}

// NewExtractor creates an extractor backed by the given model client.
func NewExtractor(model ModelClient) *Extractor {
	return &Extractor{model: model}
}

// Extract sends a conversation segment to the model with the fixed
// extraction schema prompt and parses its structured reply. A reply that is
// not valid JSON is recovered by parsing the substring between the first
// '{' and last '}'; if that also fails the empty record is returned, never
// an error - extraction failures must not abort the interview turn.
func (e *Extractor) Extract(ctx context.Context, segment []models.ChatMessage, existing *models.KnowledgeRecord) (*models.KnowledgeRecord, error) {
	prompt := buildExtractionPrompt(segment, existing)

	reply, err := e.model.SendMessage(ctx,
		[]models.ChatMessage{{Role: models.RoleUser, Content: prompt}},
		ExtractorSystemPrompt, extractionMaxTokens)
	if err != nil {
		return nil, err
	}

	return parseExtraction(reply), nil
}

// buildExtractionPrompt embeds the formatted segment and a serialized
// snapshot of existing knowledge (for context, explicitly not to repeat).
func buildExtractionPrompt(segment []models.ChatMessage, existing *models.KnowledgeRecord) string {
	existingJSON := "None yet"
	if existing != nil {
		if b, err := json.MarshalIndent(existing, "", "  "); err == nil {
			existingJSON = string(b)
		}
	}

	return fmt.Sprintf(`Please extract structured knowledge from this interview segment.

## CONVERSATION SEGMENT
%s

## EXISTING KNOWLEDGE (for context, don't repeat)
%s

Please respond with a JSON object containing:
- topics_discussed: array of topic strings
- key_insights: array of {topic, insight, source_quote, importance}
- people_mentioned: array of {name, callsign, context}
- technical_details: array of {system, detail, rationale}
- lessons_learned: array of strings
- open_questions: array of strings
- follow_up_topics: array of strings

Respond ONLY with valid JSON, no other text.`, FormatConversation(segment), existingJSON)
}

// FormatConversation renders a segment as alternating Expert/Interviewer
// labeled lines. The expert is the "user" side of the conversation.
func FormatConversation(segment []models.ChatMessage) string {
	lines := make([]string, len(segment))
	for i, m := range segment {
		speaker := "Interviewer"
		if m.Role == models.RoleUser {
			speaker = "Expert"
		}
		lines[i] = speaker + ": " + m.Content
	}
	return strings.Join(lines, "\n\n")
}

// parseExtraction parses the model reply, attempting brace-substring
// recovery before downgrading to the empty record.
func parseExtraction(reply string) *models.KnowledgeRecord {
	var k models.KnowledgeRecord
	if err := json.Unmarshal([]byte(reply), &k); err == nil {
		return &k
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start != -1 && end > start {
		var recovered models.KnowledgeRecord
		if err := json.Unmarshal([]byte(reply[start:end+1]), &recovered); err == nil {
			return &recovered
		}
	}

	log.Warn().Int("replyLen", len(reply)).Msg("extraction reply was not valid JSON, returning empty record")
	return models.EmptyKnowledgeRecord()
}

// Merge combines new extraction output with existing knowledge. Topics and
// lessons union with case-insensitive dedup preserving first-seen order and
// casing; insights dedup by topic and people by name (existing wins);
// technical details concatenate; open questions and follow-up topics are
// replaced wholesale by the new snapshot. Re-merging the same payload is a
// no-op for the dedup fields and stable for the replace fields.
func Merge(existing, incoming *models.KnowledgeRecord) *models.KnowledgeRecord {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	return &models.KnowledgeRecord{
		TopicsDiscussed:  mergeUnique(existing.TopicsDiscussed, incoming.TopicsDiscussed),
		KeyInsights:      mergeInsights(existing.KeyInsights, incoming.KeyInsights),
		PeopleMentioned:  mergePeople(existing.PeopleMentioned, incoming.PeopleMentioned),
		TechnicalDetails: append(append([]models.TechnicalDetail{}, existing.TechnicalDetails...), incoming.TechnicalDetails...),
		LessonsLearned:   mergeUnique(existing.LessonsLearned, incoming.LessonsLearned),
		OpenQuestions:    incoming.OpenQuestions,
		FollowUpTopics:   incoming.FollowUpTopics,
	}
}

// mergeUnique unions two lists with case-insensitive dedup; the first-seen
// casing and order win.
func mergeUnique(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))
	for _, item := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// mergeInsights appends new insights whose topic is not already present.
func mergeInsights(existing, incoming []models.Insight) []models.Insight {
	seen := make(map[string]struct{}, len(existing))
	for _, i := range existing {
		seen[strings.ToLower(i.Topic)] = struct{}{}
	}
	result := append([]models.Insight{}, existing...)
	for _, i := range incoming {
		key := strings.ToLower(i.Topic)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, i)
	}
	return result
}

// mergePeople appends new people whose name is not already present.
func mergePeople(existing, incoming []models.Person) []models.Person {
	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[strings.ToLower(p.Name)] = struct{}{}
	}
	result := append([]models.Person{}, existing...)
	for _, p := range incoming {
		key := strings.ToLower(p.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, p)
	}
	return result
}
