package models

import (
	"database/sql/driver"
	"fmt"

	json "github.com/goccy/go-json"
)

// InsightImportance rates how valuable an extracted insight is.
type InsightImportance string

const (
	ImportanceHigh   InsightImportance = "high"
	ImportanceMedium InsightImportance = "medium"
	ImportanceLow    InsightImportance = "low"
)

// Insight is one piece of knowledge tied to a specific topic.
type Insight struct {
	Topic       string            `json:"topic"`
	Insight     string            `json:"insight"`
	SourceQuote string            `json:"source_quote,omitempty"`
	Importance  InsightImportance `json:"importance,omitempty"`
}

// Person is someone the expert mentioned during the interview.
type Person struct {
	Name     string `json:"name"`
	Callsign string `json:"callsign,omitempty"`
	Context  string `json:"context,omitempty"`
}

// TechnicalDetail captures a specific implementation fact and its rationale.
type TechnicalDetail struct {
	System    string `json:"system"`
	Detail    string `json:"detail"`
	Rationale string `json:"rationale,omitempty"`
}

// KnowledgeRecord is the cumulative structured summary of a session.
// Topics, insights, people, technical details and lessons accumulate across
// extractions; open questions and follow-up topics hold only the latest
// snapshot.
type KnowledgeRecord struct {
	TopicsDiscussed  []string          `json:"topics_discussed"`
	KeyInsights      []Insight         `json:"key_insights"`
	PeopleMentioned  []Person          `json:"people_mentioned"`
	TechnicalDetails []TechnicalDetail `json:"technical_details"`
	LessonsLearned   []string          `json:"lessons_learned"`
	OpenQuestions    []string          `json:"open_questions"`
	FollowUpTopics   []string          `json:"follow_up_topics"`
}

// EmptyKnowledgeRecord returns a record with every category initialized to
// an empty list, the shape returned when extraction parsing fails.
func EmptyKnowledgeRecord() *KnowledgeRecord {
	return &KnowledgeRecord{
		TopicsDiscussed:  []string{},
		KeyInsights:      []Insight{},
		PeopleMentioned:  []Person{},
		TechnicalDetails: []TechnicalDetail{},
		LessonsLearned:   []string{},
		OpenQuestions:    []string{},
		FollowUpTopics:   []string{},
	}
}

// IsEmpty reports whether no category holds any entries.
func (k *KnowledgeRecord) IsEmpty() bool {
	if k == nil {
		return true
	}
	return len(k.TopicsDiscussed) == 0 &&
		len(k.KeyInsights) == 0 &&
		len(k.PeopleMentioned) == 0 &&
		len(k.TechnicalDetails) == 0 &&
		len(k.LessonsLearned) == 0 &&
		len(k.OpenQuestions) == 0 &&
		len(k.FollowUpTopics) == 0
}

// Value implements driver.Valuer so the record can live as JSON text inside
// the session row.
func (k *KnowledgeRecord) Value() (driver.Value, error) {
	if k == nil {
		return nil, nil
	}
	b, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (k *KnowledgeRecord) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for KnowledgeRecord: %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, k)
}
