// Package export writes interview sessions to archival JSON and
// markdown files.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/internal/interview"
	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

// Exporter reads sessions from the stores and writes export files into
// the output directory.
type Exporter struct {
	sessions    interview.SessionStore
	messages    interview.MessageStore
	extractions interview.ExtractionStore
	outDir      string
}

// NewExporter creates an Exporter writing into outDir.
func NewExporter(sessions interview.SessionStore, messages interview.MessageStore, extractions interview.ExtractionStore, outDir string) *Exporter {
	return &Exporter{
		sessions:    sessions,
		messages:    messages,
		extractions: extractions,
		outDir:      outDir,
	}
}

type exportedMessage struct {
	Role      models.MessageRole `json:"role"`
	Content   string             `json:"content"`
	CreatedAt string             `json:"created_at"`
}

type exportedExtraction struct {
	ExtractionData    *models.KnowledgeRecord `json:"extraction_data"`
	MessageRangeStart int                     `json:"message_range_start"`
	MessageRangeEnd   int                     `json:"message_range_end"`
	CreatedAt         string                  `json:"created_at"`
}

type exportedSession struct {
	ID                    string   `json:"id"`
	ExpertName            string   `json:"expert_name"`
	ExpertCallsign        string   `json:"expert_callsign,omitempty"`
	VoicePreset           string   `json:"voice_preset"`
	SpeechRate            float64  `json:"speech_rate"`
	Status                string   `json:"status"`
	Topics                []string `json:"topics,omitempty"`
	CreatedAt             string   `json:"created_at"`
	EndedAt               string   `json:"ended_at,omitempty"`
	MessageCount          int      `json:"message_count"`
	TotalCharsSynthesized int64    `json:"total_chars_synthesized"`
	EstimatedCost         float64  `json:"estimated_cost"`
}

type sessionExport struct {
	ExportDate  string                  `json:"export_date"`
	Session     exportedSession         `json:"session"`
	Messages    []exportedMessage       `json:"messages"`
	Extractions []exportedExtraction    `json:"extractions"`
	Knowledge   *models.KnowledgeRecord `json:"knowledge"`
}

// ExportSession writes one session with its messages, extraction audit
// trail and merged knowledge to a JSON file. Returns the file path.
func (e *Exporter) ExportSession(ctx context.Context, sessionID string) (string, error) {
	export, sess, err := e.collect(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create exports dir: %w", err)
	}

	path := filepath.Join(e.outDir, exportFilename(sess, "json"))
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	log.Info().Str("sessionId", sessionID).Str("path", path).Msg("exported session")
	return path, nil
}

// ExportAll exports every completed session and returns the written
// file paths.
func (e *Exporter) ExportAll(ctx context.Context) ([]string, error) {
	sessions, err := e.sessions.List(ctx, string(models.SessionStatusCompleted))
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		path, err := e.ExportSession(ctx, sess.ID)
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", sess.ID, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ExportMarkdown writes a human-readable transcript with the captured
// knowledge appended. Returns the file path.
func (e *Exporter) ExportMarkdown(ctx context.Context, sessionID string) (string, error) {
	export, sess, err := e.collect(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create exports dir: %w", err)
	}

	path := filepath.Join(e.outDir, exportFilename(sess, "md"))
	if err := os.WriteFile(path, []byte(renderMarkdown(export)), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	log.Info().Str("sessionId", sessionID).Str("path", path).Msg("exported transcript")
	return path, nil
}

func (e *Exporter) collect(ctx context.Context, sessionID string) (*sessionExport, *models.Session, error) {
	sess, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := e.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	audits, err := e.extractions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	export := &sessionExport{
		ExportDate: time.Now().Format(time.RFC3339),
		Session: exportedSession{
			ID:                    sess.ID,
			ExpertName:            sess.ExpertName,
			ExpertCallsign:        sess.ExpertCallsign.String,
			VoicePreset:           sess.VoicePreset,
			SpeechRate:            sess.SpeechRate,
			Status:                string(sess.Status),
			Topics:                sess.Topics,
			CreatedAt:             sess.CreatedAt,
			EndedAt:               sess.EndedAt.String,
			MessageCount:          sess.MessageCount,
			TotalCharsSynthesized: sess.TotalCharsSynthesized,
			EstimatedCost:         sess.EstimatedCost,
		},
		Messages:    make([]exportedMessage, 0, len(msgs)),
		Extractions: make([]exportedExtraction, 0, len(audits)),
		Knowledge:   sess.Knowledge,
	}
	for _, m := range msgs {
		export.Messages = append(export.Messages, exportedMessage{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	for _, a := range audits {
		export.Extractions = append(export.Extractions, exportedExtraction{
			ExtractionData:    a.Data,
			MessageRangeStart: a.MessageRangeStart,
			MessageRangeEnd:   a.MessageRangeEnd,
			CreatedAt:         a.CreatedAt,
		})
	}
	return export, sess, nil
}

// exportFilename builds "<Expert_Name>_<id prefix>.<ext>".
func exportFilename(sess *models.Session, ext string) string {
	name := sess.ExpertName
	if name == "" {
		name = "Unknown"
	}
	name = strings.ReplaceAll(name, " ", "_")

	id := sess.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s.%s", name, id, ext)
}

func renderMarkdown(export *sessionExport) string {
	var sb strings.Builder
	s := export.Session

	sb.WriteString("# Interview: " + s.ExpertName)
	if s.ExpertCallsign != "" {
		sb.WriteString(" (" + s.ExpertCallsign + ")")
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("- Session: %s\n", s.ID))
	sb.WriteString(fmt.Sprintf("- Status: %s\n", s.Status))
	sb.WriteString(fmt.Sprintf("- Started: %s\n", s.CreatedAt))
	if s.EndedAt != "" {
		sb.WriteString(fmt.Sprintf("- Ended: %s\n", s.EndedAt))
	}
	if len(s.Topics) > 0 {
		sb.WriteString(fmt.Sprintf("- Topics: %s\n", strings.Join(s.Topics, ", ")))
	}
	sb.WriteString("\n## Transcript\n\n")

	for _, m := range export.Messages {
		speaker := "Interviewer"
		if m.Role == models.RoleUser {
			speaker = "Expert"
		}
		sb.WriteString(fmt.Sprintf("**%s:** %s\n\n", speaker, m.Content))
	}

	k := export.Knowledge
	if k == nil || k.IsEmpty() {
		return sb.String()
	}

	sb.WriteString("## Captured Knowledge\n\n")
	if len(k.TopicsDiscussed) > 0 {
		sb.WriteString("### Topics Discussed\n\n")
		for _, t := range k.TopicsDiscussed {
			sb.WriteString("- " + t + "\n")
		}
		sb.WriteString("\n")
	}
	if len(k.KeyInsights) > 0 {
		sb.WriteString("### Key Insights\n\n")
		for _, i := range k.KeyInsights {
			sb.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", i.Topic, i.Importance, i.Insight))
			if i.SourceQuote != "" {
				sb.WriteString(fmt.Sprintf("  > %s\n", i.SourceQuote))
			}
		}
		sb.WriteString("\n")
	}
	if len(k.PeopleMentioned) > 0 {
		sb.WriteString("### People Mentioned\n\n")
		for _, p := range k.PeopleMentioned {
			line := "- " + p.Name
			if p.Callsign != "" {
				line += " (" + p.Callsign + ")"
			}
			if p.Context != "" {
				line += ": " + p.Context
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
	if len(k.TechnicalDetails) > 0 {
		sb.WriteString("### Technical Details\n\n")
		for _, d := range k.TechnicalDetails {
			sb.WriteString(fmt.Sprintf("- **%s**: %s", d.System, d.Detail))
			if d.Rationale != "" {
				sb.WriteString(" (" + d.Rationale + ")")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if len(k.LessonsLearned) > 0 {
		sb.WriteString("### Lessons Learned\n\n")
		for _, l := range k.LessonsLearned {
			sb.WriteString("- " + l + "\n")
		}
		sb.WriteString("\n")
	}
	if len(k.OpenQuestions) > 0 {
		sb.WriteString("### Open Questions\n\n")
		for _, q := range k.OpenQuestions {
			sb.WriteString("- " + q + "\n")
		}
		sb.WriteString("\n")
	}
	if len(k.FollowUpTopics) > 0 {
		sb.WriteString("### Follow-Up Topics\n\n")
		for _, f := range k.FollowUpTopics {
			sb.WriteString("- " + f + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
