package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Alex-Pennington/MARS-History-Project/internal/auth"
	"github.com/Alex-Pennington/MARS-History-Project/internal/config"
	dbgorm "github.com/Alex-Pennington/MARS-History-Project/internal/db/gorm"
	"github.com/Alex-Pennington/MARS-History-Project/internal/interview"
	"github.com/Alex-Pennington/MARS-History-Project/pkg/models"
)

type createSessionRequest struct {
	ExpertName     string   `json:"expert_name"`
	ExpertCallsign string   `json:"expert_callsign"`
	Topics         []string `json:"topics"`
	VoicePreset    string   `json:"voice_preset"`
	SpeechRate     float64  `json:"speech_rate"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type authRequest struct {
	Token string `json:"token"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        "mars-history-project",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}

func (s *Service) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	info, ok := s.tokens.Validate(strings.TrimSpace(req.Token))
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"name":     info.Name,
		"callsign": info.Callsign,
	})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.ExpertName = strings.TrimSpace(req.ExpertName)
	if req.ExpertName == "" {
		writeError(w, http.StatusBadRequest, "expert_name is required")
		return
	}

	preset := req.VoicePreset
	if _, ok := config.VoicePresets[preset]; !ok {
		preset = s.config.DefaultVoice
	}

	rate := req.SpeechRate
	if rate == 0 {
		rate = s.config.DefaultSpeechRate
	}
	if rate < 0.5 {
		rate = 0.5
	}
	if rate > 1.5 {
		rate = 1.5
	}

	created, err := s.manager.CreateSession(r.Context(), models.SessionParams{
		ExpertName:     req.ExpertName,
		ExpertCallsign: req.ExpertCallsign,
		Topics:         req.Topics,
		VoicePreset:    preset,
		SpeechRate:     rate,
	})
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	if token, ok := auth.TokenFromContext(r.Context()); ok {
		s.tokens.IncrementSessions(token)
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.manager.ListSessions(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	list := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		list = append(list, map[string]any{
			"id":              sess.ID,
			"expert_name":     sess.ExpertName,
			"expert_callsign": sess.ExpertCallsign.String,
			"status":          sess.Status,
			"message_count":   sess.MessageCount,
			"created_at":      sess.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.manager.GetTranscript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Service) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.manager.ProcessTurn(r.Context(), chi.URLParam(r, "id"), text)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) handleEndSession(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.EndSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := s.manager.DeleteSession(r.Context(), sessionID); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":    true,
		"session_id": sessionID,
	})
}

func (s *Service) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, msgs, err := s.manager.GetTranscript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	messages := make([]*models.Message, 0, len(msgs))
	for i := range msgs {
		messages = append(messages, &msgs[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      sess.ID,
		"expert_name":     sess.ExpertName,
		"expert_callsign": sess.ExpertCallsign.String,
		"created_at":      sess.CreatedAt,
		"messages":        messages,
	})
}

func (s *Service) handleExtraction(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	knowledge, err := s.manager.GetKnowledge(r.Context(), sessionID)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		SessionID string `json:"session_id"`
		*models.KnowledgeRecord
	}{SessionID: sessionID, KnowledgeRecord: knowledge})
}

// handleExtractionHistory returns the raw per-pass extraction audit
// trail, as opposed to the merged record served by handleExtraction.
func (s *Service) handleExtractionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	audits, err := s.manager.GetExtractions(r.Context(), sessionID)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  sessionID,
		"extractions": audits,
	})
}

func (s *Service) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"voices":  config.VoicePresets,
		"default": s.config.DefaultVoice,
	})
}

func (s *Service) handleAudio(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(chi.URLParam(r, "filename"))
	path := filepath.Join(s.config.AudioCacheDir, filename)

	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "Audio file not found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

// writeManagerError maps orchestrator errors onto HTTP statuses: unknown
// sessions are 404, upstream provider failures are 502, anything else 500.
func (s *Service) writeManagerError(w http.ResponseWriter, err error) {
	if errors.Is(err, dbgorm.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var provErr *interview.ProviderError
	if errors.As(err, &provErr) {
		log.Error().Err(err).Str("stage", provErr.Stage).Msg("provider failure")
		writeError(w, http.StatusBadGateway, provErr.Stage+" unavailable")
		return
	}

	log.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
