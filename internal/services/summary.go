package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/solace/solace-backend/internal/config"
	"github.com/solace/solace-backend/internal/milestones"
	"github.com/solace/solace-backend/internal/models"
)

// SummaryService produces an optional reflective narrative of a
// finalized session using a chat completion. Without an API key, or
// when the completion fails, it falls back to the heuristic milestone
// summary so callers always get text.
type SummaryService struct {
	client *openai.Client
	model  string
	log    *logrus.Logger
}

// NewSummaryService creates a summary service. An empty API key
// disables the completion path.
func NewSummaryService(cfg config.SummaryConfig, log *logrus.Logger) *SummaryService {
	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}
	return &SummaryService{
		client: client,
		model:  cfg.Model,
		log:    log,
	}
}

// Reflect returns a short reflective summary of the session.
func (s *SummaryService) Reflect(ctx context.Context, sess *models.Session) string {
	fallback := milestones.Summarize(sess.Milestones)
	if s.client == nil || len(sess.Transcript) == 0 {
		return fallback
	}

	var conversation strings.Builder
	for _, entry := range sess.Transcript {
		conversation.WriteString(fmt.Sprintf("%s: %s\n", entry.Speaker, entry.Content))
	}

	prompt := fmt.Sprintf(`Write a short, warm reflection (2-3 sentences) on this therapy conversation for the person who had it. Speak directly to them, highlight any progress you see, and avoid clinical language.

Conversation:
%s`, conversation.String())

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		s.log.WithError(err).Warn("Reflection completion failed, using heuristic summary")
		return fallback
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return fallback
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
