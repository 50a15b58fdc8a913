// Package hints suggests how a partner can respond to a logged mood.
package hints

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

// DefaultHint is used when neither the model nor the static table has an
// answer.
const DefaultHint = "Maybe check in with them and see how they're doing 💕"

var staticHints = map[string]string{
	"in_love": "Share the glow: plan a small surprise or tell them what you love about them today.",
	"happy":   "Celebrate with them. Ask what made the day great and join in the fun.",
	"neutral": "Send a sweet message or suggest a short walk together to brighten the day.",
	"sad":     "Offer a warm hug or a call, and make time to just listen without fixing anything.",
	"upset":   "Give them a little space, then check in gently and let them vent when ready.",
}

// Recent is a previous mood used as context for the suggestion.
type Recent struct {
	MoodLabel string
	At        time.Time
}

type Request struct {
	PartnerName string
	MoodType    string
	MoodLabel   string
	Note        string
	Recent      []Recent
}

type Hint struct {
	Text   string `json:"hint"`
	Source string `json:"source"`
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Service produces hints from Gemini when configured and falls back to the
// static table on any failure.
type Service struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewService builds a hint service. An empty apiKey disables model calls.
func NewService(ctx context.Context, apiKey, model string, timeout time.Duration) (*Service, error) {
	if apiKey == "" {
		return &Service{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Service{models: client.Models, model: model, timeout: timeout}, nil
}

func (s *Service) Hint(ctx context.Context, req Request) Hint {
	if s.models != nil {
		text, err := s.generate(ctx, req)
		if err == nil {
			return Hint{Text: text, Source: SourceAI}
		}
		slog.Warn("mood hint generation failed", "action", "mood_hint", "error", err.Error())
	}
	return Fallback(req.MoodType)
}

// Fallback returns the static hint for moodType.
func Fallback(moodType string) Hint {
	if text, ok := staticHints[moodType]; ok {
		return Hint{Text: text, Source: SourceFallback}
	}
	return Hint{Text: DefaultHint, Source: SourceFallback}
}

func (s *Service) generate(ctx context.Context, req Request) (string, error) {
	text, err := s.complete(ctx, Prompt(req), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 150,
	})
	if err != nil {
		return "", err
	}
	if text = strings.Trim(text, `"'`); text == "" {
		return "", fmt.Errorf("no hint generated")
	}
	return text, nil
}

func (s *Service) complete(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no text generated")
	}
	return text, nil
}

// Prompt renders the instruction sent to the model.
func Prompt(req Request) string {
	var b strings.Builder
	name := req.PartnerName
	if name == "" {
		name = "Your partner"
	}
	fmt.Fprintf(&b, "%s just logged their mood as %q (%s)", name, req.MoodLabel, req.MoodType)
	if req.Note != "" {
		fmt.Fprintf(&b, " with the note: %q", req.Note)
	}
	if len(req.Recent) > 0 {
		recent := req.Recent
		if len(recent) > 3 {
			recent = recent[:3]
		}
		parts := make([]string, 0, len(recent))
		for _, r := range recent {
			parts = append(parts, fmt.Sprintf("%s (%s)", r.MoodLabel, r.At.Format("2006-01-02")))
		}
		b.WriteString("\n\nRecent mood pattern: " + strings.Join(parts, ", "))
	}

	return `You are a caring relationship assistant. Based on the mood information below, generate a gentle, actionable suggestion for their partner. Keep it warm, supportive, and specific. Focus on simple acts of love and care. Limit to 1-2 sentences.

Mood Context: ` + b.String() + `

Guidelines:
- If mood is positive: suggest ways to celebrate or share the joy
- If mood is sad or down: suggest comforting gestures or quality time
- If mood is upset: suggest space, listening, or de-escalation
- Suggest specific actions, not just "be supportive"

Generate a caring suggestion:`
}
