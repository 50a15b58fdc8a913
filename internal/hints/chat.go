package hints

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ChatFallback answers when the model is unavailable.
const ChatFallback = "I'm sorry, I'm having trouble responding right now. Please try again in a moment. 💕"

// ChatRequest is a question for the relationship coach plus what is known
// about the asker.
type ChatRequest struct {
	Message     string
	HasPartner  bool
	PartnerName string
	// RecentMoods holds the asker's latest mood labels, newest first.
	RecentMoods []string
}

type Reply struct {
	Text   string    `json:"response"`
	Source string    `json:"source"`
	At     time.Time `json:"timestamp"`
}

// Chat answers a coaching question, falling back to ChatFallback when the
// model is not configured or fails.
func (s *Service) Chat(ctx context.Context, req ChatRequest) Reply {
	reply := Reply{Text: ChatFallback, Source: SourceFallback}
	if s.models != nil {
		text, err := s.complete(ctx, ChatPrompt(req), &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.8),
			MaxOutputTokens: 300,
		})
		if err == nil {
			reply = Reply{Text: text, Source: SourceAI}
		} else {
			slog.Warn("chat reply generation failed", "action", "chat", "error", err.Error())
		}
	}
	reply.At = time.Now().UTC()
	return reply
}

// ChatPrompt renders the coaching instruction and the question.
func ChatPrompt(req ChatRequest) string {
	var b strings.Builder
	b.WriteString(`You are a caring, supportive relationship assistant and love coach. You help couples build stronger, healthier relationships with empathy and wisdom.

Guidelines:
- Be warm, supportive, and non-judgmental
- Give practical, actionable advice
- Keep responses concise but meaningful (2-4 sentences max)
- Focus on healthy communication and emotional connection
- Respect privacy and boundaries
- If asked about serious issues (abuse, safety), encourage professional help
- Use gentle, caring language with occasional heart emojis 💕

User context:`)

	if req.HasPartner {
		b.WriteString("\n- User has a partner")
		if req.PartnerName != "" {
			fmt.Fprintf(&b, " named %s", req.PartnerName)
		}
		if len(req.RecentMoods) > 0 {
			b.WriteString("\n- Recent mood patterns: " + strings.Join(req.RecentMoods, ", "))
		}
	} else {
		b.WriteString("\n- User might be single or looking for relationship advice")
	}

	b.WriteString("\n\nPlease provide helpful, caring relationship advice based on their question.")
	b.WriteString("\n\nUser Question: " + req.Message)
	return b.String()
}
