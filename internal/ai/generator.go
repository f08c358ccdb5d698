// internal/ai/generator.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kmbertalan/turing-lobby/internal/models"
)

// Generator is the external text-generation collaborator. Implementations
// must tolerate failure; callers degrade to "no AI message this turn" and
// never surface generation errors to the human.
type Generator interface {
	GenerateReply(ctx context.Context, personality models.Personality, history []models.Message) (string, error)
	GenerateGreeting(ctx context.Context, personality models.Personality) (string, error)
}

// personalityPrompts conditions the model per personality tag. The prompts
// bias response length, formality and imperfection injection; the
// orchestrator is agnostic to how the model honors them.
var personalityPrompts = map[models.Personality]string{
	models.PersonalityNormal:     "You are a casual, friendly human chatting in a Turing test game. Respond naturally like a real person would in a short text conversation. Use casual language, occasional typos or abbreviations are okay. Keep responses brief (1-2 sentences usually). Never reveal you are an AI.",
	models.PersonalityQuirky:     "You are a quirky, slightly odd but endearing person. You have unusual interests and hobbies. You sometimes make slightly weird observations or references. You're still trying to seem human but you're a bit eccentric. Keep responses brief. Never reveal you are an AI.",
	models.PersonalityTooPerfect: "You are trying to act human but you're slightly too formal and well-spoken. Your grammar is impeccable, maybe too good. You respond thoughtfully and articulately, which might make you seem suspicious in a Turing test. Keep responses brief. Never reveal you are an AI.",
	models.PersonalitySuspicious: "You are trying to act human but occasionally slip up - you might respond a bit too fast, or give slightly odd answers to simple questions, or be vague about personal details. You're trying to blend in but seem a bit off. Keep responses brief. Never reveal you are an AI.",
}

var greetingPrompts = map[models.Personality]string{
	models.PersonalityNormal:     "You are a casual person starting a conversation. Write a short, natural greeting (1 sentence) like you're saying hi to a stranger online.",
	models.PersonalityQuirky:     "You are an eccentric, quirky person starting a conversation. Write a short, slightly weird greeting (1 sentence) that shows your odd personality.",
	models.PersonalityTooPerfect: "You are a very formal, articulate person trying to sound normal but being too proper. Write a short greeting (1 sentence) that sounds overly polished and formal.",
	models.PersonalitySuspicious: "You are someone trying to blend in but seeming a bit off. Write a short greeting (1 sentence) that sounds slightly vague or unnatural.",
}

// GroqClient talks to the Groq OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewGroqClient reads GROQ_API_KEY and GROQ_MODEL (default
// "llama-3.1-8b-instant") from the environment.
func NewGroqClient() *GroqClient {
	model := os.Getenv("GROQ_MODEL")
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return &GroqClient{
		apiKey:  os.Getenv("GROQ_API_KEY"),
		model:   model,
		baseURL: "https://api.groq.com/openai/v1",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateReply maps the conversation so far onto chat roles (AI messages
// become assistant turns) and asks for the next turn.
func (c *GroqClient) GenerateReply(ctx context.Context, personality models.Personality, history []models.Message) (string, error) {
	msgs := []chatMessage{{Role: "system", Content: personalityPrompts[personality]}}
	for _, m := range history {
		role := "user"
		if m.SenderID == models.AISenderID {
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: m.Content})
	}

	content, err := c.complete(ctx, chatRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   100,
		Temperature: 0.8,
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		content = "..."
	}
	return content, nil
}

func (c *GroqClient) GenerateGreeting(ctx context.Context, personality models.Personality) (string, error) {
	content, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: greetingPrompts[personality]},
			{Role: "user", Content: "Say hello to start the conversation."},
		},
		MaxTokens:   50,
		Temperature: 0.8,
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		content = "Hey there!"
	}
	return content, nil
}

func (c *GroqClient) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
