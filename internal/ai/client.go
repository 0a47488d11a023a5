// Package ai implements integration with the Gemini API. It wraps the
// language-model collaborator behind a small interface: conversational
// replies, intent classification, onboarding profile extraction, and text
// embeddings. Retry policy for transient API failures lives here, not in
// callers.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/oppscout/oppscout/internal/config"
	"github.com/oppscout/oppscout/internal/database"
	"github.com/oppscout/oppscout/internal/intent"
	"github.com/oppscout/oppscout/internal/profile"
)

// Client defines the AI operations used throughout the application.
type Client interface {
	// GenerateReply produces a conversational reply to the user's message
	// given recent conversation history.
	GenerateReply(ctx context.Context, history []database.ConversationMessage, userMessage string) (string, error)

	// ClassifyIntent classifies the user's message into a tagged reply intent.
	ClassifyIntent(ctx context.Context, history []database.ConversationMessage, userMessage string) (*intent.Intent, error)

	// ExtractBackground extracts profile field candidates from the raw
	// messages accumulated during onboarding.
	ExtractBackground(ctx context.Context, messages []string) (*profile.Background, error)

	// EmbedText returns the embedding vector for a text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

type sdkClient struct {
	genaiClient        *genai.Client
	log                *slog.Logger
	contentConfig      *genai.GenerateContentConfig
	modelName          string
	embeddingModelName string
	extractInstruction string
	maxRetries         int
	retryDelay         time.Duration
}

// NewClient creates a new Gemini AI client with the provided configuration.
func NewClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,
	}
	if cfg.Instruction != "" {
		baseCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: cfg.Instruction}}}
	}

	logger := log.With("component", "ai_client")
	logger.Info("AI client initialized successfully", "model", cfg.Model, "embedding_model", cfg.EmbeddingModel)

	return &sdkClient{
		genaiClient:        gi,
		log:                logger,
		contentConfig:      baseCfg,
		modelName:          cfg.Model,
		embeddingModelName: cfg.EmbeddingModel,
		extractInstruction: cfg.ExtractInstruction,
		maxRetries:         cfg.MaxRetries,
		retryDelay:         time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call after transient APIError", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "error", err, "code", apiErr.Code)
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

func formatHistoryEntry(m database.ConversationMessage) string {
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("2006-01-02 15:04:05"), m.Sender, m.Content)
}

func historyToContents(history []database.ConversationMessage, userMessage string) []*genai.Content {
	var contents []*genai.Content
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Sender == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(formatHistoryEntry(m), role))
	}
	contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))
	return contents
}

func (c *sdkClient) GenerateReply(ctx context.Context, history []database.ConversationMessage, userMessage string) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "history_count", len(history))

	cfg := *c.contentConfig
	resp, err := c.generateContentWithRetries(ctx, historyToContents(history, userMessage), &cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	return c.extractTextFromResponse(ctx, resp, "reply generation")
}

var intentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"kind": {
			Type:        genai.TypeString,
			Enum:        []string{"casual_chat", "new_recommendation", "new_recommendation_request", "profile_update", "advice_request"},
			Description: "The intent discriminant. Always required.",
		},
		"reply": {
			Type:        genai.TypeString,
			Description: "Conversational reply text for chat and advice intents. Empty otherwise.",
		},
		"profile_delta": {
			Type:        genai.TypeObject,
			Description: "Profile field changes. Only set for profile_update.",
			Properties: map[string]*genai.Schema{
				"username":         {Type: genai.TypeString},
				"location":         {Type: genai.TypeString},
				"timezone":         {Type: genai.TypeString},
				"bio":              {Type: genai.TypeString},
				"bio_rewrite":      {Type: genai.TypeBoolean, Description: "True only when the biography should be replaced wholesale."},
				"education":        {Type: genai.TypeString},
				"occupation":       {Type: genai.TypeString},
				"interests":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"skills":           {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"current_projects": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"goals":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
		},
		"filters": {
			Type:        genai.TypeObject,
			Description: "Recommendation filters. Only set for recommendation intents.",
			Properties: map[string]*genai.Schema{
				"top_k":           {Type: genai.TypeInteger},
				"deadline_before": {Type: genai.TypeString, Description: "RFC 3339 timestamp. Empty if unconstrained."},
			},
		},
	},
	Required: []string{"kind"},
}

func (c *sdkClient) ClassifyIntent(ctx context.Context, history []database.ConversationMessage, userMessage string) (*intent.Intent, error) {
	c.log.DebugContext(ctx, "Classifying intent", "history_count", len(history))

	cfg := *c.contentConfig
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = intentSchema

	resp, err := c.generateContentWithRetries(ctx, historyToContents(history, userMessage), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to classify intent: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp, "intent classification")
	if err != nil {
		return nil, err
	}

	in, err := intent.Parse([]byte(jsonText))
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to parse intent from Gemini response", "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid intent received: %w", err)
	}

	return in, nil
}

var backgroundSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"username": {Type: genai.TypeString, Description: "The person's first name if it can be determined. Empty otherwise."},
		"location": {Type: genai.TypeString, Description: "The most detailed location mentioned. Empty if unknown."},
		"bio":      {Type: genai.TypeString, Description: "Dense 5-6 sentence personal bio covering background, education, occupation, and interests."},
	},
	Required: []string{"username", "location", "bio"},
}

func (c *sdkClient) ExtractBackground(ctx context.Context, messages []string) (*profile.Background, error) {
	c.log.DebugContext(ctx, "Extracting background", "message_count", len(messages))

	if len(messages) == 0 {
		return &profile.Background{}, nil
	}

	var sb strings.Builder
	sb.WriteString(c.extractInstruction)
	sb.WriteString("\n\nOnboarding messages:\n")
	for _, m := range messages {
		sb.WriteString(m)
		sb.WriteString("\n")
	}

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	cfg := *c.contentConfig
	cfg.SystemInstruction = nil
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = backgroundSchema

	resp, err := c.generateContentWithRetries(ctx, contents, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract background: %w", err)
	}

	jsonText, err := c.extractTextFromResponse(ctx, resp, "background extraction")
	if err != nil {
		return nil, err
	}

	var bg profile.Background
	if err := json.Unmarshal([]byte(jsonText), &bg); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse background JSON from Gemini response", "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid background JSON received: %w", err)
	}

	return &bg, nil
}

func (c *sdkClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var resp *genai.EmbedContentResponse
	var err error
	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.EmbedContent(ctx, c.embeddingModelName, contents, nil)
		if err == nil {
			break
		}

		c.log.WarnContext(ctx, "Gemini embedding call failed", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) && i < c.maxRetries {
			time.Sleep(c.retryDelay)
			continue
		}

		return nil, fmt.Errorf("gemini embedding call failed: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("gemini embedding call failed after %d retries: %w", c.maxRetries, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		c.log.WarnContext(ctx, "Gemini embedding response contains no values")
		return nil, fmt.Errorf("embedding response contains no values")
	}

	return resp.Embeddings[0].Values, nil
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse, op string) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked by safety filter", "operation", op, "reason", reasonMsg)
		return "", fmt.Errorf("%s blocked by safety filter: %s", op, reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing content", "operation", op, "finish_reason", finishReason)
		return "", fmt.Errorf("%s returned no content, finish reason: %s", op, finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty", "operation", op)
		return "", fmt.Errorf("%s returned empty text", op)
	}

	return text, nil
}
