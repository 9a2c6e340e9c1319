package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"endee-rag/internal/config"
	"endee-rag/internal/models"
)

const (
	temperature     = 0.7
	maxTokens       = 500
	generateTimeout = 30 * time.Second
)

// NewModel builds a chat model for an OpenAI-compatible endpoint such as Groq.
func NewModel(llmConfig config.LLMConfig) (llms.Model, error) {
	log.Debug().Str("base_url", llmConfig.BaseURL).Str("model", llmConfig.Model).Msg("Creating chat model")
	return openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
}

// GenerateContent calls the model once, optionally with tools.
func GenerateContent(ctx context.Context, llm llms.Model, tools []llms.Tool, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}
	return llm.GenerateContent(ctx, messages, opts...)
}

// Generator answers a question from retrieved context.
type Generator struct {
	llm   llms.Model
	model string
}

func NewGenerator(llm llms.Model, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

// Generate asks the model to answer query using only contextText.
func (g *Generator) Generate(ctx context.Context, query, contextText string) (*models.PromptResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, models.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(models.UserPromptTemplate, contextText, query)),
	}

	log.Info().Str("model", g.model).Msg("Generating answer")
	res, err := GenerateContent(ctx, g.llm, nil, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrGeneration, err)
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from model", models.ErrGeneration)
	}

	choice := res.Choices[0]
	return &models.PromptResponse{
		Query:   query,
		Model:   g.model,
		Content: choice.Content,
		Usage:   usageFrom(choice.GenerationInfo),
	}, nil
}

func usageFrom(info map[string]any) models.Usage {
	return models.Usage{
		PromptTokens:     intValue(info["PromptTokens"]),
		CompletionTokens: intValue(info["CompletionTokens"]),
		TotalTokens:      intValue(info["TotalTokens"]),
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
