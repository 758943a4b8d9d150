// Package openrouter implements the narrative and section generators on
// top of an OpenAI-compatible chat completion API.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/creditpm/backend/internal/domain/analysis"
	"github.com/creditpm/backend/internal/domain/shared"
	openai "github.com/sashabaranov/go-openai"
)

const maxTokens = 4096

// Config holds the generator client settings
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// Client talks to an OpenAI-compatible endpoint. It implements both
// analysis.NarrativeGenerator and analysis.SectionGenerator.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewClient creates a generator client for the configured endpoint
func NewClient(cfg Config) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "openai/gpt-4o"
	}
	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = 0.3
	}
	return &Client{
		api:         openai.NewClientWithConfig(apiConfig),
		model:       model,
		temperature: temperature,
	}
}

// ModelVersion identifies the underlying model for audit entries
func (c *Client) ModelVersion() string {
	return c.model
}

// Generate produces a structured financial narrative. The raw model
// output is run through JSON repair before decoding; LLMs routinely
// wrap JSON in markdown fences or leave trailing commas.
func (c *Client) Generate(ctx context.Context, req analysis.NarrativeRequest) (*analysis.NarrativeResponse, error) {
	prompt := buildNarrativePrompt(req)

	raw, err := c.complete(ctx, narrativeSystemPrompt, prompt, true)
	if err != nil {
		return nil, err
	}

	response := &analysis.NarrativeResponse{
		Prompt:       prompt,
		RawResponse:  raw,
		ModelVersion: c.model,
	}
	if err := decodeModelJSON(raw, response); err != nil {
		// Return the trace fields even when the body did not decode;
		// the composer records the attempt and retries strictly.
		return response, nil
	}
	return response, nil
}

// GenerateSection produces free text for one memo section
func (c *Client) GenerateSection(ctx context.Context, req analysis.SectionRequest) (string, analysis.SectionTrace, error) {
	prompt := buildSectionPrompt(req)
	trace := analysis.SectionTrace{Prompt: prompt, ModelVersion: c.model}

	raw, err := c.complete(ctx, sectionSystemPrompt, prompt, false)
	if err != nil {
		return "", trace, err
	}
	trace.Response = raw
	if raw == "" {
		return "", trace, shared.NewGenerationError("model returned empty section content")
	}
	return raw, trace, nil
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", shared.NewGenerationError(fmt.Sprintf("chat completion failed: %v", err))
	}
	if len(resp.Choices) == 0 {
		return "", shared.NewGenerationError("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// decodeModelJSON decodes model output into target, repairing common
// LLM formatting faults first.
func decodeModelJSON(raw string, target interface{}) error {
	if err := json.Unmarshal([]byte(raw), target); err == nil {
		return nil
	}
	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}
	return json.Unmarshal([]byte(repaired), target)
}
