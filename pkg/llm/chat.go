package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/xhad/excerpt/internal/types"
)

const DefaultChatModel = "llama3.1"

// ErrInvalidJSON is returned when the model answer is not a JSON document.
var ErrInvalidJSON = errors.New("model returned invalid JSON")

// ChatConfig represents the configuration for the extraction model.
type ChatConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	// UserTemplate receives the label, the indented schema and the content.
	UserTemplate string
	BaseURL      string // Ollama server URL
	// JSONMode asks the backend to constrain its output to JSON.
	JSONMode bool
}

// ChatEngine fills an extraction schema from document excerpts.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

const defaultSystemTemplate = `# JSON Data Parser

Extract and parse data from the provided text content into the specified JSON schema structure.

## Instructions
- Parse the content and map data to the exact schema structure
- Return only valid JSON matching the schema
- Use null for missing values
- All responses in Portuguese

## Output
Return ONLY the JSON object, no additional text or formatting.`

const defaultUserTemplate = "**DOCUMENT TYPE:** %s\n\n**EXTRACTION SCHEMA:**\n```json\n%s\n```\n\n**DOCUMENT CONTENT:**\n%s\n\nExtract the information according to the provided schema."

func (c ChatConfig) withDefaults() (ChatConfig, error) {
	if c.Model == "" {
		c.Model = DefaultChatModel
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return c, fmt.Errorf("temperature must be between 0 and 1")
	}
	if c.MaxTokens < 0 {
		return c, fmt.Errorf("max tokens cannot be negative")
	} else if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.SystemTemplate == "" {
		c.SystemTemplate = defaultSystemTemplate
	}
	if c.UserTemplate == "" {
		c.UserTemplate = defaultUserTemplate
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return c, nil
}

// NewWithConfig creates a ChatEngine backed by an Ollama model.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	opts := []ollama.Option{ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL)}
	if config.JSONMode {
		opts = append(opts, ollama.WithFormat("json"))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// NewWithModel creates a ChatEngine around any langchaingo model.
func NewWithModel(model llms.Model, config ChatConfig) (*ChatEngine, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}
	return &ChatEngine{config: config, llm: model}, nil
}

func (ce *ChatEngine) Config() ChatConfig { return ce.config }

// Messages builds the system and user messages for a prompt.
func (ce *ChatEngine) Messages(prompt types.ExtractionPrompt) []llms.MessageContent {
	user := fmt.Sprintf(ce.config.UserTemplate, prompt.Label, prompt.Schema, prompt.Content)
	if prompt.Skeleton != "" {
		user += "\n\nExpected output shape:\n```json\n" + prompt.Skeleton + "\n```"
	}
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
}

// Extract asks the model to fill the schema and returns its JSON answer with
// any Markdown fences removed.
func (ce *ChatEngine) Extract(ctx context.Context, prompt types.ExtractionPrompt) (string, error) {
	response, err := ce.llm.GenerateContent(ctx, ce.Messages(prompt),
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate extraction: %w", err)
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", errors.New("failed to generate extraction: no response from LLM")
	}

	answer := StripCodeFences(response.Choices[0].Content)
	if !json.Valid([]byte(answer)) {
		return answer, fmt.Errorf("%w: %.80q", ErrInvalidJSON, answer)
	}
	return answer, nil
}

// StripCodeFences removes a surrounding ```json ... ``` block.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string, e.g. "json".
		if !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
