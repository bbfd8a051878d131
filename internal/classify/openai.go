package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"leadscout/internal/logging"
)

// excerptLimit caps how much of the item body is sent for analysis.
const excerptLimit = 2000

const systemPrompt = "You are an expert at identifying business leads from Reddit posts. Respond only with valid JSON."

// OpenAI is the model-backed classifier. Every failure path delegates
// to the heuristic, so Classify always yields a verdict.
type OpenAI struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int
	fallback  *Heuristic
	logger    logging.Logger
}

// NewOpenAI creates the model-backed classifier.
func NewOpenAI(cfg Config, logger logging.Logger) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 200
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		timeout:   timeout,
		maxTokens: maxTokens,
		fallback:  NewHeuristic(),
		logger:    logger,
	}
}

// Classify submits a bounded excerpt for analysis and extracts the
// first JSON payload from the response. Call failures, missing
// payloads and absent fields all fall through to the heuristic.
func (o *OpenAI) Classify(ctx context.Context, text string, kind Kind) Result {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, kind)},
		},
		Temperature: 0.3,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		o.logger.WithError(err).Error("OpenAI classification failed, using fallback")
		return o.fallback.Classify(ctx, text, kind)
	}
	if len(resp.Choices) == 0 {
		return o.fallback.Classify(ctx, text, kind)
	}

	verdict, ok := parseVerdict(resp.Choices[0].Message.Content)
	if !ok {
		o.logger.Warn("Unparseable classification payload, using fallback")
		return o.fallback.Classify(ctx, text, kind)
	}
	return verdict
}

func buildPrompt(text string, kind Kind) string {
	return fmt.Sprintf(`Analyze the following Reddit %s and determine if it's a request for IT services (web development, software development, hiring developers, etc.) or just asking for advice/recommendations.

Rules:
- If the %s is asking to HIRE someone, looking for a DEVELOPER, or requesting a SERVICE - mark as LEAD (isLead: true)
- If it's just asking for ADVICE, RECOMMENDATIONS, or GENERAL QUESTIONS - mark as NOT a lead (isLead: false)
- Provide confidence score from 0 to 1
- Provide a brief reason

Text to analyze:
"%s"

Respond in JSON format:
{
  "isLead": boolean,
  "confidence": number (0-1),
  "reason": "brief explanation"
}`, kind, kind, excerpt(text))
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit])
}

// parseVerdict extracts the first well-formed JSON object from the
// response text; the model may wrap it in prose. Both isLead and
// confidence must be present for the payload to count.
func parseVerdict(content string) (Result, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}

	var payload struct {
		IsLead     *bool    `json:"isLead"`
		Confidence *float64 `json:"confidence"`
		Reason     string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return Result{}, false
	}
	if payload.IsLead == nil || payload.Confidence == nil {
		return Result{}, false
	}

	confidence := *payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	reason := payload.Reason
	if reason == "" {
		reason = "AI analysis completed"
	}

	return Result{
		IsLead:     *payload.IsLead,
		Confidence: confidence,
		Reason:     reason,
	}, true
}
