// Package ai pre-classifies maintenance request descriptions with an LLM.
// The classification is advisory only: any upstream failure degrades to a
// deterministic fallback and request creation proceeds.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

// Analyzer classifies request descriptions using OpenAI
type Analyzer struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewAnalyzer creates a new OpenAI-backed analyzer. The timeout bounds each
// classification call; a hung upstream degrades to the fallback instead of
// blocking request creation.
func NewAnalyzer(apiKey, model string, temperature float32, timeout time.Duration, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// FallbackAnalysis is the classification used when the advisory call fails
func FallbackAnalysis() *entity.AIAnalysis {
	return &entity.AIAnalysis{
		Category:             entity.CategoryOther,
		Priority:             entity.PriorityMedium,
		PotentialCause:       "Undetermined",
		RequiredTools:        []string{},
		TroubleshootingSteps: []string{"Contact supervisor for detailed assessment."},
	}
}

// Analyze classifies a maintenance issue description. It never fails: on
// any error, including the call outliving the configured timeout, the
// fallback classification is returned.
func (a *Analyzer) Analyze(ctx context.Context, description string) *entity.AIAnalysis {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(`Analyze the following maintenance issue and provide a structured JSON response with:
- category (Electrical, Plumbing, HVAC, Carpentry, Masonry, Other)
- priority (Low, Medium, High)
- potentialCause (one sentence)
- requiredTools (array of strings)
- troubleshootingSteps (array of strings)

Description: %q`, description)

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a facility maintenance triage assistant. Always respond with a single valid JSON object and nothing else.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("AI classification failed, using fallback", zap.Error(err))
		return FallbackAnalysis()
	}
	if len(resp.Choices) == 0 {
		a.logger.Error("AI classification returned no choices, using fallback")
		return FallbackAnalysis()
	}

	content := resp.Choices[0].Message.Content
	analysis, err := parseAnalysis(content)
	if err != nil {
		a.logger.Error("Failed to parse AI classification, using fallback",
			zap.Error(err),
			zap.String("content", content))
		return FallbackAnalysis()
	}

	a.logger.Info("Request classified",
		zap.String("category", analysis.Category),
		zap.String("priority", analysis.Priority))
	return analysis
}

// parseAnalysis decodes the model output, tolerating markdown code fences
func parseAnalysis(content string) (*entity.AIAnalysis, error) {
	var analysis entity.AIAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" {
			return nil, err
		}
		if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
			return nil, err
		}
	}

	if analysis.Category == "" {
		analysis.Category = entity.CategoryOther
	}
	if !entity.ValidPriority(analysis.Priority) {
		analysis.Priority = entity.PriorityMedium
	}
	if analysis.RequiredTools == nil {
		analysis.RequiredTools = []string{}
	}
	if analysis.TroubleshootingSteps == nil {
		analysis.TroubleshootingSteps = []string{}
	}
	return &analysis, nil
}

// extractJSON pulls a JSON object out of a ```json fenced block or the
// first {...} span of the content
func extractJSON(content string) string {
	if idx := strings.Index(content, "```json"); idx != -1 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		return content[start : end+1]
	}
	return ""
}
