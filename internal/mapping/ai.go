package mapping

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"ganttfmt/internal/gantt"
	"ganttfmt/internal/logger"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultTimeout = 60 * time.Second

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// AIResolver asks Gemini which headers hold the schedule dates. It is used
// only for sheets whose headers match none of the keywords.
type AIResolver struct {
	client        *genai.Client
	model         contentGenerator
	minConfidence float64
	timeout       time.Duration
}

// NewAIResolver creates a new AI resolver instance
func NewAIResolver(apiKey, modelName string, minConfidence float64) (*AIResolver, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	logger.Info("Initializing AI column resolver with Gemini API", "model", modelName)

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		logger.Error("Failed to create Gemini client", "error", err)
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)

	return &AIResolver{
		client:        client,
		model:         model,
		minConfidence: minConfidence,
		timeout:       defaultTimeout,
	}, nil
}

// Close cleans up the AI resolver resources
func (ai *AIResolver) Close() error {
	if ai.client != nil {
		return ai.client.Close()
	}
	return nil
}

// ResolveColumns implements gantt.ColumnResolver.
func (ai *AIResolver) ResolveColumns(sheet string, headers []string) (gantt.Columns, error) {
	var cols gantt.Columns
	if len(headers) == 0 {
		return cols, nil
	}

	prompt := buildRolePrompt(headers)
	logger.Debug("AI prompt", "sheet", sheet, "length", len(prompt))

	ctx, cancel := context.WithTimeout(context.Background(), ai.timeout)
	defer cancel()

	start := time.Now()
	resp, err := ai.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		logger.Error("Gemini API request failed", "sheet", sheet, "error", err, "duration", time.Since(start))
		return cols, fmt.Errorf("failed to generate AI response: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return cols, err
	}

	mappings := parseRoleResponse(text, ai.minConfidence)
	cols = ColumnsFromMappings(headers, mappings)

	logger.Info("AI column resolution finished",
		"sheet", sheet,
		"duration", time.Since(start),
		"mappings", len(mappings),
		"columns", cols.Headers(headers))
	return cols, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response generated from AI")
	}

	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("no response generated from AI")
	}

	var b strings.Builder
	for i, part := range content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			b.WriteString(string(textPart))
		} else {
			logger.Warn("Non-text part in response", "index", i, "type", fmt.Sprintf("%T", part))
		}
	}
	return b.String(), nil
}

// buildRolePrompt asks for one Header|role|confidence line per header
func buildRolePrompt(headers []string) string {
	var b strings.Builder

	b.WriteString(`You are helping to read project schedule spreadsheets.

TASK: For each column header below, decide whether the column holds one of these task dates:
- planned_start: the date work on the task was planned to begin
- planned_end: the date the task was planned to finish
- actual_start: the date work actually began
- actual_end: the date the task actually finished
Use "NO_MATCH" for every other column.

COLUMN HEADERS:
`)
	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", h)
	}

	b.WriteString(`
INSTRUCTIONS:
1. Assign each role to AT MOST ONE header
2. Only assign a role you are confident about (>80% certainty)
3. Copy the header text exactly as given

OUTPUT FORMAT (one line per header):
Header|Role|Confidence

EXAMPLES:
Kickoff|planned_start|0.90
Go-live|planned_end|0.85
Owner|NO_MATCH|0.00

Now provide the roles:`)

	return b.String()
}

// parseRoleResponse parses the AI response into role mappings, dropping
// NO_MATCH lines, unknown roles and low-confidence suggestions.
func parseRoleResponse(response string, minConfidence float64) []RoleMapping {
	var mappings []RoleMapping
	skipped := 0

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`")
		if line == "" || strings.HasPrefix(line, "Header|") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			skipped++
			continue
		}

		header := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "- "))
		role := strings.TrimSpace(parts[1])

		var confidence float64
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[2]), "%f", &confidence); err != nil {
			confidence = 0
		}

		if role == NoMatch || confidence < minConfidence {
			skipped++
			continue
		}

		field, ok := gantt.ParseField(role)
		if !ok {
			skipped++
			continue
		}

		mappings = append(mappings, RoleMapping{
			Header:     header,
			Field:      field,
			Role:       field.String(),
			Confidence: confidence,
		})
	}

	logger.Debug("AI response parsed", "mappings", len(mappings), "skipped", skipped)
	return mappings
}

// GetGeminiAPIKey gets the API key from environment variable
func GetGeminiAPIKey() string {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY environment variable not set")
	}
	return apiKey
}
