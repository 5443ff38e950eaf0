package categorizer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"propfin/ledger-sync/internal/logging"
	"propfin/ledger-sync/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ClassificationError wraps an AI adapter failure. Callers degrade to the
// "other" category; this error never aborts a batch.
type ClassificationError struct {
	Description string
	Err         error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for %q: %v", e.Description, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// GeminiClient implements AIClient against the Google Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiClient creates a GeminiClient with the given API key and model
// name (e.g. "gemini-2.0-flash").
func NewGeminiClient(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiClient{
		client:  client,
		model:   client.GenerativeModel(modelName),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Classify asks Gemini for a category, type, and confidence. The prompt
// constrains the answer to a line format; anything that cannot be parsed out
// of the response is treated as a failure rather than a guess.
func (c *GeminiClient) Classify(ctx context.Context, req ClassifyRequest) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var names []string
	for _, cat := range models.Categories {
		names = append(names, string(cat))
	}

	prompt := fmt.Sprintf(`Categorize the following property-management financial transaction:
Description: %s
Amount: %s
Vendor: %s

Assign exactly one of the following categories:
%s

Respond in this format:
Category: [category]
Type: [income or expense]
Confidence: [0.0-1.0]`,
		req.Description,
		req.Amount.String(),
		req.Vendor,
		strings.Join(names, ", "))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Classification{}, &ClassificationError{Description: req.Description, Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Classification{}, &ClassificationError{
			Description: req.Description,
			Err:         fmt.Errorf("empty response from Gemini"),
		}
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	classification, err := parseClassification(text)
	if err != nil {
		return Classification{}, &ClassificationError{Description: req.Description, Err: err}
	}

	c.logger.Debug("Gemini classified transaction",
		logging.F("category", classification.Category),
		logging.F("confidence", classification.Confidence))

	return classification, nil
}

// parseClassification extracts the line-format answer. Malformed responses
// yield an error so the caller records a low-confidence failure.
func parseClassification(text string) (Classification, error) {
	var out Classification
	var haveCategory, haveConfidence bool

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Category:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "Category:"))
			cat, ok := models.ParseCategory(raw)
			if !ok {
				return Classification{}, fmt.Errorf("unknown category %q in response", raw)
			}
			out.Category = cat
			haveCategory = true
		case strings.HasPrefix(line, "Type:"):
			raw := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "Type:")))
			switch raw {
			case string(models.TypeIncome):
				out.Type = models.TypeIncome
			case string(models.TypeExpense):
				out.Type = models.TypeExpense
			}
		case strings.HasPrefix(line, "Confidence:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "Confidence:"))
			conf, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Classification{}, fmt.Errorf("unparseable confidence %q: %w", raw, err)
			}
			if conf < 0 || conf > 1 {
				return Classification{}, fmt.Errorf("confidence %v out of range", conf)
			}
			out.Confidence = conf
			haveConfidence = true
		}
	}

	if !haveCategory || !haveConfidence {
		return Classification{}, fmt.Errorf("response missing category or confidence: %q", truncate(text, 120))
	}
	return out, nil
}
