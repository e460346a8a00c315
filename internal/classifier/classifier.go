// Package classifier turns free-form user text into a transaction draft using
// a generative language model. The model is asked for a strict JSON object;
// everything downstream treats its output as untrusted and re-validates.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"vbaranov/ledgerbot/internal/dateutils"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/textutils"
)

// Classifier produces a transaction draft from free text.
type Classifier interface {
	Classify(ctx context.Context, text string, categories models.CategorySet, now time.Time) (models.TransactionDraft, error)
}

// generator is the minimal model seam: one prompt in, one text completion
// out. Production uses Gemini; tests supply a canned generator.
type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClassifier classifies text with a Gemini model, retrying a failed
// call once before giving up. Model responses are flaky enough that a single
// immediate retry recovers most transient failures without queueing.
type GeminiClassifier struct {
	gen generator
	log logging.Logger
}

// NewGemini creates a classifier backed by the named Gemini model.
func NewGemini(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("classifier API key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newWithGenerator(&geminiGenerator{model: client.GenerativeModel(model)}, logger), nil
}

func newWithGenerator(gen generator, logger logging.Logger) *GeminiClassifier {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &GeminiClassifier{gen: gen, log: logger}
}

// Classify asks the model for a draft and fills in date and month defaults
// the model left blank.
func (c *GeminiClassifier) Classify(ctx context.Context, text string, categories models.CategorySet, now time.Time) (models.TransactionDraft, error) {
	prompt := buildPrompt(text, categories, now)

	draft, err := c.classifyOnce(ctx, prompt)
	if err != nil {
		c.log.WithError(err).WithField(logging.FieldReason, "first attempt failed").
			Warn("Classification failed, retrying once")
		draft, err = c.classifyOnce(ctx, prompt)
	}
	if err != nil {
		return models.TransactionDraft{}, err
	}

	draft.SourceText = text
	draft.Type = strings.ToLower(strings.TrimSpace(draft.Type))
	applyDateDefaults(&draft, now)

	c.log.WithFields(
		logging.Field{Key: logging.FieldCategory, Value: draft.Category},
		logging.Field{Key: "type", Value: draft.Type},
	).Debug("Text classified")
	return draft, nil
}

func (c *GeminiClassifier) classifyOnce(ctx context.Context, prompt string) (models.TransactionDraft, error) {
	response, err := c.gen.generate(ctx, prompt)
	if err != nil {
		return models.TransactionDraft{}, fmt.Errorf("model call failed: %w", err)
	}

	object, ok := textutils.ExtractJSONObject(response)
	if !ok {
		return models.TransactionDraft{}, fmt.Errorf("no JSON object in model response")
	}

	var draft models.TransactionDraft
	if err := json.Unmarshal([]byte(object), &draft); err != nil {
		return models.TransactionDraft{}, fmt.Errorf("unparseable model response: %w", err)
	}
	return draft, nil
}

// applyDateDefaults fills empty date and month fields. The month follows the
// transaction date when one was given, otherwise the current time.
func applyDateDefaults(draft *models.TransactionDraft, now time.Time) {
	if draft.Date == "" {
		draft.Date = now.Format(dateutils.LayoutISO)
	}
	if draft.Month == "" {
		ref := now
		if parsed, err := dateutils.ParseISO(draft.Date); err == nil {
			ref = parsed
		}
		draft.Month = dateutils.MonthName(ref, models.MonthNames)
	}
}

// geminiGenerator adapts a Gemini generative model to the generator seam.
type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
