package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"shrimpquote_backend/internal/extract"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/logger"
	"shrimpquote_backend/platform/sanitize"
)

const fallbackSystemPrompt = `You classify WhatsApp messages sent to a shrimp export sales desk.
Messages are in Spanish or English. Respond with a single JSON object:
{"intent": one of [greeting, proforma, products, sizes, help, menu, confirm, modify_freight, language, unknown],
 "confidence": number 0..1,
 "product": canonical product code or "",
 "sizes": list of size codes like "16/20",
 "glazing_percentage": integer 0..100 or null (null means unspecified, 0 means explicitly no glazing),
 "freight_value": number in USD per kg or null,
 "freight_requested": boolean,
 "destination": city name or "",
 "client_name": string or "",
 "language": "es" or "en" or ""}
Known products: HOSO, HLSO, P&D IQF, P&D BLOQUE, PuD-EUROPA, PuD-EEUU, EZ PEEL, COOKED, PRE-COOKED, UNTREATED-COOKED.
Only report what the message states. Never invent a glazing percentage or freight value.`

type fallbackPayload struct {
	Intent            string   `json:"intent"`
	Confidence        float64  `json:"confidence"`
	Product           string   `json:"product"`
	Sizes             []string `json:"sizes"`
	GlazingPercentage *int     `json:"glazing_percentage"`
	FreightValue      *float64 `json:"freight_value"`
	FreightRequested  bool     `json:"freight_requested"`
	Destination       string   `json:"destination"`
	ClientName        string   `json:"client_name"`
	Language          string   `json:"language"`
}

// GeminiClassifier is the external fallback classifier.
type GeminiClassifier struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGemini creates the Gemini-backed fallback classifier. Returns nil
// (not an error) when no API key is configured so callers can wire the
// absence directly into the Classifier.
func NewGemini(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*GeminiClassifier, error) {
	if !cfg.IsGeminiEnabled() {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClassifier{client: client, model: cfg.GetGeminiModel(), log: log}, nil
}

// Classify sends the sanitized message plus recent history and parses the
// JSON verdict. Any transport or parse problem is returned as an error so
// the caller degrades to local classification.
func (g *GeminiClassifier) Classify(ctx context.Context, text string, history []Turn) (Analysis, error) {
	prompt := buildFallbackPrompt(text, history)

	response, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(fallbackSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("gemini classify: %w", err)
	}

	raw := strings.TrimSpace(response.Text())
	var payload fallbackPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Analysis{}, fmt.Errorf("gemini classify: decode verdict: %w", err)
	}

	return payloadToAnalysis(payload), nil
}

// buildFallbackPrompt wraps the user text in explicit markers so prompt
// content in the message body cannot pose as instructions.
func buildFallbackPrompt(text string, history []Turn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range history {
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(sanitize.Message(turn.Text))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("---BEGIN USER MESSAGE---\n")
	b.WriteString(sanitize.Message(text))
	b.WriteString("\n---END USER MESSAGE---")
	return b.String()
}

func payloadToAnalysis(payload fallbackPayload) Analysis {
	params := extract.Params{
		Product:           strings.TrimSpace(payload.Product),
		Sizes:             payload.Sizes,
		GlazingPercentage: payload.GlazingPercentage,
		FreightValue:      payload.FreightValue,
		FreightRequested:  payload.FreightRequested || payload.FreightValue != nil,
		ClientName:        strings.TrimSpace(payload.ClientName),
		Language:          strings.TrimSpace(payload.Language),
	}
	if payload.Destination != "" {
		params.Destination, params.UsesPounds = extract.NormalizeDestination(payload.Destination)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Analysis{
		Intent:     normalizeIntent(payload.Intent),
		Confidence: confidence,
		Params:     params,
	}
}

func normalizeIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentGreeting, IntentProforma, IntentProducts, IntentSizes, IntentHelp,
		IntentMenu, IntentConfirm, IntentModifyFreight, IntentLanguage:
		return Intent(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return IntentUnknown
	}
}
