package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/gemini"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// DefaultModel is the vision model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Prompt instructs the model to list furniture as a JSON array.
const Prompt = `You are an interior furniture detection assistant.

Identify only major furniture items that are clearly visible in the image:
chairs, desks, shelves, organisers and plants.
- Include shelves only when they are clearly standalone units.
- Do not guess; skip any item you are unsure about.
- Group identical items and report the total quantity.
- Optionally add short visual attributes (colour, material, style).

Answer with JSON only, for example:
[
  { "item_name": "black office chair", "quantity": 2, "attributes": "mesh back" },
  { "item_name": "wooden executive desk", "quantity": 1 }
]`

// Detector returns the raw detection records for an image.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]models.RawDetection, error)
}

// GeminiDetector sends the image to a Gemini model via generateContent.
type GeminiDetector struct {
	client *gemini.Client
	model  string
	logger *zap.Logger
}

// NewGeminiDetector returns a detector using model (DefaultModel when empty).
func NewGeminiDetector(client *gemini.Client, model string, logger *zap.Logger) *GeminiDetector {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiDetector{client: client, model: model, logger: utils.OrNop(logger)}
}

type generateRequest struct {
	Contents []gemini.Content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      gemini.Content `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
}

// MimeType sniffs the image type, defaulting to JPEG for unrecognized data.
func MimeType(image []byte) string {
	ct := http.DetectContentType(image)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/jpeg"
}

// Detect asks the model for furniture in image and parses its answer.
func (d *GeminiDetector) Detect(ctx context.Context, image []byte) ([]models.RawDetection, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	req := generateRequest{Contents: []gemini.Content{{
		Role: "user",
		Parts: []gemini.Part{
			{Text: Prompt},
			{InlineData: &gemini.InlineData{MimeType: MimeType(image), Data: image}},
		},
	}}}
	var resp generateResponse
	if err := d.client.Call(ctx, d.model, "generateContent", req, &resp); err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}

	var text strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	raw := strings.TrimSpace(text.String())
	d.logger.Debug("Vision model answer", zap.String("model", d.model), zap.String("text", utils.Truncate(raw, 500)))

	detections, err := ParseDetections(raw)
	if err != nil {
		d.logger.Warn("Unparseable vision answer", zap.Error(err), zap.String("raw", utils.Truncate(raw, 500)))
		return nil, err
	}
	return detections, nil
}
