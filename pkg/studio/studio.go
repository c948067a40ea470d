// Package studio generates research artifacts and studio audio through the
// remote model service: structured study artifacts, single-voice speech,
// and the two-host audio overview.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/notebook"
)

// Model identifiers per concern.
const (
	ModelText      = "gemini-2.5-flash"
	ModelReasoning = "gemini-2.5-flash"
	ModelScript    = "gemini-3-pro-preview"
	ModelTTS       = "gemini-2.5-flash-preview-tts"
	ModelImage     = "gemini-2.5-flash-image"
)

// Models is the generation surface the studio depends on; satisfied by the
// real client's model service and by fakes in tests.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures a Generator.
type Config struct {
	APIKey string
	// OutputDir receives generated WAV and cover files.
	OutputDir string
	Logger    *slog.Logger
}

// Generator runs remote generation calls and writes their audio results to
// disk.
type Generator struct {
	models Models
	outDir string
	log    *slog.Logger
}

// NewGenerator builds a generator over the real model service.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}
	return NewGeneratorWithModels(client.Models, cfg.OutputDir, cfg.Logger), nil
}

// NewGeneratorWithModels builds a generator over an injected model surface.
func NewGeneratorWithModels(models Models, outDir string, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	if outDir == "" {
		outDir = "."
	}
	return &Generator{models: models, outDir: outDir, log: log}
}

// FormatContext flattens sources into the prompt context block.
func FormatContext(sources []notebook.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = fmt.Sprintf("SOURCE: %s\nCONTENT:\n%s\n---", s.Title, s.Content)
	}
	return strings.Join(parts, "\n")
}

// cleanJSON strips markdown code fences the model sometimes wraps around
// JSON output.
func cleanJSON(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// firstInlineData returns the first binary payload in the response.
func firstInlineData(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// GenerateArtifact produces one structured artifact as a JSON document.
func (g *Generator) GenerateArtifact(ctx context.Context, typ notebook.ArtifactType, sources []notebook.Source) (string, error) {
	prompt, schema, err := artifactRequest(typ)
	if err != nil {
		return "", err
	}

	contents := genai.Text(fmt.Sprintf("%s\n\nCONTEXT:\n%s", prompt, FormatContext(sources)))
	resp, err := g.models.GenerateContent(ctx, ModelReasoning, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("generate %s artifact: %w", typ, err)
	}

	raw := cleanJSON(resp.Text())
	if raw == "" {
		return "", fmt.Errorf("generate %s artifact: empty response", typ)
	}
	return raw, nil
}
