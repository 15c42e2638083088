package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/utils/dataurl"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const imageMIMEType = "image/jpeg"

// Generator is the generation service
type Generator interface {
	// GenerateContent returns a package with all ten fields populated
	GenerateContent(ctx context.Context, idea string) (*model.ContentPackage, error)
	// GenerateImage returns the image as a data URL, or any other image URL
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// PlaceholderImageURL returns a random stock image of the generated image size
func PlaceholderImageURL() string {
	return fmt.Sprintf("https://picsum.photos/seed/%d/1280/720", rand.Int64())
}

type geminiGenerator struct {
	gemini      adapter.Gemini
	prompts     *Prompts
	schema      *genai.Schema
	placeholder func() string
}

type GeneratorOption func(*geminiGenerator)

func WithPrompts(prompts *Prompts) GeneratorOption {
	return func(g *geminiGenerator) {
		if prompts != nil {
			g.prompts = prompts
		}
	}
}

// WithPlaceholder replaces the image URL used when image generation fails
func WithPlaceholder(fn func() string) GeneratorOption {
	return func(g *geminiGenerator) {
		g.placeholder = fn
	}
}

// NewGeminiGenerator creates a Generator on Gemini for text and Imagen for images
func NewGeminiGenerator(gemini adapter.Gemini, opts ...GeneratorOption) (Generator, error) {
	schema, err := contentSchema()
	if err != nil {
		return nil, err
	}

	g := &geminiGenerator{
		gemini:      gemini,
		prompts:     DefaultPrompts(),
		schema:      schema,
		placeholder: PlaceholderImageURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *geminiGenerator) GenerateContent(ctx context.Context, idea string) (*model.ContentPackage, error) {
	prompt, err := g.prompts.ContentPrompt(idea)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.prompts.System, ""),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    g.schema,
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content package")
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("invalid response structure from gemini")
	}

	var rawJSON strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		rawJSON.WriteString(part.Text)
	}

	var pkg model.ContentPackage
	if err := json.Unmarshal([]byte(rawJSON.String()), &pkg); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal content package JSON", goerr.V("json", rawJSON.String()))
	}
	if err := pkg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "incomplete content package")
	}

	return &pkg, nil
}

// GenerateImage never fails on a generation error: it logs it and returns a placeholder URL
func (g *geminiGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	enriched, err := g.prompts.ImagePrompt(prompt)
	if err != nil {
		return "", err
	}

	image, err := g.generateImage(ctx, enriched)
	if err != nil {
		logging.From(ctx).Warn("image generation failed, using placeholder", logging.ErrAttr(err))
		return g.placeholder(), nil
	}
	return image, nil
}

func (g *geminiGenerator) generateImage(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "16:9",
		OutputMIMEType: imageMIMEType,
	}

	resp, err := g.gemini.GenerateImages(ctx, prompt, config)
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil ||
		len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return "", goerr.New("no image generated")
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = imageMIMEType
	}
	return dataurl.Encode(mimeType, img.ImageBytes), nil
}
