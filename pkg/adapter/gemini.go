package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

type Gemini interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	imageModel      string
}

type geminiConfig struct {
	clientConfig    genai.ClientConfig
	generativeModel string
	imageModel      string
}

type GeminiOption func(*geminiConfig)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *geminiConfig) {
		if model != "" {
			g.generativeModel = model
		}
	}
}

func WithImageModel(model string) GeminiOption {
	return func(g *geminiConfig) {
		if model != "" {
			g.imageModel = model
		}
	}
}

// WithAPIKey switches from Vertex AI to the Gemini API backend
func WithAPIKey(apiKey string) GeminiOption {
	return func(g *geminiConfig) {
		if apiKey == "" {
			return
		}
		g.clientConfig = genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	cfg := &geminiConfig{
		clientConfig: genai.ClientConfig{
			Project:  projectID,
			Location: location,
			Backend:  genai.BackendVertexAI,
		},
		generativeModel: "gemini-3-pro-preview",
		imageModel:      "imagen-4.0-generate-001",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, &cfg.clientConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	return &GeminiClient{
		client:          client,
		generativeModel: cfg.generativeModel,
		imageModel:      cfg.imageModel,
	}, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", g.generativeModel))
	}
	return resp, nil
}

func (g *GeminiClient) GenerateImages(ctx context.Context, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate images", goerr.V("model", g.imageModel))
	}
	return resp, nil
}
