package generation

import (
	"bytes"
	_ "embed"
	"os"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed prompt/system.md
var systemPromptRaw string

//go:embed prompt/content.md
var contentPromptRaw string

//go:embed prompt/image.md
var imagePromptRaw string

// Prompts are the templates sent to the generation service. Content receives
// {{ .Idea }} and Image receives {{ .Prompt }}.
type Prompts struct {
	System  string `yaml:"system"`
	Content string `yaml:"content"`
	Image   string `yaml:"image"`

	content *template.Template
	image   *template.Template
}

// DefaultPrompts returns the embedded templates
func DefaultPrompts() *Prompts {
	p := &Prompts{
		System:  systemPromptRaw,
		Content: contentPromptRaw,
		Image:   imagePromptRaw,
	}
	if err := p.compile(); err != nil {
		panic(err)
	}
	return p
}

// LoadPrompts reads a YAML file overriding any of the default templates.
// An empty path returns the defaults.
func LoadPrompts(filePath string) (*Prompts, error) {
	p := DefaultPrompts()
	if filePath == "" {
		return p, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read prompt file", goerr.V("file", filePath))
	}

	var override Prompts
	if err := yaml.Unmarshal(content, &override); err != nil {
		return nil, goerr.Wrap(err, "failed to parse prompt file", goerr.V("file", filePath))
	}

	if override.System != "" {
		p.System = override.System
	}
	if override.Content != "" {
		p.Content = override.Content
	}
	if override.Image != "" {
		p.Image = override.Image
	}

	if err := p.compile(); err != nil {
		return nil, goerr.Wrap(err, "invalid prompt template", goerr.V("file", filePath))
	}
	return p, nil
}

func (p *Prompts) compile() error {
	content, err := template.New("content").Parse(p.Content)
	if err != nil {
		return goerr.Wrap(err, "failed to parse content prompt")
	}
	image, err := template.New("image").Parse(p.Image)
	if err != nil {
		return goerr.Wrap(err, "failed to parse image prompt")
	}
	p.content, p.image = content, image
	return nil
}

// ContentPrompt renders the request for a content package
func (p *Prompts) ContentPrompt(idea string) (string, error) {
	var buf bytes.Buffer
	if err := p.content.Execute(&buf, map[string]any{"Idea": idea}); err != nil {
		return "", goerr.Wrap(err, "failed to execute content prompt template")
	}
	return buf.String(), nil
}

// ImagePrompt renders the enriched image prompt
func (p *Prompts) ImagePrompt(prompt string) (string, error) {
	var buf bytes.Buffer
	if err := p.image.Execute(&buf, map[string]any{"Prompt": prompt}); err != nil {
		return "", goerr.Wrap(err, "failed to execute image prompt template")
	}
	return buf.String(), nil
}
