package cli

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/generation"
	"github.com/m-mizutani/goerr/v2"
)

var stageMessages = map[generation.Stage]string{
	generation.StageText:  " Transmuting idea into content...",
	generation.StageImage: " Conjuring the image...",
	generation.StageSave:  " Saving to history...",
}

// progress is a spinner following the stages of a generation
type progress struct {
	spinner *spinner.Spinner
}

func newProgress(w io.Writer) *progress {
	return &progress{
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w)),
	}
}

// Stage restarts the spinner with the message of stage
func (p *progress) Stage(stage generation.Stage) {
	if p == nil {
		return
	}
	p.spinner.Stop()
	p.spinner.Suffix = stageMessages[stage]
	p.spinner.Start()
}

func (p *progress) Stop() {
	if p == nil {
		return
	}
	p.spinner.Stop()
}

// readPassword prompts for a password without echo
func readPassword(prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{Stdout: os.Stderr})
	if err != nil {
		return "", goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	pw, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read password")
	}
	return string(pw), nil
}

// passwordOrPrompt returns password, or prompts for it when empty
func passwordOrPrompt(password, prompt string) (string, error) {
	if password != "" {
		return password, nil
	}
	return readPassword(prompt)
}

// readLocalFile loads a picked file for upload. The MIME type is sniffed from the content.
func readLocalFile(path string) (*model.LocalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return &model.LocalFile{
		Name:     filepath.Base(path),
		Data:     data,
		MIMEType: http.DetectContentType(data),
	}, nil
}
