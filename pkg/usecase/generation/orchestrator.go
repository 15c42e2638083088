package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/alchemy/pkg/usecase/history"
	"github.com/m-mizutani/alchemy/pkg/utils/dataurl"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrEmptyIdea = errors.New("idea is empty")
	// ErrBusy is returned while another generation of the same orchestrator is in flight
	ErrBusy = errors.New("generation already in progress")
)

const (
	FailureMessage    = "The alchemy failed. Please check your API key or try a simpler idea."
	SaveFailureNotice = "Content generated, but failed to save to history database."
)

// Message returns the user-facing text of a Generate error
func Message(err error) string {
	switch {
	case errors.Is(err, ErrEmptyIdea):
		return "Enter an idea to transmute."
	case errors.Is(err, ErrBusy):
		return "Transmuting... please wait for the current alchemy to finish."
	default:
		return FailureMessage
	}
}

// Stage is reported to the progress callback before each phase
type Stage string

const (
	StageText  Stage = "text"
	StageImage Stage = "image"
	StageSave  Stage = "save"
)

// Result is one completed generation. Content is always shown once generated;
// Notice is set when persisting it failed.
type Result struct {
	Item   model.HistoryItem
	Saved  bool
	Notice string
}

// Orchestrator runs text generation, image generation, image upload and history append
type Orchestrator struct {
	generator Generator
	storage   adapter.Storage
	ledger    *history.Ledger
	events    adapter.EventSink
	user      *model.User
	now       func() time.Time
	progress  func(Stage)

	inflight sync.Mutex
}

// NewInput contains parameters for creating an Orchestrator. A nil or
// unverified User disables image upload and history persistence.
type NewInput struct {
	Generator Generator
	Storage   adapter.Storage
	Ledger    *history.Ledger
	Events    adapter.EventSink
	User      *model.User
	Clock     func() time.Time
	Progress  func(Stage)
}

func New(input NewInput) *Orchestrator {
	o := &Orchestrator{
		generator: input.Generator,
		storage:   input.Storage,
		ledger:    input.Ledger,
		events:    input.Events,
		user:      input.User,
		now:       input.Clock,
		progress:  input.Progress,
	}
	if o.events == nil {
		o.events = adapter.NopEventSink()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.progress == nil {
		o.progress = func(Stage) {}
	}
	if o.ledger == nil {
		o.ledger = history.New(nil, "")
	}
	return o
}

func (o *Orchestrator) authenticated() bool {
	return o.user.Authenticated()
}

func (o *Orchestrator) uid() model.UserID {
	if o.user == nil {
		return ""
	}
	return o.user.UID
}

// Generate transmutes idea. A text or image failure returns an error and
// changes nothing; upload and save failures only degrade the result.
func (o *Orchestrator) Generate(ctx context.Context, idea string) (*Result, error) {
	if strings.TrimSpace(idea) == "" {
		return nil, goerr.Wrap(ErrEmptyIdea, "cannot generate")
	}

	if !o.inflight.TryLock() {
		return nil, goerr.Wrap(ErrBusy, "cannot generate", goerr.V("idea", idea))
	}
	defer o.inflight.Unlock()

	logger := logging.From(ctx).With("uid", o.uid())

	o.progress(StageText)
	content, err := o.generator.GenerateContent(ctx, idea)
	if err != nil {
		return nil, o.failed(ctx, goerr.Wrap(err, "text generation failed", goerr.V("idea", idea)))
	}

	o.progress(StageImage)
	imageURL, err := o.generator.GenerateImage(ctx, content.ImagePrompt)
	if err != nil {
		return nil, o.failed(ctx, goerr.Wrap(err, "image generation failed", goerr.V("idea", idea)))
	}

	now := o.now()
	if o.authenticated() && dataurl.IsDataURL(imageURL) {
		if url, err := o.uploadImage(ctx, imageURL, now); err != nil {
			logger.Error("failed to upload generated image, storing data URL", logging.ErrAttr(err))
		} else {
			imageURL = url
		}
	}

	item := model.HistoryItem{
		ID:        model.NewTemporaryHistoryID(),
		Timestamp: now.UnixMilli(),
		Idea:      idea,
		Content:   *content,
		ImageURL:  &imageURL,
	}
	o.ledger.Append(item)

	result := &Result{Item: item}
	if o.authenticated() {
		o.progress(StageSave)
		id, err := o.ledger.Persist(ctx, item.ID)
		if err != nil {
			logger.Error("failed to save history", logging.ErrAttr(err))
			result.Notice = SaveFailureNotice
		} else {
			result.Item.ID = id
			result.Saved = true
		}
	}

	adapter.Emit(ctx, o.events, model.NewEvent(model.EventGeneration, o.uid(), nil))
	logger.Info("generated", "idea", idea, "id", result.Item.ID, "saved", result.Saved)
	return result, nil
}

func (o *Orchestrator) uploadImage(ctx context.Context, imageURL string, now time.Time) (string, error) {
	data, mimeType, err := dataurl.Decode(imageURL)
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		mimeType = imageMIMEType
	}

	path := model.GeneratedImagePath(o.user.UID, now.UnixMilli())
	err = o.storage.Upload(ctx, path, data, mimeType)
	adapter.Emit(ctx, o.events, model.NewEvent(model.EventImageUpload, o.user.UID, err))
	if err != nil {
		return "", err
	}

	return o.storage.DownloadURL(ctx, path)
}

func (o *Orchestrator) failed(ctx context.Context, err error) error {
	adapter.Emit(ctx, o.events, model.NewEvent(model.EventGeneration, o.uid(), err))
	logging.From(ctx).Error("generation failed", logging.ErrAttr(err), "uid", o.uid())
	return err
}
