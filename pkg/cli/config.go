package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/alchemy/pkg/adapter"
	"github.com/m-mizutani/alchemy/pkg/repository"
	"github.com/m-mizutani/alchemy/pkg/usecase/auth"
	"github.com/m-mizutani/alchemy/pkg/usecase/generation"
	"github.com/m-mizutani/alchemy/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Repository and storage
	project  string
	database string
	bucket   string

	// Identity
	firebaseAPIKey string
	email          string
	password       string

	// Generation
	geminiProject   string
	geminiLocation  string
	geminiAPIKey    string
	generativeModel string
	imageModel      string
	promptFile      string

	// Events
	bigqueryDataset     string
	bigqueryTable       string
	bigqueryCreateTable bool
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("ALCHEMY_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("ALCHEMY_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "timeline-alchemy",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for images, logos and profile pictures",
			Sources:     cli.EnvVars("ALCHEMY_STORAGE_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset for application events (disabled if empty)",
			Sources:     cli.EnvVars("ALCHEMY_BIGQUERY_DATASET"),
			Destination: &cfg.bigqueryDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table for application events",
			Value:       "events",
			Sources:     cli.EnvVars("ALCHEMY_BIGQUERY_TABLE"),
			Destination: &cfg.bigqueryTable,
		},
		&cli.BoolFlag{
			Name:        "bigquery-create-table",
			Usage:       "Create the events table if it does not exist",
			Sources:     cli.EnvVars("ALCHEMY_BIGQUERY_CREATE_TABLE"),
			Destination: &cfg.bigqueryCreateTable,
		},
	}
}

// identityFlags returns flags for the identity provider and the account to sign in with
func identityFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firebase-api-key",
			Usage:       "Firebase web API key",
			Sources:     cli.EnvVars("FIREBASE_API_KEY"),
			Destination: &cfg.firebaseAPIKey,
		},
		&cli.StringFlag{
			Name:        "email",
			Aliases:     []string{"e"},
			Usage:       "Account email",
			Sources:     cli.EnvVars("ALCHEMY_EMAIL"),
			Destination: &cfg.email,
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "Account password (prompted if empty)",
			Sources:     cli.EnvVars("ALCHEMY_PASSWORD"),
			Destination: &cfg.password,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini (defaults to --project)",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key, uses the Gemini API instead of Vertex AI",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Model for content generation",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "image-model",
			Usage:       "Model for image generation",
			Sources:     cli.EnvVars("GEMINI_IMAGE_MODEL"),
			Destination: &cfg.imageModel,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Usage:       "YAML file overriding the generation prompts",
			Sources:     cli.EnvVars("ALCHEMY_PROMPT_FILE"),
			Destination: &cfg.promptFile,
		},
	}
}

// setupLogger installs the configured logger as default and into ctx
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr, logging.WithFormat(cfg.logFormat))
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newIdentity creates a new identity provider instance
func (cfg *config) newIdentity(ctx context.Context) (adapter.Identity, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.firebaseAPIKey == "" {
		return nil, goerr.New("firebase-api-key is required")
	}

	identity, err := adapter.NewIdentity(ctx, cfg.project, cfg.firebaseAPIKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create identity provider")
	}
	return identity, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	project := cfg.geminiProject
	if project == "" {
		project = cfg.project
	}
	if project == "" && cfg.geminiAPIKey == "" {
		return nil, goerr.New("gemini-project or gemini-api-key is required")
	}
	if cfg.geminiLocation == "" && cfg.geminiAPIKey == "" {
		return nil, goerr.New("gemini-location is required")
	}

	gemini, err := adapter.NewGemini(ctx, project, cfg.geminiLocation,
		adapter.WithAPIKey(cfg.geminiAPIKey),
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithImageModel(cfg.imageModel),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newGenerator creates the content and image generator
func (cfg *config) newGenerator(ctx context.Context) (generation.Generator, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	var opts []generation.GeneratorOption
	if cfg.promptFile != "" {
		prompts, err := generation.LoadPrompts(cfg.promptFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, generation.WithPrompts(prompts))
	}

	return generation.NewGeminiGenerator(gemini, opts...)
}

// newEventSink creates the BigQuery event sink, or a no-op sink if no dataset is configured
func (cfg *config) newEventSink(ctx context.Context) (adapter.EventSink, error) {
	if cfg.bigqueryDataset == "" {
		return adapter.NopEventSink(), nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required for the event sink")
	}
	if cfg.bigqueryCreateTable {
		if err := adapter.EnsureEventTable(ctx, cfg.project, cfg.bigqueryDataset, cfg.bigqueryTable); err != nil {
			return nil, err
		}
	}

	sink, err := adapter.NewBigQueryEventSink(ctx, cfg.project, cfg.bigqueryDataset, cfg.bigqueryTable)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create event sink")
	}
	return sink, nil
}

// newAuth creates the authentication service. Storage is only needed for sign up.
func (cfg *config) newAuth(ctx context.Context, storage adapter.Storage) (*auth.Service, error) {
	identity, err := cfg.newIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return auth.New(identity, storage), nil
}
