package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-flow/internal/ai"
	"github.com/spigell/assessment-flow/internal/ai/gemini"
	"github.com/spigell/assessment-flow/internal/devmatch"
	"github.com/spigell/assessment-flow/internal/guard"
	"github.com/spigell/assessment-flow/internal/logger"
	"github.com/spigell/assessment-flow/internal/review"
	"github.com/spigell/assessment-flow/internal/secrets"
	"github.com/spigell/assessment-flow/internal/storage"
	"github.com/spigell/assessment-flow/internal/workflow"
)

// env is what every command needs: config, logger and the backend client.
type env struct {
	config *Config
	logger *zap.Logger
	client *devmatch.Client
}

func setup() (*env, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	log, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: config.Log.Output,
		Fields: []zap.Field{
			zap.Int64(logger.FieldActorID, config.Actor.ID),
			zap.String(logger.FieldRole, strings.ToLower(strings.TrimSpace(config.Actor.Role))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	token, err := secrets.Optional(secrets.Source{
		Name:  "api token",
		Value: config.API.Token,
		File:  config.API.TokenFile,
	})
	if err != nil {
		return nil, err
	}

	client := devmatch.New(log, token)
	if config.API.URL != "" {
		client.APIURL = config.API.URL
	}
	if config.API.UserAgent != "" {
		client.UserAgent = config.API.UserAgent
	}
	if config.API.Timeout > 0 {
		client.HTTPClient.Timeout = config.API.Timeout
	}

	log.Debug("configured", zap.String("api", client.APIURL), zap.String("version", version))

	return &env{config: config, logger: log, client: client}, nil
}

func (e *env) actor() (review.Actor, error) {
	if e.config.Actor.ID <= 0 {
		return review.Actor{}, errors.New("actor id is required (set actor.id or --actor-id)")
	}

	role := review.Role(strings.ToLower(strings.TrimSpace(e.config.Actor.Role)))
	switch role {
	case review.RoleCandidate, review.RoleCompany, review.RoleAdmin:
	default:
		return review.Actor{}, fmt.Errorf("unknown role %q", e.config.Actor.Role)
	}

	return review.Actor{ID: e.config.Actor.ID, Role: role}, nil
}

func (e *env) guardConfig() guard.Config {
	return guard.Config{
		Concurrency:  e.config.Guard.Concurrency,
		CheckTimeout: e.config.Guard.CheckTimeout,
	}
}

// candidateFlow loads the applications of the acting candidate.
func (e *env) candidateFlow(ctx context.Context) (*workflow.CandidateFlow, []*workflow.Application, error) {
	actor, err := e.actor()
	if err != nil {
		return nil, nil, err
	}
	if actor.Role != review.RoleCandidate {
		return nil, nil, fmt.Errorf("this command acts as a candidate, got role %q", actor.Role)
	}

	flow := workflow.NewCandidateFlow(actor.ID, e.client, nil, workflow.Config{Guard: e.guardConfig()}, e.logger)

	apps, report, err := flow.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("applications loaded",
		zap.Int("count", len(apps)),
		zap.Int("checked", report.Checked),
		zap.Int("submitted", report.Present),
		zap.Int("check_failures", report.Failed),
	)

	return flow, apps, nil
}

// ledger opens the configured review ledger. The returned func closes it.
func (e *env) ledger() (review.Ledger, func(), error) {
	path := strings.TrimSpace(e.config.Ledger.Path)
	if path == "" {
		return review.NewMemoryLedger(), func() {}, nil
	}

	store, err := storage.NewStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger: %w", err)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			e.logger.Warn("closing ledger", zap.Error(err))
		}
	}, nil
}

// reviewer builds the optional AI reviewer. A nil reviewer disables hints.
func (e *env) reviewer(ctx context.Context) ai.Reviewer {
	cfg := e.config.AI
	if !cfg.Enabled {
		return nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		Env:  "GEMINI_API_KEY",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		e.logger.Warn("ai review disabled", zap.Error(err), zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY"))
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, e.logger)
	if err != nil {
		e.logger.Warn("ai review disabled", zap.Error(err))
		return nil
	}

	return gemini.NewReviewer(generator, logger.WithFields(e.logger, logger.AIFields("gemini", generator.Model())...), cfg.Gemini.MaxLogLength)
}

func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return id, nil
}

func findApplication(apps []*workflow.Application, jobID int64) (*workflow.Application, error) {
	for _, app := range apps {
		if app.JobID == jobID {
			return app, nil
		}
	}
	return nil, fmt.Errorf("no application for job %d", jobID)
}
