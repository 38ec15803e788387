package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/appcaster/app/database"
	"github.com/lysyi3m/appcaster/app/project"
	"github.com/lysyi3m/appcaster/app/publisher"
)

type PublishTask struct {
	Task
	ProjectConfig *project.Config
	buildRepo     database.BuildRepository
	done          func(*publisher.Result, error)
}

func NewPublishTask(projectConfig *project.Config, buildRepo database.BuildRepository) *PublishTask {
	return &PublishTask{
		Task:          NewTask(TaskTypePublish, projectConfig.Name),
		ProjectConfig: projectConfig,
		buildRepo:     buildRepo,
	}
}

// OnDone registers a callback invoked with the outcome of Execute.
func (t *PublishTask) OnDone(fn func(*publisher.Result, error)) *PublishTask {
	t.done = fn
	return t
}

func (t *PublishTask) Execute(ctx context.Context) error {
	result, err := t.execute(ctx)
	if t.done != nil {
		t.done(result, err)
	}
	return err
}

func (t *PublishTask) execute(ctx context.Context) (*publisher.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	latest, err := t.buildRepo.Latest(t.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest build: %w", err)
	}

	result, err := publisher.New(t.ProjectConfig, slog.Default()).Run(ctx, latest)
	if err != nil {
		return nil, fmt.Errorf("failed to publish appcast: %w", err)
	}

	slog.Info("Task completed",
		"type", "Publish",
		"project", t.Project,
		"duration", t.GetDuration(),
		"skipped", result.Skipped,
		"releases", result.Releases)

	return result, nil
}
