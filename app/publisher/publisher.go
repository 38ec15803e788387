package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/appcaster/app/appcast"
	"github.com/lysyi3m/appcaster/app/history"
	"github.com/lysyi3m/appcaster/app/project"
)

// Result describes a finished publish run. A skipped run wrote nothing.
type Result struct {
	Skipped  bool
	Reason   string
	FeedPath string
	Releases int
	Duration time.Duration
}

type Publisher struct {
	config    *project.Config
	linker    *appcast.Linker
	generator *appcast.Generator
	logger    *slog.Logger
}

func New(config *project.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	var renderer appcast.Renderer
	if config.UseMarkdown {
		renderer = appcast.NewMarkdownRenderer()
	}

	return &Publisher{
		config: config,
		linker: appcast.NewLinker(config.ProjectName(), config.OutputDirectory, config.URLBase),
		generator: appcast.NewGenerator(config.Channel(),
			appcast.NewFormatter(config.MessageFilter, renderer),
			appcast.NewMimeTable(config.MimeTypes)),
		logger: logger.With("project", config.ProjectName()),
	}
}

// Run publishes the appcast for the history ending at latest. Nothing is
// written unless latest succeeded. Errors abort the run before the feed is
// written; artifacts linked by then are left in place.
func (p *Publisher) Run(ctx context.Context, latest history.Build) (*Result, error) {
	start := time.Now()

	if latest == nil || latest.Status() != history.StatusSuccess {
		reason := "no builds recorded"
		if latest != nil {
			reason = fmt.Sprintf("build #%d is %s", latest.Number(), latest.Status())
		}
		p.logger.Info("Not writing appcast file for unsuccessful build", "reason", reason)
		return &Result{Skipped: true, Reason: reason, Duration: time.Since(start)}, nil
	}

	releases, err := history.Aggregate(latest)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate build history: %w", err)
	}

	if err := p.linker.Check(releases); err != nil {
		return nil, err
	}

	for i := range releases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.linker.Run(&releases[i]); err != nil {
			return nil, err
		}
		p.logger.Debug("Artifact linked", "build", releases[i].Build.Number(), "file", releases[i].File)
	}

	rss, err := p.generator.Run(releases)
	if err != nil {
		return nil, fmt.Errorf("failed to generate appcast: %w", err)
	}

	feedPath := p.config.FeedPath()
	p.logger.Info("Writing appcast file", "path", feedPath, "releases", len(releases))
	if err := writeFile(feedPath, []byte(rss)); err != nil {
		return nil, fmt.Errorf("failed to write appcast file: %w", err)
	}

	return &Result{
		FeedPath: feedPath,
		Releases: len(releases),
		Duration: time.Since(start),
	}, nil
}

// writeFile replaces path through a temp file so readers never see a
// partial document.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
