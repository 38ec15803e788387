package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lysyi3m/appcaster/app/api"
	"github.com/lysyi3m/appcaster/app/appcast"
	"github.com/lysyi3m/appcaster/app/cfg"
	"github.com/lysyi3m/appcaster/app/database"
	"github.com/lysyi3m/appcaster/app/history"
	"github.com/lysyi3m/appcaster/app/host"
	"github.com/lysyi3m/appcaster/app/project"
	"github.com/lysyi3m/appcaster/app/publisher"
	"github.com/lysyi3m/appcaster/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		os.Exit(2)
	}
	if appCfg == nil {
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch appCfg.Command {
	case cfg.CommandPublish:
		err = runPublish(ctx, appCfg)
	case cfg.CommandRecord:
		err = runRecord(ctx, appCfg)
	case cfg.CommandList:
		err = runList(appCfg)
	case cfg.CommandServe:
		err = runServe(ctx, appCfg)
	default:
		err = fmt.Errorf("unknown command %q", appCfg.Command)
	}

	if err != nil {
		slog.Error("Command failed", "command", appCfg.Command, "error", err)
		stop()
		os.Exit(1)
	}
}

func runPublish(ctx context.Context, appCfg *cfg.Cfg) error {
	projectConfig, err := project.NewConfigCache(appCfg.ProjectsDir).LoadConfig(appCfg.Project)
	if err != nil {
		return err
	}

	var latest history.Build
	if appCfg.HistoryFile != "" {
		latest, err = host.LoadFile(appCfg.HistoryFile)
		if err != nil {
			return err
		}
	} else {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		latest, err = database.NewBuildRepository(db).Latest(appCfg.Project)
		if err != nil {
			return err
		}
	}

	return publish(ctx, projectConfig, latest)
}

func runRecord(ctx context.Context, appCfg *cfg.Cfg) error {
	projectConfig, err := project.NewConfigCache(appCfg.ProjectsDir).LoadConfig(appCfg.Project)
	if err != nil {
		return err
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	build := database.Build{
		Project: appCfg.Project,
		Number:  appCfg.Build.Number,
		Status:  appCfg.Build.Status,
		Changes: appCfg.Build.Changes,
	}
	for _, path := range appCfg.Build.Artifacts {
		if !filepath.IsAbs(path) {
			path = filepath.Join(appCfg.ArtifactsDir, path)
		}
		build.Artifacts = append(build.Artifacts, history.Artifact{Name: filepath.Base(path), Path: path})
	}

	repo := database.NewBuildRepository(db)
	if err := repo.UpsertBuild(build); err != nil {
		return err
	}
	slog.Info("Build recorded", "project", build.Project, "build", build.Number, "status", build.Status,
		"artifacts", len(build.Artifacts), "changes", len(build.Changes))

	if !appCfg.Publish {
		return nil
	}

	latest, err := repo.Latest(appCfg.Project)
	if err != nil {
		return err
	}
	return publish(ctx, projectConfig, latest)
}

func publish(ctx context.Context, projectConfig *project.Config, latest history.Build) error {
	result, err := publisher.New(projectConfig, slog.Default()).Run(ctx, latest)
	if err != nil {
		return err
	}

	if result.Skipped {
		slog.Info("Appcast not published", "project", projectConfig.Name, "reason", result.Reason)
		return nil
	}

	slog.Info("Appcast published", "project", projectConfig.Name, "feed", result.FeedPath,
		"releases", result.Releases, "duration", result.Duration)
	return nil
}

func runList(appCfg *cfg.Cfg) error {
	projectConfig, err := project.NewConfigCache(appCfg.ProjectsDir).LoadConfig(appCfg.Project)
	if err != nil {
		return err
	}

	releases, err := appcast.NewReader().ReadFile(projectConfig.FeedPath())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tPUBLISHED\tSIZE\tURL")
	for _, release := range releases {
		published := "-"
		if release.PublishedAt != nil {
			published = release.PublishedAt.In(time.Local).Format(time.DateTime)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", release.Version, published, release.Length, release.URL)
	}
	return w.Flush()
}

func runServe(ctx context.Context, appCfg *cfg.Cfg) error {
	slog.Info("Starting Appcaster server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", appCfg.DBPath)

	configCache := project.NewConfigCache(appCfg.ProjectsDir)
	if err := configCache.Run(); err != nil {
		if configCache.GetConfigCount() == 0 {
			return fmt.Errorf("failed to load project configurations: %w", err)
		}
		slog.Error("Some project configurations were not loaded", "error", err)
	}
	slog.Info("Loaded project configurations", "count", configCache.GetConfigCount(), "dir", appCfg.ProjectsDir)

	buildRepo := database.NewBuildRepository(db)

	scheduler := tasks.NewScheduler(appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(configCache, buildRepo, scheduler, appCfg.ArtifactsDir)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Appcaster server shutdown complete")
	return nil
}
