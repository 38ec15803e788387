package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/appcaster/app/appcast"
	"github.com/lysyi3m/appcaster/app/database"
	"github.com/lysyi3m/appcaster/app/host"
	"github.com/lysyi3m/appcaster/app/project"
	"github.com/lysyi3m/appcaster/app/publisher"
	"github.com/lysyi3m/appcaster/app/tasks"
)

// NewHandler wires the HTTP handlers. Relative artifact paths in posted
// builds resolve against artifactsDir.
func NewHandler(configCache *project.ConfigCache, buildRepo database.BuildRepository,
	scheduler tasks.TaskSchedulerInterface, artifactsDir string) *Handler {
	return &Handler{
		configCache:  configCache,
		buildRepo:    buildRepo,
		reader:       appcast.NewReader(),
		scheduler:    scheduler,
		artifactsDir: artifactsDir,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if projectCount, err := h.buildRepo.GetProjectCount(); err == nil {
		health["projects_with_builds"] = projectCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListProjects(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	projects := make([]map[string]interface{}, 0, len(configs))

	for name, projectConfig := range configs {
		projectInfo := map[string]interface{}{
			"name":         name,
			"display_name": projectConfig.ProjectName(),
			"url_base":     projectConfig.URLBase,
			"feed":         projectConfig.FeedPath(),
			"use_markdown": projectConfig.UseMarkdown,
		}

		if buildCount, err := h.buildRepo.GetBuildCount(name); err == nil {
			projectInfo["build_count"] = buildCount
		}

		if latest, err := h.buildRepo.GetLatestBuild(name); err == nil && latest != nil {
			projectInfo["latest_build"] = latest.Number
			projectInfo["latest_status"] = latest.Status
		}

		projects = append(projects, projectInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
	})
}

// APIRecordBuild stores a posted build and queues a publish run for its
// project.
func (h *Handler) APIRecordBuild(c *gin.Context) {
	name := c.Param("name")

	projectConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Project configuration not found", "project", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Project configuration not found"})
		return
	}

	var payload host.Build
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid build payload", "details": err.Error()})
		return
	}

	record, err := payload.Record(h.artifactsDir)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid build payload", "details": err.Error()})
		return
	}

	build := database.Build{
		Project:   name,
		Number:    record.BuildNumber,
		Status:    record.BuildStatus.String(),
		Changes:   record.ChangeEntries,
		Artifacts: record.BuildArtifacts,
	}
	if err := h.buildRepo.UpsertBuild(build); err != nil {
		slog.Error("Database error", "operation", "upsert_build", "project", name, "build", build.Number, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	publishTask := tasks.NewPublishTask(projectConfig, h.buildRepo).OnDone(publishOutcomeLogger(name, build.Number))
	if err := h.scheduler.EnqueueTask(publishTask); err != nil {
		slog.Error("Error enqueueing publish task", "project", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue publish task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"build": gin.H{
			"project": name,
			"number":  build.Number,
			"status":  build.Status,
		},
		"task": gin.H{
			"id":   publishTask.ID,
			"type": publishTask.Type,
		},
	})
}

// publishOutcomeLogger reports what a queued publish did for the build that
// triggered it. Failures are logged by the scheduler.
func publishOutcomeLogger(name string, number int) func(*publisher.Result, error) {
	return func(result *publisher.Result, err error) {
		switch {
		case err != nil:
			return
		case result.Skipped:
			slog.Info("Appcast not published", "project", name, "build", number, "reason", result.Reason)
		default:
			slog.Info("Appcast published", "project", name, "build", number,
				"feed", result.FeedPath, "releases", result.Releases)
		}
	}
}

// APIListReleases reads the written appcast back. A project that has not
// been published yet has no releases.
func (h *Handler) APIListReleases(c *gin.Context) {
	name := c.Param("name")

	projectConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Project configuration not found", "project", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Project configuration not found"})
		return
	}

	releases, err := h.reader.ReadFile(projectConfig.FeedPath())
	if errors.Is(err, fs.ErrNotExist) {
		releases = []appcast.PublishedRelease{}
	} else if err != nil {
		slog.Error("Appcast read error", "project", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read appcast"})
		return
	}

	c.Header("X-Release-Count", strconv.Itoa(len(releases)))
	c.JSON(http.StatusOK, gin.H{
		"project":  name,
		"releases": releases,
		"total":    len(releases),
	})
}

// GetAppcast serves the written appcast document itself.
func (h *Handler) GetAppcast(c *gin.Context) {
	name := c.Param("name")

	projectConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if _, err := os.Stat(projectConfig.FeedPath()); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.File(projectConfig.FeedPath())
}
