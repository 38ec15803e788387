package project

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	projectsDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(projectsDir string) *ConfigCache {
	return &ConfigCache{
		projectsDir: projectsDir,
		cache:       make(map[string]*Config),
	}
}

// Run loads every project file in the directory. A broken file does not
// stop the others from loading; all failures are returned together. Two
// projects publishing the same feed file are rejected.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.projectsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.projectsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	var errs []error
	feeds := make(map[string]string, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		projectConfig, err := cc.LoadConfig(name)
		if err != nil {
			slog.Warn("Skipping project configuration", "file", file, "error", err)
			errs = append(errs, fmt.Errorf("error loading %s: %w", file, err))
			continue
		}

		feedPath := filepath.Clean(projectConfig.FeedPath())
		if other, ok := feeds[feedPath]; ok {
			cc.remove(name)
			errs = append(errs, fmt.Errorf("error loading %s: feed %s is already published by project %s", file, feedPath, other))
			continue
		}
		feeds[feedPath] = name

		slog.Debug("Configuration loaded", "project", name, "feed", feedPath, "markdown", projectConfig.UseMarkdown)
	}

	return errors.Join(errs...)
}

func (cc *ConfigCache) remove(name string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.cache, name)
}

func (cc *ConfigCache) LoadConfig(name string) (*Config, error) {
	configFile := cc.getConfigFilePath(name)
	projectConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	projectConfig.Name = name

	if err := cc.validateConfig(projectConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[projectConfig.Name] = projectConfig

	return projectConfig, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	projectConfig, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("project config with name '%s' not found", name)
	}
	return projectConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var projectConfig Config
	if err := yaml.Unmarshal(data, &projectConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Blank values count as unset. message_filter is left alone: a prefix
	// of spaces matches indented lines.
	for _, field := range []*string{
		&projectConfig.DisplayName, &projectConfig.URLBase, &projectConfig.OutputDirectory,
		&projectConfig.RSSFilename, &projectConfig.Author, &projectConfig.Title,
		&projectConfig.Description,
	} {
		if strings.TrimSpace(*field) == "" {
			*field = ""
		}
	}

	return &projectConfig, nil
}

func (cc *ConfigCache) validateConfig(projectConfig *Config) error {
	if projectConfig == nil {
		return fmt.Errorf("projectConfig is nil")
	}

	requiredFields := map[string]string{
		"project name":     projectConfig.Name,
		"url base":         projectConfig.URLBase,
		"output directory": projectConfig.OutputDirectory,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if strings.ContainsAny(projectConfig.ProjectName(), `/\`) {
		return fmt.Errorf("project name must not contain path separators: %s", projectConfig.ProjectName())
	}
	if projectConfig.RSSFilename != "" && filepath.Base(projectConfig.RSSFilename) != projectConfig.RSSFilename {
		return fmt.Errorf("rss filename must be a bare file name: %s", projectConfig.RSSFilename)
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(name string) string {
	return filepath.Join(cc.projectsDir, name+".yml")
}
