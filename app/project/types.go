package project

import (
	"cmp"
	"path/filepath"

	"github.com/lysyi3m/appcaster/app/appcast"
)

type Config struct {
	Name            string            // Derived from filename (without .yml extension)
	DisplayName     string            `yaml:"display_name"`
	URLBase         string            `yaml:"url_base"`
	OutputDirectory string            `yaml:"output_directory"`
	RSSFilename     string            `yaml:"rss_filename"`
	Author          string            `yaml:"author"`
	Title           string            `yaml:"title"`
	Description     string            `yaml:"description"`
	MessageFilter   string            `yaml:"message_filter"`
	UseMarkdown     bool              `yaml:"use_markdown"`
	MimeTypes       map[string]string `yaml:"mime_types"`
}

// ProjectName is the display name used in directory names, titles and the
// default feed filename.
func (c *Config) ProjectName() string {
	return cmp.Or(c.DisplayName, c.Name)
}

func (c *Config) Channel() appcast.Channel {
	return appcast.Channel{
		Project:     c.ProjectName(),
		URLBase:     c.URLBase,
		Filename:    c.RSSFilename,
		Author:      c.Author,
		Title:       c.Title,
		Description: c.Description,
	}
}

func (c *Config) FeedPath() string {
	return filepath.Join(c.OutputDirectory, c.Channel().FeedFilename())
}
