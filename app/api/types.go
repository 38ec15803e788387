package api

import (
	"github.com/lysyi3m/appcaster/app/appcast"
	"github.com/lysyi3m/appcaster/app/database"
	"github.com/lysyi3m/appcaster/app/project"
	"github.com/lysyi3m/appcaster/app/tasks"
)

type ReaderInterface interface {
	ReadFile(filename string) ([]appcast.PublishedRelease, error)
}

var _ ReaderInterface = (*appcast.Reader)(nil)

type Handler struct {
	configCache  *project.ConfigCache
	buildRepo    database.BuildRepository
	reader       ReaderInterface
	scheduler    tasks.TaskSchedulerInterface
	artifactsDir string
}
