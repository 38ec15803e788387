package database

import "github.com/lysyi3m/appcaster/app/history"

type BuildRepository interface {
	GetBuild(project string, number int) (*Build, error)
	GetLatestBuild(project string) (*Build, error)
	GetPreviousBuild(project string, number int) (*Build, error)
	GetBuildCount(project string) (int, error)
	GetProjectCount() (int, error)

	UpsertBuild(build Build) error

	// Latest returns the newest build as a lazily linked history, or nil.
	Latest(project string) (history.Build, error)
}
