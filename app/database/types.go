package database

import (
	"time"

	"github.com/lysyi3m/appcaster/app/history"
)

type Build struct {
	Project   string
	Number    int
	Status    string // host status as reported, e.g. SUCCESS, FAILURE, ABORTED
	Changes   []string
	Artifacts []history.Artifact
	CreatedAt time.Time
	UpdatedAt time.Time
}
