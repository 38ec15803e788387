package database

import "github.com/lysyi3m/appcaster/app/history"

// storedBuild exposes a stored build as history. Predecessors are loaded
// from the database on demand.
type storedBuild struct {
	row  *Build
	repo *BuildRepositoryImpl
}

var _ history.Build = (*storedBuild)(nil)

func (b *storedBuild) Number() int                   { return b.row.Number }
func (b *storedBuild) Status() history.Status        { return history.ParseStatus(b.row.Status) }
func (b *storedBuild) Artifacts() []history.Artifact { return b.row.Artifacts }
func (b *storedBuild) Changes() []string             { return b.row.Changes }

func (b *storedBuild) Previous() (history.Build, error) {
	prev, err := b.repo.GetPreviousBuild(b.row.Project, b.row.Number)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}
	return &storedBuild{row: prev, repo: b.repo}, nil
}
