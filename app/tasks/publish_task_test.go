package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/appcaster/app/database"
	"github.com/lysyi3m/appcaster/app/history"
	"github.com/lysyi3m/appcaster/app/project"
	"github.com/lysyi3m/appcaster/app/publisher"
)

func TestPublishTaskExecute(t *testing.T) {
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	defer db.Close()
	repo := database.NewBuildRepository(db)

	artifact := filepath.Join(t.TempDir(), "MyApp.zip")
	require.NoError(t, os.WriteFile(artifact, []byte("payload"), 0644))

	require.NoError(t, repo.UpsertBuild(database.Build{
		Project:   "myapp",
		Number:    1,
		Status:    "SUCCESS",
		Changes:   []string{"initial"},
		Artifacts: []history.Artifact{{Name: "MyApp.zip", Path: artifact}},
	}))

	config := &project.Config{
		Name:            "myapp",
		URLBase:         "https://example.com",
		OutputDirectory: t.TempDir(),
	}

	var got *publisher.Result
	task := NewPublishTask(config, repo).OnDone(func(r *publisher.Result, err error) {
		require.NoError(t, err)
		got = r
	})
	task.Start()

	require.NoError(t, task.Execute(context.Background()))
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Releases)
	assert.FileExists(t, filepath.Join(config.OutputDirectory, "myapp.rss"))
	assert.FileExists(t, filepath.Join(config.OutputDirectory, "myapp-1", "MyApp.zip"))
	assert.Equal(t, TaskTypePublish, task.GetType())
	assert.Equal(t, "myapp", task.GetProject())
}

func TestPublishTaskSkipsWithoutBuilds(t *testing.T) {
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	defer db.Close()

	config := &project.Config{Name: "empty", URLBase: "https://example.com", OutputDirectory: t.TempDir()}

	var got *publisher.Result
	err = NewPublishTask(config, database.NewBuildRepository(db)).
		OnDone(func(r *publisher.Result, _ error) { got = r }).
		Execute(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Skipped)
}

func TestPublishTaskCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := &project.Config{Name: "myapp"}
	err := NewPublishTask(config, nil).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
