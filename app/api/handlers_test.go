package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/appcaster/app/database"
	"github.com/lysyi3m/appcaster/app/project"
	"github.com/lysyi3m/appcaster/app/tasks"
)

const testAPIKey = "secret"

type queuedScheduler struct {
	queued []tasks.TaskInterface
}

func (s *queuedScheduler) Start() {}
func (s *queuedScheduler) Stop()  {}

func (s *queuedScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.queued = append(s.queued, task)
	return nil
}

type fixture struct {
	server       http.Handler
	repo         *database.BuildRepositoryImpl
	scheduler    *queuedScheduler
	outputDir    string
	artifactsDir string
}

func newFixture(t *testing.T, apiKey string) *fixture {
	t.Helper()

	projectsDir := t.TempDir()
	outputDir := t.TempDir()
	artifactsDir := t.TempDir()

	yml := "url_base: https://downloads.example.com/\n" +
		"output_directory: " + outputDir + "\n" +
		"display_name: MyApp\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectsDir, "myapp.yml"), []byte(yml), 0644))

	configCache := project.NewConfigCache(projectsDir)
	require.NoError(t, configCache.Run())

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := database.NewBuildRepository(db)
	scheduler := &queuedScheduler{}

	return &fixture{
		server:       NewServer(NewHandler(configCache, repo, scheduler, artifactsDir), apiKey),
		repo:         repo,
		scheduler:    scheduler,
		outputDir:    outputDir,
		artifactsDir: artifactsDir,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func buildPayload(number, status string) string {
	return `{"number":"` + number + `","status":"` + status + `","state":"finished",` +
		`"changes":{"change":[{"comment":"change ` + number + `"}]},` +
		`"artifacts":{"file":[{"name":"MyApp.zip","path":"` + number + `/MyApp.zip"}]}}`
}

func TestHealth(t *testing.T) {
	f := newFixture(t, testAPIKey)

	w := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["loaded_configurations"])
	assert.EqualValues(t, 0, body["projects_with_builds"])
}

func TestRecordBuildRequiresKey(t *testing.T) {
	f := newFixture(t, testAPIKey)

	w := f.do(t, http.MethodPost, "/api/projects/myapp/builds", buildPayload("1", "SUCCESS"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/projects/myapp/builds", buildPayload("1", "SUCCESS"),
		map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.scheduler.queued)
}

func TestRecordBuildDisabledWithoutKey(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/projects/myapp/builds", buildPayload("1", "SUCCESS"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordBuildValidation(t *testing.T) {
	f := newFixture(t, testAPIKey)
	auth := map[string]string{"Authorization": "Bearer " + testAPIKey}

	w := f.do(t, http.MethodPost, "/api/projects/unknown/builds", buildPayload("1", "SUCCESS"), auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/projects/myapp/builds", "{not json", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/projects/myapp/builds", buildPayload("zero", "SUCCESS"), auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, f.scheduler.queued)
}

func TestRecordBuildAndListReleases(t *testing.T) {
	f := newFixture(t, testAPIKey)
	auth := map[string]string{"X-API-Key": testAPIKey}

	for _, n := range []string{"1", "2"} {
		dir := filepath.Join(f.artifactsDir, n)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "MyApp.zip"), []byte("build "+n), 0644))
	}

	w := f.do(t, http.MethodGet, "/api/projects/myapp/releases", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-Release-Count"))

	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(previous)

	w = f.do(t, http.MethodPost, "/api/projects/myapp/builds", buildPayload("1", "FAILURE"), auth)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, f.scheduler.queued, 1)

	require.NoError(t, f.scheduler.queued[0].Execute(context.Background()))
	assert.Contains(t, logs.String(), `msg="Appcast not published" project=myapp build=1`)

	w = f.do(t, http.MethodPost, "/api/projects/myapp/builds", buildPayload("2", "SUCCESS"), auth)
	require.Equal(t, http.StatusAccepted, w.Code)

	stored, err := f.repo.GetBuild("myapp", 2)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "SUCCESS", stored.Status)
	assert.Equal(t, filepath.Join(f.artifactsDir, "2", "MyApp.zip"), stored.Artifacts[0].Path)

	require.Len(t, f.scheduler.queued, 2)
	require.NoError(t, f.scheduler.queued[1].Execute(context.Background()))
	assert.Contains(t, logs.String(), `msg="Appcast published" project=myapp build=2`)

	w = f.do(t, http.MethodGet, "/api/projects/myapp/releases", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Releases []struct {
			Version   int    `json:"version"`
			URL       string `json:"url"`
			Changelog string `json:"changelog"`
		} `json:"releases"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, 2, body.Releases[0].Version)
	assert.Equal(t, "https://downloads.example.com/MyApp-2/MyApp.zip", body.Releases[0].URL)
	assert.Equal(t, "change 1\nchange 2", body.Releases[0].Changelog)

	w = f.do(t, http.MethodGet, "/appcasts/myapp", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sparkle:version="2"`)
}

func TestListProjects(t *testing.T) {
	f := newFixture(t, testAPIKey)

	w := f.do(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Projects []map[string]interface{} `json:"projects"`
		Total    int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "MyApp", body.Projects[0]["display_name"])
	assert.EqualValues(t, 0, body.Projects[0]["build_count"])
}

func TestGetAppcastMissing(t *testing.T) {
	f := newFixture(t, testAPIKey)

	w := f.do(t, http.MethodGet, "/appcasts/myapp", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
