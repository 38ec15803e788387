package appcast

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lysyi3m/appcaster/app/history"
)

type Linker struct {
	project   string
	outputDir string
	urlBase   string
}

func NewLinker(project, outputDir, urlBase string) *Linker {
	return &Linker{
		project:   project,
		outputDir: outputDir,
		urlBase:   strings.TrimSuffix(urlBase, "/"),
	}
}

// Check verifies every release has exactly one artifact with a usable name.
// It runs before any link is made so a bad build never leaves output behind.
func (l *Linker) Check(releases []history.Release) error {
	for _, r := range releases {
		artifacts := r.Build.Artifacts()
		if n := len(artifacts); n != 1 {
			return &ArtifactCountError{Project: l.project, Build: r.Build.Number(), Count: n}
		}
		if _, err := l.fileName(r.Build.Number(), artifacts[0]); err != nil {
			return err
		}
	}
	return nil
}

// Run hard links the release artifact into <outputDir>/<project>-<number>/
// and fills in File and URL. An existing file at the destination is an
// error; nothing is overwritten.
func (l *Linker) Run(release *history.Release) error {
	artifacts := release.Build.Artifacts()
	if len(artifacts) != 1 {
		return &ArtifactCountError{Project: l.project, Build: release.Build.Number(), Count: len(artifacts)}
	}
	name, err := l.fileName(release.Build.Number(), artifacts[0])
	if err != nil {
		return err
	}

	versionDir := l.VersionDir(release.Build.Number())
	dir := filepath.Join(l.outputDir, versionDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create version directory: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Link(artifacts[0].Path, dest); err != nil {
		return fmt.Errorf("failed to link artifact for build #%d: %w", release.Build.Number(), err)
	}

	release.File = dest
	release.URL = l.urlBase + "/" + url.PathEscape(versionDir) + "/" + url.PathEscape(name)

	return nil
}

// fileName is the last element of the artifact name (or of its path when
// unnamed). Host-supplied directories never reach the output tree.
func (l *Linker) fileName(build int, artifact history.Artifact) (string, error) {
	raw := artifact.Name
	if raw == "" {
		raw = artifact.Path
	}

	name := filepath.Base(strings.ReplaceAll(raw, "\\", "/"))
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", &ArtifactNameError{Project: l.project, Build: build, Name: raw}
	}
	return name, nil
}

func (l *Linker) VersionDir(number int) string {
	return l.project + "-" + strconv.Itoa(number)
}
