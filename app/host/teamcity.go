package host

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lysyi3m/appcaster/app/history"
)

// Builds mirrors the TeamCity REST builds listing.
type Builds struct {
	Build []Build `json:"build"`
}

type Build struct {
	Number    string    `json:"number"`
	Status    string    `json:"status"`
	State     string    `json:"state"`
	Changes   Changes   `json:"changes"`
	Artifacts Artifacts `json:"artifacts"`
}

type Changes struct {
	Change []Change `json:"change"`
}

type Change struct {
	UserName string `json:"username"`
	Comment  string `json:"comment"`
	Msg      string `json:"msg"`
}

type Artifacts struct {
	File []File `json:"file"`
}

type File struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Message is the text a change contributes to the changelog.
func (c Change) Message() string {
	if c.Comment != "" {
		return c.Comment
	}
	return c.Msg
}

// Record converts the build. Relative artifact paths resolve against
// artifactRoot. Builds that have not finished count as neither success nor
// failure.
func (b Build) Record(artifactRoot string) (*history.Record, error) {
	number, err := strconv.Atoi(strings.TrimSpace(b.Number))
	if err != nil || number <= 0 {
		return nil, fmt.Errorf("invalid build number %q", b.Number)
	}

	status := history.ParseStatus(b.Status)
	if b.State != "" && !strings.EqualFold(b.State, "finished") {
		status = history.StatusOther
	}

	record := &history.Record{
		BuildNumber: number,
		BuildStatus: status,
	}

	for _, c := range b.Changes.Change {
		record.ChangeEntries = append(record.ChangeEntries, c.Message())
	}

	for _, f := range b.Artifacts.File {
		path := f.Path
		if path == "" {
			path = f.Name
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(artifactRoot, path)
		}
		record.BuildArtifacts = append(record.BuildArtifacts, history.Artifact{
			Name: cmp.Or(f.Name, filepath.Base(path)),
			Path: path,
		})
	}

	return record, nil
}

func Decode(r io.Reader) (*Builds, error) {
	var builds Builds
	if err := json.NewDecoder(r).Decode(&builds); err != nil {
		return nil, fmt.Errorf("failed to decode builds: %w", err)
	}
	return &builds, nil
}

// LoadFile reads an exported build listing and returns its newest build
// linked to its predecessors. Relative artifact paths resolve against the
// file's directory. An empty listing yields nil.
func LoadFile(path string) (history.Build, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open build history: %w", err)
	}
	defer f.Close()

	builds, err := Decode(f)
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(path)
	records := make([]*history.Record, 0, len(builds.Build))
	seen := make(map[int]bool, len(builds.Build))
	for _, b := range builds.Build {
		record, err := b.Record(root)
		if err != nil {
			return nil, err
		}
		if seen[record.BuildNumber] {
			return nil, fmt.Errorf("duplicate build number %d", record.BuildNumber)
		}
		seen[record.BuildNumber] = true
		records = append(records, record)
	}

	latest := history.Chain(records)
	if latest == nil {
		return nil, nil
	}
	return latest, nil
}
