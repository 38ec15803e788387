package appcast

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks errors caused by the project or build setup rather
// than the environment. Retrying will not help.
var ErrConfiguration = errors.New("configuration error")

// ArtifactCountError reports a release whose build does not have exactly
// one artifact.
type ArtifactCountError struct {
	Project string
	Build   int
	Count   int
}

func (e *ArtifactCountError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("can't build appcast for %s: build #%d has no artifact", e.Project, e.Build)
	}
	return fmt.Sprintf("can't build appcast for %s: build #%d has %d artifacts, expected 1", e.Project, e.Build, e.Count)
}

func (e *ArtifactCountError) Is(target error) bool {
	return target == ErrConfiguration
}

// ArtifactNameError reports an artifact whose name does not reduce to a
// plain file name.
type ArtifactNameError struct {
	Project string
	Build   int
	Name    string
}

func (e *ArtifactNameError) Error() string {
	return fmt.Sprintf("can't build appcast for %s: build #%d has artifact with invalid name %q", e.Project, e.Build, e.Name)
}

func (e *ArtifactNameError) Is(target error) bool {
	return target == ErrConfiguration
}
