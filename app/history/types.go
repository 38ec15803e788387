package history

import "strings"

type Status int

const (
	StatusOther Status = iota
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	default:
		return "OTHER"
	}
}

// ParseStatus maps a host status string onto Status. Anything that is neither
// a success nor a failure (aborted, unstable, running) is StatusOther.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS", "SUCCEEDED", "PASSED":
		return StatusSuccess
	case "FAILURE", "FAILED", "ERROR", "ERRORED":
		return StatusFailure
	default:
		return StatusOther
	}
}

type Artifact struct {
	Name string // file name as published
	Path string // absolute location in build storage
}

// Build is the read-only view of one host build record.
type Build interface {
	Number() int
	Status() Status
	Artifacts() []Artifact
	Changes() []string
	// Previous returns the immediate predecessor, or nil at the start of history.
	Previous() (Build, error)
}

// Release is one feed-worthy unit: a successful build plus the changes of
// the failed builds that led up to it.
type Release struct {
	Build   Build
	Changes []string

	// Set by the linker.
	File string
	URL  string
}
