package history

import (
	"fmt"
	"iter"
	"slices"
)

// Walk yields builds from latest back to the start of history. A provider
// error is yielded once and ends the sequence.
func Walk(latest Build) iter.Seq2[Build, error] {
	return func(yield func(Build, error) bool) {
		for b := latest; b != nil; {
			if !yield(b, nil) {
				return
			}

			prev, err := b.Previous()
			if err != nil {
				yield(nil, fmt.Errorf("failed to load build preceding #%d: %w", b.Number(), err))
				return
			}
			b = prev
		}
	}
}

// Aggregate groups history into releases, newest first. Each successful build
// opens a bucket; it and every older failed build up to the next success feed
// their changes into it. Builds with any other status contribute nothing, and
// failures newer than the latest success have no bucket and are dropped.
//
// Changes inside a release are chronological: oldest failed build first, the
// anchoring success last.
func Aggregate(latest Build) ([]Release, error) {
	var releases []Release
	var chunks [][]string

	flush := func() {
		if len(releases) == 0 {
			return
		}
		var changes []string
		for _, chunk := range slices.Backward(chunks) {
			changes = append(changes, chunk...)
		}
		releases[len(releases)-1].Changes = changes
		chunks = nil
	}

	for b, err := range Walk(latest) {
		if err != nil {
			return nil, err
		}

		switch b.Status() {
		case StatusSuccess:
			flush()
			releases = append(releases, Release{Build: b})
		case StatusFailure:
		default:
			continue
		}

		if len(releases) > 0 {
			chunks = append(chunks, slices.Clone(b.Changes()))
		}
	}
	flush()

	return releases, nil
}
