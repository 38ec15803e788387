package history

import "sort"

// Record is an in-memory Build. Chain links a slice of records so each one
// points at the record with the next lower number.
type Record struct {
	BuildNumber    int
	BuildStatus    Status
	BuildArtifacts []Artifact
	ChangeEntries  []string

	previous *Record
}

var _ Build = (*Record)(nil)

func (r *Record) Number() int           { return r.BuildNumber }
func (r *Record) Status() Status        { return r.BuildStatus }
func (r *Record) Artifacts() []Artifact { return r.BuildArtifacts }
func (r *Record) Changes() []string     { return r.ChangeEntries }

func (r *Record) Previous() (Build, error) {
	if r.previous == nil {
		return nil, nil
	}
	return r.previous, nil
}

// Chain sorts records by build number and links them. It returns the newest
// record, or nil when records is empty.
func Chain(records []*Record) *Record {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]*Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BuildNumber < sorted[j].BuildNumber
	})

	for i := range sorted {
		sorted[i].previous = nil
		if i > 0 {
			sorted[i].previous = sorted[i-1]
		}
	}

	return sorted[len(sorted)-1]
}
