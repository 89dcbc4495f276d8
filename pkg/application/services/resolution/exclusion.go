package resolution

import (
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// DefaultExclusionMarkers are the annotation comments that keep a component out of a run
var DefaultExclusionMarkers = []string{
	"not needed",
	"quarantined",
	"do not order",
	"customer supplied",
}

// ExclusionFilter drops demand lines whose component carries an exclusion marker in the
// warehouse annotation table. Comments that are not markers are informational.
type ExclusionFilter struct {
	excluded map[string]string
}

// NewExclusionFilter builds a filter from the annotation table. Markers are compared
// case-folded and trimmed; a nil marker list selects DefaultExclusionMarkers.
func NewExclusionFilter(annotations []entities.Annotation, markers []string) *ExclusionFilter {
	if markers == nil {
		markers = DefaultExclusionMarkers
	}
	markerSet := make(map[string]bool, len(markers))
	for _, m := range markers {
		if folded := normalize.Fold(m); folded != "" {
			markerSet[folded] = true
		}
	}

	excluded := make(map[string]string)
	for _, a := range annotations {
		key := normalize.Key(a.ComponentName)
		if key == "" {
			continue
		}
		if markerSet[normalize.Fold(a.Comment)] {
			if _, exists := excluded[key]; !exists {
				excluded[key] = a.Comment
			}
		}
	}

	return &ExclusionFilter{excluded: excluded}
}

// IsExcluded reports whether a canonical key is excluded, with the marker that excluded it
func (f *ExclusionFilter) IsExcluded(key string) (string, bool) {
	comment, ok := f.excluded[key]
	return comment, ok
}

// Len returns the number of excluded components
func (f *ExclusionFilter) Len() int {
	return len(f.excluded)
}

// Apply splits demand lines into kept and excluded, both in input order
func (f *ExclusionFilter) Apply(demands []entities.ComponentDemand) (kept, excluded []entities.ComponentDemand) {
	kept = make([]entities.ComponentDemand, 0, len(demands))
	excluded = make([]entities.ComponentDemand, 0)
	for _, d := range demands {
		if _, ok := f.excluded[d.CanonicalKey]; ok {
			excluded = append(excluded, d)
			continue
		}
		kept = append(kept, d)
	}
	return kept, excluded
}
