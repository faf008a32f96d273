package models

import (
	"sort"
	"strings"

	dErrors "safenest/pkg/domain-errors"
)

// ListFilter narrows the onboarding list.
type ListFilter struct {
	// Status limits to one status; empty means all.
	Status Status
	// IncludeResolved shows requests hidden by the resolved flag.
	IncludeResolved bool
}

// ParseListFilter reads the status query value; "" and "all" disable it.
func ParseListFilter(status string, includeResolved bool) (ListFilter, error) {
	f := ListFilter{IncludeResolved: includeResolved}
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, "all") {
		return f, nil
	}
	st, err := ParseStatus(status)
	if err != nil {
		return ListFilter{}, dErrors.New(dErrors.CodeBadRequest, "unknown status filter")
	}
	f.Status = st
	return f, nil
}

// Apply drops resolved requests (unless included), applies the status filter
// and sorts most recently touched first.
func (f ListFilter) Apply(requests []*Request) []*Request {
	out := make([]*Request, 0, len(requests))
	for _, r := range requests {
		if r.Resolved && !f.IncludeResolved {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastTouched().After(out[j].LastTouched())
	})
	return out
}
