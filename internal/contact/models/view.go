package models

import (
	"sort"
	"strings"

	dErrors "safenest/pkg/domain-errors"
)

// Filter selects contact submissions by resolved state.
type Filter string

const (
	FilterAll         Filter = "all"
	FilterResolved    Filter = "resolved"
	FilterNotResolved Filter = "not-resolved"
)

// ParseFilter defaults to all when s is empty.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterResolved, FilterNotResolved:
		return f, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "filter must be one of all, resolved, not-resolved")
	}
}

// Apply filters and sorts newest first by created_at.
func (f Filter) Apply(submissions []*Submission) []*Submission {
	out := make([]*Submission, 0, len(submissions))
	for _, s := range submissions {
		switch f {
		case FilterResolved:
			if !s.Resolved {
				continue
			}
		case FilterNotResolved:
			if s.Resolved {
				continue
			}
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
