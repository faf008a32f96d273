package models

import (
	"sort"
	"strings"

	platformstrings "safenest/pkg/platform/strings"
)

// ListFilter narrows the resident list.
type ListFilter struct {
	// Status matches case-insensitively; empty or "all" disables it.
	Status string
	// Search is a case-insensitive substring of name, email or phone; blank disables it.
	Search string
}

// Matches reports whether r passes both filters.
func (f ListFilter) Matches(r *Resident) bool {
	status := strings.TrimSpace(f.Status)
	if status != "" && !strings.EqualFold(status, "all") && !strings.EqualFold(status, string(r.Status)) {
		return false
	}

	term := strings.TrimSpace(f.Search)
	if term == "" {
		return true
	}
	return platformstrings.ContainsFold(r.Name, term) ||
		platformstrings.ContainsFold(deref(r.Email), term) ||
		platformstrings.ContainsFold(deref(r.Phone), term)
}

// Apply filters residents and sorts them most recently touched first.
func (f ListFilter) Apply(residents []*Resident) []*Resident {
	out := make([]*Resident, 0, len(residents))
	for _, r := range residents {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastTouched().After(out[j].LastTouched())
	})
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
