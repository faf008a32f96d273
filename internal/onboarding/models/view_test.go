package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "safenest/pkg/domain-errors"
)

func TestParseListFilter(t *testing.T) {
	f, err := ParseListFilter("all", false)
	require.NoError(t, err)
	assert.Empty(t, f.Status)

	f, err = ParseListFilter("approved", true)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, f.Status)
	assert.True(t, f.IncludeResolved)

	_, err = ParseListFilter("archived", false)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestListFilterApply(t *testing.T) {
	base := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	requests := []*Request{
		{FullName: "Jennifer Williams", Status: StatusApproved, CreatedAt: base},
		{FullName: "Maria Rodriguez", Status: StatusUnderReview, CreatedAt: base.Add(48 * time.Hour)},
		{FullName: "Sarah Johnson", Status: StatusPendingReview, CreatedAt: base, UpdatedAt: base.Add(96 * time.Hour)},
		{FullName: "Resolved Person", Status: StatusPendingReview, Resolved: true, CreatedAt: base.Add(200 * time.Hour)},
	}

	names := func(rs []*Request) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.FullName
		}
		return out
	}

	assert.Equal(t,
		[]string{"Sarah Johnson", "Maria Rodriguez", "Jennifer Williams"},
		names(ListFilter{}.Apply(requests)),
		"resolved hidden, updated_at desc with created_at fallback")

	assert.Equal(t,
		[]string{"Resolved Person", "Sarah Johnson", "Maria Rodriguez", "Jennifer Williams"},
		names(ListFilter{IncludeResolved: true}.Apply(requests)))

	assert.Equal(t,
		[]string{"Sarah Johnson"},
		names(ListFilter{Status: StatusPendingReview}.Apply(requests)))
}
