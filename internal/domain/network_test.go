package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citytwin/backend/internal/domain"
)

func TestSegmentID(t *testing.T) {
	assert.Equal(t, "1-2-0", domain.SegmentID(1, 2, 0))
	assert.Equal(t, "42-7-3", domain.SegmentID(42, 7, 3))
}

func TestAddSegmentIndexesByID(t *testing.T) {
	state := &domain.NetworkState{}
	state.AddSegment(&domain.RoadSegment{ID: "1-2-0", From: 1, To: 2})
	state.AddSegment(&domain.RoadSegment{ID: "2-3-0", From: 2, To: 3})

	assert.Equal(t, 2, state.EdgeCount())
	seg, ok := state.Segment("2-3-0")
	assert.True(t, ok)
	assert.Equal(t, int64(2), seg.From)

	_, ok = state.Segment("9-9-9")
	assert.False(t, ok)
}

func TestCloneIsIndependent(t *testing.T) {
	state := &domain.NetworkState{
		Junctions: []domain.Junction{{ID: 1}, {ID: 2}},
	}
	state.AddSegment(&domain.RoadSegment{ID: "1-2-0", CongestionRatio: 0.5, BaselineFlow: 100})

	clone := state.Clone()
	clone.Segments[0].CongestionRatio = 0.9
	clone.Segments[0].BaselineFlow = 0
	clone.Segments[0].Closed = true
	clone.PolicyApplied = domain.PolicyRoadClosure

	assert.Equal(t, 0.5, state.Segments[0].CongestionRatio)
	assert.Equal(t, 100, state.Segments[0].BaselineFlow)
	assert.False(t, state.Segments[0].Closed)
	assert.Empty(t, state.PolicyApplied)

	// Index still resolves on the clone.
	seg, ok := clone.Segment("1-2-0")
	assert.True(t, ok)
	assert.True(t, seg.Closed)
}
