package service_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/internal/service"
)

func TestApplyRoadClosure(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.5)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 10,
	})

	// 10% of 10 edges closes exactly one
	assert.Equal(t, domain.PolicyRoadClosure, out.PolicyApplied)
	assert.Len(t, out.PrimarySegments, 1)
	closed := lo.Filter(out.Segments, func(seg *domain.RoadSegment, _ int) bool {
		return seg.Closed
	})
	assert.Len(t, closed, 1)
	assert.Equal(t, 0.0, closed[0].CongestionRatio)
	assert.Equal(t, 0, closed[0].BaselineFlow)

	// One closed primary displaces onto three spillover segments at 0.5 * 1.35
	spilled := lo.Filter(out.Segments, func(seg *domain.RoadSegment, _ int) bool {
		return !seg.Closed && seg.CongestionRatio > 0.5
	})
	assert.Len(t, spilled, 3)
	for _, seg := range spilled {
		assert.InDelta(t, 0.675, seg.CongestionRatio, 1e-9)
	}
	untouched := lo.Filter(out.Segments, func(seg *domain.RoadSegment, _ int) bool {
		return !seg.Closed && seg.CongestionRatio == 0.5
	})
	assert.Len(t, untouched, 6)

	// (1*0 + 3*0.675 + 6*0.5) / 10 = 0.5025, which lands just below the
	// halfway point in float64 and rounds down to three decimals
	post := service.NewMetricsService().Aggregate(out)
	assert.Equal(t, 0.502, post.AvgCongestionRatio)
}

func TestApplyCompoundsWhenReapplied(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.6)
	intent := domain.PolicyIntent{
		PolicyType:       domain.PolicySignalTiming,
		Scope:            domain.ScopeNetworkWide,
		AffectedEdgesPct: 15,
	}

	once := svc.Apply(baseline, intent)
	twice := svc.Apply(once, intent)
	assert.Less(t, twice.Segments[0].CongestionRatio, once.Segments[0].CongestionRatio)
	assert.Less(t, twice.Segments[0].TravelTimeSec, once.Segments[0].TravelTimeSec)
}

func TestApplyClosureSpilloverCapsAtOne(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.9)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 10,
	})
	for _, seg := range out.Segments {
		assert.LessOrEqual(t, seg.CongestionRatio, 1.0)
	}
}

func TestApplyDoesNotMutateBaseline(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.5)

	_ = svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 30,
	})

	assert.Empty(t, baseline.PolicyApplied)
	for _, seg := range baseline.Segments {
		assert.False(t, seg.Closed)
		assert.Equal(t, 0.5, seg.CongestionRatio)
		assert.Equal(t, 500, seg.BaselineFlow)
	}
}

func TestApplyPreservesTopology(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(20, 0.6)
	baseline.Junctions = []domain.Junction{{ID: 0}, {ID: 1}}

	for _, policyType := range []string{
		domain.PolicyRoadClosure, domain.PolicyNewRoute,
		domain.PolicyTransitAdd, domain.PolicySignalTiming,
	} {
		out := svc.Apply(baseline, domain.PolicyIntent{
			PolicyType:       policyType,
			Scope:            domain.ScopeCorridor,
			AffectedEdgesPct: 15,
		})
		assert.Equal(t, baseline.EdgeCount(), out.EdgeCount(), policyType)
		assert.Equal(t, baseline.NodeCount(), out.NodeCount(), policyType)
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(30, 0.5)
	intent := domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 10,
	}

	first := svc.Apply(baseline, intent)
	second := svc.Apply(baseline, intent)
	assert.Equal(t, first.PrimarySegments, second.PrimarySegments)
	for i := range first.Segments {
		assert.Equal(t, *first.Segments[i], *second.Segments[i])
	}
}

func TestApplyNewRouteCorridor(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.6)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyNewRoute,
		Scope:            domain.ScopeCorridor,
		AffectedEdgesPct: 20,
	})

	assert.Len(t, out.PrimarySegments, 2)
	for _, id := range out.PrimarySegments {
		seg, ok := out.Segment(id)
		assert.True(t, ok)
		assert.InDelta(t, 0.45, seg.CongestionRatio, 1e-9)
		assert.InDelta(t, 425, float64(seg.BaselineFlow), 1)
		assert.False(t, seg.Closed)
	}

	// Corridor scope leaves the rest of the network alone
	primary := lo.SliceToMap(out.PrimarySegments, func(id string) (string, bool) { return id, true })
	for _, seg := range out.Segments {
		if !primary[seg.ID] {
			assert.Equal(t, 0.6, seg.CongestionRatio)
		}
	}
}

func TestApplyTransitAddNetworkWide(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.6)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyTransitAdd,
		Scope:            domain.ScopeNetworkWide,
		AffectedEdgesPct: 10,
	})

	assert.Len(t, out.PrimarySegments, 1)
	seg, _ := out.Segment(out.PrimarySegments[0])
	assert.InDelta(t, 0.42, seg.CongestionRatio, 1e-9)
	assert.InDelta(t, 400, float64(seg.BaselineFlow), 1)

	// Everyone else eased by the network-wide factor
	primary := out.PrimarySegments[0]
	for _, other := range out.Segments {
		if other.ID != primary {
			assert.InDelta(t, 0.57, other.CongestionRatio, 1e-9)
		}
	}
}

func TestApplyCorridorRespectsFloor(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(5, 0.12)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyTransitAdd,
		Scope:            domain.ScopeCorridor,
		AffectedEdgesPct: 30,
	})
	for _, id := range out.PrimarySegments {
		seg, _ := out.Segment(id)
		assert.Equal(t, 0.1, seg.CongestionRatio)
	}
}

func TestApplySignalTiming(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(10, 0.5)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicySignalTiming,
		Scope:            domain.ScopeNetworkWide,
		AffectedEdgesPct: 15,
	})

	for _, seg := range out.Segments {
		assert.InDelta(t, 0.45, seg.CongestionRatio, 1e-9)
		assert.InDelta(t, 60/1.10, seg.TravelTimeSec, 1e-9)
		assert.False(t, seg.Closed)
	}
}

func TestSelectPrimaryKeywordsFirst(t *testing.T) {
	svc := service.NewPolicyService()
	state := &domain.NetworkState{}
	state.AddSegment(&domain.RoadSegment{
		ID: "1-2-0", Name: "MG Road", RoadClass: "primary", CongestionRatio: 0.41,
	})
	state.AddSegment(&domain.RoadSegment{
		ID: "2-3-0", Name: "Banerji Road", RoadClass: "primary", CongestionRatio: 0.99,
	})
	state.AddSegment(&domain.RoadSegment{
		ID: "3-4-0", Name: "MG Road", RoadClass: "primary", CongestionRatio: 0.42,
	})
	state.AddSegment(&domain.RoadSegment{
		ID: "4-5-0", Name: "Marine Drive", RoadClass: "secondary", CongestionRatio: 0.80,
	})
	for i := int64(5); i < 11; i++ {
		state.AddSegment(&domain.RoadSegment{
			ID:              domain.SegmentID(i, i+1, 0),
			RoadClass:       "residential",
			CongestionRatio: 0.3,
		})
	}

	out := svc.Apply(state, domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		AffectedKeywords: []string{"mg road"},
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 30,
	})

	// Keyword matches win over the more congested non-matching segments,
	// then congestion ranking fills the remaining slot.
	assert.Equal(t, []string{"1-2-0", "3-4-0", "2-3-0"}, out.PrimarySegments)
}

func TestSelectPrimaryNoKeywordsRanksByCongestion(t *testing.T) {
	svc := service.NewPolicyService()
	state := &domain.NetworkState{}
	state.AddSegment(&domain.RoadSegment{ID: "1-2-0", RoadClass: "primary", CongestionRatio: 0.5})
	state.AddSegment(&domain.RoadSegment{ID: "2-3-0", RoadClass: "primary", CongestionRatio: 0.9})
	state.AddSegment(&domain.RoadSegment{ID: "3-4-0", RoadClass: "primary", CongestionRatio: 0.7})

	out := svc.Apply(state, domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 30,
	})
	assert.Equal(t, []string{"2-3-0"}, out.PrimarySegments)
}

func TestApplyAtLeastOnePrimary(t *testing.T) {
	svc := service.NewPolicyService()
	baseline := uniformState(3, 0.5)

	out := svc.Apply(baseline, domain.PolicyIntent{
		PolicyType:       domain.PolicyRoadClosure,
		Scope:            domain.ScopeLocal,
		AffectedEdgesPct: 1,
	})
	assert.Len(t, out.PrimarySegments, 1)
}
