package service

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/domain"
)

// Policy effect factors.
const (
	// road_closure: displaced traffic load multiplier on spillover segments
	spilloverMultiplier = 1.35
	// spillover segments sampled per closed primary segment
	spilloverPerPrimary = 3
	// new_route / transit_add: corridor congestion reduction factors
	newRouteReduction   = 0.75
	transitAddReduction = 0.70
	// new_route / transit_add: share of car trips shifting to transit
	newRouteModalShift   = 0.15
	transitAddModalShift = 0.20
	// network-wide secondary reduction for corridor policies
	networkWideReduction = 0.95
	// signal_timing: network-wide congestion and speed factors
	signalCongestionReduction = 0.90
	signalSpeedImprovement    = 1.10
	// congestion ratios never drop below this under any reduction
	congestionFloor = 0.1
)

// Fixed seed for the spillover sample so identical inputs always pick the
// same displaced segments.
const spilloverSeed = 42

// PolicyService applies a structured policy intent to a road network. Apply
// always works on a deep copy; the baseline instance is never mutated.
type PolicyService struct {
	log *logrus.Entry
}

// NewPolicyService creates a new policy service
func NewPolicyService() *PolicyService {
	return &PolicyService{log: logrus.WithField("service", "policy")}
}

// Apply returns a new network state with the policy's effects applied. The
// returned state records the policy type and the primary segment IDs. Segment
// and junction counts are never changed; only attributes and the closed flag.
// Reapplying a policy to its own output compounds effects, so callers must
// always start from the baseline.
func (s *PolicyService) Apply(state *domain.NetworkState, intent domain.PolicyIntent) *domain.NetworkState {
	intent = intent.Normalize()
	out := state.Clone()

	primary := s.selectPrimary(out, intent)
	inPrimary := make(map[string]bool, len(primary))
	for _, id := range primary {
		inPrimary[id] = true
	}

	switch intent.PolicyType {
	case domain.PolicyRoadClosure:
		s.applyClosure(out, primary, inPrimary)
	case domain.PolicyNewRoute:
		s.applyCorridor(out, primary, inPrimary, newRouteReduction, newRouteModalShift, intent.Scope)
	case domain.PolicyTransitAdd:
		s.applyCorridor(out, primary, inPrimary, transitAddReduction, transitAddModalShift, intent.Scope)
	case domain.PolicySignalTiming:
		s.applySignalTiming(out)
	}

	out.PolicyApplied = intent.PolicyType
	out.PrimarySegments = primary
	s.log.Infof("applied %s to %d of %d segments (scope %s)",
		intent.PolicyType, len(primary), out.EdgeCount(), intent.Scope)
	return out
}

// selectPrimary picks the segments "the policy" acts on: first every segment
// whose name or road class contains one of the intent keywords, then, if that
// falls short of the target count, the remaining segments ranked by
// descending congestion. Two ordered passes feed one ordered list so the
// keyword-first tie-break is reproducible.
func (s *PolicyService) selectPrimary(state *domain.NetworkState, intent domain.PolicyIntent) []string {
	targetCount := int(math.Round(float64(state.EdgeCount()) * intent.AffectedEdgesPct / 100))
	if targetCount < 1 {
		targetCount = 1
	}

	keywords := make([]string, 0, len(intent.AffectedKeywords))
	for _, kw := range intent.AffectedKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	matched := make([]string, 0, targetCount)
	matchedSet := make(map[string]bool)
	if len(keywords) > 0 {
		for _, seg := range state.Segments {
			name := strings.ToLower(seg.Name)
			class := strings.ToLower(seg.RoadClass)
			for _, kw := range keywords {
				if strings.Contains(name, kw) || strings.Contains(class, kw) {
					matched = append(matched, seg.ID)
					matchedSet[seg.ID] = true
					break
				}
			}
		}
	}

	if len(matched) < targetCount {
		rest := lo.Filter(state.Segments, func(seg *domain.RoadSegment, _ int) bool {
			return !matchedSet[seg.ID]
		})
		sort.SliceStable(rest, func(i, j int) bool {
			return rest[i].CongestionRatio > rest[j].CongestionRatio
		})
		for _, seg := range rest {
			if len(matched) == targetCount {
				break
			}
			matched = append(matched, seg.ID)
		}
	}

	if len(matched) > targetCount {
		matched = matched[:targetCount]
	}
	return matched
}

// applyClosure zeroes out the primary segments and displaces their traffic
// onto a seeded uniform sample of other segments.
func (s *PolicyService) applyClosure(state *domain.NetworkState, primary []string, inPrimary map[string]bool) {
	for _, id := range primary {
		if seg, ok := state.Segment(id); ok {
			seg.CongestionRatio = 0
			seg.BaselineFlow = 0
			seg.Closed = true
		}
	}

	others := lo.Filter(state.Segments, func(seg *domain.RoadSegment, _ int) bool {
		return !inPrimary[seg.ID]
	})
	spillCount := len(primary) * spilloverPerPrimary
	if spillCount > len(others) {
		spillCount = len(others)
	}
	rng := rand.New(rand.NewSource(spilloverSeed))
	for _, i := range rng.Perm(len(others))[:spillCount] {
		seg := others[i]
		seg.CongestionRatio = math.Min(1.0, seg.CongestionRatio*spilloverMultiplier)
	}
}

// applyCorridor reduces congestion and shifts flow off the primary corridor;
// network-wide scope additionally eases every other segment slightly.
func (s *PolicyService) applyCorridor(state *domain.NetworkState, primary []string, inPrimary map[string]bool, reduction, modalShift float64, scope string) {
	for _, id := range primary {
		if seg, ok := state.Segment(id); ok {
			seg.CongestionRatio = math.Max(congestionFloor, seg.CongestionRatio*reduction)
			seg.BaselineFlow = int(float64(seg.BaselineFlow) * (1 - modalShift))
		}
	}
	if scope != domain.ScopeNetworkWide {
		return
	}
	for _, seg := range state.Segments {
		if !inPrimary[seg.ID] {
			seg.CongestionRatio = math.Max(congestionFloor, seg.CongestionRatio*networkWideReduction)
		}
	}
}

// applySignalTiming eases every segment regardless of the primary set.
func (s *PolicyService) applySignalTiming(state *domain.NetworkState) {
	for _, seg := range state.Segments {
		seg.CongestionRatio = math.Max(congestionFloor, seg.CongestionRatio*signalCongestionReduction)
		seg.TravelTimeSec = seg.TravelTimeSec / signalSpeedImprovement
	}
}
