package service

import (
	"sort"

	"github.com/samber/lo"

	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/pkg/utils"
)

const (
	// kg CO2 per vehicle-km, average mixed traffic
	emissionFactorKgPerVehKm = 0.21
	// assumed peak traffic hours per day
	peakHoursPerDay = 8
	// currency per vehicle-hour of congestion delay
	unitDelayCostPerHour = 50
	// congestion ratio above which a segment counts as severely congested
	severeCongestionThreshold = 0.8
	// congestion ratio below which no delay cost accrues
	freeFlowCongestionRatio = 0.4
)

// MetricsService derives network-level statistics from a graph state.
// Aggregate is a pure function; calling it twice on the same state yields
// identical output.
type MetricsService struct{}

// NewMetricsService creates a new metrics service
func NewMetricsService() *MetricsService {
	return &MetricsService{}
}

// Aggregate maps a network state to its summary. An empty network yields a
// zeroed summary rather than an error.
func (s *MetricsService) Aggregate(state *domain.NetworkState) domain.MetricsSummary {
	n := state.EdgeCount()
	if n == 0 {
		return domain.MetricsSummary{NodeCount: state.NodeCount()}
	}

	totalCongestion := lo.SumBy(state.Segments, func(seg *domain.RoadSegment) float64 {
		return seg.CongestionRatio
	})
	totalTravelTime := lo.SumBy(state.Segments, func(seg *domain.RoadSegment) float64 {
		return seg.TravelTimeSec
	})
	totalLength := lo.SumBy(state.Segments, func(seg *domain.RoadSegment) float64 {
		return seg.LengthM
	})
	totalFlow := lo.SumBy(state.Segments, func(seg *domain.RoadSegment) int {
		return seg.BaselineFlow
	})
	severeCount := lo.CountBy(state.Segments, func(seg *domain.RoadSegment) bool {
		return seg.CongestionRatio > severeCongestionThreshold
	})

	avgCongestion := totalCongestion / float64(n)
	avgTravelTimeMin := totalTravelTime / float64(n) / 60
	avgLengthKm := totalLength / float64(n) / 1000

	dailyCO2 := float64(totalFlow) * avgLengthKm * emissionFactorKgPerVehKm * peakHoursPerDay

	delayFraction := avgCongestion - freeFlowCongestionRatio
	if delayFraction < 0 {
		delayFraction = 0
	}
	delayHours := avgTravelTimeMin * delayFraction / 60
	economicLoss := float64(totalFlow) * delayHours * unitDelayCostPerHour * peakHoursPerDay

	return domain.MetricsSummary{
		AvgCongestionRatio:  utils.RoundTo(avgCongestion, 3),
		SevereCongestionPct: utils.RoundTo(float64(severeCount)/float64(n)*100, 1),
		AvgTravelTimeMin:    utils.RoundTo(avgTravelTimeMin, 2),
		TotalVehicleFlow:    totalFlow,
		DailyCO2Kg:          utils.RoundTo(dailyCO2, 1),
		EconomicLossPerDay:  utils.RoundTo(economicLoss, 1),
		EdgeCount:           n,
		NodeCount:           state.NodeCount(),
	}
}

// Breakdown produces the baseline-stage detail: peak congestion, the worst
// bottleneck segments, and per-road-class statistics.
func (s *MetricsService) Breakdown(state *domain.NetworkState) *domain.BaselineBreakdown {
	b := &domain.BaselineBreakdown{
		ByRoadClass: make(map[string]domain.RoadClassStats),
	}
	if state.EdgeCount() == 0 {
		return b
	}

	classCongestion := make(map[string]float64)
	for _, seg := range state.Segments {
		if seg.CongestionRatio > b.PeakCongestionRatio {
			b.PeakCongestionRatio = seg.CongestionRatio
		}
		stats := b.ByRoadClass[seg.RoadClass]
		stats.Count++
		stats.TotalFlow += seg.BaselineFlow
		b.ByRoadClass[seg.RoadClass] = stats
		classCongestion[seg.RoadClass] += seg.CongestionRatio
	}
	b.PeakCongestionRatio = utils.RoundTo(b.PeakCongestionRatio, 3)
	for class, stats := range b.ByRoadClass {
		stats.AvgCongestion = utils.RoundTo(classCongestion[class]/float64(stats.Count), 3)
		b.ByRoadClass[class] = stats
	}

	ranked := make([]*domain.RoadSegment, len(state.Segments))
	copy(ranked, state.Segments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CongestionRatio > ranked[j].CongestionRatio
	})
	top := len(ranked)
	if top > 10 {
		top = 10
	}
	for _, seg := range ranked[:top] {
		name := seg.Name
		if name == "" {
			name = seg.RoadClass
		}
		b.Bottlenecks = append(b.Bottlenecks, domain.BottleneckSegment{
			EdgeID:          seg.ID,
			Name:            name,
			CongestionRatio: utils.RoundTo(seg.CongestionRatio, 3),
			Flow:            seg.BaselineFlow,
			Capacity:        seg.Capacity,
		})
	}
	return b
}
