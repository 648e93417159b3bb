package domain

// MetricsSummary is the network-level statistics snapshot. All fields are
// rounded at computation time (ratios to 3 decimals, minutes to 2, mass and
// currency to 1) so snapshots compare exactly.
type MetricsSummary struct {
	AvgCongestionRatio  float64 `json:"avg_congestion_ratio"`
	SevereCongestionPct float64 `json:"severe_congestion_pct"`
	AvgTravelTimeMin    float64 `json:"avg_travel_time_min"`
	TotalVehicleFlow    int     `json:"total_vehicle_flow"`
	DailyCO2Kg          float64 `json:"daily_co2_kg"`
	EconomicLossPerDay  float64 `json:"economic_loss_per_day"`
	EdgeCount           int     `json:"edge_count"`
	NodeCount           int     `json:"node_count"`
}

// BottleneckSegment is one entry of the worst-congestion ranking.
type BottleneckSegment struct {
	EdgeID          string  `json:"edge_id"`
	Name            string  `json:"name"`
	CongestionRatio float64 `json:"congestion_ratio"`
	Flow            int     `json:"flow"`
	Capacity        int     `json:"capacity"`
}

// RoadClassStats summarizes one road class across the network.
type RoadClassStats struct {
	Count         int     `json:"count"`
	AvgCongestion float64 `json:"avg_congestion"`
	TotalFlow     int     `json:"total_flow"`
}

// BaselineBreakdown is the extra detail produced by the baseline simulation
// stage on top of the plain summary.
type BaselineBreakdown struct {
	PeakCongestionRatio float64                   `json:"peak_congestion_ratio"`
	Bottlenecks         []BottleneckSegment       `json:"bottleneck_segments"`
	ByRoadClass         map[string]RoadClassStats `json:"road_class_summary"`
}
