package service

import (
	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/pkg/utils"
)

// GeoJSON shapes for map rendering.
type GeoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type GeoJSONGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type GeoJSONCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// ToGeoJSON renders a network state as a FeatureCollection of LineStrings,
// one per segment. The modified flag marks segments touched by a policy.
func (s *GraphService) ToGeoJSON(state *domain.NetworkState) *GeoJSONCollection {
	coords := make(map[int64][2]float64, len(state.Junctions))
	for _, j := range state.Junctions {
		coords[j.ID] = [2]float64{j.Lon, j.Lat}
	}
	primary := make(map[string]bool, len(state.PrimarySegments))
	for _, id := range state.PrimarySegments {
		primary[id] = true
	}

	fc := &GeoJSONCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(state.Segments)),
	}
	for _, seg := range state.Segments {
		fc.Features = append(fc.Features, GeoJSONFeature{
			Type: "Feature",
			Geometry: GeoJSONGeometry{
				Type:        "LineString",
				Coordinates: [][2]float64{coords[seg.From], coords[seg.To]},
			},
			Properties: map[string]interface{}{
				"edge_id":          seg.ID,
				"road_class":       seg.RoadClass,
				"name":             seg.Name,
				"length":           utils.RoundTo(seg.LengthM, 1),
				"speed_kph":        seg.SpeedKPH,
				"capacity":         seg.Capacity,
				"baseline_flow":    seg.BaselineFlow,
				"congestion_ratio": utils.RoundTo(seg.CongestionRatio, 3),
				"congestion_level": CongestionLevel(seg.CongestionRatio),
				"is_modified":      primary[seg.ID],
				"is_closed":        seg.Closed,
			},
		})
	}
	return fc
}

// CongestionLevel buckets a congestion ratio for display.
func CongestionLevel(ratio float64) string {
	switch {
	case ratio < 0.4:
		return "free"
	case ratio < 0.6:
		return "moderate"
	case ratio < 0.8:
		return "heavy"
	default:
		return "severe"
	}
}
