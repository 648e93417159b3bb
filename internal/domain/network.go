package domain

import "fmt"

// Junction is a point in the road network. It carries geometry only;
// traffic attributes live on segments.
type Junction struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RoadSegment is one directed road link between two junctions. Parallel
// segments between the same pair are distinguished by Key.
type RoadSegment struct {
	ID              string  `json:"edge_id"`
	From            int64   `json:"from"`
	To              int64   `json:"to"`
	Key             int     `json:"key"`
	Name            string  `json:"name,omitempty"`
	RoadClass       string  `json:"road_class"`
	LengthM         float64 `json:"length_m"`
	Lanes           int     `json:"lanes"`
	SpeedKPH        float64 `json:"speed_kph"`
	TravelTimeSec   float64 `json:"travel_time_sec"`
	Capacity        int     `json:"capacity"`
	BaselineFlow    int     `json:"baseline_flow"`
	CongestionRatio float64 `json:"congestion_ratio"`
	Closed          bool    `json:"closed"`
}

// SegmentID builds the canonical "from-to-key" edge identifier.
func SegmentID(from, to int64, key int) string {
	return fmt.Sprintf("%d-%d-%d", from, to, key)
}

// NetworkState is the full in-memory road network. Segments keep insertion
// order so every pass over the network is reproducible; Index maps segment
// IDs back into the slice.
type NetworkState struct {
	Junctions []Junction     `json:"junctions"`
	Segments  []*RoadSegment `json:"segments"`
	Index     map[string]int `json:"-"`

	// Set by policy application on the mutated copy only.
	PolicyApplied   string   `json:"policy_applied,omitempty"`
	PrimarySegments []string `json:"primary_segments,omitempty"`
}

// NodeCount returns the number of junctions.
func (s *NetworkState) NodeCount() int { return len(s.Junctions) }

// EdgeCount returns the number of road segments.
func (s *NetworkState) EdgeCount() int { return len(s.Segments) }

// Segment looks a segment up by ID.
func (s *NetworkState) Segment(id string) (*RoadSegment, bool) {
	i, ok := s.Index[id]
	if !ok {
		return nil, false
	}
	return s.Segments[i], true
}

// AddSegment appends a segment and indexes it.
func (s *NetworkState) AddSegment(seg *RoadSegment) {
	if s.Index == nil {
		s.Index = make(map[string]int)
	}
	s.Index[seg.ID] = len(s.Segments)
	s.Segments = append(s.Segments, seg)
}

// Clone deep-copies the state. Policy application works on a clone, never on
// the baseline instance.
func (s *NetworkState) Clone() *NetworkState {
	c := &NetworkState{
		Junctions: make([]Junction, len(s.Junctions)),
		Segments:  make([]*RoadSegment, len(s.Segments)),
		Index:     make(map[string]int, len(s.Index)),
	}
	copy(c.Junctions, s.Junctions)
	for i, seg := range s.Segments {
		dup := *seg
		c.Segments[i] = &dup
		c.Index[dup.ID] = i
	}
	return c
}

// RawJunction and RawSegment describe the network as delivered by a map data
// provider, before enrichment. Only length and road class are required per
// segment; everything else is defaulted.
type RawJunction struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type RawSegment struct {
	From      int64   `json:"from"`
	To        int64   `json:"to"`
	Key       int     `json:"key"`
	Name      string  `json:"name,omitempty"`
	RoadClass string  `json:"road_class"`
	LengthM   float64 `json:"length_m"`
	Lanes     int     `json:"lanes"`
}

// RawNetwork is the ingestion input format.
type RawNetwork struct {
	City      string        `json:"city"`
	Junctions []RawJunction `json:"junctions"`
	Segments  []RawSegment  `json:"segments"`
}
