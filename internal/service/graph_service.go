package service

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/pkg/utils"
)

// Speed limits (km/h) by road class
var speedLimits = map[string]float64{
	"motorway":      100,
	"trunk":         80,
	"primary":       60,
	"secondary":     50,
	"tertiary":      40,
	"residential":   30,
	"unclassified":  30,
	"service":       20,
	"living_street": 15,
}

// Capacity (vehicles/hour) per lane by road class
var capacityPerLane = map[string]int{
	"motorway":      2000,
	"trunk":         1800,
	"primary":       1500,
	"secondary":     1200,
	"tertiary":      900,
	"residential":   600,
	"unclassified":  600,
	"service":       400,
	"living_street": 300,
}

// Unrecognized road classes get these instead of failing ingestion.
const (
	defaultSpeedKPH     = 30
	defaultLaneCapacity = 600
	defaultLengthM      = 50.0
)

// GraphService owns the road network: loading the raw graph, enriching it
// with traffic attributes, and rendering it for map frontends. The enriched
// baseline is built once and treated as immutable afterwards.
type GraphService struct {
	networkFile string
	city        string
	log         *logrus.Entry

	mu       sync.Mutex
	baseline *domain.NetworkState
}

// NewGraphService creates a new graph service. networkFile may be empty, in
// which case a deterministic built-in demo network is used.
func NewGraphService(networkFile, city string) *GraphService {
	return &GraphService{
		networkFile: networkFile,
		city:        city,
		log:         logrus.WithField("service", "graph"),
	}
}

// Baseline returns the enriched baseline network, building and caching it on
// first use. Callers must treat the result as read-only; policy application
// clones it.
func (s *GraphService) Baseline() (*domain.NetworkState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseline != nil {
		return s.baseline, nil
	}

	raw, err := s.loadRaw()
	if err != nil {
		return nil, err
	}
	state := s.Enrich(raw)
	if state.EdgeCount() == 0 {
		return nil, fmt.Errorf("graph: network %q has no road segments", raw.City)
	}
	s.log.Infof("baseline network ready: %d junctions, %d segments",
		state.NodeCount(), state.EdgeCount())
	s.baseline = state
	return s.baseline, nil
}

func (s *GraphService) loadRaw() (*domain.RawNetwork, error) {
	if s.networkFile == "" {
		s.log.Info("no network file configured, using built-in demo network")
		return DemoNetwork(s.city), nil
	}
	data, err := os.ReadFile(s.networkFile)
	if err != nil {
		s.log.Warnf("could not read network file %s: %v, using demo network", s.networkFile, err)
		return DemoNetwork(s.city), nil
	}
	var raw domain.RawNetwork
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("graph: failed to parse network file %s: %w", s.networkFile, err)
	}
	if raw.City == "" {
		raw.City = s.city
	}
	return &raw, nil
}

// Enrich assigns traffic attributes to every raw segment: class-based speed
// and capacity, derived travel time, and a seeded pseudo-random baseline load
// factor in [0.4, 0.8] simulating peak hour. Enriching the same raw network
// twice produces identical states.
func (s *GraphService) Enrich(raw *domain.RawNetwork) *domain.NetworkState {
	state := &domain.NetworkState{
		Junctions: make([]domain.Junction, 0, len(raw.Junctions)),
		Index:     make(map[string]int, len(raw.Segments)),
	}
	coords := make(map[int64]domain.Junction, len(raw.Junctions))
	for _, j := range raw.Junctions {
		junction := domain.Junction{ID: j.ID, Lat: j.Lat, Lon: j.Lon}
		state.Junctions = append(state.Junctions, junction)
		coords[j.ID] = junction
	}

	for _, rs := range raw.Segments {
		class := rs.RoadClass
		speed, ok := speedLimits[class]
		if !ok {
			if class == "" {
				class = "unclassified"
			}
			speed = defaultSpeedKPH
		}
		perLane, ok := capacityPerLane[rs.RoadClass]
		if !ok {
			perLane = defaultLaneCapacity
		}
		lanes := rs.Lanes
		if lanes < 1 {
			lanes = 1
		}
		length := rs.LengthM
		if length <= 0 {
			length = segmentLength(coords, rs.From, rs.To)
		}

		capacity := perLane * lanes
		load := loadFactor(rs.From, rs.To, rs.Key)
		seg := &domain.RoadSegment{
			ID:              domain.SegmentID(rs.From, rs.To, rs.Key),
			From:            rs.From,
			To:              rs.To,
			Key:             rs.Key,
			Name:            rs.Name,
			RoadClass:       class,
			LengthM:         length,
			Lanes:           lanes,
			SpeedKPH:        speed,
			TravelTimeSec:   length / (speed / 3.6),
			Capacity:        capacity,
			BaselineFlow:    int(float64(capacity) * load),
			CongestionRatio: load,
		}
		state.AddSegment(seg)
	}
	return state
}

// segmentLength falls back to the great-circle distance between the two
// junctions when the provider gave no length, or a flat default when the
// junctions are unknown too.
func segmentLength(coords map[int64]domain.Junction, from, to int64) float64 {
	a, okA := coords[from]
	b, okB := coords[to]
	if !okA || !okB {
		return defaultLengthM
	}
	d := utils.HaversineM(a.Lat, a.Lon, b.Lat, b.Lon)
	if d <= 0 {
		return defaultLengthM
	}
	return d
}

// loadFactor draws the baseline load uniformly from [0.4, 0.8], seeded by a
// stable hash of the segment key so repeated enrichment is reproducible.
func loadFactor(from, to int64, key int) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d-%d-%d", from, to, key)
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	return 0.4 + r.Float64()*0.4
}
