package service

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/citytwin/backend/internal/domain"
)

// Built-in policy scenarios, used when no preset file is configured.
var defaultPresets = []domain.PolicyPreset{
	{
		ID:          "pedestrianize_mg_road",
		Title:       "Pedestrianize MG Road",
		Description: "Close MG Road to motor vehicles and convert it to a pedestrian-friendly zone with street furniture and local shops",
		Icon:        "walk",
		Category:    domain.PolicyRoadClosure,
	},
	{
		ID:          "brt_nh66",
		Title:       "Add BRT on the NH 66 Corridor",
		Description: "Introduce a Bus Rapid Transit dedicated lane along the NH 66 Bypass with new bus stops and real-time tracking",
		Icon:        "bus",
		Category:    domain.PolicyNewRoute,
	},
	{
		ID:          "signal_optimization",
		Title:       "Adaptive Signal Timing",
		Description: "Deploy adaptive traffic signal control at the busiest intersections to reduce red-light wait times during peak hours",
		Icon:        "signal",
		Category:    domain.PolicySignalTiming,
	},
	{
		ID:          "water_taxi_expansion",
		Title:       "Expand Water Taxi Network",
		Description: "Add new ferry routes across the backwaters to take commuter load off the road network",
		Icon:        "ferry",
		Category:    domain.PolicyTransitAdd,
	},
}

// PresetService serves the policy scenario catalog, optionally overridden
// from a YAML file.
type PresetService struct {
	presets []domain.PolicyPreset
}

// NewPresetService loads the catalog from presetFile, falling back to the
// built-in list when the file is absent or empty.
func NewPresetService(presetFile string) *PresetService {
	log := logrus.WithField("service", "presets")
	if presetFile == "" {
		return &PresetService{presets: defaultPresets}
	}
	presets, err := loadPresetFile(presetFile)
	if err != nil {
		log.Warnf("could not load presets from %s: %v, using built-ins", presetFile, err)
		return &PresetService{presets: defaultPresets}
	}
	log.Infof("loaded %d policy presets from %s", len(presets), presetFile)
	return &PresetService{presets: presets}
}

// Presets returns the scenario catalog.
func (s *PresetService) Presets() []domain.PolicyPreset {
	return s.presets
}

func loadPresetFile(path string) ([]domain.PolicyPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Presets []domain.PolicyPreset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("presets: failed to parse %s: %w", path, err)
	}
	if len(doc.Presets) == 0 {
		return nil, fmt.Errorf("presets: %s contains no presets", path)
	}
	return doc.Presets, nil
}
