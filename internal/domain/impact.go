package domain

// Severity buckets for a metric delta.
const (
	SeverityHighlyPositive = "highly_positive"
	SeverityPositive       = "positive"
	SeverityNeutral        = "neutral"
	SeverityNegative       = "negative"
	SeverityHighlyNegative = "highly_negative"
)

// Delta directions. Every traffic metric in this system improves when it
// goes down; the higher-is-better branch is kept for symmetry but currently
// has no caller.
const (
	LowerIsBetter  = "lower_is_better"
	HigherIsBetter = "higher_is_better"
)

// Severity classifies a percentage delta into one of the five buckets.
// Comparisons are strict, so a delta sitting exactly on a threshold falls
// into the milder bucket.
func Severity(deltaPct float64, direction string) string {
	if direction == HigherIsBetter {
		switch {
		case deltaPct > 15:
			return SeverityHighlyPositive
		case deltaPct > 5:
			return SeverityPositive
		case deltaPct > -5:
			return SeverityNeutral
		case deltaPct > -15:
			return SeverityNegative
		default:
			return SeverityHighlyNegative
		}
	}
	switch {
	case deltaPct < -15:
		return SeverityHighlyPositive
	case deltaPct < -5:
		return SeverityPositive
	case deltaPct < 5:
		return SeverityNeutral
	case deltaPct < 15:
		return SeverityNegative
	default:
		return SeverityHighlyNegative
	}
}

// CitizenProfile is one demographic group record from the external sentiment
// modeler. ImpactScore is in [-10, 10].
type CitizenProfile struct {
	Group              string  `json:"group"`
	ImpactScore        float64 `json:"impact_score"`
	ImpactSentiment    string  `json:"impact_sentiment"`
	KeyConcern         string  `json:"key_concern"`
	AffectedPopulation int     `json:"affected_population"`
}

// MetricDelta is the before/after comparison for a single network metric.
type MetricDelta struct {
	Label    string   `json:"label"`
	Unit     string   `json:"unit"`
	Before   float64  `json:"before"`
	After    float64  `json:"after"`
	DeltaPct float64  `json:"delta_pct"`
	DeltaAbs *float64 `json:"delta_abs,omitempty"`
	Severity string   `json:"severity"`
}

// CitizenSatisfaction is the population-weighted composite of per-group
// impact scores.
type CitizenSatisfaction struct {
	Score    float64          `json:"score"`
	MaxScore float64          `json:"max_score"`
	Severity string           `json:"severity"`
	ByGroup  []CitizenProfile `json:"by_group"`
}

// ImpactReport is the full baseline vs. post-policy comparison. Immutable
// once produced.
type ImpactReport struct {
	Congestion       MetricDelta         `json:"congestion"`
	TravelTime       MetricDelta         `json:"travel_time"`
	CO2Emissions     MetricDelta         `json:"co2_emissions"`
	EconomicLoss     MetricDelta         `json:"economic_loss"`
	SevereCongestion MetricDelta         `json:"severe_congestion_roads"`
	Satisfaction     CitizenSatisfaction `json:"citizen_satisfaction"`
}
