package service

import (
	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/pkg/utils"
)

// ImpactService compares baseline and post-policy summaries and folds in
// citizen sentiment. Fully deterministic: identical inputs always produce
// identical reports.
type ImpactService struct{}

// NewImpactService creates a new impact service
func NewImpactService() *ImpactService {
	return &ImpactService{}
}

// pctChange returns the percentage delta rounded to one decimal. A zero
// before-value yields 0 by convention rather than a division fault.
func pctChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return utils.RoundTo((after-before)/before*100, 1)
}

func delta(label, unit string, before, after float64) domain.MetricDelta {
	pct := pctChange(before, after)
	return domain.MetricDelta{
		Label:    label,
		Unit:     unit,
		Before:   before,
		After:    after,
		DeltaPct: pct,
		Severity: domain.Severity(pct, domain.LowerIsBetter),
	}
}

func absDelta(d domain.MetricDelta, places int) domain.MetricDelta {
	abs := utils.RoundTo(d.After-d.Before, places)
	d.DeltaAbs = &abs
	return d
}

// Analyze builds the impact report for the five network metrics plus the
// population-weighted citizen satisfaction composite.
func (s *ImpactService) Analyze(baseline, post domain.MetricsSummary, profiles []domain.CitizenProfile) *domain.ImpactReport {
	report := &domain.ImpactReport{
		Congestion: delta("Average Congestion", "%",
			baseline.AvgCongestionRatio, post.AvgCongestionRatio),
		TravelTime: absDelta(delta("Avg Travel Time", "min",
			baseline.AvgTravelTimeMin, post.AvgTravelTimeMin), 2),
		CO2Emissions: absDelta(delta("Daily CO2 Emissions", "kg",
			baseline.DailyCO2Kg, post.DailyCO2Kg), 1),
		EconomicLoss: absDelta(delta("Economic Loss", "currency/day",
			baseline.EconomicLossPerDay, post.EconomicLossPerDay), 1),
		SevereCongestion: delta("Severely Congested Roads", "%",
			baseline.SevereCongestionPct, post.SevereCongestionPct),
		Satisfaction: satisfaction(profiles),
	}
	return report
}

// satisfaction computes the population-weighted mean of per-group impact
// scores. An empty profile list yields a zero composite. The composite's
// severity reuses the lower-is-better buckets on the negated, rescaled score.
func satisfaction(profiles []domain.CitizenProfile) domain.CitizenSatisfaction {
	byGroup := make([]domain.CitizenProfile, len(profiles))
	copy(byGroup, profiles)

	var weighted float64
	var totalPop int
	for _, p := range profiles {
		weighted += p.ImpactScore * float64(p.AffectedPopulation)
		totalPop += p.AffectedPopulation
	}
	score := 0.0
	if totalPop > 0 {
		score = weighted / float64(totalPop)
	}
	return domain.CitizenSatisfaction{
		Score:    utils.RoundTo(score, 2),
		MaxScore: 10,
		Severity: domain.Severity(-score*10, domain.LowerIsBetter),
		ByGroup:  byGroup,
	}
}
