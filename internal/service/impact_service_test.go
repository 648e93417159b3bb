package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/internal/service"
)

func TestAnalyzeComputesDeltas(t *testing.T) {
	svc := service.NewImpactService()
	baseline := domain.MetricsSummary{
		AvgCongestionRatio:  0.6,
		SevereCongestionPct: 20,
		AvgTravelTimeMin:    2.0,
		DailyCO2Kg:          1000,
		EconomicLossPerDay:  500,
	}
	post := domain.MetricsSummary{
		AvgCongestionRatio:  0.48,
		SevereCongestionPct: 10,
		AvgTravelTimeMin:    1.8,
		DailyCO2Kg:          900,
		EconomicLossPerDay:  400,
	}

	report := svc.Analyze(baseline, post, nil)

	assert.Equal(t, "Average Congestion", report.Congestion.Label)
	assert.Equal(t, -20.0, report.Congestion.DeltaPct)
	assert.Equal(t, domain.SeverityHighlyPositive, report.Congestion.Severity)

	assert.Equal(t, -10.0, report.TravelTime.DeltaPct)
	assert.Equal(t, domain.SeverityPositive, report.TravelTime.Severity)
	assert.NotNil(t, report.TravelTime.DeltaAbs)
	assert.Equal(t, -0.2, *report.TravelTime.DeltaAbs)

	assert.Equal(t, -10.0, report.CO2Emissions.DeltaPct)
	assert.NotNil(t, report.CO2Emissions.DeltaAbs)
	assert.Equal(t, -100.0, *report.CO2Emissions.DeltaAbs)

	assert.Equal(t, -20.0, report.EconomicLoss.DeltaPct)
	assert.Equal(t, -50.0, report.SevereCongestion.DeltaPct)
}

func TestAnalyzeZeroBaselineYieldsNeutral(t *testing.T) {
	svc := service.NewImpactService()
	baseline := domain.MetricsSummary{}
	post := domain.MetricsSummary{
		AvgCongestionRatio: 0.5,
		AvgTravelTimeMin:   1.0,
		DailyCO2Kg:         800,
	}

	report := svc.Analyze(baseline, post, nil)
	assert.Equal(t, 0.0, report.Congestion.DeltaPct)
	assert.Equal(t, domain.SeverityNeutral, report.Congestion.Severity)
	assert.Equal(t, 0.0, report.CO2Emissions.DeltaPct)
}

func TestAnalyzeUnchangedMetricsAreNeutral(t *testing.T) {
	svc := service.NewImpactService()
	m := domain.MetricsSummary{
		AvgCongestionRatio: 0.55,
		AvgTravelTimeMin:   1.5,
		DailyCO2Kg:         1200,
		EconomicLossPerDay: 300,
	}
	report := svc.Analyze(m, m, nil)
	assert.Equal(t, 0.0, report.Congestion.DeltaPct)
	assert.Equal(t, domain.SeverityNeutral, report.Congestion.Severity)
	assert.Equal(t, domain.SeverityNeutral, report.TravelTime.Severity)
}

func TestSatisfactionWeightedComposite(t *testing.T) {
	svc := service.NewImpactService()
	profiles := []domain.CitizenProfile{
		{Group: "A", ImpactScore: 10, AffectedPopulation: 100},
		{Group: "B", ImpactScore: -10, AffectedPopulation: 100},
	}

	report := svc.Analyze(domain.MetricsSummary{}, domain.MetricsSummary{}, profiles)
	assert.Equal(t, 0.0, report.Satisfaction.Score)
	assert.Equal(t, 10.0, report.Satisfaction.MaxScore)
	assert.Equal(t, domain.SeverityNeutral, report.Satisfaction.Severity)
	assert.Len(t, report.Satisfaction.ByGroup, 2)
}

func TestSatisfactionPopulationWeighting(t *testing.T) {
	svc := service.NewImpactService()
	profiles := []domain.CitizenProfile{
		{Group: "A", ImpactScore: 6, AffectedPopulation: 300000},
		{Group: "B", ImpactScore: -2, AffectedPopulation: 100000},
	}

	// (6*300k + -2*100k) / 400k = 4
	report := svc.Analyze(domain.MetricsSummary{}, domain.MetricsSummary{}, profiles)
	assert.Equal(t, 4.0, report.Satisfaction.Score)
	// -4*10 = -40 on the lower-is-better scale
	assert.Equal(t, domain.SeverityHighlyPositive, report.Satisfaction.Severity)
}

func TestSatisfactionEmptyProfiles(t *testing.T) {
	svc := service.NewImpactService()
	report := svc.Analyze(domain.MetricsSummary{}, domain.MetricsSummary{}, nil)
	assert.Equal(t, 0.0, report.Satisfaction.Score)
	assert.Equal(t, domain.SeverityNeutral, report.Satisfaction.Severity)
	assert.Empty(t, report.Satisfaction.ByGroup)
}
