package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citytwin/backend/internal/domain"
	"github.com/citytwin/backend/internal/service"
)

// With no service URL configured every bridge call degrades to its
// deterministic fallback, which is what these tests exercise.

func TestParsePolicyHeuristicFallback(t *testing.T) {
	bridge := service.NewLLMBridge("")
	ctx := context.Background()

	intent := bridge.ParsePolicy(ctx, "Retime all traffic signals in the city center", nil)
	assert.Equal(t, domain.PolicySignalTiming, intent.PolicyType)
	assert.Equal(t, domain.ScopeNetworkWide, intent.Scope)
	assert.Equal(t, 15.0, intent.AffectedEdgesPct)

	intent = bridge.ParsePolicy(ctx, "Launch a BRT corridor on the bypass", nil)
	assert.Equal(t, domain.PolicyNewRoute, intent.PolicyType)
	assert.Equal(t, domain.ScopeCorridor, intent.Scope)

	intent = bridge.ParsePolicy(ctx, "Add a ferry service across the backwaters", nil)
	assert.Equal(t, domain.PolicyTransitAdd, intent.PolicyType)

	intent = bridge.ParsePolicy(ctx, "Pedestrianize the market street on weekends", nil)
	assert.Equal(t, domain.PolicyRoadClosure, intent.PolicyType)
	assert.Equal(t, domain.ScopeLocal, intent.Scope)
	assert.Equal(t, 5.0, intent.AffectedEdgesPct)
}

func TestParsePolicyPicksUpRoadNames(t *testing.T) {
	bridge := service.NewLLMBridge("")
	roads := []string{"MG Road", "Banerji Road", "NH 66 Bypass"}

	intent := bridge.ParsePolicy(context.Background(),
		"Close MG Road to cars on Sundays", roads)
	assert.Equal(t, []string{"MG Road"}, intent.AffectedKeywords)
}

func TestCitizenProfilesFallbackInfersPolicyType(t *testing.T) {
	bridge := service.NewLLMBridge("")
	ctx := context.Background()

	profiles := bridge.CitizenProfiles(ctx, "Retime the traffic signals", "", domain.MetricsSummary{})
	assert.Len(t, profiles, 5)
	expected := service.MockCitizenProfiles(domain.PolicySignalTiming)
	assert.Equal(t, expected, profiles)
}

func TestMockCitizenProfilesSentiment(t *testing.T) {
	profiles := service.MockCitizenProfiles(domain.PolicyRoadClosure)
	assert.Len(t, profiles, 5)

	byGroup := make(map[string]domain.CitizenProfile, len(profiles))
	var totalPop int
	for _, p := range profiles {
		byGroup[p.Group] = p
		totalPop += p.AffectedPopulation
		assert.GreaterOrEqual(t, p.ImpactScore, -10.0)
		assert.LessOrEqual(t, p.ImpactScore, 10.0)
	}
	assert.Equal(t, 830000, totalPop)
	assert.Equal(t, "opposed", byGroup["Businesses & Logistics"].ImpactSentiment)
	assert.Equal(t, "opposed", byGroup["Daily Commuters"].ImpactSentiment)
	assert.Equal(t, "supportive", byGroup["Tourists & Visitors"].ImpactSentiment)
	assert.Equal(t, "neutral", byGroup["Students"].ImpactSentiment)
}

func TestRecommendationFallbackReflectsSeverity(t *testing.T) {
	bridge := service.NewLLMBridge("")
	ctx := context.Background()

	report := &domain.ImpactReport{
		Congestion: domain.MetricDelta{DeltaPct: -12, Severity: domain.SeverityPositive},
	}
	rec := bridge.Recommendation(ctx, "test policy", report)
	assert.Contains(t, rec, "recommended for implementation")

	report.Congestion.Severity = domain.SeverityHighlyNegative
	rec = bridge.Recommendation(ctx, "test policy", report)
	assert.Contains(t, rec, "not recommended without mitigation")

	report.Congestion.Severity = domain.SeverityNeutral
	rec = bridge.Recommendation(ctx, "test policy", report)
	assert.Contains(t, rec, "proceed with monitoring")
}
