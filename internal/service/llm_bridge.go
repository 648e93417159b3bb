package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/domain"
)

// LLMBridge handles communication with the external policy-intelligence
// service (policy parsing, citizen sentiment modeling, narrative reports).
// Every call degrades to a deterministic mock on transport failure; the
// pipeline never fails because this service is unreachable.
type LLMBridge struct {
	serviceURL string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewLLMBridge creates a new policy-intelligence bridge
func NewLLMBridge(serviceURL string) *LLMBridge {
	return &LLMBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logrus.WithField("service", "llm_bridge"),
	}
}

// ParsePolicy extracts a structured intent from a natural-language policy
// description. The result is normalized before use either way.
func (b *LLMBridge) ParsePolicy(ctx context.Context, policy string, roadNames []string) domain.PolicyIntent {
	req := map[string]interface{}{
		"policy":     policy,
		"road_names": roadNames,
	}
	var intent domain.PolicyIntent
	if err := b.post(ctx, "/parse-policy", req, &intent); err != nil {
		b.log.Warnf("policy parsing failed: %v, using heuristic fallback", err)
		return b.mockIntent(policy, roadNames)
	}
	return intent.Normalize()
}

// CitizenProfiles models how demographic groups respond to the policy.
func (b *LLMBridge) CitizenProfiles(ctx context.Context, policy string, policyType string, baseline domain.MetricsSummary) []domain.CitizenProfile {
	req := map[string]interface{}{
		"policy":      policy,
		"policy_type": policyType,
		"baseline":    baseline,
	}
	var profiles []domain.CitizenProfile
	if err := b.post(ctx, "/citizen-profiles", req, &profiles); err != nil {
		b.log.Warnf("citizen modeling failed: %v, using mock profiles", err)
		if policyType == "" {
			policyType = b.mockIntent(policy, nil).PolicyType
		}
		return MockCitizenProfiles(policyType)
	}
	return profiles
}

// Recommendation produces the narrative report for a finished analysis.
func (b *LLMBridge) Recommendation(ctx context.Context, policy string, report *domain.ImpactReport) string {
	req := map[string]interface{}{
		"policy": policy,
		"impact": report,
	}
	var out struct {
		Recommendation string `json:"recommendation"`
	}
	if err := b.post(ctx, "/recommendation", req, &out); err != nil || out.Recommendation == "" {
		if err != nil {
			b.log.Warnf("recommendation failed: %v, composing fallback", err)
		}
		return mockRecommendation(policy, report)
	}
	return out.Recommendation
}

// Health checks policy-intelligence service connectivity
func (b *LLMBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("llm_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("llm_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (b *LLMBridge) post(ctx context.Context, path string, payload, out interface{}) error {
	if b.serviceURL == "" {
		return fmt.Errorf("llm_bridge: no service URL configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("llm_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s%s", b.serviceURL, path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("llm_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("llm_bridge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llm_bridge: %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm_bridge: failed to decode response: %w", err)
	}
	return nil
}

// mockIntent guesses the policy type from obvious wording and picks up road
// names mentioned verbatim in the description. Anything it cannot place
// becomes the documented road-closure default.
func (b *LLMBridge) mockIntent(policy string, roadNames []string) domain.PolicyIntent {
	lower := strings.ToLower(policy)

	intent := domain.DefaultIntent(policy)
	switch {
	case strings.Contains(lower, "signal") || strings.Contains(lower, "traffic light"):
		intent.PolicyType = domain.PolicySignalTiming
		intent.Scope = domain.ScopeNetworkWide
		intent.AffectedEdgesPct = 15
	case strings.Contains(lower, "brt") || strings.Contains(lower, "bus"):
		intent.PolicyType = domain.PolicyNewRoute
		intent.Scope = domain.ScopeCorridor
		intent.AffectedEdgesPct = 10
	case strings.Contains(lower, "ferry") || strings.Contains(lower, "metro") || strings.Contains(lower, "transit"):
		intent.PolicyType = domain.PolicyTransitAdd
		intent.Scope = domain.ScopeCorridor
		intent.AffectedEdgesPct = 10
	}

	for _, name := range roadNames {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			intent.AffectedKeywords = append(intent.AffectedKeywords, name)
		}
	}
	return intent
}

// citizenGroup pairs a demographic group with its per-policy impact scores.
type citizenGroup struct {
	group      string
	population int
	concern    string
	scores     map[string]float64
}

// The five modeled demographic groups with hand-tuned responses per policy
// type. Used whenever the sentiment modeler is unreachable.
var mockCitizenGroups = []citizenGroup{
	{
		group: "Daily Commuters", population: 450000, concern: "travel time",
		scores: map[string]float64{
			domain.PolicyRoadClosure:  -3,
			domain.PolicyNewRoute:     5,
			domain.PolicySignalTiming: 6,
			domain.PolicyTransitAdd:   4,
		},
	},
	{
		group: "Students", population: 180000, concern: "affordability and frequency",
		scores: map[string]float64{
			domain.PolicyRoadClosure:  -1,
			domain.PolicyNewRoute:     7,
			domain.PolicySignalTiming: 3,
			domain.PolicyTransitAdd:   8,
		},
	},
	{
		group: "Elderly & Differently Abled", population: 95000, concern: "accessibility and safety",
		scores: map[string]float64{
			domain.PolicyRoadClosure:  2,
			domain.PolicyNewRoute:     4,
			domain.PolicySignalTiming: 2,
			domain.PolicyTransitAdd:   6,
		},
	},
	{
		group: "Businesses & Logistics", population: 65000, concern: "route reliability and delivery windows",
		scores: map[string]float64{
			domain.PolicyRoadClosure:  -6,
			domain.PolicyNewRoute:     1,
			domain.PolicySignalTiming: 5,
			domain.PolicyTransitAdd:   -1,
		},
	},
	{
		group: "Tourists & Visitors", population: 40000, concern: "ease of navigation",
		scores: map[string]float64{
			domain.PolicyRoadClosure:  4,
			domain.PolicyNewRoute:     3,
			domain.PolicySignalTiming: 1,
			domain.PolicyTransitAdd:   7,
		},
	},
}

// MockCitizenProfiles returns the deterministic fallback profile list for a
// policy type.
func MockCitizenProfiles(policyType string) []domain.CitizenProfile {
	profiles := make([]domain.CitizenProfile, 0, len(mockCitizenGroups))
	for _, g := range mockCitizenGroups {
		score := g.scores[policyType]
		sentiment := "neutral"
		if score > 2 {
			sentiment = "supportive"
		} else if score < -2 {
			sentiment = "opposed"
		}
		profiles = append(profiles, domain.CitizenProfile{
			Group:              g.group,
			ImpactScore:        score,
			ImpactSentiment:    sentiment,
			KeyConcern:         g.concern,
			AffectedPopulation: g.population,
		})
	}
	return profiles
}

// mockRecommendation composes a plain-language summary from the report.
func mockRecommendation(policy string, report *domain.ImpactReport) string {
	verdict := "proceed with monitoring"
	switch report.Congestion.Severity {
	case domain.SeverityHighlyPositive, domain.SeverityPositive:
		verdict = "recommended for implementation"
	case domain.SeverityNegative, domain.SeverityHighlyNegative:
		verdict = "not recommended without mitigation"
	}
	return fmt.Sprintf(
		"Policy %q: %s. Network congestion changes by %+.1f%%, average travel time by %+.1f%%, "+
			"daily CO2 by %+.1f%%. Citizen satisfaction composite: %.2f/10.",
		policy, verdict,
		report.Congestion.DeltaPct, report.TravelTime.DeltaPct,
		report.CO2Emissions.DeltaPct, report.Satisfaction.Score,
	)
}
