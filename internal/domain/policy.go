package domain

import "github.com/citytwin/backend/pkg/utils"

// Policy types understood by the effect applier.
const (
	PolicyRoadClosure  = "road_closure"
	PolicyNewRoute     = "new_route"
	PolicySignalTiming = "signal_timing"
	PolicyTransitAdd   = "transit_add"
)

// Policy scopes. Scope widens secondary effects beyond the primary segments.
const (
	ScopeLocal       = "local"
	ScopeCorridor    = "corridor"
	ScopeNetworkWide = "network-wide"
)

// PolicyIntent is the structured output of the external policy parser.
type PolicyIntent struct {
	PolicyType       string   `json:"policy_type"`
	AffectedArea     string   `json:"affected_area,omitempty"`
	AffectedKeywords []string `json:"affected_road_keywords"`
	Scope            string   `json:"scope"`
	Description      string   `json:"description_for_report,omitempty"`
	AffectedEdgesPct float64  `json:"estimated_affected_edges_pct"`
}

// DefaultIntent is the documented fallback when the parser output is missing
// or unusable: a local road closure touching 5% of the network.
func DefaultIntent(description string) PolicyIntent {
	return PolicyIntent{
		PolicyType:       PolicyRoadClosure,
		AffectedKeywords: []string{},
		Scope:            ScopeLocal,
		Description:      description,
		AffectedEdgesPct: 5,
	}
}

// ValidPolicyType reports whether t is one of the four known policy types.
func ValidPolicyType(t string) bool {
	switch t {
	case PolicyRoadClosure, PolicyNewRoute, PolicySignalTiming, PolicyTransitAdd:
		return true
	}
	return false
}

// Normalize repairs an intent in place of rejecting it: unknown policy types
// collapse to the road-closure fallback, unknown scopes become local, and the
// affected-edge estimate is clamped into its schema range [1, 30].
func (p PolicyIntent) Normalize() PolicyIntent {
	if !ValidPolicyType(p.PolicyType) {
		return DefaultIntent(p.Description)
	}
	switch p.Scope {
	case ScopeLocal, ScopeCorridor, ScopeNetworkWide:
	default:
		p.Scope = ScopeLocal
	}
	if p.AffectedKeywords == nil {
		p.AffectedKeywords = []string{}
	}
	p.AffectedEdgesPct = utils.Clamp(p.AffectedEdgesPct, 1, 30)
	return p
}
