package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/citytwin/backend/internal/domain"
)

// PipelineService runs the six-stage simulation pipeline:
// ingest -> simulate_baseline -> model_citizens -> apply_policy ->
// analyze_impact -> report. Stages execute strictly in order; the first
// failing stage halts the run. Each stage takes the accumulated state by
// value and returns a new one, so no stage aliases another's data.
type PipelineService struct {
	graphSvc   *GraphService
	metricsSvc *MetricsService
	policySvc  *PolicyService
	impactSvc  *ImpactService
	bridge     *LLMBridge
	log        *logrus.Entry
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	graphSvc *GraphService,
	metricsSvc *MetricsService,
	policySvc *PolicyService,
	impactSvc *ImpactService,
	bridge *LLMBridge,
) *PipelineService {
	return &PipelineService{
		graphSvc:   graphSvc,
		metricsSvc: metricsSvc,
		policySvc:  policySvc,
		impactSvc:  impactSvc,
		bridge:     bridge,
		log:        logrus.WithField("service", "pipeline"),
	}
}

// runState is the accumulator threaded through the stages.
type runState struct {
	policy string
	city   string

	baseline        *domain.NetworkState
	baselineMetrics domain.MetricsSummary
	breakdown       *domain.BaselineBreakdown
	profiles        []domain.CitizenProfile
	intent          domain.PolicyIntent
	post            *domain.NetworkState
	postMetrics     domain.MetricsSummary
	report          *domain.ImpactReport
	recommendations string
}

// stage is one pipeline step: a name, the work, and an optional partial
// result published to observers after completion.
type stage struct {
	name    string
	run     func(ctx context.Context, acc runState) (runState, string, error)
	payload func(acc runState) (string, interface{})
}

func (p *PipelineService) stages() []stage {
	return []stage{
		{
			name: domain.StageIngest,
			run:  p.ingest,
		},
		{
			name: domain.StageSimulateBaseline,
			run:  p.simulateBaseline,
			payload: func(acc runState) (string, interface{}) {
				return "baseline_metrics", acc.baselineMetrics
			},
		},
		{
			name: domain.StageModelCitizens,
			run:  p.modelCitizens,
			payload: func(acc runState) (string, interface{}) {
				return "citizen_profiles", acc.profiles
			},
		},
		{
			name: domain.StageApplyPolicy,
			run:  p.applyPolicy,
			payload: func(acc runState) (string, interface{}) {
				return "modified_network", p.graphSvc.ToGeoJSON(acc.post)
			},
		},
		{
			name: domain.StageAnalyzeImpact,
			run:  p.analyzeImpact,
			payload: func(acc runState) (string, interface{}) {
				return "impact_scores", acc.report
			},
		},
		{
			name: domain.StageReport,
			run:  p.reportStage,
			payload: func(acc runState) (string, interface{}) {
				return "recommendations", acc.recommendations
			},
		},
	}
}

// Run executes the pipeline for one policy and streams progress events.
// The channel is closed when the run reaches done or error; the terminal
// complete event carries the full result.
func (p *PipelineService) Run(ctx context.Context, policy, city string) <-chan domain.ProgressEvent {
	events := make(chan domain.ProgressEvent, 8)
	go func() {
		defer close(events)

		events <- domain.ProgressEvent{
			Type:    domain.EventStart,
			Message: fmt.Sprintf("starting policy simulation for %q", policy),
		}

		acc := runState{policy: policy, city: city}
		for _, st := range p.stages() {
			events <- domain.ProgressEvent{
				Type:    domain.EventStage,
				Stage:   st.name,
				Status:  domain.RunRunning,
				Message: fmt.Sprintf("%s: started", st.name),
			}

			next, msg, err := st.run(ctx, acc)
			if err != nil {
				p.log.Errorf("stage %s failed: %v", st.name, err)
				events <- domain.ProgressEvent{
					Type:    domain.EventStage,
					Stage:   st.name,
					Status:  domain.RunError,
					Message: err.Error(),
				}
				events <- domain.ProgressEvent{
					Type:    domain.EventError,
					Stage:   st.name,
					Message: fmt.Sprintf("%s: %v", st.name, err),
				}
				return
			}
			acc = next

			p.log.Info(msg)
			events <- domain.ProgressEvent{
				Type:    domain.EventStage,
				Stage:   st.name,
				Status:  domain.RunCompleted,
				Message: msg,
			}
			if st.payload != nil {
				key, data := st.payload(acc)
				events <- domain.ProgressEvent{Type: domain.EventData, Key: key, Data: data}
			}
		}

		events <- domain.ProgressEvent{
			Type:    domain.EventComplete,
			Message: "simulation completed",
			Data:    p.result(acc),
		}
	}()
	return events
}

func (p *PipelineService) result(acc runState) *domain.RunResult {
	return &domain.RunResult{
		BaselineMetrics:   acc.baselineMetrics,
		Breakdown:         acc.breakdown,
		Intent:            acc.intent,
		PostMetrics:       acc.postMetrics,
		AffectedEdgeCount: len(acc.post.PrimarySegments),
		CitizenProfiles:   acc.profiles,
		Impact:            acc.report,
		Recommendations:   acc.recommendations,
	}
}

func (p *PipelineService) ingest(_ context.Context, acc runState) (runState, string, error) {
	baseline, err := p.graphSvc.Baseline()
	if err != nil {
		return acc, "", fmt.Errorf("ingest: %w", err)
	}
	acc.baseline = baseline
	msg := fmt.Sprintf("ingest: %d junctions, %d road segments loaded for %s",
		baseline.NodeCount(), baseline.EdgeCount(), acc.city)
	return acc, msg, nil
}

func (p *PipelineService) simulateBaseline(_ context.Context, acc runState) (runState, string, error) {
	acc.baselineMetrics = p.metricsSvc.Aggregate(acc.baseline)
	acc.breakdown = p.metricsSvc.Breakdown(acc.baseline)
	msg := fmt.Sprintf("baseline: avg congestion %.1f%%, peak %.1f%%, %d bottleneck segments",
		acc.baselineMetrics.AvgCongestionRatio*100,
		acc.breakdown.PeakCongestionRatio*100,
		len(acc.breakdown.Bottlenecks))
	return acc, msg, nil
}

func (p *PipelineService) modelCitizens(ctx context.Context, acc runState) (runState, string, error) {
	// The policy type has not been parsed at this point; the modeler works
	// from the raw description.
	acc.profiles = p.bridge.CitizenProfiles(ctx, acc.policy, "", acc.baselineMetrics)
	msg := fmt.Sprintf("citizens: modeled %d demographic groups", len(acc.profiles))
	return acc, msg, nil
}

func (p *PipelineService) applyPolicy(ctx context.Context, acc runState) (runState, string, error) {
	if acc.baseline == nil || acc.baseline.EdgeCount() == 0 {
		return acc, "", fmt.Errorf("apply_policy: no baseline network")
	}
	acc.intent = p.bridge.ParsePolicy(ctx, acc.policy, roadNames(acc.baseline)).Normalize()
	acc.post = p.policySvc.Apply(acc.baseline, acc.intent)
	acc.postMetrics = p.metricsSvc.Aggregate(acc.post)

	msg := fmt.Sprintf("policy: applied %q to %d segments, post avg congestion %.1f%%",
		acc.intent.PolicyType, len(acc.post.PrimarySegments),
		acc.postMetrics.AvgCongestionRatio*100)
	return acc, msg, nil
}

func (p *PipelineService) analyzeImpact(_ context.Context, acc runState) (runState, string, error) {
	acc.report = p.impactSvc.Analyze(acc.baselineMetrics, acc.postMetrics, acc.profiles)
	msg := fmt.Sprintf("impact: congestion %+.1f%%, travel time %+.1f%%, CO2 %+.1f%%",
		acc.report.Congestion.DeltaPct,
		acc.report.TravelTime.DeltaPct,
		acc.report.CO2Emissions.DeltaPct)
	return acc, msg, nil
}

func (p *PipelineService) reportStage(ctx context.Context, acc runState) (runState, string, error) {
	acc.recommendations = p.bridge.Recommendation(ctx, acc.policy, acc.report)
	return acc, "report: recommendation generated", nil
}

// roadNames samples the distinct display names of the network for parser
// context.
func roadNames(state *domain.NetworkState) []string {
	names := lo.Uniq(lo.FilterMap(state.Segments, func(seg *domain.RoadSegment, _ int) (string, bool) {
		return seg.Name, seg.Name != ""
	}))
	if len(names) > 20 {
		names = names[:20]
	}
	return names
}
