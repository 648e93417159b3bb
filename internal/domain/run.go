package domain

import "time"

// Pipeline stages, in execution order.
const (
	StageIngest           = "ingest"
	StageSimulateBaseline = "simulate_baseline"
	StageModelCitizens    = "model_citizens"
	StageApplyPolicy      = "apply_policy"
	StageAnalyzeImpact    = "analyze_impact"
	StageReport           = "report"
)

// Run statuses.
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunError     = "error"
)

// Progress event types streamed to observers.
const (
	EventStart    = "start"
	EventStage    = "stage"
	EventData     = "data"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressEvent is one notification emitted by the pipeline. Stage events
// carry the stage identifier and its status; data events carry a partial
// result keyed by name.
type ProgressEvent struct {
	Type    string      `json:"type"`
	Stage   string      `json:"stage,omitempty"`
	Status  string      `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Key     string      `json:"key,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RunResult is the accumulated output of a finished simulation.
type RunResult struct {
	BaselineMetrics   MetricsSummary     `json:"baseline_metrics"`
	Breakdown         *BaselineBreakdown `json:"baseline_breakdown,omitempty"`
	Intent            PolicyIntent       `json:"policy_intent"`
	PostMetrics       MetricsSummary     `json:"post_policy_metrics"`
	AffectedEdgeCount int                `json:"affected_edge_count"`
	CitizenProfiles   []CitizenProfile   `json:"citizen_profiles"`
	Impact            *ImpactReport      `json:"impact_scores,omitempty"`
	Recommendations   string             `json:"recommendations"`
}

// SimulationRun is the job record for one policy simulation.
type SimulationRun struct {
	ID          string     `json:"id"`
	City        string     `json:"city"`
	Policy      string     `json:"policy"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Result      *RunResult `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PolicyPreset is a pre-built scenario offered to the frontend.
type PolicyPreset struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Category    string `json:"category" yaml:"category"`
}
