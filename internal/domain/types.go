// Package domain holds the core data model shared by every pipeline stage:
// queries, passages, the evolving pipeline state, and the small set of
// capability interfaces (ports) the pipeline depends on but does not
// implement itself.
package domain

import "time"

// Intent is one of the fixed set of tags a query can be classified into.
type Intent string

const (
	IntentArchetype  Intent = "archetype"
	IntentPortfolio  Intent = "portfolio"
	IntentRisk       Intent = "risk"
	IntentMonteCarlo Intent = "monte_carlo"
	IntentESG        Intent = "esg"
	IntentGeneral    Intent = "general"
)

// Grade is the per-passage relevance verdict produced by the grader stage.
type Grade string

const (
	GradeRelevant   Grade = "relevant"
	GradePartial    Grade = "partial"
	GradeIrrelevant Grade = "irrelevant"
	GradeUngraded   Grade = "ungraded"
)

// Quality summarises retrieval confidence for the caller.
type Quality string

const (
	QualityGood      Quality = "good"
	QualityAmbiguous Quality = "ambiguous"
	QualityPoor      Quality = "poor"
)

// Priority is the document priority carried in Passage.Metadata, used as a
// tie-break multiplier during fusion.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// PriorityBoost returns the fusion-stage multiplier for a given priority.
// Unknown/empty priorities are treated as normal.
func PriorityBoost(p Priority) float64 {
	switch p {
	case PriorityCritical:
		return 1.0
	case PriorityHigh:
		return 0.85
	case PriorityLow:
		return 0.3
	case PriorityNormal, "":
		return 0.5
	default:
		return 0.5
	}
}

// Query is the unit of work submitted to the pipeline.
type Query struct {
	ID         string
	Text       string
	Domain     string
	PromptName string
	AppContext map[string]float64
	ThreadID   string
}

// HasAppContext reports whether the query carries user-computed numbers that
// must bypass the response cache.
func (q Query) HasAppContext() bool { return len(q.AppContext) > 0 }

// PassageMetadata carries the priority tag and any free-form fields attached
// to a passage at ingest time.
type PassageMetadata struct {
	DocumentType string
	Priority     Priority
	Fields       map[string]string
}

// Passage is a retrieved chunk flowing through the pipeline.
type Passage struct {
	ID            string
	Text          string
	SourcePath    string
	ChunkIndex    int
	Metadata      PassageMetadata
	SemanticScore float64
	LexicalScore  float64
	FusedScore    float64
	Grade         Grade
	GradeConf     float64
	GradeReason   string
}

// Citation is the externally visible reference to a survivor passage.
type Citation struct {
	SourcePath string
	ChunkIndex int
	Score      float64
}

// Timings records per-stage wall-clock durations for one pipeline pass.
type Timings struct {
	Retrieve time.Duration
	Grade    time.Duration
	Rerank   time.Duration
	Generate time.Duration
	Total    time.Duration
}

// Endpoint distinguishes the main graded path from the linear fallback path.
type Endpoint string

const (
	EndpointMain     Endpoint = "main"
	EndpointFallback Endpoint = "fallback"
)

// PipelineState flows through every stage of one query's pass. Fields are
// added as stages complete; nothing is destructively mutated once set.
type PipelineState struct {
	Query      Query
	TraceID    string
	Intent     Intent
	Candidates []Passage
	Survivors  []Passage
	Answer     string
	Citations  []Citation
	Quality    Quality
	Endpoint   Endpoint
	Timings    Timings
	CacheHit   bool
	Err        error
}

// CacheEntry is what the response cache stores per fingerprint.
type CacheEntry struct {
	Answer    string
	Citations []Citation
	Quality   Quality
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry is stale as of now.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}

// Response is the synchronous external result of one query.
type Response struct {
	ID        string
	Answer    string
	Citations []Citation
	Quality   Quality
	Intent    Intent
	Timings   Timings
	Endpoint  Endpoint
}

// MetricsRecord is one append-only observability record per query.
type MetricsRecord struct {
	ID        string
	Timestamp time.Time
	Domain    string
	Intent    Intent
	Quality   Quality
	Timings   Timings
	DocCount  int
	TopScore  float64
	Endpoint  Endpoint
	Error     string
}

// FeedbackRecord is one append-only user rating correlated to a query id.
type FeedbackRecord struct {
	QueryID   string
	Rating    string // "+" or "-"
	Detail    string
	Timestamp time.Time
}
