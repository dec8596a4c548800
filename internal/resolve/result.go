package resolve

import (
	"log/slog"
	"sort"
)

// Bucket is the four-level discretization of a confidence score.
type Bucket string

const (
	BucketHigh   Bucket = "HIGH"
	BucketMedium Bucket = "MEDIUM"
	BucketLow    Bucket = "LOW"
	BucketNone   Bucket = "NONE"
)

// BucketFor maps a confidence score to its bucket. Total and
// deterministic: HIGH >= 0.80, MEDIUM >= 0.55, LOW > 0, else NONE.
func BucketFor(score float64) Bucket {
	switch {
	case score >= 0.80:
		return BucketHigh
	case score >= 0.55:
		return BucketMedium
	case score > 0:
		return BucketLow
	default:
		return BucketNone
	}
}

// Config controls resolver-wide behavior. Debug-context emission in ML
// exports is decided here, at construction time, not by ambient state.
type Config struct {
	DebugContext  bool
	MaxDebugLines int // 0 -> 20
}

// Resolver decorates upstream candidate lists with confidence, margin and
// bucket analysis, one entity at a time.
type Resolver struct {
	cfg    Config
	logger *slog.Logger
}

func NewResolver(cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxDebugLines <= 0 {
		cfg.MaxDebugLines = 20
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// Result is the resolution of one entity for one document.
// ConfidenceBucket is always derived from Confidence, never set directly.
type Result struct {
	Entity           string
	Value            any
	Confidence       float64
	ConfidenceBucket Bucket
	Candidates       []Candidate
	Evidence         Evidence

	debugContext bool
}

// Resolve builds the EntityResult for an already-selected winner value.
// A winnerValue of nil means the entity could not be resolved upstream.
func (rv *Resolver) Resolve(entity string, candidates []Candidate, winnerValue any, confidence float64, ev Evidence) Result {
	r := Result{
		Entity:           entity,
		Value:            winnerValue,
		Confidence:       confidence,
		ConfidenceBucket: BucketFor(confidence),
		Candidates:       candidates,
		Evidence:         ev,
		debugContext:     rv.cfg.DebugContext,
	}
	rv.logger.Debug("entity resolved",
		"entity", entity,
		"value", winnerValue,
		"confidence", confidence,
		"bucket", string(r.ConfidenceBucket),
		"candidates", len(candidates),
	)
	return r
}

// Winner scans candidates for the first whose value equals the resolved
// value. Returns nil when the value is absent from the list; never fails.
func (r *Result) Winner() *Candidate {
	if r.Value == nil {
		return nil
	}
	for i := range r.Candidates {
		if r.Candidates[i].Value == r.Value {
			return &r.Candidates[i]
		}
	}
	return nil
}

// TopKGap is the winner score minus the mean score of the other top-3
// candidates. With fewer than 2 other candidates among the top 3, the gap
// is the winner score itself. Nil when there is no winner.
func (r *Result) TopKGap() *float64 {
	w := r.Winner()
	if w == nil {
		return nil
	}

	top := make([]Candidate, len(r.Candidates))
	copy(top, r.Candidates)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > 3 {
		top = top[:3]
	}

	// drop one instance of the winner from the top slice
	others := make([]float64, 0, len(top))
	dropped := false
	for _, c := range top {
		if !dropped && c.Value == w.Value {
			dropped = true
			continue
		}
		others = append(others, c.Score)
	}

	gap := w.Score
	if len(others) >= 2 {
		var sum float64
		for _, s := range others {
			sum += s
		}
		gap = w.Score - sum/float64(len(others))
	}
	return &gap
}

// Reason tags tested as boolean features of the winning candidate.
var featureFlagTags = map[string][]string{
	"seller_zone":      {"seller_zone"},
	"buyer_zone":       {"buyer_zone", "buyer_zone_penalty"},
	"label_next_line":  {"label_next_line"},
	"company_name":     {"company_name"},
	"uppercase_header": {"uppercase_header"},
	"ref_like":         {"ref_like"},
	"title_like":       {"title_like"},
	"address_like":     {"address_like"},
}

// FeatureFlags reports which known heuristic tags fired on the winning
// candidate. All false when there is no winner.
func (r *Result) FeatureFlags() map[string]bool {
	flags := make(map[string]bool, len(featureFlagTags))
	w := r.Winner()
	for name, tags := range featureFlagTags {
		flags[name] = w != nil && w.hasReason(tags...)
	}
	return flags
}

// ModeEntry records one resolution mode that ran for this entity.
type ModeEntry struct {
	Mode       string   `json:"mode"`
	LLMEnabled bool     `json:"llm_enabled"`
	LLMModel   string   `json:"llm_model,omitempty"`
	Value      any      `json:"value"`
	Confidence float64  `json:"confidence"`
	Margin     *float64 `json:"margin"`
}

// ModeTrace lists the resolution modes that ran, in order: the baseline
// strict/relaxed mode, plus an llm-tiebreak entry iff one was consulted.
func (r *Result) ModeTrace() []ModeEntry {
	mode := r.Evidence.FallbackMode
	if mode == "" {
		mode = "strict"
	}
	trace := []ModeEntry{{
		Mode:       mode,
		LLMEnabled: false,
		Value:      r.Value,
		Confidence: r.Confidence,
		Margin:     r.Evidence.WinnerMargin,
	}}
	if r.Evidence.LLMTiebreak {
		trace = append(trace, ModeEntry{
			Mode:       "llm-tiebreak",
			LLMEnabled: true,
			LLMModel:   r.Evidence.LLMModel,
			Value:      r.Value,
			Confidence: r.Confidence,
			Margin:     r.Evidence.WinnerMargin,
		})
	}
	return trace
}
