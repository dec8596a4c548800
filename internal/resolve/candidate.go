package resolve

// Zone classifies the source line of a candidate as seller-side,
// buyer-side, or neither.
type Zone string

const (
	ZoneSeller Zone = "seller"
	ZoneBuyer  Zone = "buyer"
	ZoneNone   Zone = "none"
)

// Adjustment records one scoring nudge an upstream heuristic applied.
type Adjustment struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// Candidate is one competing reading for an entity. Candidates are
// produced upstream and are immutable inputs here; the list is ordered by
// descending score by convention but the resolver re-derives ordering
// whenever it matters.
type Candidate struct {
	Value           any          `json:"value"`
	Score           float64      `json:"score"`
	Source          string       `json:"source"`
	LineIdx         int          `json:"line_idx"`
	RawLine         string       `json:"raw_line,omitempty"`
	NormLine        string       `json:"norm_line,omitempty"`
	Reasons         []string     `json:"reasons,omitempty"`
	Penalties       []Adjustment `json:"penalties_applied,omitempty"`
	Boosts          []Adjustment `json:"boosts_applied,omitempty"`
	MatchedKeywords []string     `json:"matched_keywords,omitempty"`
	Zone            Zone         `json:"zone,omitempty"`
}

func (c *Candidate) hasReason(tags ...string) bool {
	for _, r := range c.Reasons {
		for _, t := range tags {
			if r == t {
				return true
			}
		}
	}
	return false
}

// Rejections counts candidates dropped upstream, by category.
type Rejections struct {
	SymbolOnly       int `json:"symbol_only"`
	DigitHeavy       int `json:"digit_heavy"`
	BlacklistedTitle int `json:"blacklisted_title"`
	StructuralLabel  int `json:"structural_label"`
	Plausibility     int `json:"plausibility"`
}

// Evidence carries the auxiliary counters produced while an entity was
// resolved. Known keys are explicit fields; Extra is the residual open
// mapping for genuinely unanticipated diagnostic data.
type Evidence struct {
	WinnerMargin       *float64
	TotalCandidates    int
	FilteredCandidates int
	FallbackMode       string // baseline resolution mode: "strict" | "relaxed"
	LLMTiebreak        bool
	LLMModel           string
	Rejections         Rejections
	DebugLines         []string // first N OCR lines
	SellerZoneLines    []string
	BuyerZoneLines     []string
	Extra              map[string]any
}
