package resolve

// MLSchemaVersion is the schema_version stamped on every ML export payload.
const MLSchemaVersion = 2

const topKExportSize = 8

// MLOptions parameterizes one ML-export build.
type MLOptions struct {
	DocID               string
	PageCount           int
	LangScript          string
	IncludeDebugContext bool
}

// ToMLDict builds the full diagnostic payload for model training and
// audit. Missing upstream evidence degrades to nil fields, never an error.
// Debug context is emitted only when explicitly requested here or enabled
// on the resolver config.
func (r *Result) ToMLDict(opts MLOptions) map[string]any {
	var docID, langScript any
	if opts.DocID != "" {
		docID = opts.DocID
	}
	if opts.LangScript != "" {
		langScript = opts.LangScript
	}
	var pageCount any
	if opts.PageCount > 0 {
		pageCount = opts.PageCount
	}

	var winner any
	if w := r.Winner(); w != nil {
		winner = candidateDict(*w)
	}

	var winnerMargin any
	if r.Evidence.WinnerMargin != nil {
		winnerMargin = *r.Evidence.WinnerMargin
	}
	var topkGap any
	if g := r.TopKGap(); g != nil {
		topkGap = *g
	}

	topK := make([]map[string]any, 0, topKExportSize)
	for i, c := range r.Candidates {
		if i >= topKExportSize {
			break
		}
		d := candidateDict(c)
		d["rank"] = i + 1
		topK = append(topK, d)
	}

	var debugContext any
	if opts.IncludeDebugContext || r.debugContext {
		debugContext = map[string]any{
			"ocr_lines":         r.Evidence.DebugLines,
			"seller_zone_lines": r.Evidence.SellerZoneLines,
			"buyer_zone_lines":  r.Evidence.BuyerZoneLines,
		}
	}

	return map[string]any{
		"schema_version":           MLSchemaVersion,
		"entity":                   r.Entity,
		"value":                    r.Value,
		"confidence":               r.Confidence,
		"confidence_bucket":        string(r.ConfidenceBucket),
		"doc_id":                   docID,
		"page_count":               pageCount,
		"lang_script":              langScript,
		"mode_trace":               r.ModeTrace(),
		"winner":                   winner,
		"winner_margin":            winnerMargin,
		"topk_gap":                 topkGap,
		"candidate_count_total":    r.Evidence.TotalCandidates,
		"candidate_count_filtered": r.Evidence.FilteredCandidates,
		"top_k":                    topK,
		"rejection_stats": map[string]any{
			"symbol_only":       r.Evidence.Rejections.SymbolOnly,
			"digit_heavy":       r.Evidence.Rejections.DigitHeavy,
			"blacklisted_title": r.Evidence.Rejections.BlacklistedTitle,
			"structural_label":  r.Evidence.Rejections.StructuralLabel,
			"plausibility":      r.Evidence.Rejections.Plausibility,
		},
		"feature_flags": r.FeatureFlags(),
		"debug_context": debugContext,
		"labeling_fields": map[string]any{
			"label_value":    nil,
			"label_correct":  nil,
			"labeler":        nil,
			"labeled_at":     nil,
			"labeling_notes": nil,
		},
	}
}

func candidateDict(c Candidate) map[string]any {
	return map[string]any{
		"value":             c.Value,
		"score":             c.Score,
		"source":            c.Source,
		"line_idx":          c.LineIdx,
		"raw_line":          c.RawLine,
		"norm_line":         c.NormLine,
		"reasons":           c.Reasons,
		"penalties_applied": c.Penalties,
		"boosts_applied":    c.Boosts,
		"matched_keywords":  c.MatchedKeywords,
		"zone":              string(c.Zone),
	}
}

// CandidateRow is one flat dataset row for a single candidate. The final
// confidence and bucket are attached only to the winning row.
type CandidateRow struct {
	DocID           string   `json:"doc_id,omitempty"`
	Entity          string   `json:"entity"`
	Rank            int      `json:"rank"`
	IsWinner        bool     `json:"is_winner"`
	Value           any      `json:"value"`
	Score           float64  `json:"score"`
	Source          string   `json:"source"`
	LineIdx         int      `json:"line_idx"`
	RawLine         string   `json:"raw_line"`
	NormLine        string   `json:"norm_line"`
	Reasons         []string `json:"reasons"`
	MatchedKeywords []string `json:"matched_keywords"`
	Zone            string   `json:"zone"`
	Confidence      *float64 `json:"confidence,omitempty"`
	Bucket          *Bucket  `json:"confidence_bucket,omitempty"`
}

// ToCandidateRows projects every candidate into a flat row for dataset
// construction. Pure projection; no resolution logic.
func (r *Result) ToCandidateRows(docID string) []CandidateRow {
	winner := r.Winner()
	rows := make([]CandidateRow, 0, len(r.Candidates))
	for i := range r.Candidates {
		c := &r.Candidates[i]
		row := CandidateRow{
			DocID:           docID,
			Entity:          r.Entity,
			Rank:            i + 1,
			IsWinner:        winner == c,
			Value:           c.Value,
			Score:           c.Score,
			Source:          c.Source,
			LineIdx:         c.LineIdx,
			RawLine:         c.RawLine,
			NormLine:        c.NormLine,
			Reasons:         c.Reasons,
			MatchedKeywords: c.MatchedKeywords,
			Zone:            string(c.Zone),
		}
		if row.IsWinner {
			conf := r.Confidence
			bucket := r.ConfidenceBucket
			row.Confidence = &conf
			row.Bucket = &bucket
		}
		rows = append(rows, row)
	}
	return rows
}
