package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/fraudshield/docintake/internal/extract"
	"github.com/fraudshield/docintake/internal/fingerprint"
	"github.com/fraudshield/docintake/internal/resolve"
)

// Entity names the duplicate check reads from the resolved set.
const (
	EntityMerchant = "merchant"
	EntityDate     = "date"
	EntityAmount   = "amount"
)

// Extraction is what an upstream entity extractor hands back for one
// entity: ranked candidates, the selected winner, and its evidence.
type Extraction struct {
	Candidates  []resolve.Candidate
	WinnerValue any
	Confidence  float64
	Evidence    resolve.Evidence
}

// EntityExtractor is the external-collaborator contract: it reads the
// text corpus and proposes candidates for one entity. How candidates are
// produced (regex heuristics, vision models, ...) is not this core's
// concern.
type EntityExtractor interface {
	Entity() string
	Extract(ctx context.Context, corpus extract.TextCorpus) (Extraction, error)
}

// Result is everything the rule engine receives for one document.
type Result struct {
	DocID       string
	ContentHash string
	Corpus      extract.TextCorpus
	Entities    map[string]resolve.Result
	Duplicate   fingerprint.Verdict
}

// Intake runs the synchronous per-document sequence: extraction,
// per-entity resolution, duplicate check. One instance may serve many
// documents, but each concurrent caller should bring its own store.
type Intake struct {
	extractor  *extract.Extractor
	resolver   *resolve.Resolver
	store      *fingerprint.Store
	fallback   extract.OCRFallback
	extractors []EntityExtractor
	logger     *slog.Logger
}

func NewIntake(
	extractor *extract.Extractor,
	resolver *resolve.Resolver,
	store *fingerprint.Store,
	fallback extract.OCRFallback,
	extractors []EntityExtractor,
	logger *slog.Logger,
) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{
		extractor:  extractor,
		resolver:   resolver,
		store:      store,
		fallback:   fallback,
		extractors: extractors,
		logger:     logger,
	}
}

// Process ingests one document. The only hard error is an unreadable
// file; extraction, resolution, and duplicate-check problems all degrade
// into the result per the intake error taxonomy.
func (p *Intake) Process(ctx context.Context, path string) (Result, error) {
	hash, err := hashFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("hash file: %w", err)
	}

	res := Result{
		DocID:       uuid.New().String(),
		ContentHash: hash,
		Entities:    map[string]resolve.Result{},
	}

	res.Corpus = p.extractor.Extract(ctx, path, p.fallback)
	p.logger.Info("intake.extract.ok",
		"doc_id", res.DocID,
		"source", string(res.Corpus.Source),
		"pages", len(res.Corpus.Pages),
		"quality", res.Corpus.Quality.Score,
	)

	for _, ee := range p.extractors {
		name := ee.Entity()
		ext, err := ee.Extract(ctx, res.Corpus)
		if err != nil {
			// resolution gap, not a failure: record an empty resolution
			p.logger.Warn("intake.entity.failed", "doc_id", res.DocID, "entity", name, "error", err)
			res.Entities[name] = p.resolver.Resolve(name, nil, nil, 0, resolve.Evidence{
				Extra: map[string]any{"extractor_error": err.Error()},
			})
			continue
		}
		res.Entities[name] = p.resolver.Resolve(name, ext.Candidates, ext.WinnerValue, ext.Confidence, ext.Evidence)
	}

	res.Duplicate = p.checkDuplicate(ctx, path, res)
	p.logger.Info("intake.ok",
		"doc_id", res.DocID,
		"entities", len(res.Entities),
		"is_duplicate", res.Duplicate.IsDuplicate,
		"match_type", res.Duplicate.MatchType,
	)
	return res, nil
}

func (p *Intake) checkDuplicate(ctx context.Context, path string, res Result) fingerprint.Verdict {
	if p.store == nil {
		return fingerprint.Verdict{Details: "store unavailable"}
	}
	req := fingerprint.CheckRequest{
		FileID:   path,
		Merchant: stringValue(res.Entities, EntityMerchant),
		Date:     stringValue(res.Entities, EntityDate),
		Amount:   floatValue(res.Entities, EntityAmount),
	}
	return p.store.CheckDuplicate(ctx, req)
}

func stringValue(entities map[string]resolve.Result, name string) string {
	r, ok := entities[name]
	if !ok || r.Value == nil {
		return ""
	}
	if s, ok := r.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", r.Value)
}

func floatValue(entities map[string]resolve.Result, name string) *float64 {
	r, ok := entities[name]
	if !ok || r.Value == nil {
		return nil
	}
	switch v := r.Value.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
