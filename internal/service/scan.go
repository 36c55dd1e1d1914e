package service

import (
	"context"
	"sort"
	"strings"

	"nutribunda/internal/models"
	"nutribunda/internal/observability"
	"nutribunda/internal/repository"
	"nutribunda/internal/vision"
)

// Top-scored ingredients kept per detected label.
const topCandidatesPerLabel = 1

// NutritionBreakdown is the {calories, protein_g, carbs_g, fat_g} block used
// across food responses. Calories are truncated to whole kcal.
type NutritionBreakdown struct {
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

func (n *NutritionBreakdown) add(o NutritionBreakdown) {
	n.Calories += o.Calories
	n.ProteinG += o.ProteinG
	n.CarbsG += o.CarbsG
	n.FatG += o.FatG
}

// nutritionAt scales an ingredient's per-100g values to a quantity. Zero
// quantity means the row carries no measurable weight and contributes
// nothing; the 100 g default for omitted quantities is applied at write
// time, not here.
func nutritionAt(ing *models.FoodIngredient, quantityG float64) NutritionBreakdown {
	if quantityG <= 0 {
		return NutritionBreakdown{}
	}
	factor := quantityG / 100
	return NutritionBreakdown{
		Calories: int(float64(ing.Calories) * factor),
		ProteinG: ing.ProteinG * factor,
		CarbsG:   ing.CarbsG * factor,
		FatG:     ing.FatG * factor,
	}
}

// ScanCandidate is one ingredient guess for a scanned image.
type ScanCandidate struct {
	IngredientID       uint               `json:"ingredient_id"`
	Name               string             `json:"name"`
	Confidence         float64            `json:"confidence"`
	Per100G            NutritionBreakdown `json:"per_100g"`
	SuggestedQuantityG int                `json:"suggested_quantity_g"`
}

// ScanResult is the scan-food response payload. DetectedIDs feed the
// recommendation boost.
type ScanResult struct {
	Candidates  []ScanCandidate `json:"candidates"`
	DetectedIDs []uint          `json:"detected_ids"`
}

type ScanService struct {
	detector    vision.Detector
	ingredients repository.IngredientRepository
}

func NewScanService(detector vision.Detector, ingredients repository.IngredientRepository) *ScanService {
	return &ScanService{detector: detector, ingredients: ingredients}
}

// ScanImage runs the detector over an image and matches the returned labels
// against the ingredient database. Each label keeps its single best-scoring
// ingredient; the final list is deduplicated keeping the highest confidence
// per ingredient.
func (s *ScanService) ScanImage(ctx context.Context, image []byte, filename string) (*ScanResult, error) {
	ctx, span := observability.GetTraceLayer().TraceVisionCall(ctx, "detector")
	labels, err := s.detector.Detect(ctx, image, filename)
	span.End()
	if err != nil {
		observability.FoodScans.WithLabelValues(observability.StatusError).Inc()
		return nil, models.NewScanError(err)
	}

	cleaned := make([]vision.Label, 0, len(labels))
	for _, l := range labels {
		text := strings.ToLower(strings.TrimSpace(l.Label))
		if text == "" {
			continue
		}
		cleaned = append(cleaned, vision.Label{Label: text, Confidence: l.Confidence})
	}

	result := &ScanResult{Candidates: []ScanCandidate{}, DetectedIDs: []uint{}}
	if len(cleaned) == 0 {
		observability.FoodScans.WithLabelValues(observability.StatusOK).Inc()
		return result, nil
	}

	// Search by the full label plus its individual words, so "daging ayam"
	// also surfaces plain "ayam" entries. Very short words only add noise.
	var terms []string
	seen := map[string]bool{}
	addTerm := func(t string) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	for _, l := range cleaned {
		addTerm(l.Label)
		for _, word := range strings.Fields(l.Label) {
			if len(word) > 2 {
				addTerm(word)
			}
		}
	}

	pool, err := s.ingredients.Search(ctx, terms)
	if err != nil {
		observability.FoodScans.WithLabelValues(observability.StatusError).Inc()
		return nil, err
	}

	var candidates []ScanCandidate
	for _, label := range cleaned {
		type scored struct {
			score float64
			ing   *models.FoodIngredient
		}
		var matches []scored
		for i := range pool {
			sc := scoreIngredientMatch(label.Label, &pool[i], label.Confidence)
			if sc > 0 {
				matches = append(matches, scored{score: sc, ing: &pool[i]})
			}
		}
		// Stable sort so ties resolve to the oldest ingredient; the pool
		// comes back ordered by id.
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].score > matches[j].score
		})
		for i := 0; i < len(matches) && i < topCandidatesPerLabel; i++ {
			ing := matches[i].ing
			candidates = append(candidates, ScanCandidate{
				IngredientID:       ing.ID,
				Name:               ing.Name,
				Confidence:         label.Confidence,
				Per100G:            nutritionAt(ing, 100),
				SuggestedQuantityG: 100,
			})
		}
	}

	index := map[uint]int{}
	for _, c := range candidates {
		if i, ok := index[c.IngredientID]; ok {
			if c.Confidence > result.Candidates[i].Confidence {
				result.Candidates[i] = c
			}
			continue
		}
		index[c.IngredientID] = len(result.Candidates)
		result.Candidates = append(result.Candidates, c)
	}
	for _, c := range result.Candidates {
		result.DetectedIDs = append(result.DetectedIDs, c.IngredientID)
	}

	observability.FoodScans.WithLabelValues(observability.StatusOK).Inc()
	return result, nil
}

// scoreIngredientMatch rates how well an ingredient fits a detected label.
// Word overlap with the name weighs more than overlap with aliases, full
// substring hits add a little more, and the whole score is damped by the
// detector's confidence.
func scoreIngredientMatch(label string, ing *models.FoodIngredient, confidence float64) float64 {
	name := strings.ToLower(ing.Name)
	alt := strings.ToLower(ing.AltNames)

	labelTokens := tokenSet(label)
	nameTokens := tokenSet(name)
	altTokens := tokenSet(alt)

	score := 3*float64(countOverlap(labelTokens, nameTokens)) +
		2*float64(countOverlap(labelTokens, altTokens))
	if strings.Contains(name, label) {
		score += 2
	}
	if strings.Contains(alt, label) {
		score++
	}
	return score * (0.5 + confidence)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func countOverlap(a, b map[string]bool) int {
	n := 0
	for tok := range a {
		if b[tok] {
			n++
		}
	}
	return n
}
