package routing

import (
	"sort"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Weights tune the scoring factors. Lower composite score wins. Cost and
// lead time are min-max normalized over the candidate set before weighting,
// so weights are comparable regardless of the absolute price range.
type Weights struct {
	Cost             float64
	LeadTime         float64
	Reliability      float64
	StalenessPenalty float64 // Flat penalty added to stale candidates
}

// DefaultWeights favors cost, then lead time, then reliability
func DefaultWeights() Weights {
	return Weights{
		Cost:             0.6,
		LeadTime:         0.25,
		Reliability:      0.15,
		StalenessPenalty: 0.5,
	}
}

type scored struct {
	candidate Candidate
	score     float64
}

// scoreAll computes composite scores for a candidate set. Normalization is
// relative to the set itself: the cheapest candidate contributes 0 cost
// score, the most expensive contributes the full cost weight.
func scoreAll(candidates []Candidate, w Weights) []scored {
	minCost, maxCost := candidates[0].UnitCost, candidates[0].UnitCost
	minLead, maxLead := candidates[0].LeadTimeDays, candidates[0].LeadTimeDays
	for _, c := range candidates[1:] {
		if c.UnitCost.LessThan(minCost) {
			minCost = c.UnitCost
		}
		if c.UnitCost.GreaterThan(maxCost) {
			maxCost = c.UnitCost
		}
		if c.LeadTimeDays < minLead {
			minLead = c.LeadTimeDays
		}
		if c.LeadTimeDays > maxLead {
			maxLead = c.LeadTimeDays
		}
	}

	costRange, _ := maxCost.Sub(minCost).Float64()
	leadRange := float64(maxLead - minLead)

	result := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		var s float64
		if costRange > 0 {
			delta, _ := c.UnitCost.Sub(minCost).Float64()
			s += w.Cost * (delta / costRange)
		}
		if leadRange > 0 {
			s += w.LeadTime * (float64(c.LeadTimeDays-minLead) / leadRange)
		}
		rel, _ := c.Reliability.Float64()
		s += w.Reliability * (1 - rel)
		if c.Stale {
			s += w.StalenessPenalty
		}
		result = append(result, scored{candidate: c, score: s})
	}
	return result
}

// Rank orders candidates best-first by composite score. Ties break by unit
// cost ascending, then lead time ascending, then reliability descending.
func Rank(candidates []Candidate, w Weights) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	ranked := scoreAll(candidates, w)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if !a.candidate.UnitCost.Equal(b.candidate.UnitCost) {
			return a.candidate.UnitCost.LessThan(b.candidate.UnitCost)
		}
		if a.candidate.LeadTimeDays != b.candidate.LeadTimeDays {
			return a.candidate.LeadTimeDays < b.candidate.LeadTimeDays
		}
		return a.candidate.Reliability.GreaterThan(b.candidate.Reliability)
	})
	out := make([]Candidate, len(ranked))
	for i, s := range ranked {
		out[i] = s.candidate
	}
	return out
}

// SelectSupplier picks the single best supplier able to cover the full
// quantity. Candidates are expected to be pre-filtered to active suppliers.
// Stale candidates are penalized but not excluded; when only stale
// candidates remain the selection is flagged provisional. Returns
// shared.ErrNoSupplierAvailable when no admitted candidate covers the
// quantity (the caller may then attempt a split plan).
func SelectSupplier(candidates []Candidate, quantity decimal.Decimal, constraints Constraints, w Weights) (*Selection, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if constraints.Admits(c) && c.CanCover(quantity) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, shared.ErrNoSupplierAvailable
	}

	allStale := true
	for _, c := range eligible {
		if !c.Stale {
			allStale = false
			break
		}
	}

	// The preferred-supplier hint short-circuits scoring when that supplier
	// is eligible; otherwise selection falls through to the ranking.
	if constraints.PreferredSupplierID != nil {
		for _, c := range eligible {
			if c.SupplierID == *constraints.PreferredSupplierID {
				return &Selection{
					SupplierID:   c.SupplierID,
					SupplierCode: c.SupplierCode,
					UnitCost:     c.UnitCost,
					LeadTimeDays: c.LeadTimeDays,
					Provisional:  allStale,
				}, nil
			}
		}
	}

	best := Rank(eligible, w)[0]
	return &Selection{
		SupplierID:   best.SupplierID,
		SupplierCode: best.SupplierCode,
		UnitCost:     best.UnitCost,
		LeadTimeDays: best.LeadTimeDays,
		Provisional:  allStale,
	}, nil
}
