package dispatch

import (
	"math/rand"
	"sort"
)

// Rank orders scores highest first and resolves near-ties for first place.
// Entries within TieThreshold of the top score form a tie group whose
// internal order is decided by, in strict precedence: higher sum of recent
// performance history, lower distance, lower current job count. When all
// three criteria are equal the order is randomized, or technician-id
// ordered when the engine runs with deterministic tie-breaks.
//
// The input slice is not modified.
func (e *Engine) Rank(scores []TechnicianScore) []TechnicianScore {
	ranked := make([]TechnicianScore, len(scores))
	copy(ranked, scores)
	if len(ranked) < 2 {
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})

	top := ranked[0].TotalScore
	cut := 1
	for cut < len(ranked) && top-ranked[cut].TotalScore <= e.cfg.TieThreshold {
		cut++
	}
	if cut > 1 {
		e.breakTies(ranked[:cut])
	}
	return ranked
}

func (e *Engine) breakTies(tied []TechnicianScore) {
	// Seed the order first so fully tied entries come out shuffled (or in
	// id order under deterministic mode), then let the stable sort apply
	// the real criteria on top.
	if e.deterministic {
		sort.Slice(tied, func(i, j int) bool {
			return tied[i].Technician.ID < tied[j].Technician.ID
		})
	} else {
		rand.Shuffle(len(tied), func(i, j int) {
			tied[i], tied[j] = tied[j], tied[i]
		})
	}

	sort.SliceStable(tied, func(i, j int) bool {
		a, b := tied[i], tied[j]
		if as, bs := a.Technician.HistorySum(), b.Technician.HistorySum(); as != bs {
			return as > bs
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.Technician.CurrentJobCount < b.Technician.CurrentJobCount
	})
}
