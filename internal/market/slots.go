package market

import (
	"context"
	"sort"
	"sync"

	"csgo-loadout/internal/models"

	"go.uber.org/zap"
)

// SlotSelector fills one loadout slot from several weapon-category
// queries, interleaving the best candidates across categories so a
// single abundant category cannot crowd out the rest.
type SlotSelector struct {
	agg        *Aggregator
	floorCents int64
	maxOptions int
	log        *zap.Logger
}

func NewSlotSelector(agg *Aggregator, floorCents int64, maxOptions int, logger *zap.Logger) *SlotSelector {
	return &SlotSelector{agg: agg, floorCents: floorCents, maxOptions: maxOptions, log: logger}
}

// SelectSlot collects candidates for every category term under the slot
// budget and returns up to maxOptions listings, taken round-robin by
// rank depth across categories. seen is shared across all slots of one
// loadout request so a listing is never offered twice; entries admitted
// here are added to it. Categories with no survivors are dropped.
//
// Category fetches run concurrently, but seen-set admission happens
// afterwards in fixed term order so results do not depend on timing.
func (s *SlotSelector) SelectSlot(ctx context.Context, terms []string, budgetCents int64, seen map[string]struct{}) []models.Listing {
	perTerm := make([][]models.Listing, len(terms))
	var wg sync.WaitGroup
	for i, term := range terms {
		wg.Add(1)
		go func(i int, term string) {
			defer wg.Done()
			perTerm[i] = s.agg.Collect(ctx, term, s.floorCents, budgetCents)
		}(i, term)
	}
	wg.Wait()

	categories := make([][]models.Listing, 0, len(terms))
	for i, term := range terms {
		candidates := perTerm[i]
		// Most expensive first: closest to spending the slot budget.
		sort.SliceStable(candidates, func(a, b int) bool {
			if candidates[a].PriceCents != candidates[b].PriceCents {
				return candidates[a].PriceCents > candidates[b].PriceCents
			}
			return candidates[a].HashName < candidates[b].HashName
		})

		survivors := make([]models.Listing, 0, len(candidates))
		for _, listing := range candidates {
			// One term can be a substring of another, so the same
			// listing may surface under two categories.
			if _, dup := seen[listing.HashName]; dup {
				continue
			}
			seen[listing.HashName] = struct{}{}
			survivors = append(survivors, listing)
		}
		if len(survivors) == 0 {
			s.log.Debug("category yielded no candidates",
				zap.String("term", term), zap.Int64("budget_cents", budgetCents))
			continue
		}
		categories = append(categories, survivors)
	}

	selected := make([]models.Listing, 0, s.maxOptions)
	for depth := 0; len(selected) < s.maxOptions; depth++ {
		progressed := false
		for _, category := range categories {
			if depth >= len(category) {
				continue
			}
			selected = append(selected, category[depth])
			progressed = true
			if len(selected) == s.maxOptions {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return selected
}
