package market

import "csgo-loadout/internal/models"

// Knapsack selects the subset of items maximizing total listings count
// (a popularity proxy) with total price at most budgetCents, each item
// usable once. Classic 0/1 dynamic programming over an
// (n+1) x (budget+1) table; callers bound budgetCents before calling,
// since table size scales with it.
//
// Ties between optimal subsets resolve deterministically: the backtrack
// only takes item i when skipping it would strictly lower the value.
func Knapsack(items []models.Listing, budgetCents int64) ([]models.Listing, int64) {
	if len(items) == 0 || budgetCents <= 0 {
		return []models.Listing{}, 0
	}

	n := len(items)
	w := int(budgetCents)

	dp := make([][]int64, n+1)
	dp[0] = make([]int64, w+1)
	for i := 1; i <= n; i++ {
		dp[i] = make([]int64, w+1)
		price := int(items[i-1].PriceCents)
		value := items[i-1].Listings
		for room := 0; room <= w; room++ {
			dp[i][room] = dp[i-1][room]
			if price <= room && dp[i-1][room-price]+value > dp[i][room] {
				dp[i][room] = dp[i-1][room-price] + value
			}
		}
	}

	// Backtrack from dp[n][w]; a strict difference from the row above
	// means the item was taken.
	var picked []models.Listing
	var spent int64
	room := w
	for i := n; i >= 1; i-- {
		if dp[i][room] == dp[i-1][room] {
			continue
		}
		item := items[i-1]
		picked = append(picked, item)
		spent += item.PriceCents
		room -= int(item.PriceCents)
	}

	// Backtracking walks items last-to-first; restore input order.
	for left, right := 0, len(picked)-1; left < right; left, right = left+1, right-1 {
		picked[left], picked[right] = picked[right], picked[left]
	}
	if picked == nil {
		picked = []models.Listing{}
	}
	return picked, spent
}
