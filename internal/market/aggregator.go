package market

import (
	"context"
	"encoding/json"
	"sync"

	"csgo-loadout/internal/models"
	"csgo-loadout/internal/services/steam"

	"go.uber.org/zap"
)

// sortOrders are the two sweeps run for every term. Steam truncates each
// ordering at a fixed page depth, so sweeping both popularity and price
// recovers listings invisible to a single ordering.
var sortOrders = []string{"popular", "price"}

// Fetcher is the slice of the Steam client the aggregator needs.
type Fetcher interface {
	SearchPage(ctx context.Context, term, sort string, page int) []byte
}

// Aggregator drives paginated search sweeps and merges the pages into a
// deduplicated, price-filtered candidate set.
type Aggregator struct {
	fetcher Fetcher
	pages   int
	log     *zap.Logger
}

func NewAggregator(fetcher Fetcher, pages int, logger *zap.Logger) *Aggregator {
	if pages <= 0 {
		pages = 1
	}
	return &Aggregator{fetcher: fetcher, pages: pages, log: logger}
}

// Collect sweeps both sort orders for term and returns every listing with
// minCents <= price <= maxCents, deduplicated by hash name. Pages are
// fetched concurrently; a failed or non-JSON page contributes nothing and
// does not affect its siblings. Merge order is fixed (sort order, then
// page), so the first-occurrence-wins dedup is deterministic regardless
// of fetch timing.
func (a *Aggregator) Collect(ctx context.Context, term string, minCents, maxCents int64) []models.Listing {
	type job struct {
		sort string
		page int
	}
	jobs := make([]job, 0, len(sortOrders)*a.pages)
	for _, sort := range sortOrders {
		for page := 0; page < a.pages; page++ {
			jobs = append(jobs, job{sort: sort, page: page})
		}
	}

	pages := make([][]models.Listing, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			pages[i] = a.collectPage(ctx, term, j.sort, j.page)
		}(i, j)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	merged := make([]models.Listing, 0)
	for _, page := range pages {
		for _, listing := range page {
			if listing.PriceCents < minCents || listing.PriceCents > maxCents {
				continue
			}
			if _, dup := seen[listing.HashName]; dup {
				continue
			}
			seen[listing.HashName] = struct{}{}
			merged = append(merged, listing)
		}
	}

	a.log.Debug("candidate set collected",
		zap.String("term", term),
		zap.Int("pages", len(jobs)),
		zap.Int("candidates", len(merged)))
	return merged
}

// collectPage fetches and normalizes one page. Any failure (transport,
// HTML error page, unexpected shape) skips the page.
func (a *Aggregator) collectPage(ctx context.Context, term, sort string, page int) []models.Listing {
	body := a.fetcher.SearchPage(ctx, term, sort, page)
	if body == nil {
		return nil
	}
	if !jsonShaped(body) {
		a.log.Warn("non-JSON search page skipped",
			zap.String("term", term), zap.String("sort", sort), zap.Int("page", page))
		return nil
	}

	var resp steam.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		a.log.Warn("search page parse failed",
			zap.String("term", term), zap.String("sort", sort), zap.Int("page", page),
			zap.Error(err))
		return nil
	}
	if !resp.Success {
		return nil
	}

	listings, rejected := NormalizeBatch(resp.Results)
	if rejected > 0 {
		a.log.Info("rejected malformed records",
			zap.String("term", term), zap.String("sort", sort), zap.Int("page", page),
			zap.Int("accepted", len(listings)), zap.Int("rejected", rejected))
	}
	return listings
}

// jsonShaped reports whether the body starts with '{' or '['. Steam
// returns HTML error pages under load shedding.
func jsonShaped(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}
