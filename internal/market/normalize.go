package market

import (
	"fmt"

	"csgo-loadout/internal/models"
	"csgo-loadout/internal/services/steam"
)

// Normalize converts one raw search record into a Listing. A record is
// rejected when any required upstream field is missing: display name,
// hash name, price, listings count, or the asset-description icon.
// A non-positive price is treated as invalid.
func Normalize(raw steam.SearchResult) (models.Listing, bool) {
	if raw.Name == "" || raw.HashName == "" {
		return models.Listing{}, false
	}
	if raw.SellPrice == nil || *raw.SellPrice <= 0 {
		return models.Listing{}, false
	}
	if raw.SellListings == nil || *raw.SellListings < 0 {
		return models.Listing{}, false
	}
	if raw.AssetDescription.IconURL == "" {
		return models.Listing{}, false
	}

	priceText := raw.SellPriceText
	if priceText == "" {
		priceText = fmt.Sprintf("$%.2f", float64(*raw.SellPrice)/100)
	}

	return models.Listing{
		Name:       raw.Name,
		HashName:   raw.HashName,
		PriceCents: *raw.SellPrice,
		Price:      priceText,
		Listings:   *raw.SellListings,
		IconURL:    steam.IconURL(raw.AssetDescription.IconURL),
		MarketURL:  steam.MarketURL(raw.HashName),
	}, true
}

// NormalizeBatch normalizes a page of raw records, skipping malformed
// ones. It returns the accepted listings and the rejected count so
// callers can log acceptance ratios.
func NormalizeBatch(raws []steam.SearchResult) ([]models.Listing, int) {
	listings := make([]models.Listing, 0, len(raws))
	rejected := 0
	for _, raw := range raws {
		listing, ok := Normalize(raw)
		if !ok {
			rejected++
			continue
		}
		listings = append(listings, listing)
	}
	return listings, rejected
}
