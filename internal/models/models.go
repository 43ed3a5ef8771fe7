package models

// Listing is one marketplace listing, normalized from the Steam search
// endpoint. HashName is the marketplace-unique key; Name is display-only
// and can repeat across listings.
type Listing struct {
	Name       string `json:"name"`
	HashName   string `json:"hash_name"`
	PriceCents int64  `json:"price_cents"`
	Price      string `json:"price"`
	Listings   int64  `json:"listings"`
	IconURL    string `json:"icon_url"`
	MarketURL  string `json:"market_url"`
}

// PriceSummary is the priceoverview result for an exact market hash name.
type PriceSummary struct {
	Name        string `json:"name"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
	Volume      int    `json:"volume"`
}

// BudgetRequest is the /budget/optimize body. Budget is in dollars, as
// the frontend sends it; it is converted to cents at the boundary.
type BudgetRequest struct {
	Budget float64 `json:"budget"`
	Query  string  `json:"query"`
}

// LoadoutRequest is the /loadout/build body. The weapons budget is split
// evenly between the primary and secondary slots; a zero knife or gloves
// budget skips that slot.
type LoadoutRequest struct {
	Side          string  `json:"side"`
	WeaponsBudget float64 `json:"weapons_budget"`
	KnifeBudget   float64 `json:"knife_budget"`
	GlovesBudget  float64 `json:"gloves_budget"`
}
