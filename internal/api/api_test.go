package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"csgo-loadout/internal/config"
	"csgo-loadout/internal/models"
	"csgo-loadout/internal/services/steam"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fakeMarket serves search/render and priceoverview the way Steam does,
// keyed by search term.
type fakeMarket struct {
	results map[string][]map[string]any
	price   string // raw priceoverview body
}

func (f *fakeMarket) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/market/search/render/":
			records := f.results[r.URL.Query().Get("query")]
			if records == nil {
				records = []map[string]any{}
			}
			json.NewEncoder(w).Encode(map[string]any{"success": true, "results": records})
		case "/market/priceoverview/":
			w.Write([]byte(f.price))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func record(hash string, priceCents, listings int64) map[string]any {
	return map[string]any{
		"name":              hash,
		"hash_name":         hash,
		"sell_listings":     listings,
		"sell_price":        priceCents,
		"sell_price_text":   "",
		"asset_description": map[string]any{"icon_url": "icon-" + hash},
	}
}

func newTestRouter(t *testing.T, market *fakeMarket) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(market.handler())
	cfg := &config.Config{
		App: config.AppConfig{Port: "0", Env: "local"},
		Steam: config.SteamConfig{
			BaseURL: srv.URL, Currency: 1, Pages: 1,
			DialTimeoutS: 5, TimeoutS: 5, RPS: 1000, Burst: 1000,
		},
		Optimize: config.OptimizeConfig{FloorCents: 100, MaxBudgetCents: 200000},
		Loadout:  config.LoadoutConfig{FloorCents: 100, MaxOptions: 6},
		Request:  config.RequestConfig{TimeoutS: 10},
	}

	logger := zap.NewNop()
	r := gin.New()
	SetupRoutes(r, cfg, steam.NewClient(cfg.Steam, logger), logger)
	return r, srv.Close
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestSearch_RequiresTerm(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{})
	defer closeSrv()

	if w := doJSON(t, r, "GET", "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing term, got %d", w.Code)
	}
	if w := doJSON(t, r, "GET", "/search?q=AK-47&min=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad min, got %d", w.Code)
	}
	if w := doJSON(t, r, "GET", "/search?q=AK-47&min=50&max=10", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for max < min, got %d", w.Code)
	}
}

func TestSearch_ReturnsFilteredListings(t *testing.T) {
	market := &fakeMarket{results: map[string][]map[string]any{
		"AK-47": {
			record("ak-cheap", 500, 10),
			record("ak-mid", 2500, 20),
			record("ak-pricey", 9900, 5),
		},
	}}
	r, closeSrv := newTestRouter(t, market)
	defer closeSrv()

	w := doJSON(t, r, "GET", "/search?q=AK-47&min=10&max=50", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Count   int              `json:"count"`
		Results []models.Listing `json:"results"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected exactly the in-band listing, got %+v", resp)
	}
	if resp.Results[0].HashName != "ak-mid" {
		t.Errorf("expected ak-mid, got %s", resp.Results[0].HashName)
	}
}

func TestSearch_EmptyResultIsOK(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{})
	defer closeSrv()

	w := doJSON(t, r, "GET", "/search?q=Nothing", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty result, got %d", w.Code)
	}
	var resp struct {
		Count   int              `json:"count"`
		Results []models.Listing `json:"results"`
	}
	decode(t, w, &resp)
	if resp.Count != 0 || resp.Results == nil {
		t.Errorf("expected empty but present results array, got %s", w.Body.String())
	}
}

func TestPrice_Validation(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{price: `{"success":true}`})
	defer closeSrv()

	if w := doJSON(t, r, "GET", "/price", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestPrice_ReturnsSummary(t *testing.T) {
	market := &fakeMarket{
		price: `{"success":true,"lowest_price":"$10.50","volume":"321","median_price":"$11.00"}`,
	}
	r, closeSrv := newTestRouter(t, market)
	defer closeSrv()

	w := doJSON(t, r, "GET", "/price?name=AWP%20%7C%20Asiimov", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary models.PriceSummary
	decode(t, w, &summary)
	if summary.LowestPrice != "$10.50" || summary.Volume != 321 {
		t.Errorf("summary not mapped: %+v", summary)
	}
}

func TestPrice_BadGatewayOnHTMLUpstream(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{price: `<html>blocked</html>`})
	defer closeSrv()

	if w := doJSON(t, r, "GET", "/price?name=x", nil); w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestOptimizeBudget_Validation(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{})
	defer closeSrv()

	cases := []struct {
		name string
		body models.BudgetRequest
	}{
		{"missing query", models.BudgetRequest{Budget: 50}},
		{"zero budget", models.BudgetRequest{Query: "AK-47"}},
		{"negative budget", models.BudgetRequest{Budget: -5, Query: "AK-47"}},
		{"budget above cap", models.BudgetRequest{Budget: 999999, Query: "AK-47"}},
	}
	for _, tc := range cases {
		if w := doJSON(t, r, "POST", "/budget/optimize", tc.body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestOptimizeBudget_SelectsBestSubset(t *testing.T) {
	market := &fakeMarket{results: map[string][]map[string]any{
		"AK-47": {
			record("a", 1000, 5),
			record("b", 2000, 8),
			record("c", 3000, 4),
		},
	}}
	r, closeSrv := newTestRouter(t, market)
	defer closeSrv()

	w := doJSON(t, r, "POST", "/budget/optimize", models.BudgetRequest{Budget: 50, Query: "AK-47"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Budget     float64          `json:"budget"`
		TotalSpent float64          `json:"total_spent"`
		Remaining  float64          `json:"remaining"`
		Skins      []models.Listing `json:"skins"`
	}
	decode(t, w, &resp)
	// Optimal under $50 is {a, b}: $30 spent, combined listings 13.
	if resp.TotalSpent != 30 || resp.Remaining != 20 {
		t.Errorf("expected spent 30 remaining 20, got %+v", resp)
	}
	if len(resp.Skins) != 2 || resp.Skins[0].HashName != "a" || resp.Skins[1].HashName != "b" {
		t.Errorf("expected skins [a b], got %+v", resp.Skins)
	}
}

func TestOptimizeBudget_NothingFound(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{})
	defer closeSrv()

	w := doJSON(t, r, "POST", "/budget/optimize", models.BudgetRequest{Budget: 50, Query: "Obscure"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when no candidates survive, got %d", w.Code)
	}
	var resp map[string]any
	decode(t, w, &resp)
	if resp["error"] == nil {
		t.Error("expected error payload")
	}
}

func TestBuildLoadout_Validation(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{})
	defer closeSrv()

	cases := []struct {
		name string
		body models.LoadoutRequest
	}{
		{"bad side", models.LoadoutRequest{Side: "X", WeaponsBudget: 100}},
		{"missing side", models.LoadoutRequest{WeaponsBudget: 100}},
		{"zero weapons budget", models.LoadoutRequest{Side: "T"}},
	}
	for _, tc := range cases {
		if w := doJSON(t, r, "POST", "/loadout/build", tc.body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestBuildLoadout_FillsSlots(t *testing.T) {
	market := &fakeMarket{results: map[string][]map[string]any{
		"AK-47":    {record("ak-1", 4500, 30), record("ak-2", 3000, 10)},
		"SG 553":   {record("sg-1", 4000, 8)},
		"Glock-18": {record("glock-1", 2000, 12)},
		"Knife":    {record("knife-1", 9000, 3)},
	}}
	r, closeSrv := newTestRouter(t, market)
	defer closeSrv()

	w := doJSON(t, r, "POST", "/loadout/build", models.LoadoutRequest{
		Side:          "t", // side is case-insensitive
		WeaponsBudget: 100, // $50 per weapon slot
		KnifeBudget:   150,
		// gloves budget absent: slot skipped
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Side  string                      `json:"side"`
		Slots map[string][]models.Listing `json:"slots"`
	}
	decode(t, w, &resp)

	if resp.Side != "T" {
		t.Errorf("expected normalized side T, got %q", resp.Side)
	}
	if _, ok := resp.Slots["gloves"]; ok {
		t.Error("gloves slot should be skipped with no budget")
	}
	primary := resp.Slots["primary"]
	if len(primary) == 0 {
		t.Fatal("expected primary options")
	}
	// Round-robin: the first two primaries come from different weapon
	// families.
	if len(primary) >= 2 && primary[0].HashName == "ak-1" && primary[1].HashName != "sg-1" {
		t.Errorf("expected category interleave, got %v", primary)
	}
	if len(resp.Slots["knife"]) == 0 {
		t.Error("expected knife options")
	}

	seen := map[string]bool{}
	for slot, listings := range resp.Slots {
		for _, l := range listings {
			if seen[l.HashName] {
				t.Errorf("listing %s offered in two slots (last in %s)", l.HashName, slot)
			}
			seen[l.HashName] = true
		}
	}
}

func TestBuildLoadout_NothingFound(t *testing.T) {
	r, closeSrv := newTestRouter(t, &fakeMarket{})
	defer closeSrv()

	w := doJSON(t, r, "POST", "/loadout/build", models.LoadoutRequest{Side: "CT", WeaponsBudget: 100})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 when every slot is empty, got %d", w.Code)
	}
}
