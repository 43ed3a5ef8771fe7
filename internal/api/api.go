package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"csgo-loadout/internal/config"
	"csgo-loadout/internal/market"
	"csgo-loadout/internal/models"
	"csgo-loadout/internal/services/steam"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Weapon categories per side, from the loadout builder UI.
var (
	primaryCategories = map[string][]string{
		"T":  {"AK-47", "SG 553", "Galil AR"},
		"CT": {"M4A4", "M4A1-S", "AUG"},
	}
	secondaryCategories = map[string][]string{
		"T":  {"Glock-18", "Tec-9", "Desert Eagle"},
		"CT": {"USP-S", "P2000", "Five-SeveN"},
	}
	knifeCategories  = []string{"Knife"}
	glovesCategories = []string{"Gloves"}
)

type APIHandler struct {
	cfg   *config.Config
	steam *steam.Client
	agg   *market.Aggregator
	slots *market.SlotSelector
	log   *zap.Logger
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, client *steam.Client, logger *zap.Logger) *APIHandler {
	agg := market.NewAggregator(client, cfg.Steam.Pages, logger)
	handler := &APIHandler{
		cfg:   cfg,
		steam: client,
		agg:   agg,
		slots: market.NewSlotSelector(agg, cfg.Loadout.FloorCents, cfg.Loadout.MaxOptions, logger),
		log:   logger,
	}

	r.GET("/search", handler.Search)
	r.GET("/price", handler.Price)
	r.POST("/budget/optimize", handler.OptimizeBudget)
	r.POST("/loadout/build", handler.BuildLoadout)

	return handler
}

// requestContext caps how long one client-facing request may spend on
// upstream sweeps; a stalled fetch cannot hang the request past this.
func (h *APIHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(),
		time.Duration(h.cfg.Request.TimeoutS)*time.Second)
}

// Search: GET /search?q=AK-47&min=5&max=100
func (h *APIHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing search term"})
		return
	}
	minDollars, err := strconv.ParseFloat(c.DefaultQuery("min", "0"), 64)
	if err != nil || minDollars < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min price"})
		return
	}
	maxDollars, err := strconv.ParseFloat(c.DefaultQuery("max", "999999"), 64)
	if err != nil || maxDollars < minDollars {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max price"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	minCents := dollarsToCents(minDollars)
	if minCents < 1 {
		minCents = 1 // non-positive prices are never valid listings
	}
	results := h.agg.Collect(ctx, term, minCents, dollarsToCents(maxDollars))

	c.JSON(http.StatusOK, gin.H{
		"query":   term,
		"count":   len(results),
		"results": results,
	})
}

// Price: GET /price?name=AK-47%20%7C%20Redline%20(Field-Tested)
func (h *APIHandler) Price(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing item name"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	summary, err := h.steam.PriceOverview(ctx, name)
	if err != nil {
		h.log.Warn("price overview failed", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch price for item"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// OptimizeBudget: POST /budget/optimize {"budget": 50, "query": "AK-47"}
func (h *APIHandler) OptimizeBudget(c *gin.Context) {
	var req models.BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if req.Budget <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "budget must be positive"})
		return
	}
	budgetCents := dollarsToCents(req.Budget)
	if budgetCents > h.cfg.Optimize.MaxBudgetCents {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "budget exceeds maximum of $" +
				strconv.FormatFloat(centsToDollars(h.cfg.Optimize.MaxBudgetCents), 'f', 2, 64),
		})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	candidates := h.agg.Collect(ctx, req.Query, h.cfg.Optimize.FloorCents, budgetCents)
	if len(candidates) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no skins found within budget"})
		return
	}

	selected, spentCents := market.Knapsack(candidates, budgetCents)
	if len(selected) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no skins found within budget"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"budget":      req.Budget,
		"total_spent": centsToDollars(spentCents),
		"remaining":   centsToDollars(budgetCents - spentCents),
		"skins":       selected,
	})
}

// BuildLoadout: POST /loadout/build
// {"side": "T", "weapons_budget": 100, "knife_budget": 150, "gloves_budget": 80}
func (h *APIHandler) BuildLoadout(c *gin.Context) {
	var req models.LoadoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	side := strings.ToUpper(strings.TrimSpace(req.Side))
	if side != "T" && side != "CT" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be T or CT"})
		return
	}
	if req.WeaponsBudget <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weapons budget must be positive"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	// Weapons budget is split evenly between the two weapon slots.
	perWeaponCents := dollarsToCents(req.WeaponsBudget) / 2
	knifeCents := dollarsToCents(req.KnifeBudget)
	glovesCents := dollarsToCents(req.GlovesBudget)

	// Shared across slots: an item offered in one slot is never offered
	// in another.
	seen := make(map[string]struct{})
	slots := gin.H{}

	if options := h.slots.SelectSlot(ctx, primaryCategories[side], perWeaponCents, seen); len(options) > 0 {
		slots["primary"] = options
	}
	if options := h.slots.SelectSlot(ctx, secondaryCategories[side], perWeaponCents, seen); len(options) > 0 {
		slots["secondary"] = options
	}
	if knifeCents > 0 {
		if options := h.slots.SelectSlot(ctx, knifeCategories, knifeCents, seen); len(options) > 0 {
			slots["knife"] = options
		}
	}
	if glovesCents > 0 {
		if options := h.slots.SelectSlot(ctx, glovesCategories, glovesCents, seen); len(options) > 0 {
			slots["gloves"] = options
		}
	}

	if len(slots) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no loadout options found for those budgets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"side":  side,
		"slots": slots,
	})
}

func dollarsToCents(d float64) int64 {
	return int64(math.Round(d * 100))
}

func centsToDollars(c int64) float64 {
	return float64(c) / 100
}
