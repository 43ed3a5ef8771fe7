package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"csgo-loadout/internal/config"
	"csgo-loadout/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	appID = "730" // CS:GO

	// pageSize is fixed by the search/render endpoint convention.
	pageSize = 10

	iconCDNPrefix  = "https://community.cloudflare.steamstatic.com/economy/image/"
	listingPathPrefix = "/market/listings/730/"
)

// Client talks to the Steam Community Market. All calls go through a
// shared rate limiter; Steam serves HTML error pages to clients that
// hammer it or omit browser headers.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	baseURL  string
	currency int
	log      *zap.Logger
}

func NewClient(cfg config.SteamConfig, logger *zap.Logger) *Client {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.TimeoutS) * time.Second)
	client.SetTransport(&http.Transport{
		DialContext: (&net.Dialer{
			Timeout: time.Duration(cfg.DialTimeoutS) * time.Second,
		}).DialContext,
	})
	client.SetHeaders(map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json,text/html;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	})

	return &Client{
		http:     client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		currency: cfg.Currency,
		log:      logger,
	}
}

// SearchResponse is the raw shape of a search/render page.
type SearchResponse struct {
	Success    bool           `json:"success"`
	TotalCount int            `json:"total_count"`
	Results    []SearchResult `json:"results"`
}

// SearchResult is one raw record from the results array. SellPrice and
// SellListings are pointers so an absent field is distinguishable from
// an explicit zero.
type SearchResult struct {
	Name             string `json:"name"`
	HashName         string `json:"hash_name"`
	SellListings     *int64 `json:"sell_listings"`
	SellPrice        *int64 `json:"sell_price"` // cents
	SellPriceText    string `json:"sell_price_text"`
	AssetDescription struct {
		IconURL string `json:"icon_url"`
	} `json:"asset_description"`
}

type priceOverviewResponse struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	Volume      string `json:"volume"`
	MedianPrice string `json:"median_price"`
}

// Fetch issues a rate-limited GET and returns the body, or nil on any
// transport failure or non-200 status. Acquisition failures are logged
// and absorbed here; callers treat nil as "no data from this call".
func (c *Client) Fetch(ctx context.Context, reqURL string) []byte {
	if err := c.limiter.Wait(ctx); err != nil {
		c.log.Warn("rate limiter wait aborted", zap.Error(err))
		return nil
	}

	resp, err := c.http.R().SetContext(ctx).Get(reqURL)
	if err != nil {
		c.log.Warn("upstream fetch failed", zap.String("url", reqURL), zap.Error(err))
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		c.log.Warn("upstream returned non-200",
			zap.String("url", reqURL), zap.Int("status", resp.StatusCode()))
		return nil
	}
	return resp.Body()
}

// SearchPage fetches one page of search results for a term under the
// given sort order ("popular" or "price", both descending).
func (c *Client) SearchPage(ctx context.Context, term, sort string, page int) []byte {
	params := url.Values{}
	params.Set("query", term)
	params.Set("start", strconv.Itoa(page*pageSize))
	params.Set("count", strconv.Itoa(pageSize))
	params.Set("search_descriptions", "0")
	params.Set("sort_column", sort)
	params.Set("sort_dir", "desc")
	params.Set("appid", appID)
	params.Set("norender", "1")

	return c.Fetch(ctx, c.baseURL+"/market/search/render/?"+params.Encode())
}

// PriceOverview looks up the lowest/median price and 24h volume for an
// exact market hash name.
func (c *Client) PriceOverview(ctx context.Context, name string) (*models.PriceSummary, error) {
	params := url.Values{}
	params.Set("appid", appID)
	params.Set("currency", strconv.Itoa(c.currency))
	params.Set("market_hash_name", name)

	body := c.Fetch(ctx, c.baseURL+"/market/priceoverview/?"+params.Encode())
	if body == nil {
		return nil, fmt.Errorf("no response from price overview")
	}

	var overview priceOverviewResponse
	if err := json.Unmarshal(body, &overview); err != nil {
		return nil, fmt.Errorf("unexpected price overview payload: %w", err)
	}
	if !overview.Success {
		return nil, fmt.Errorf("no price data for %q", name)
	}

	volume, _ := strconv.Atoi(strings.ReplaceAll(overview.Volume, ",", ""))
	return &models.PriceSummary{
		Name:        name,
		LowestPrice: overview.LowestPrice,
		MedianPrice: overview.MedianPrice,
		Volume:      volume,
	}, nil
}

// EncodeTerm percent-encodes a search term for use in a query string.
func EncodeTerm(term string) string {
	return url.QueryEscape(term)
}

// IconURL builds the CDN image URL from the icon path fragment.
func IconURL(fragment string) string {
	return iconCDNPrefix + fragment
}

// MarketURL builds the public market listing page URL for a hash name.
// The hash name lands in the URL path, so it is path-escaped rather than
// query-escaped.
func MarketURL(hashName string) string {
	return "https://steamcommunity.com" + listingPathPrefix + url.PathEscape(hashName)
}
