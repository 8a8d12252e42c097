package analysis

import (
	"sort"
	"strings"
	"time"

	"TrackBets/internal/domain/models"
)

type catalogEntry struct {
	exchange    string
	priceData   models.PriceData
	news        string
	social      string
	signal      string
	confidence  float64
	reasons     []string
	explanation string
	risk        string
	target      float64
	timeframe   string
}

// Catalog serves the fixed demo tickers in flat wire form and as
// normalized results.
type Catalog struct {
	entries map[string]catalogEntry
	aliases map[string]string
	now     func() time.Time
}

// NewCatalog returns the built-in demo catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: builtinEntries(),
		aliases: map[string]string{"ZOMATO": "ZOMATO.NS"},
		now:     time.Now,
	}
}

// Resolve maps a ticker or alias to its catalog key.
func (c *Catalog) Resolve(ticker string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if target, ok := c.aliases[t]; ok {
		t = target
	}
	_, ok := c.entries[t]
	return t, ok
}

// Flat returns the entry as a flat-verdict payload, the shape the API serves.
func (c *Catalog) Flat(ticker string) (*models.Payload, bool) {
	key, ok := c.Resolve(ticker)
	if !ok {
		return nil, false
	}
	e := c.entries[key]

	success := true
	conf := models.FlexFloat(e.confidence)
	target := models.FlexFloat(e.target)
	pd := e.priceData
	return &models.Payload{
		Success:   &success,
		Ticker:    key,
		Source:    models.SourceCatalog,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
		Currency:  pd.Currency,
		PriceData: &pd,
		Analysis: models.PayloadAnalysis{
			Verdict:       models.VerdictField{Kind: models.VerdictFlat, Signal: e.signal},
			Confidence:    &conf,
			TargetPrice:   &target,
			Timeframe:     &e.timeframe,
			RiskLevel:     &e.risk,
			AIExplanation: &e.explanation,
			Reasons:       append([]string{}, e.reasons...),
		},
		News:   models.FlexText(e.news),
		Social: models.FlexText(e.social),
	}, true
}

// Lookup returns the entry normalized into the nested shape.
func (c *Catalog) Lookup(ticker string) (*models.AnalysisResult, bool) {
	p, ok := c.Flat(ticker)
	if !ok {
		return nil, false
	}
	return Normalize(p), true
}

// Search matches the upper-cased query against tickers, aliases and names.
func (c *Catalog) Search(query string) (models.SearchResult, bool) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return models.SearchResult{}, false
	}
	if key, ok := c.Resolve(q); ok {
		return c.result(key), true
	}
	for _, key := range c.Tickers() {
		e := c.entries[key]
		if strings.Contains(key, q) || strings.Contains(strings.ToUpper(e.priceData.Name), q) {
			return c.result(key), true
		}
	}
	return models.SearchResult{}, false
}

func (c *Catalog) result(key string) models.SearchResult {
	e := c.entries[key]
	return models.SearchResult{Ticker: key, Name: e.priceData.Name, Exchange: e.exchange}
}

// Tickers lists the catalog keys, aliases excluded, sorted.
func (c *Catalog) Tickers() []string {
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Keys lists tickers and aliases, sorted.
func (c *Catalog) Keys() []string {
	out := c.Tickers()
	for alias := range c.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func builtinEntries() map[string]catalogEntry {
	return map[string]catalogEntry{
		"ZOMATO.NS": {
			exchange: "NSE",
			priceData: models.PriceData{
				Price: 260.45, ChangePercent: 2.34, IsUp: true, Currency: "₹",
				Name: "Zomato Limited", MarketCap: 229000000000, High52: 304.50, Low52: 108.30,
			},
			news: "1. [ET] Zomato Q3 profit jumps 280% on strong food delivery growth\n" +
				"2. [Moneycontrol] Zomato Blinkit revenue surges 120% YoY\n" +
				"3. [NDTV] Zomato hits all-time high as FIIs increase stake\n" +
				"4. [Bloomberg] Zomato expands quick commerce with 10-min delivery\n" +
				"5. [Reuters] Zomato CEO bullish on India's food delivery market",
			social: "1. [r/IndianStreetBets] (Bullish) Zomato flying! Target 300 soon | 542\n" +
				"2. [r/IndianStreetBets] (Bullish) Zomato is the Amazon of India food | 328\n" +
				"3. [r/stocks] (Bullish) Why Indian food delivery is the next big thing | 156",
			signal:     models.SignalBuy,
			confidence: 87,
			reasons: []string{
				"Strong Q3 results with 280% profit growth YoY",
				"Blinkit quick commerce showing explosive 120% revenue growth",
				"Positive institutional activity - FIIs increasing stake",
				"Trading near 52-week high with strong momentum",
				"Market leader in India's growing food delivery segment",
			},
			explanation: "Zomato presents a compelling BUY opportunity. The company has achieved profitability inflection with Q3 profits surging 280%. " +
				"Blinkit's quick commerce is a major growth driver. Strong institutional buying and bullish social sentiment support the uptrend. " +
				"Entry at current levels offers solid risk-reward for a 6-12 month horizon.",
			risk:      "MEDIUM",
			target:    300,
			timeframe: "Medium-term",
		},
		"TSLA": {
			exchange: "NASDAQ",
			priceData: models.PriceData{
				Price: 420.69, ChangePercent: 3.14, IsUp: true, Currency: "$",
				Name: "Tesla, Inc.", MarketCap: 1340000000000, High52: 488.54, Low52: 138.80,
			},
			news: "1. [CNBC] Tesla Q4 deliveries beat expectations at 484K units\n" +
				"2. [Reuters] Tesla Cybertruck production ramping up in Texas\n" +
				"3. [Bloomberg] Elon Musk announces FSD v12 major improvements\n" +
				"4. [WSJ] Tesla's energy storage business hits record revenue\n" +
				"5. [TechCrunch] Tesla robotaxi event scheduled for Q2",
			social: "1. [r/wallstreetbets] (Bullish) TSLA to the moon with Cybertruck | 2.3K\n" +
				"2. [r/stocks] (Neutral) Tesla valuation: growth priced in? | 856\n" +
				"3. [r/investing] (Bullish) Long TSLA for FSD revolution | 423",
			signal:     models.SignalBuy,
			confidence: 78,
			reasons: []string{
				"Q4 deliveries exceeded analyst expectations",
				"Cybertruck production finally scaling up",
				"FSD v12 showing significant improvements",
				"Energy storage business providing diversification",
				"Strong brand loyalty and retail investor support",
			},
			explanation: "Tesla remains a high-conviction BUY for growth investors. Despite premium valuation, multiple catalysts are in play: " +
				"Cybertruck ramp, FSD improvements and energy storage growth. The stock shows strong technical support and overwhelming retail bullishness.",
			risk:      "HIGH",
			target:    500,
			timeframe: "Medium-term",
		},
		"RELIANCE.NS": {
			exchange: "NSE",
			priceData: models.PriceData{
				Price: 2890.75, ChangePercent: 1.85, IsUp: true, Currency: "₹",
				Name: "Reliance Industries Limited", MarketCap: 19600000000000, High52: 3024.90, Low52: 2220.30,
			},
			news: "1. [ET] Reliance AGM: Jio and Retail IPO timelines announced\n" +
				"2. [Moneycontrol] Reliance green energy capex to hit $10B by 2026\n" +
				"3. [Bloomberg] Reliance Retail valued at $100B ahead of IPO\n" +
				"4. [NDTV] Mukesh Ambani outlines vision for 5G domination\n" +
				"5. [Reuters] Reliance in talks for major overseas acquisitions",
			social: "1. [r/IndianStreetBets] (Bullish) RIL is the safest large cap bet | 312\n" +
				"2. [r/stocks] (Neutral) Reliance conglomerate analysis | 89",
			signal:     models.SignalHold,
			confidence: 72,
			reasons: []string{
				"Jio and Retail IPOs are long-term catalysts",
				"Green energy investments show future focus",
				"Current valuation is fair, not cheap",
				"Trading near all-time highs, wait for dip",
				"Core refining business facing headwinds",
			},
			explanation: "Reliance is a core portfolio holding for Indian investors, but current levels warrant a HOLD rather than an aggressive BUY. " +
				"The stock is fairly valued with most positives priced in. Wait for a 5-10% correction for a better entry.",
			risk:      "LOW",
			target:    3100,
			timeframe: "Long-term",
		},
	}
}
