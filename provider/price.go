package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/walletlens-go/txanalysis"
)

/*
Historical USD pricing with ranked sources:

 1. USDC/USDT peg to 1.0 — no network call.
 2. Wrapped SOL: Binance REST, close of the 1-minute candle containing T.
    GET /api/v3/klines?symbol=SOLUSDT&interval=1m&startTime=...&endTime=...&limit=1
    Times are milliseconds since epoch (UTC).
 3. Everything else: Birdeye minute history, falling back to the Jupiter spot
    price when Birdeye has no candle (new or illiquid mints).

Env overrides:

	BINANCE_BASE                 (default: https://api.binance.com)
	BIRDEYE_BASE                 (default: https://public-api.birdeye.so)
	BIRDEYE_API_KEY
	JUPITER_PRICE_BASE           (default: https://lite-api.jup.ag/price/v2)
	SOLANA_USDC_CONTRACT_ADDRESS (default: canonical USDC mint)
	SOLANA_USDT_CONTRACT_ADDRESS (default: canonical USDT mint)
*/
const (
	binanceDefaultBase = "https://api.binance.com"
	binanceSymbol      = "SOLUSDT"
	binanceInterval    = "1m"

	birdeyeDefaultBase      = "https://public-api.birdeye.so"
	jupiterPriceDefaultBase = "https://lite-api.jup.ag/price/v2"

	canonicalUSDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	canonicalUSDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"

	sourceStable  = "stable"
	sourceBinance = "binance"
	sourceBirdeye = "birdeye"
	sourceJupiter = "jupiter"
)

// Fence parameters for multi-observation windows.
const (
	priceFenceRatio = 1.5
	priceMinWeight  = 0.0
)

// Config carries the resolver's endpoints and stable-mint addresses. Zero
// values fall back to public defaults.
type Config struct {
	BinanceBase      string
	BirdeyeBase      string
	BirdeyeAPIKey    string
	JupiterPriceBase string
	USDCMint         string
	USDTMint         string
}

// Resolver implements txanalysis.PriceResolver over the ranked sources.
type Resolver struct {
	cfg  Config
	http *httpClient
	log  *logrus.Logger
}

// NewResolver builds a resolver from explicit config.
func NewResolver(cfg Config, log *logrus.Logger) *Resolver {
	if cfg.BinanceBase == "" {
		cfg.BinanceBase = binanceDefaultBase
	}
	if cfg.BirdeyeBase == "" {
		cfg.BirdeyeBase = birdeyeDefaultBase
	}
	if cfg.JupiterPriceBase == "" {
		cfg.JupiterPriceBase = jupiterPriceDefaultBase
	}
	if cfg.USDCMint == "" {
		cfg.USDCMint = canonicalUSDCMint
	}
	if cfg.USDTMint == "" {
		cfg.USDTMint = canonicalUSDTMint
	}
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{cfg: cfg, http: newHTTP(), log: log}
}

// NewResolverFromEnv builds a resolver from environment variables.
func NewResolverFromEnv(log *logrus.Logger) *Resolver {
	return NewResolver(Config{
		BinanceBase:      os.Getenv("BINANCE_BASE"),
		BirdeyeBase:      os.Getenv("BIRDEYE_BASE"),
		BirdeyeAPIKey:    os.Getenv("BIRDEYE_API_KEY"),
		JupiterPriceBase: os.Getenv("JUPITER_PRICE_BASE"),
		USDCMint:         os.Getenv("SOLANA_USDC_CONTRACT_ADDRESS"),
		USDTMint:         os.Getenv("SOLANA_USDT_CONTRACT_ADDRESS"),
	}, log)
}

// minuteFloor rounds ms down to the start of its 1-minute window.
func minuteFloor(ms int64) int64 {
	const oneMinMs = int64(60 * 1000)
	return (ms / oneMinMs) * oneMinMs
}

// ResolvePriceAt implements txanalysis.PriceResolver.
func (r *Resolver) ResolvePriceAt(ctx context.Context, mint string, unixSeconds int64) (*txanalysis.PricePoint, error) {
	switch mint {
	case r.cfg.USDCMint, r.cfg.USDTMint:
		return &txanalysis.PricePoint{Price: 1.0, Source: sourceStable}, nil
	case txanalysis.WrappedSOLMint:
		px, err := r.solPriceAtMillis(ctx, unixSeconds*1000)
		if err != nil {
			return nil, err
		}
		return &txanalysis.PricePoint{Price: px, Source: sourceBinance}, nil
	}

	if px, err := r.birdeyePriceAt(ctx, mint, unixSeconds); err == nil {
		return &txanalysis.PricePoint{Price: px, Source: sourceBirdeye}, nil
	} else {
		r.log.Debugf("birdeye price %s: %v", mint, err)
	}

	px, err := r.jupiterSpotPrice(ctx, mint)
	if err != nil {
		return nil, err
	}
	return &txanalysis.PricePoint{Price: px, Source: sourceJupiter}, nil
}

// solPriceAtMillis returns the SOL/USDT close price for the minute that contains ms.
func (r *Resolver) solPriceAtMillis(ctx context.Context, ms int64) (float64, error) {
	start := minuteFloor(ms)
	end := start + 60_000 - 1

	u, err := url.Parse(r.cfg.BinanceBase)
	if err != nil {
		return 0, err
	}
	u.Path = "/api/v3/klines"
	q := u.Query()
	q.Set("symbol", binanceSymbol)
	q.Set("interval", binanceInterval)
	q.Set("startTime", strconv.FormatInt(start, 10))
	q.Set("endTime", strconv.FormatInt(end, 10))
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	var data [][]any // Binance returns array-of-arrays
	if err := r.http.getJSON(ctx, u.String(), nil, &data); err != nil {
		return 0, err
	}
	if len(data) == 0 || len(data[0]) < 5 {
		return 0, fmt.Errorf("no kline for window [%d,%d]", start, end)
	}

	// index 4 is "close"
	switch v := data[0][4].(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	default:
		return 0, errors.New("unexpected close type from Binance")
	}
}

type birdeyeHistoryResponse struct {
	Data struct {
		Items []struct {
			UnixTime int64   `json:"unixTime"`
			Value    float64 `json:"value"`
		} `json:"items"`
	} `json:"data"`
	Success bool `json:"success"`
}

// birdeyePriceAt fetches minute candles in a small window around t and
// aggregates them through the log fence so one bad print can't win.
func (r *Resolver) birdeyePriceAt(ctx context.Context, mint string, unixSeconds int64) (float64, error) {
	if r.cfg.BirdeyeAPIKey == "" {
		return 0, errors.New("no birdeye api key")
	}

	minute := (unixSeconds / 60) * 60
	u, err := url.Parse(r.cfg.BirdeyeBase)
	if err != nil {
		return 0, err
	}
	u.Path = "/defi/history_price"
	q := u.Query()
	q.Set("address", mint)
	q.Set("address_type", "token")
	q.Set("type", "1m")
	q.Set("time_from", strconv.FormatInt(minute-120, 10))
	q.Set("time_to", strconv.FormatInt(minute+60, 10))
	u.RawQuery = q.Encode()

	headers := map[string]string{
		"X-API-KEY": r.cfg.BirdeyeAPIKey,
		"x-chain":   "solana",
	}
	var body birdeyeHistoryResponse
	if err := r.http.getJSON(ctx, u.String(), headers, &body); err != nil {
		return 0, err
	}
	if !body.Success || len(body.Data.Items) == 0 {
		return 0, fmt.Errorf("no birdeye history for %s at %d", mint, unixSeconds)
	}

	// Weight candles by closeness to the target minute.
	values := make([]float64, 0, len(body.Data.Items))
	weights := make([]float64, 0, len(body.Data.Items))
	for _, it := range body.Data.Items {
		if it.Value <= 0 {
			continue
		}
		dist := it.UnixTime - minute
		if dist < 0 {
			dist = -dist
		}
		values = append(values, it.Value)
		weights = append(weights, 1.0/float64(1+dist/60))
	}
	px, _, _, ok := WeightedPriceWithLogFence(values, weights, priceFenceRatio, priceMinWeight)
	if !ok {
		return 0, fmt.Errorf("no usable birdeye candle for %s", mint)
	}
	return px, nil
}

type jupiterPriceResponse struct {
	Data map[string]struct {
		Price string `json:"price"`
	} `json:"data"`
}

// jupiterSpotPrice is the last-resort source: current price, not historical.
func (r *Resolver) jupiterSpotPrice(ctx context.Context, mint string) (float64, error) {
	u, err := url.Parse(r.cfg.JupiterPriceBase)
	if err != nil {
		return 0, err
	}
	q := u.Query()
	q.Set("ids", mint)
	u.RawQuery = q.Encode()

	var body jupiterPriceResponse
	if err := r.http.getJSON(ctx, u.String(), nil, &body); err != nil {
		return 0, err
	}
	entry, ok := body.Data[mint]
	if !ok || entry.Price == "" {
		return 0, fmt.Errorf("no jupiter price for %s", mint)
	}
	px, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("bad jupiter price %q for %s: %w", entry.Price, mint, err)
	}
	if px <= 0 {
		return 0, fmt.Errorf("non-positive jupiter price for %s", mint)
	}
	return px, nil
}
