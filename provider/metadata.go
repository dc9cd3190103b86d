package provider

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/franco-bianco/walletlens-go/txanalysis"
)

const jupiterTokenDefaultBase = "https://lite-api.jup.ag/tokens/v1/token"

// JupiterTokenClient resolves SPL token metadata from the Jupiter token list
// API, with a process-lifetime cache. Mint metadata is effectively immutable
// so the cache never expires.
type JupiterTokenClient struct {
	base string
	http *httpClient
	log  *logrus.Logger

	mu    sync.RWMutex
	cache map[string]*txanalysis.TokenMetadata
}

// NewJupiterTokenClient builds a metadata client. An empty base falls back to
// the public endpoint.
func NewJupiterTokenClient(base string, log *logrus.Logger) *JupiterTokenClient {
	if base == "" {
		base = jupiterTokenDefaultBase
	}
	if log == nil {
		log = logrus.New()
	}
	return &JupiterTokenClient{
		base:  base,
		http:  newHTTP(),
		log:   log,
		cache: make(map[string]*txanalysis.TokenMetadata),
	}
}

type jupiterTokenResponse struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// GetTokenMetadata implements txanalysis.TokenMetadataProvider. A mint that
// isn't valid base58 returns (nil, nil) so garbage in balance rows degrades
// instead of burning an HTTP round trip.
func (j *JupiterTokenClient) GetTokenMetadata(ctx context.Context, mint string) (*txanalysis.TokenMetadata, error) {
	if _, err := base58.Decode(mint); err != nil || mint == "" {
		return nil, nil
	}

	j.mu.RLock()
	cached, ok := j.cache[mint]
	j.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var body jupiterTokenResponse
	endpoint := j.base + "/" + url.PathEscape(mint)
	if err := j.http.getJSON(ctx, endpoint, nil, &body); err != nil {
		return nil, fmt.Errorf("jupiter token lookup %s: %w", mint, err)
	}
	if body.Symbol == "" && body.Name == "" {
		return nil, nil
	}

	md := &txanalysis.TokenMetadata{
		Symbol:   body.Symbol,
		Name:     body.Name,
		LogoURI:  body.LogoURI,
		Decimals: body.Decimals,
	}

	j.mu.Lock()
	j.cache[mint] = md
	j.mu.Unlock()
	return md, nil
}
