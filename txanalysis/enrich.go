package txanalysis

import (
	"context"
	"sync"
)

// TokenMetadata is the display information attached to a mint.
type TokenMetadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	LogoURI  string `json:"logoURI,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// PricePoint is a resolved historical price for one mint.
type PricePoint struct {
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// TokenMetadataProvider resolves symbol/name/logo for a mint. Implementations
// must tolerate unknown or garbage addresses; returning (nil, nil) means "no
// data" and is treated the same as an error by the core.
type TokenMetadataProvider interface {
	GetTokenMetadata(ctx context.Context, mint string) (*TokenMetadata, error)
}

// PriceResolver resolves a USD price for a mint at a point in time. A nil
// point without error means no source could quote the mint.
type PriceResolver interface {
	ResolvePriceAt(ctx context.Context, mint string, unixSeconds int64) (*PricePoint, error)
}

func degradedMetadata() TokenMetadata {
	return TokenMetadata{Symbol: "UNKNOWN", Name: "Unknown Token"}
}

// fetchMetadataBatch looks up every mint concurrently and joins before
// returning. Lookups are independent per mint; any failure (error, nil
// result, panic in the provider) degrades that mint to placeholder metadata
// instead of failing the reconstruction.
func (a *Analyzer) fetchMetadataBatch(ctx context.Context, mints map[string]struct{}) map[string]TokenMetadata {
	out := make(map[string]TokenMetadata, len(mints))
	if a.metadata == nil {
		for mint := range mints {
			out[mint] = degradedMetadata()
		}
		return out
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for mint := range mints {
		wg.Add(1)
		go func(mint string) {
			defer wg.Done()
			md := a.lookupTokenMetadata(ctx, mint)
			mu.Lock()
			out[mint] = md
			mu.Unlock()
		}(mint)
	}
	wg.Wait()
	return out
}

func (a *Analyzer) lookupTokenMetadata(ctx context.Context, mint string) (md TokenMetadata) {
	md = degradedMetadata()
	defer func() {
		if r := recover(); r != nil {
			a.log.Warnf("token metadata provider panicked for mint %s: %v", mint, r)
			md = degradedMetadata()
		}
	}()
	got, err := a.metadata.GetTokenMetadata(ctx, mint)
	if err != nil {
		a.log.Debugf("token metadata lookup failed for mint %s: %v", mint, err)
		return md
	}
	if got == nil {
		return md
	}
	return *got
}
