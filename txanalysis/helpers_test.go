package txanalysis

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Function adapters so tests can stub providers inline.
type metadataFunc func(ctx context.Context, mint string) (*TokenMetadata, error)

func (f metadataFunc) GetTokenMetadata(ctx context.Context, mint string) (*TokenMetadata, error) {
	return f(ctx, mint)
}

type priceFunc func(ctx context.Context, mint string, unixSeconds int64) (*PricePoint, error)

func (f priceFunc) ResolvePriceAt(ctx context.Context, mint string, unixSeconds int64) (*PricePoint, error) {
	return f(ctx, mint, unixSeconds)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestAnalyzer(md TokenMetadataProvider, pr PriceResolver) *Analyzer {
	return NewAnalyzer(nil, md, pr, quietLogger())
}
