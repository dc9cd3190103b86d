package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_WeightedPriceWithLogFence_FiltersOutliers(t *testing.T) {
	values := []float64{1.0, 1.05, 50.0} // last one is a fat-fingered print
	weights := []float64{1, 1, 1}

	price, kept, sumW, ok := WeightedPriceWithLogFence(values, weights, 1.5, 0)
	require.True(t, ok)
	require.Equal(t, 2, kept)
	require.InDelta(t, 2.0, sumW, 1e-12)
	require.InDelta(t, 1.025, price, 1e-9)
}

func Test_WeightedPriceWithLogFence_Weighting(t *testing.T) {
	price, kept, _, ok := WeightedPriceWithLogFence([]float64{1.0, 2.0}, []float64{3, 1}, 3.0, 0)
	require.True(t, ok)
	require.Equal(t, 2, kept)
	require.InDelta(t, 1.25, price, 1e-9) // (3*1 + 1*2) / 4
}

func Test_WeightedPriceWithLogFence_DustFilter(t *testing.T) {
	price, kept, _, ok := WeightedPriceWithLogFence([]float64{1.0, 100.0}, []float64{1, 0.001}, 1.5, 0.01)
	require.True(t, ok)
	require.Equal(t, 1, kept)
	require.InDelta(t, 1.0, price, 1e-12)
}

func Test_WeightedPriceWithLogFence_Degenerate(t *testing.T) {
	_, _, _, ok := WeightedPriceWithLogFence(nil, nil, 1.5, 0)
	require.False(t, ok)

	_, _, _, ok = WeightedPriceWithLogFence([]float64{1}, []float64{1, 2}, 1.5, 0)
	require.False(t, ok)

	// Fence ratio must be > 1.
	_, _, _, ok = WeightedPriceWithLogFence([]float64{1}, []float64{1}, 1.0, 0)
	require.False(t, ok)

	// All observations non-positive.
	_, _, _, ok = WeightedPriceWithLogFence([]float64{-1, 0}, []float64{1, 1}, 1.5, 0)
	require.False(t, ok)
}
