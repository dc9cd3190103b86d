package txanalysis

import (
	"context"
	"math"
)

const (
	lamportsPerSOL = 1e9

	// Materiality thresholds. Absolute, not relative: the point is filtering
	// dust and float rounding, not proportional noise. Native uses a higher
	// floor so pure fee debits never show up as activity.
	nativeChangeThreshold = 5e-6
	tokenChangeThreshold  = 1e-6
)

// NativeBalanceChange is a signed SOL balance delta for one account index.
type NativeBalanceChange struct {
	AccountIndex int     `json:"accountIndex"`
	Change       float64 `json:"change"`
	PreBalance   float64 `json:"preBalance"`
	PostBalance  float64 `json:"postBalance"`
}

// TokenBalanceChange is a signed token balance delta in ui units, enriched
// with metadata and, when a price resolver is configured, a USD valuation.
type TokenBalanceChange struct {
	Mint        string   `json:"mint"`
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	LogoURI     string   `json:"logoURI,omitempty"`
	OwnerIndex  int      `json:"ownerIndex"`
	Owner       string   `json:"owner,omitempty"`
	Change      float64  `json:"change"`
	PreBalance  float64  `json:"preBalance"`
	PostBalance float64  `json:"postBalance"`
	PriceUSD    *float64 `json:"priceUsd,omitempty"`
	ValueUSD    *float64 `json:"valueUsd,omitempty"`
	PriceSource string   `json:"priceSource,omitempty"`
}

// FinancialActivity is the reconstructed net effect of one transaction.
// It is derived fresh per transaction and never cached: balances are
// transaction-scoped.
type FinancialActivity struct {
	TokenChanges []TokenBalanceChange  `json:"tokenChanges"`
	SolChanges   []NativeBalanceChange `json:"solChanges"`
	Fee          float64               `json:"fee"`
}

// ReconstructFinancialActivity diffs the pre/post balance snapshots into a
// normalized list of material balance changes.
//
// Token side: post rows are matched against pre rows by (accountIndex, mint);
// matched pre rows are consumed, and any pre row left unconsumed is a token
// account that dropped to zero and vanished from the post snapshot, emitted
// as a full negative change. Native side: lamports are compared index by
// index over the shorter of the two arrays.
func (a *Analyzer) ReconstructFinancialActivity(ctx context.Context, rec *TransactionRecord) *FinancialActivity {
	activity := &FinancialActivity{
		TokenChanges: []TokenBalanceChange{},
		SolChanges:   []NativeBalanceChange{},
	}
	if rec == nil || rec.Meta == nil {
		return activity
	}
	meta := rec.Meta
	activity.Fee = float64(meta.FeeLamports) / lamportsPerSOL

	type balanceKey struct {
		accountIndex int
		mint         string
	}
	pre := make(map[balanceKey]TokenBalance, len(meta.PreTokenBalances))
	for _, b := range meta.PreTokenBalances {
		pre[balanceKey{b.AccountIndex, b.Mint}] = b
	}

	for _, post := range meta.PostTokenBalances {
		key := balanceKey{post.AccountIndex, post.Mint}
		var preAmount float64
		if preRow, ok := pre[key]; ok {
			preAmount = preRow.UIAmount
			delete(pre, key)
		}
		diff := post.UIAmount - preAmount
		if math.Abs(diff) <= tokenChangeThreshold {
			continue
		}
		activity.TokenChanges = append(activity.TokenChanges, TokenBalanceChange{
			Mint:        post.Mint,
			OwnerIndex:  post.AccountIndex,
			Owner:       post.Owner,
			Change:      diff,
			PreBalance:  preAmount,
			PostBalance: post.UIAmount,
		})
	}

	// Unconsumed pre rows: balance went to zero and the account disappeared.
	// Walk the original slice, not the map, so emission order is stable.
	for _, preRow := range meta.PreTokenBalances {
		key := balanceKey{preRow.AccountIndex, preRow.Mint}
		if _, ok := pre[key]; !ok {
			continue
		}
		delete(pre, key)
		if preRow.UIAmount <= tokenChangeThreshold {
			continue
		}
		activity.TokenChanges = append(activity.TokenChanges, TokenBalanceChange{
			Mint:        preRow.Mint,
			OwnerIndex:  preRow.AccountIndex,
			Owner:       preRow.Owner,
			Change:      -preRow.UIAmount,
			PreBalance:  preRow.UIAmount,
			PostBalance: 0,
		})
	}

	a.enrichTokenChanges(ctx, rec, activity)

	n := len(meta.PreBalances)
	if len(meta.PostBalances) < n {
		n = len(meta.PostBalances)
	}
	for i := 0; i < n; i++ {
		preSOL := float64(meta.PreBalances[i]) / lamportsPerSOL
		postSOL := float64(meta.PostBalances[i]) / lamportsPerSOL
		diff := postSOL - preSOL
		if math.Abs(diff) <= nativeChangeThreshold {
			continue
		}
		activity.SolChanges = append(activity.SolChanges, NativeBalanceChange{
			AccountIndex: i,
			Change:       diff,
			PreBalance:   preSOL,
			PostBalance:  postSOL,
		})
	}

	return activity
}

// enrichTokenChanges attaches metadata (fanned out per distinct mint) and,
// when possible, a USD valuation at the transaction's block time.
func (a *Analyzer) enrichTokenChanges(ctx context.Context, rec *TransactionRecord, activity *FinancialActivity) {
	if len(activity.TokenChanges) == 0 {
		return
	}

	mints := make(map[string]struct{}, len(activity.TokenChanges))
	for _, tc := range activity.TokenChanges {
		mints[tc.Mint] = struct{}{}
	}
	metadata := a.fetchMetadataBatch(ctx, mints)

	prices := make(map[string]*PricePoint, len(mints))
	if a.prices != nil && rec.BlockTime > 0 {
		for mint := range mints {
			point, err := a.prices.ResolvePriceAt(ctx, mint, rec.BlockTime)
			if err != nil {
				a.log.Debugf("price lookup failed for mint %s: %v", mint, err)
				continue
			}
			prices[mint] = point
		}
	}

	for i := range activity.TokenChanges {
		tc := &activity.TokenChanges[i]
		md := metadata[tc.Mint]
		tc.Symbol = md.Symbol
		tc.Name = md.Name
		tc.LogoURI = md.LogoURI
		if point := prices[tc.Mint]; point != nil && point.Price > 0 {
			price := point.Price
			value := math.Abs(tc.Change) * price
			tc.PriceUSD = &price
			tc.ValueUSD = &value
			tc.PriceSource = point.Source
		}
	}
}
